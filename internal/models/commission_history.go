package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const CommissionSourceTaskCompletion = "task_completion"

// CommissionHistory is the append-only log of credited commissions. The unique
// booking_id makes a booking's commission creditable once.
type CommissionHistory struct {
	ID        uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID   uint            `gorm:"column:agent_id;not null;index" json:"agent_id"`
	BookingID uint            `gorm:"column:booking_id;not null;uniqueIndex" json:"booking_id"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Source    string          `gorm:"column:source;size:50;not null" json:"source"`
	CreatedAt time.Time       `gorm:"column:created;autoCreateTime" json:"created"`
}

func (CommissionHistory) TableName() string {
	return "commission_history"
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalPending  = "pending"
	WithdrawalApproved = "approved"
	WithdrawalRejected = "rejected"
)

type WithdrawalRequest struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID          uint            `gorm:"column:agent_id;not null;index" json:"agent_id"`
	Amount           decimal.Decimal `gorm:"column:amount;type:decimal(12,2);not null" json:"amount"`
	Status           string          `gorm:"column:status;size:20;not null;default:pending;index" json:"status"`
	RequestedDate    time.Time       `gorm:"column:requested_date" json:"requested_date"`
	ApprovedDate     *time.Time      `gorm:"column:approved_date" json:"approved_date"`
	RejectedDate     *time.Time      `gorm:"column:rejected_date" json:"rejected_date"`
	Remarks          string          `gorm:"column:remarks;type:text" json:"remarks"`
	PaymentReference string          `gorm:"column:payment_reference;size:100" json:"payment_reference"`
	ProcessedBy      string          `gorm:"column:processed_by;size:150" json:"processed_by"`
	IdempotencyKey   *string         `gorm:"column:idempotency_key;size:100;uniqueIndex" json:"-"`
	CreatedAt        time.Time       `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt        time.Time       `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}

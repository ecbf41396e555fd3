package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Wallet struct {
	ID             uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	AgentID        uint            `gorm:"column:agent_id;not null;uniqueIndex" json:"agent_id"`
	TotalEarnings  decimal.Decimal `gorm:"column:total_earnings;type:decimal(12,2);not null;default:0" json:"total_earnings"`
	TotalWithdrawn decimal.Decimal `gorm:"column:total_withdrawn;type:decimal(12,2);not null;default:0" json:"total_withdrawn"`
	CurrentBalance decimal.Decimal `gorm:"column:current_balance;type:decimal(12,2);not null;default:0" json:"current_balance"`
	CreatedAt      time.Time       `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt      time.Time       `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (Wallet) TableName() string {
	return "wallets"
}

// Consistent reports whether current_balance equals earnings minus withdrawals.
func (w Wallet) Consistent() bool {
	return w.CurrentBalance.Equal(w.TotalEarnings.Sub(w.TotalWithdrawn))
}

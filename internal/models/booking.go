package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PujaStatusPending = "pending"

	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// BookingHistory is a devotee's puja booking. Its ID is the booking_id
// referenced by assigned tasks and commissions.
type BookingHistory struct {
	ID               uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserName         string          `gorm:"column:user_name;size:150;not null" json:"user_name"`
	UserEmail        string          `gorm:"column:user_email;size:191" json:"user_email"`
	UserPhone        string          `gorm:"column:user_phone;size:20;not null" json:"user_phone"`
	PujaName         string          `gorm:"column:puja_name;size:200;not null" json:"puja_name"`
	TempleName       string          `gorm:"column:temple_name;size:200" json:"temple_name"`
	BookingDate      string          `gorm:"column:booking_date;size:10;not null" json:"booking_date"`
	TotalAmount      decimal.Decimal `gorm:"column:total_amount;type:decimal(12,2);not null" json:"total_amount"`
	AgentID          *uint           `gorm:"column:agent_id;index" json:"agent_id"`
	PujaStatus       string          `gorm:"column:puja_status;size:20;default:pending;index" json:"puja_status"`
	PaymentStatus    string          `gorm:"column:payment_status;size:20;default:pending;index" json:"payment_status"`
	OrderID          *string         `gorm:"column:order_id;size:64;uniqueIndex" json:"order_id"`
	CfOrderID        string          `gorm:"column:cf_order_id;size:64" json:"cf_order_id"`
	PaymentSessionID string          `gorm:"column:payment_session_id;size:255" json:"payment_session_id"`
	CreatedAt        time.Time       `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt        time.Time       `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (BookingHistory) TableName() string {
	return "booking_history"
}

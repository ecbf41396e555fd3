package models

import (
	"time"
)

// CallbackLog records every inbound payment gateway webhook, verified or not.
type CallbackLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider  string    `gorm:"column:provider;size:50;not null" json:"provider"`
	EventType string    `gorm:"column:event_type;size:100" json:"event_type"`
	OrderID   string    `gorm:"column:order_id;size:64;index" json:"order_id"`
	Request   string    `gorm:"column:request;type:text" json:"request"`
	Response  string    `gorm:"column:response;type:text" json:"response"`
	Verified  bool      `gorm:"column:verified;default:false" json:"verified"`
	CreatedAt time.Time `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt time.Time `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (CallbackLog) TableName() string {
	return "callback_logs"
}

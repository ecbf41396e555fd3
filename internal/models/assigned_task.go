package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TaskStatusAssigned   = "assigned"
	TaskStatusStarted    = "started"
	TaskStatusReassigned = "reassigned"
	TaskStatusCompleted  = "completed"
)

// AssignedTask links a booking to the agent performing it. booking_id is unique:
// a booking has at most one assignment row.
type AssignedTask struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	BookingID       uint            `gorm:"column:booking_id;not null;uniqueIndex" json:"booking_id"`
	AgentID         uint            `gorm:"column:agent_id;not null;index" json:"agent_id"`
	TaskStatus      string          `gorm:"column:task_status;size:20;not null;index" json:"task_status"`
	AgentCommission decimal.Decimal `gorm:"column:agent_commission;type:decimal(12,2);not null" json:"agent_commission"`
	AssignedAt      time.Time       `gorm:"column:assigned_at" json:"assigned_at"`
	StartedAt       *time.Time      `gorm:"column:started_at" json:"started_at"`
	CompletedAt     *time.Time      `gorm:"column:completed_at" json:"completed_at"`
	CreatedAt       time.Time       `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt       time.Time       `gorm:"column:updated;autoUpdateTime" json:"updated"`
}

func (AssignedTask) TableName() string {
	return "assigned_tasks"
}

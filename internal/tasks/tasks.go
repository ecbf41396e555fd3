// Package tasks defines the background task types shared by the API, which
// enqueues them, and the worker, which consumes them.
package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeWithdrawalNotify = "withdrawal:notify"
	TypePanchangamSync   = "panchangam:sync"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Withdrawal events carried by TypeWithdrawalNotify.
const (
	EventRequested = "requested"
	EventApproved  = "approved"
	EventRejected  = "rejected"
)

type WithdrawalNotifyPayload struct {
	WithdrawalID uint   `json:"withdrawal_id"`
	Event        string `json:"event"`
}

type PanchangamSyncPayload struct {
	Date string `json:"date"` // YYYY-MM-DD, empty means today
}

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

func NewWithdrawalNotifyTask(payload WithdrawalNotifyPayload) (*asynq.Task, error) {
	if payload.WithdrawalID == 0 || payload.Event == "" {
		return nil, fmt.Errorf("withdrawal notify task needs an id and an event")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWithdrawalNotify, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

func NewPanchangamSyncTask(payload PanchangamSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypePanchangamSync, data, asynq.Queue(QueueLow), asynq.MaxRetry(3)), nil
}

func ParseWithdrawalNotify(t *asynq.Task) (WithdrawalNotifyPayload, error) {
	var p WithdrawalNotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	if p.WithdrawalID == 0 {
		return p, fmt.Errorf("withdrawal_id missing: %w", asynq.SkipRetry)
	}
	return p, nil
}

func ParsePanchangamSync(t *asynq.Task) (PanchangamSyncPayload, error) {
	var p PanchangamSyncPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	return p, nil
}

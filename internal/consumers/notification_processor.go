package consumers

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"puja-service/internal/models"
	"puja-service/internal/services"
	"puja-service/internal/tasks"
)

// ErrBadPayload marks a task that can never succeed and should not be retried.
var ErrBadPayload = errors.New("bad task payload")

// Syncer is the part of the panchangam service the worker drives.
type Syncer interface {
	SyncDaily(ctx context.Context, now time.Time) (services.SyncReport, error)
}

type NotificationProcessor struct {
	DB         *gorm.DB
	Mailer     services.Mailer
	Panchangam Syncer
	Location   *time.Location
}

func NewNotificationProcessor(db *gorm.DB, mailer services.Mailer, panchangam Syncer, loc *time.Location) *NotificationProcessor {
	if loc == nil {
		loc = time.Local
	}
	return &NotificationProcessor{DB: db, Mailer: mailer, Panchangam: panchangam, Location: loc}
}

// ProcessWithdrawalNotify e-mails the agent about a withdrawal event.
func (p *NotificationProcessor) ProcessWithdrawalNotify(ctx context.Context, data tasks.WithdrawalNotifyPayload) error {
	var req models.WithdrawalRequest
	if err := p.DB.WithContext(ctx).First(&req, data.WithdrawalID).Error; err != nil {
		return fmt.Errorf("load withdrawal %d: %w", data.WithdrawalID, err)
	}

	var agent models.Agent
	if err := p.DB.WithContext(ctx).Unscoped().First(&agent, req.AgentID).Error; err != nil {
		return fmt.Errorf("load agent %d: %w", req.AgentID, err)
	}

	subject, body, err := withdrawalMessage(data.Event, agent, req)
	if err != nil {
		return err
	}

	if err := p.Mailer.Send(agent.Email, subject, body); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"withdrawal_id": req.ID,
		"agent_id":      agent.ID,
		"event":         data.Event,
	}).Info("Withdrawal notification processed")
	return nil
}

func withdrawalMessage(event string, agent models.Agent, req models.WithdrawalRequest) (string, string, error) {
	amount := req.Amount.StringFixed(2)
	greeting := fmt.Sprintf("Namaste %s,\n\n", agent.Name)

	switch event {
	case tasks.EventRequested:
		return fmt.Sprintf("Withdrawal request #%d received", req.ID),
			greeting + fmt.Sprintf("We received your withdrawal request of Rs. %s. It is pending review.\n", amount), nil
	case tasks.EventApproved:
		body := greeting + fmt.Sprintf("Your withdrawal request of Rs. %s has been approved.\n", amount)
		if req.PaymentReference != "" {
			body += fmt.Sprintf("Payment reference: %s\n", req.PaymentReference)
		}
		return fmt.Sprintf("Withdrawal request #%d approved", req.ID), body, nil
	case tasks.EventRejected:
		body := greeting + fmt.Sprintf("Your withdrawal request of Rs. %s has been rejected.\n", amount)
		if req.Remarks != "" {
			body += fmt.Sprintf("Remarks: %s\n", req.Remarks)
		}
		return fmt.Sprintf("Withdrawal request #%d rejected", req.ID), body, nil
	}
	return "", "", fmt.Errorf("unknown withdrawal event %q: %w", event, ErrBadPayload)
}

// ProcessPanchangamSync runs the daily cache sync for the payload date.
func (p *NotificationProcessor) ProcessPanchangamSync(ctx context.Context, data tasks.PanchangamSyncPayload) (services.SyncReport, error) {
	now := time.Now().In(p.Location)
	if data.Date != "" {
		day, err := time.ParseInLocation(time.DateOnly, data.Date, p.Location)
		if err != nil {
			return services.SyncReport{}, fmt.Errorf("invalid date %q: %v: %w", data.Date, err, ErrBadPayload)
		}
		now = day
	}
	return p.Panchangam.SyncDaily(ctx, now)
}

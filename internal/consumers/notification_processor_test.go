package consumers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"puja-service/internal/database"
	"puja-service/internal/models"
	"puja-service/internal/services"
	"puja-service/internal/tasks"
)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to, subject, body})
	return nil
}

type fakeSyncer struct {
	days []time.Time
}

func (s *fakeSyncer) SyncDaily(ctx context.Context, now time.Time) (services.SyncReport, error) {
	s.days = append(s.days, now)
	return services.SyncReport{Fetched: []string{"tithi/" + now.Format(time.DateOnly)}}, nil
}

func newProcessor(t *testing.T) (*NotificationProcessor, *gorm.DB, *fakeMailer, *fakeSyncer) {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	mailer := &fakeMailer{}
	syncer := &fakeSyncer{}
	loc := time.FixedZone("IST", 19800)
	return NewNotificationProcessor(db, mailer, syncer, loc), db, mailer, syncer
}

func seedWithdrawal(t *testing.T, db *gorm.DB) models.WithdrawalRequest {
	t.Helper()
	agent := models.Agent{Name: "Suresh", Email: "suresh@example.com", Phone: "9000000009", PasswordHash: "x"}
	require.NoError(t, db.Create(&agent).Error)
	req := models.WithdrawalRequest{
		AgentID:          agent.ID,
		Amount:           decimal.RequireFromString("250.5"),
		Status:           models.WithdrawalApproved,
		RequestedDate:    time.Now(),
		PaymentReference: "UTR998877",
	}
	require.NoError(t, db.Create(&req).Error)
	return req
}

func TestProcessWithdrawalNotify(t *testing.T) {
	p, db, mailer, _ := newProcessor(t)
	req := seedWithdrawal(t, db)

	err := p.ProcessWithdrawalNotify(context.Background(), tasks.WithdrawalNotifyPayload{WithdrawalID: req.ID, Event: tasks.EventApproved})
	require.NoError(t, err)

	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "suresh@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].subject, "approved")
	assert.Contains(t, mailer.sent[0].body, "Rs. 250.50")
	assert.Contains(t, mailer.sent[0].body, "UTR998877")
}

func TestProcessWithdrawalNotifyReachesDeletedAgents(t *testing.T) {
	p, db, mailer, _ := newProcessor(t)
	req := seedWithdrawal(t, db)
	require.NoError(t, db.Delete(&models.Agent{}, req.AgentID).Error)

	require.NoError(t, p.ProcessWithdrawalNotify(context.Background(), tasks.WithdrawalNotifyPayload{WithdrawalID: req.ID, Event: tasks.EventRequested}))
	assert.Len(t, mailer.sent, 1)
}

func TestProcessWithdrawalNotifyErrors(t *testing.T) {
	p, db, mailer, _ := newProcessor(t)
	req := seedWithdrawal(t, db)

	err := p.ProcessWithdrawalNotify(context.Background(), tasks.WithdrawalNotifyPayload{WithdrawalID: 999, Event: tasks.EventApproved})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	err = p.ProcessWithdrawalNotify(context.Background(), tasks.WithdrawalNotifyPayload{WithdrawalID: req.ID, Event: "paid"})
	assert.ErrorIs(t, err, ErrBadPayload)

	mailer.err = errors.New("smtp down")
	err = p.ProcessWithdrawalNotify(context.Background(), tasks.WithdrawalNotifyPayload{WithdrawalID: req.ID, Event: tasks.EventRejected})
	assert.EqualError(t, err, "smtp down")
}

func TestProcessPanchangamSync(t *testing.T) {
	p, _, _, syncer := newProcessor(t)

	report, err := p.ProcessPanchangamSync(context.Background(), tasks.PanchangamSyncPayload{Date: "2025-05-01"})
	require.NoError(t, err)
	assert.Equal(t, []string{"tithi/2025-05-01"}, report.Fetched)
	require.Len(t, syncer.days, 1)
	assert.Equal(t, p.Location, syncer.days[0].Location())

	_, err = p.ProcessPanchangamSync(context.Background(), tasks.PanchangamSyncPayload{})
	require.NoError(t, err)
	assert.Len(t, syncer.days, 2)

	_, err = p.ProcessPanchangamSync(context.Background(), tasks.PanchangamSyncPayload{Date: "01/05/2025"})
	assert.ErrorIs(t, err, ErrBadPayload)
	assert.Len(t, syncer.days, 2)
}

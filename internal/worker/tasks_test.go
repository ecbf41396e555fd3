package worker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-service/internal/config"
	"puja-service/internal/consumers"
	"puja-service/internal/database"
	"puja-service/internal/models"
	"puja-service/internal/services"
	"puja-service/internal/tasks"
)

type stubSyncer struct {
	err   error
	calls int
}

func (s *stubSyncer) SyncDaily(ctx context.Context, now time.Time) (services.SyncReport, error) {
	s.calls++
	return services.SyncReport{Errors: []services.SyncError{{FactType: "yoga", Date: now.Format(time.DateOnly), Error: "timeout"}}}, s.err
}

func newTestWorker(t *testing.T) (*Worker, *stubSyncer, *consumers.NotificationProcessor) {
	t.Helper()
	db, err := database.OpenMemory(strings.ReplaceAll(t.Name(), "/", "_"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	syncer := &stubSyncer{}
	processor := consumers.NewNotificationProcessor(db, services.NewMailService(&config.Config{}), syncer, time.UTC)
	return NewWorker(processor), syncer, processor
}

func TestHandleWithdrawalNotify(t *testing.T) {
	w, _, p := newTestWorker(t)

	agent := models.Agent{Name: "Lakshmi", Email: "lakshmi@example.com", Phone: "9000000010", PasswordHash: "x"}
	require.NoError(t, p.DB.Create(&agent).Error)
	req := models.WithdrawalRequest{AgentID: agent.ID, Amount: decimal.NewFromInt(40), Status: models.WithdrawalPending, RequestedDate: time.Now()}
	require.NoError(t, p.DB.Create(&req).Error)

	task, err := tasks.NewWithdrawalNotifyTask(tasks.WithdrawalNotifyPayload{WithdrawalID: req.ID, Event: tasks.EventRequested})
	require.NoError(t, err)
	assert.NoError(t, w.HandleWithdrawalNotify(context.Background(), task))
}

func TestHandleWithdrawalNotifySkipsRetryForMissingRows(t *testing.T) {
	w, _, _ := newTestWorker(t)

	task, err := tasks.NewWithdrawalNotifyTask(tasks.WithdrawalNotifyPayload{WithdrawalID: 404, Event: tasks.EventApproved})
	require.NoError(t, err)
	assert.ErrorIs(t, w.HandleWithdrawalNotify(context.Background(), task), asynq.SkipRetry)

	bad := asynq.NewTask(tasks.TypeWithdrawalNotify, []byte("{"))
	assert.ErrorIs(t, w.HandleWithdrawalNotify(context.Background(), bad), asynq.SkipRetry)
}

func TestHandlePanchangamSync(t *testing.T) {
	w, syncer, _ := newTestWorker(t)

	task, err := tasks.NewPanchangamSyncTask(tasks.PanchangamSyncPayload{Date: "2025-06-01"})
	require.NoError(t, err)
	assert.NoError(t, w.HandlePanchangamSync(context.Background(), task), "per-fact errors are reported, not retried")
	assert.Equal(t, 1, syncer.calls)

	syncer.err = errors.New("database is locked")
	err = w.HandlePanchangamSync(context.Background(), task)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)

	bad, err := tasks.NewPanchangamSyncTask(tasks.PanchangamSyncPayload{Date: "June 1"})
	require.NoError(t, err)
	assert.ErrorIs(t, w.HandlePanchangamSync(context.Background(), bad), asynq.SkipRetry)
	assert.Equal(t, 2, syncer.calls)
}

func TestNewServeMuxRoutesTaskTypes(t *testing.T) {
	_, syncer, p := newTestWorker(t)
	mux := NewServeMux(p)

	task, err := tasks.NewPanchangamSyncTask(tasks.PanchangamSyncPayload{})
	require.NoError(t, err)
	require.NoError(t, mux.ProcessTask(context.Background(), task))
	assert.Equal(t, 1, syncer.calls)

	assert.Error(t, mux.ProcessTask(context.Background(), asynq.NewTask("unknown:type", nil)))
}

package services

import (
	"strings"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"puja-service/internal/database"
	"puja-service/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenMemory(name)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedAgent(t *testing.T, db *gorm.DB, email string) models.Agent {
	t.Helper()
	agent := models.Agent{
		Name:               "Agent " + email,
		Email:              email,
		Phone:              email,
		PasswordHash:       "x",
		VerificationStatus: models.VerificationVerified,
		AvailableStatus:    models.AvailabilityAvailable,
	}
	require.NoError(t, db.Create(&agent).Error)
	return agent
}

func seedBooking(t *testing.T, db *gorm.DB, total string) models.BookingHistory {
	t.Helper()
	booking := models.BookingHistory{
		UserName:      "Devotee",
		UserPhone:     "9999999999",
		PujaName:      "Satyanarayana Puja",
		BookingDate:   "2025-01-15",
		TotalAmount:   decimal.RequireFromString(total),
		PujaStatus:    models.PujaStatusPending,
		PaymentStatus: models.PaymentStatusPaid,
	}
	require.NoError(t, db.Create(&booking).Error)
	return booking
}

func seedWallet(t *testing.T, db *gorm.DB, agentID uint, balance string) {
	t.Helper()
	amount := decimal.RequireFromString(balance)
	require.NoError(t, db.Create(&models.Wallet{
		AgentID:        agentID,
		TotalEarnings:  amount,
		CurrentBalance: amount,
	}).Error)
}

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal, label string) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "%s: expected %s, got %s", label, expected, actual.String())
}

func assertWallet(t *testing.T, svc *WalletService, agentID uint, earnings, withdrawn, balance string) {
	t.Helper()
	wallet, err := svc.Get(agentID)
	require.NoError(t, err)
	assertDecimal(t, earnings, wallet.TotalEarnings, "total_earnings")
	assertDecimal(t, withdrawn, wallet.TotalWithdrawn, "total_withdrawn")
	assertDecimal(t, balance, wallet.CurrentBalance, "current_balance")
	assert.True(t, wallet.Consistent())
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks []*asynq.Task
}

func (q *fakeQueue) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
	return &asynq.TaskInfo{ID: "test", Type: task.Type()}, nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

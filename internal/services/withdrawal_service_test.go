package services

import (
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puja-service/internal/models"
	"puja-service/internal/tasks"
)

func newWithdrawalService(t *testing.T) (*WithdrawalService, *fakeQueue) {
	db := newTestDB(t)
	queue := &fakeQueue{}
	return NewWithdrawalService(db, NewWalletService(db), queue), queue
}

func requestAmount(t *testing.T, svc *WithdrawalService, agentID uint, amount int64) models.WithdrawalRequest {
	t.Helper()
	req, created, err := svc.Request(WithdrawRequestDTO{AgentID: agentID, Amount: decimal.NewFromInt(amount)})
	require.NoError(t, err)
	require.True(t, created)
	return req
}

func TestLedgerScenario(t *testing.T) {
	db := newTestDB(t)
	wallet := NewWalletService(db)
	taskSvc := NewTaskService(db, wallet)
	svc := NewWithdrawalService(db, wallet, nil)

	agent := seedAgent(t, db, "scenario@test.in")
	booking := seedBooking(t, db, "1500")
	assertWallet(t, wallet, agent.ID, "0", "0", "0")

	_, err := taskSvc.Assign(AssignTaskDTO{BookingID: booking.ID, AgentID: agent.ID})
	require.NoError(t, err)
	_, err = taskSvc.UpdateStatus(UpdateTaskStatusDTO{BookingID: booking.ID, AgentID: agent.ID, Status: models.TaskStatusStarted})
	require.NoError(t, err)
	_, err = taskSvc.UpdateStatus(UpdateTaskStatusDTO{BookingID: booking.ID, AgentID: agent.ID, Status: models.TaskStatusCompleted})
	require.NoError(t, err)
	assertWallet(t, wallet, agent.ID, "150", "0", "150")

	req := requestAmount(t, svc, agent.ID, 100)
	approved, err := svc.Approve(req.ID, ProcessWithdrawalDTO{ProcessedBy: "admin"})
	require.NoError(t, err)
	assert.Len(t, approved.PaymentReference, 12)
	assertWallet(t, wallet, agent.ID, "150", "100", "50")

	_, _, err = svc.Request(WithdrawRequestDTO{AgentID: agent.ID, Amount: decimal.NewFromInt(75)})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	var count int64
	db.Model(&models.WithdrawalRequest{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestRequestValidation(t *testing.T) {
	svc, queue := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "v@test.in")

	_, _, err := svc.Request(WithdrawRequestDTO{AgentID: agent.ID, Amount: decimal.Zero})
	assert.True(t, errors.Is(err, ErrValidation))

	_, _, err = svc.Request(WithdrawRequestDTO{AgentID: agent.ID, Amount: decimal.NewFromInt(10)})
	assert.True(t, errors.Is(err, ErrInsufficientBalance), "no wallet yet")
	assert.Zero(t, queue.count())
}

func TestRequestReservesPendingAmounts(t *testing.T) {
	svc, _ := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "p@test.in")
	seedWallet(t, svc.DB, agent.ID, "150")

	requestAmount(t, svc, agent.ID, 100)

	_, _, err := svc.Request(WithdrawRequestDTO{AgentID: agent.ID, Amount: decimal.NewFromInt(75)})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	requestAmount(t, svc, agent.ID, 50)
}

func TestRequestIdempotencyKey(t *testing.T) {
	svc, queue := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "i@test.in")
	other := seedAgent(t, svc.DB, "o@test.in")
	seedWallet(t, svc.DB, agent.ID, "150")
	seedWallet(t, svc.DB, other.ID, "150")

	dto := WithdrawRequestDTO{AgentID: agent.ID, Amount: decimal.NewFromInt(100), IdempotencyKey: "key-1"}
	first, created, err := svc.Request(dto)
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := svc.Request(dto)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	_, _, err = svc.Request(WithdrawRequestDTO{AgentID: other.ID, Amount: decimal.NewFromInt(10), IdempotencyKey: "key-1"})
	assert.True(t, errors.Is(err, ErrConflict))

	var count int64
	svc.DB.Model(&models.WithdrawalRequest{}).Count(&count)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 1, queue.count())
}

func TestApproveTwiceFails(t *testing.T) {
	svc, queue := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "twice@test.in")
	seedWallet(t, svc.DB, agent.ID, "150")
	req := requestAmount(t, svc, agent.ID, 100)

	approved, err := svc.Approve(req.ID, ProcessWithdrawalDTO{ProcessedBy: "admin", PaymentReference: "UTR123"})
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedDate)
	assert.Equal(t, "UTR123", approved.PaymentReference)

	_, err = svc.Approve(req.ID, ProcessWithdrawalDTO{ProcessedBy: "admin"})
	assert.True(t, errors.Is(err, ErrWithdrawalProcessed))
	_, err = svc.Reject(req.ID, ProcessWithdrawalDTO{ProcessedBy: "admin"})
	assert.True(t, errors.Is(err, ErrWithdrawalProcessed))

	assertWallet(t, svc.Wallet, agent.ID, "150", "100", "50")
	assert.Equal(t, 2, queue.count())
	assert.Equal(t, tasks.TypeWithdrawalNotify, queue.tasks[1].Type())
}

func TestApproveMissingRequest(t *testing.T) {
	svc, _ := newWithdrawalService(t)
	_, err := svc.Approve(404, ProcessWithdrawalDTO{})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestApproveRollsBackWhenBalanceShort(t *testing.T) {
	svc, _ := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "short@test.in")
	seedWallet(t, svc.DB, agent.ID, "150")
	req := requestAmount(t, svc, agent.ID, 100)

	// balance drained outside the workflow
	require.NoError(t, svc.Wallet.debit(svc.DB, agent.ID, decimal.NewFromInt(100)))

	_, err := svc.Approve(req.ID, ProcessWithdrawalDTO{ProcessedBy: "admin"})
	assert.True(t, errors.Is(err, ErrInsufficientBalance))

	current, err := svc.Get(req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalPending, current.Status)
	assert.Nil(t, current.ApprovedDate)
}

func TestConcurrentApprovalsCannotOverdraw(t *testing.T) {
	svc, _ := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "race@test.in")
	seedWallet(t, svc.DB, agent.ID, "150")

	// two requests that fit separately but not together, written directly so the
	// reservation check at request time does not stop the second one
	ids := make([]uint, 2)
	for i := range ids {
		req := models.WithdrawalRequest{AgentID: agent.ID, Amount: decimal.NewFromInt(100), Status: models.WithdrawalPending}
		require.NoError(t, svc.DB.Create(&req).Error)
		ids[i] = req.ID
	}

	var wg sync.WaitGroup
	results := make(chan error, len(ids)*2)
	for _, id := range ids {
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func(id uint) {
				defer wg.Done()
				_, err := svc.Approve(id, ProcessWithdrawalDTO{ProcessedBy: "admin"})
				results <- err
			}(id)
		}
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.Is(err, ErrWithdrawalProcessed) || errors.Is(err, ErrInsufficientBalance), "unexpected %v", err)
	}
	assert.Equal(t, 1, succeeded)
	assertWallet(t, svc.Wallet, agent.ID, "150", "100", "50")
}

func TestReject(t *testing.T) {
	svc, _ := newWithdrawalService(t)
	agent := seedAgent(t, svc.DB, "rej@test.in")
	seedWallet(t, svc.DB, agent.ID, "150")
	req := requestAmount(t, svc, agent.ID, 100)

	rejected, err := svc.Reject(req.ID, ProcessWithdrawalDTO{ProcessedBy: "admin", Remarks: "bank details mismatch"})
	require.NoError(t, err)
	assert.Equal(t, models.WithdrawalRejected, rejected.Status)
	assert.NotNil(t, rejected.RejectedDate)
	assert.Nil(t, rejected.ApprovedDate)
	assert.Equal(t, "bank details mismatch", rejected.Remarks)

	assertWallet(t, svc.Wallet, agent.ID, "150", "0", "150")

	// rejected amounts no longer count against the balance
	requestAmount(t, svc, agent.ID, 150)
}

func TestListWithdrawals(t *testing.T) {
	svc, _ := newWithdrawalService(t)
	a := seedAgent(t, svc.DB, "la@test.in")
	b := seedAgent(t, svc.DB, "lb@test.in")
	seedWallet(t, svc.DB, a.ID, "150")
	seedWallet(t, svc.DB, b.ID, "150")
	requestAmount(t, svc, a.ID, 50)
	requestAmount(t, svc, a.ID, 50)
	requestAmount(t, svc, b.ID, 50)

	all, err := svc.List("", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.Count)

	mine, err := svc.ListForAgent(a.ID, models.WithdrawalPending, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Count)
}

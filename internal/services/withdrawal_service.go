package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"puja-service/internal/models"
	"puja-service/internal/tasks"
	"puja-service/pkg/common"
)

type WithdrawalService struct {
	DB     *gorm.DB
	Wallet *WalletService
	Queue  tasks.Enqueuer
}

// NewWithdrawalService builds the service. queue may be nil, in which case no
// notifications are sent.
func NewWithdrawalService(db *gorm.DB, wallet *WalletService, queue tasks.Enqueuer) *WithdrawalService {
	return &WithdrawalService{DB: db, Wallet: wallet, Queue: queue}
}

type WithdrawRequestDTO struct {
	AgentID        uint
	Amount         decimal.Decimal `json:"amount"`
	Remarks        string          `json:"remarks"`
	IdempotencyKey string
}

type ProcessWithdrawalDTO struct {
	ProcessedBy      string
	PaymentReference string `json:"payment_reference"`
	Remarks          string `json:"remarks"`
}

// Request records a cash-out. The amount must fit within the balance not
// already claimed by other pending requests. A repeated idempotency key
// returns the first request unchanged with created=false.
func (s *WithdrawalService) Request(data WithdrawRequestDTO) (models.WithdrawalRequest, bool, error) {
	if !data.Amount.IsPositive() {
		return models.WithdrawalRequest{}, false, wrap(ErrValidation, "amount must be greater than zero")
	}
	data.IdempotencyKey = strings.TrimSpace(data.IdempotencyKey)

	if data.IdempotencyKey != "" {
		existing, found, err := s.findByKey(data.AgentID, data.IdempotencyKey)
		if err != nil || found {
			return existing, false, err
		}
	}

	req := models.WithdrawalRequest{
		AgentID:       data.AgentID,
		Amount:        data.Amount.Round(2),
		Status:        models.WithdrawalPending,
		RequestedDate: time.Now(),
		Remarks:       data.Remarks,
	}
	if data.IdempotencyKey != "" {
		key := data.IdempotencyKey
		req.IdempotencyKey = &key
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var wallet models.Wallet
		if err := forUpdate(tx).Where("agent_id = ?", data.AgentID).First(&wallet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return wrap(ErrInsufficientBalance, "insufficient wallet balance")
			}
			return err
		}

		var pending decimal.Decimal
		if err := tx.Model(&models.WithdrawalRequest{}).
			Where("agent_id = ? AND status = ?", data.AgentID, models.WithdrawalPending).
			Select("COALESCE(SUM(amount), 0)").
			Row().Scan(&pending); err != nil {
			return fmt.Errorf("sum pending withdrawals: %w", err)
		}

		available := wallet.CurrentBalance.Sub(pending)
		if req.Amount.GreaterThan(available) {
			return wrap(ErrInsufficientBalance, fmt.Sprintf("insufficient wallet balance, available %s", available.StringFixed(2)))
		}

		return tx.Create(&req).Error
	})
	if err != nil {
		if data.IdempotencyKey != "" && isUniqueViolation(err) {
			existing, found, findErr := s.findByKey(data.AgentID, data.IdempotencyKey)
			if findErr == nil && found {
				return existing, false, nil
			}
		}
		return models.WithdrawalRequest{}, false, err
	}

	log.WithFields(log.Fields{
		"withdrawal_id": req.ID,
		"agent_id":      req.AgentID,
		"amount":        req.Amount.StringFixed(2),
	}).Info("Withdrawal requested")
	withdrawalDecisionsTotal.WithLabelValues(tasks.EventRequested).Inc()
	s.notify(req.ID, tasks.EventRequested)
	return req, true, nil
}

func (s *WithdrawalService) findByKey(agentID uint, key string) (models.WithdrawalRequest, bool, error) {
	var existing models.WithdrawalRequest
	err := s.DB.Where("idempotency_key = ?", key).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return existing, false, nil
	}
	if err != nil {
		return existing, false, err
	}
	if existing.AgentID != agentID {
		return models.WithdrawalRequest{}, false, wrap(ErrConflict, "idempotency key already used")
	}
	return existing, true, nil
}

// Approve marks a pending request approved and debits the wallet in one
// transaction. If the balance no longer covers the amount nothing changes.
func (s *WithdrawalService) Approve(id uint, data ProcessWithdrawalDTO) (models.WithdrawalRequest, error) {
	if data.PaymentReference == "" {
		data.PaymentReference = common.GenerateReference("WD")
	}

	var req models.WithdrawalRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		updates := map[string]interface{}{
			"status":            models.WithdrawalApproved,
			"approved_date":     now,
			"rejected_date":     nil,
			"processed_by":      data.ProcessedBy,
			"payment_reference": data.PaymentReference,
		}
		if data.Remarks != "" {
			updates["remarks"] = data.Remarks
		}
		if err := s.claimPending(tx, id, updates); err != nil {
			return err
		}
		if err := tx.First(&req, id).Error; err != nil {
			return err
		}
		return s.Wallet.debit(tx, req.AgentID, req.Amount)
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	log.WithFields(log.Fields{
		"withdrawal_id": req.ID,
		"agent_id":      req.AgentID,
		"amount":        req.Amount.StringFixed(2),
		"processed_by":  data.ProcessedBy,
	}).Info("Withdrawal approved")
	withdrawalDecisionsTotal.WithLabelValues(tasks.EventApproved).Inc()
	s.notify(req.ID, tasks.EventApproved)
	return req, nil
}

func (s *WithdrawalService) Reject(id uint, data ProcessWithdrawalDTO) (models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":        models.WithdrawalRejected,
			"rejected_date": time.Now(),
			"approved_date": nil,
			"processed_by":  data.ProcessedBy,
		}
		if data.Remarks != "" {
			updates["remarks"] = data.Remarks
		}
		if err := s.claimPending(tx, id, updates); err != nil {
			return err
		}
		return tx.First(&req, id).Error
	})
	if err != nil {
		return models.WithdrawalRequest{}, err
	}

	log.WithFields(log.Fields{"withdrawal_id": req.ID, "processed_by": data.ProcessedBy}).Info("Withdrawal rejected")
	withdrawalDecisionsTotal.WithLabelValues(tasks.EventRejected).Inc()
	s.notify(req.ID, tasks.EventRejected)
	return req, nil
}

// claimPending applies updates only while the request is still pending.
func (s *WithdrawalService) claimPending(tx *gorm.DB, id uint, updates map[string]interface{}) error {
	res := tx.Model(&models.WithdrawalRequest{}).
		Where("id = ? AND status = ?", id, models.WithdrawalPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := tx.Model(&models.WithdrawalRequest{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return wrap(ErrNotFound, "withdrawal request not found")
	}
	return wrap(ErrWithdrawalProcessed, "withdrawal request already processed")
}

func (s *WithdrawalService) Get(id uint) (models.WithdrawalRequest, error) {
	var req models.WithdrawalRequest
	if err := s.DB.First(&req, id).Error; err != nil {
		return req, notFound(err, "withdrawal request")
	}
	return req, nil
}

func (s *WithdrawalService) List(status string, page, limit int) (common.PaginationResult, error) {
	return s.list(0, status, page, limit)
}

func (s *WithdrawalService) ListForAgent(agentID uint, status string, page, limit int) (common.PaginationResult, error) {
	return s.list(agentID, status, page, limit)
}

func (s *WithdrawalService) list(agentID uint, status string, page, limit int) (common.PaginationResult, error) {
	query := s.DB.Model(&models.WithdrawalRequest{})
	if agentID != 0 {
		query = query.Where("agent_id = ?", agentID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var rows []models.WithdrawalRequest
	if err := query.Order("id DESC").
		Offset(common.Offset(page, limit)).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(rows, total, page, limit, "Withdrawal requests retrieved"), nil
}

func (s *WithdrawalService) notify(id uint, event string) {
	if s.Queue == nil {
		return
	}
	task, err := tasks.NewWithdrawalNotifyTask(tasks.WithdrawalNotifyPayload{WithdrawalID: id, Event: event})
	if err != nil {
		log.WithError(err).Error("Failed to build withdrawal notification")
		return
	}
	if _, err := s.Queue.Enqueue(task); err != nil {
		log.WithError(err).WithField("withdrawal_id", id).Error("Failed to enqueue withdrawal notification")
	}
}

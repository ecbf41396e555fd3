package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"puja-service/internal/models"
	"puja-service/pkg/common"
)

type WalletService struct {
	DB *gorm.DB
}

func NewWalletService(db *gorm.DB) *WalletService {
	return &WalletService{DB: db}
}

// Get returns the agent's wallet, or a zero wallet when nothing was credited yet.
func (s *WalletService) Get(agentID uint) (models.Wallet, error) {
	var wallet models.Wallet
	err := s.DB.Where("agent_id = ?", agentID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Wallet{AgentID: agentID}, nil
	}
	return wallet, err
}

// credit adds amount to earnings and balance in one statement. The wallet row is
// created first when missing so the increment always has a target.
func (s *WalletService) credit(tx *gorm.DB, agentID uint, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return wrap(ErrValidation, "credit amount must be greater than zero")
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Wallet{AgentID: agentID}).Error; err != nil {
		return fmt.Errorf("ensure wallet: %w", err)
	}

	res := tx.Model(&models.Wallet{}).
		Where("agent_id = ?", agentID).
		UpdateColumns(map[string]interface{}{
			"total_earnings":  gorm.Expr("total_earnings + ?", amount),
			"current_balance": gorm.Expr("current_balance + ?", amount),
			"updated":         time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("credit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("credit wallet: no wallet row for agent %d", agentID)
	}

	walletCreditsTotal.Inc()
	log.WithFields(log.Fields{"agent_id": agentID, "amount": amount.StringFixed(2)}).Info("Wallet credited")
	return nil
}

// debit moves amount from balance to withdrawn only if the balance covers it.
func (s *WalletService) debit(tx *gorm.DB, agentID uint, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return wrap(ErrValidation, "debit amount must be greater than zero")
	}

	res := tx.Model(&models.Wallet{}).
		Where("agent_id = ? AND current_balance >= ?", agentID, amount).
		UpdateColumns(map[string]interface{}{
			"total_withdrawn": gorm.Expr("total_withdrawn + ?", amount),
			"current_balance": gorm.Expr("current_balance - ?", amount),
			"updated":         time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("debit wallet: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return wrap(ErrInsufficientBalance, "insufficient wallet balance")
	}

	log.WithFields(log.Fields{"agent_id": agentID, "amount": amount.StringFixed(2)}).Info("Wallet debited")
	return nil
}

type ReconcileReport struct {
	AgentID        uint            `json:"agent_id"`
	TotalEarnings  decimal.Decimal `json:"total_earnings"`
	TotalWithdrawn decimal.Decimal `json:"total_withdrawn"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	CommissionSum  decimal.Decimal `json:"commission_sum"`
	ApprovedSum    decimal.Decimal `json:"approved_sum"`
	BalanceDrift   decimal.Decimal `json:"balance_drift"`
	EarningsDrift  decimal.Decimal `json:"earnings_drift"`
	WithdrawnDrift decimal.Decimal `json:"withdrawn_drift"`
	Consistent     bool            `json:"consistent"`
}

// Reconcile compares the wallet totals against the commission log and the
// approved withdrawals. Any non-zero drift means the ledger was written outside
// of this service.
func (s *WalletService) Reconcile(agentID uint) (ReconcileReport, error) {
	wallet, err := s.Get(agentID)
	if err != nil {
		return ReconcileReport{}, err
	}

	var commissions, approved decimal.Decimal
	if err := s.DB.Model(&models.CommissionHistory{}).
		Where("agent_id = ?", agentID).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&commissions); err != nil {
		return ReconcileReport{}, fmt.Errorf("sum commissions: %w", err)
	}
	if err := s.DB.Model(&models.WithdrawalRequest{}).
		Where("agent_id = ? AND status = ?", agentID, models.WithdrawalApproved).
		Select("COALESCE(SUM(amount), 0)").
		Row().Scan(&approved); err != nil {
		return ReconcileReport{}, fmt.Errorf("sum withdrawals: %w", err)
	}

	report := ReconcileReport{
		AgentID:        agentID,
		TotalEarnings:  wallet.TotalEarnings,
		TotalWithdrawn: wallet.TotalWithdrawn,
		CurrentBalance: wallet.CurrentBalance,
		CommissionSum:  commissions,
		ApprovedSum:    approved,
		BalanceDrift:   wallet.CurrentBalance.Sub(wallet.TotalEarnings.Sub(wallet.TotalWithdrawn)),
		EarningsDrift:  wallet.TotalEarnings.Sub(commissions),
		WithdrawnDrift: wallet.TotalWithdrawn.Sub(approved),
	}
	report.Consistent = report.BalanceDrift.IsZero() && report.EarningsDrift.IsZero() && report.WithdrawnDrift.IsZero()
	if !report.Consistent {
		log.WithFields(log.Fields{
			"agent_id":        agentID,
			"balance_drift":   report.BalanceDrift.String(),
			"earnings_drift":  report.EarningsDrift.String(),
			"withdrawn_drift": report.WithdrawnDrift.String(),
		}).Warn("Wallet ledger drift detected")
	}
	return report, nil
}

func (s *WalletService) ListCommissions(agentID uint, page, limit int) (common.PaginationResult, error) {
	var rows []models.CommissionHistory
	var total int64

	query := s.DB.Model(&models.CommissionHistory{}).Where("agent_id = ?", agentID)
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}
	if err := query.Order("id DESC").
		Offset(common.Offset(page, limit)).
		Limit(limit).
		Find(&rows).Error; err != nil {
		return common.PaginationResult{}, err
	}

	return common.PaginateResponse(rows, total, page, limit, "Commission history retrieved"), nil
}

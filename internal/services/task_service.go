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

// CommissionRate is the agent's share of a booking's total amount.
var CommissionRate = decimal.New(10, -2)

// taskTransitions lists the statuses reachable through UpdateStatus.
var taskTransitions = map[string][]string{
	models.TaskStatusAssigned:   {models.TaskStatusStarted},
	models.TaskStatusReassigned: {models.TaskStatusStarted},
	models.TaskStatusStarted:    {models.TaskStatusCompleted},
}

type TaskService struct {
	DB     *gorm.DB
	Wallet *WalletService
}

func NewTaskService(db *gorm.DB, wallet *WalletService) *TaskService {
	return &TaskService{DB: db, Wallet: wallet}
}

type AssignTaskDTO struct {
	BookingID uint `json:"booking_id" binding:"required"`
	AgentID   uint `json:"agent_id" binding:"required"`
}

type UpdateTaskStatusDTO struct {
	BookingID uint
	AgentID   uint
	Status    string
}

func Commission(total decimal.Decimal) decimal.Decimal {
	return total.Mul(CommissionRate).Round(2)
}

func canTransition(from, to string) bool {
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Assign gives a booking to an agent.
//
// A booking without a task gets a new "assigned" task. Assigning the current
// agent again is a no-op. Assigning a different agent before work starts
// replaces the agent in place and marks the task "reassigned". Started and
// completed tasks cannot change hands.
func (s *TaskService) Assign(data AssignTaskDTO) (models.AssignedTask, error) {
	var task models.AssignedTask

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var booking models.BookingHistory
		if err := forUpdate(tx).First(&booking, data.BookingID).Error; err != nil {
			return notFound(err, "booking")
		}

		var agent models.Agent
		if err := tx.First(&agent, data.AgentID).Error; err != nil {
			return notFound(err, "agent")
		}

		commission := Commission(booking.TotalAmount)
		now := time.Now()

		err := forUpdate(tx).Where("booking_id = ?", data.BookingID).First(&task).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			task = models.AssignedTask{
				BookingID:       data.BookingID,
				AgentID:         data.AgentID,
				TaskStatus:      models.TaskStatusAssigned,
				AgentCommission: commission,
				AssignedAt:      now,
			}
			if err := tx.Create(&task).Error; err != nil {
				if isUniqueViolation(err) {
					return wrap(ErrConflict, "booking already has a task")
				}
				return err
			}
		case err != nil:
			return err
		default:
			switch task.TaskStatus {
			case models.TaskStatusStarted:
				return wrap(ErrTaskInProgress, "task already started, cannot reassign")
			case models.TaskStatusCompleted:
				return wrap(ErrInvalidTransition, "task already completed, cannot reassign")
			}
			if task.AgentID == data.AgentID {
				return nil
			}

			previous := task.AgentID
			task.AgentID = data.AgentID
			task.TaskStatus = models.TaskStatusReassigned
			task.AgentCommission = commission
			task.AssignedAt = now
			if err := tx.Save(&task).Error; err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"booking_id": data.BookingID,
				"from_agent": previous,
				"to_agent":   data.AgentID,
			}).Info("Task reassigned")
		}

		return tx.Model(&models.BookingHistory{}).
			Where("id = ?", data.BookingID).
			Updates(map[string]interface{}{
				"agent_id":    data.AgentID,
				"puja_status": task.TaskStatus,
			}).Error
	})
	if err != nil {
		return models.AssignedTask{}, err
	}
	return task, nil
}

// UpdateStatus moves a task forward. Completing a task credits the agent's
// commission in the same transaction, once per booking: a booking completed a
// second time after Remove ends completed without another credit.
func (s *TaskService) UpdateStatus(data UpdateTaskStatusDTO) (models.AssignedTask, error) {
	switch data.Status {
	case models.TaskStatusStarted, models.TaskStatusCompleted:
	case models.TaskStatusAssigned, models.TaskStatusReassigned:
		return models.AssignedTask{}, wrap(ErrInvalidTransition, "use assign-task to change the agent")
	default:
		return models.AssignedTask{}, wrap(ErrValidation, fmt.Sprintf("unknown task status %q", data.Status))
	}

	var task models.AssignedTask
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := forUpdate(tx).Where("booking_id = ?", data.BookingID).First(&task).Error; err != nil {
			return notFound(err, "task")
		}
		if task.AgentID != data.AgentID {
			return wrap(ErrForbidden, "task is not assigned to this agent")
		}
		if !canTransition(task.TaskStatus, data.Status) {
			return wrap(ErrInvalidTransition, fmt.Sprintf("cannot move task from %s to %s", task.TaskStatus, data.Status))
		}
		if data.Status == models.TaskStatusCompleted && !task.AgentCommission.IsPositive() {
			return wrap(ErrValidation, "commission must be greater than zero")
		}

		now := time.Now()
		task.TaskStatus = data.Status
		if data.Status == models.TaskStatusStarted {
			task.StartedAt = &now
		} else {
			task.CompletedAt = &now
		}
		if err := tx.Save(&task).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.BookingHistory{}).
			Where("id = ?", data.BookingID).
			Update("puja_status", data.Status).Error; err != nil {
			return err
		}

		if data.Status != models.TaskStatusCompleted {
			return nil
		}

		entry := models.CommissionHistory{
			AgentID:   task.AgentID,
			BookingID: task.BookingID,
			Amount:    task.AgentCommission,
			Source:    models.CommissionSourceTaskCompletion,
		}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// booking was completed before, then unassigned and reworked
			log.WithFields(log.Fields{
				"booking_id": task.BookingID,
				"agent_id":   task.AgentID,
			}).Warn("Commission already credited for booking, skipping credit")
			return nil
		}
		return s.Wallet.credit(tx, task.AgentID, task.AgentCommission)
	})
	if err != nil {
		return models.AssignedTask{}, err
	}

	log.WithFields(log.Fields{
		"booking_id": data.BookingID,
		"agent_id":   data.AgentID,
		"status":     data.Status,
	}).Info("Task status updated")
	return task, nil
}

// Remove unassigns a booking. Started tasks stay put.
func (s *TaskService) Remove(bookingID uint) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var task models.AssignedTask
		if err := forUpdate(tx).Where("booking_id = ?", bookingID).First(&task).Error; err != nil {
			return notFound(err, "task")
		}
		if task.TaskStatus == models.TaskStatusStarted {
			return wrap(ErrTaskInProgress, "cannot remove agent from a started task")
		}

		if err := tx.Delete(&task).Error; err != nil {
			return err
		}
		return tx.Model(&models.BookingHistory{}).
			Where("id = ?", bookingID).
			Updates(map[string]interface{}{
				"agent_id":    nil,
				"puja_status": models.PujaStatusPending,
			}).Error
	})
}

func (s *TaskService) Get(bookingID uint) (models.AssignedTask, error) {
	var task models.AssignedTask
	if err := s.DB.Where("booking_id = ?", bookingID).First(&task).Error; err != nil {
		return task, notFound(err, "task")
	}
	return task, nil
}

func (s *TaskService) ListForAgent(agentID uint, status string, page, limit int) (common.PaginationResult, error) {
	query := s.DB.Model(&models.AssignedTask{}).Where("agent_id = ?", agentID)
	if status != "" {
		query = query.Where("task_status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var tasks []models.AssignedTask
	if err := query.Order("assigned_at DESC").
		Offset(common.Offset(page, limit)).
		Limit(limit).
		Find(&tasks).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(tasks, total, page, limit, "Tasks retrieved"), nil
}

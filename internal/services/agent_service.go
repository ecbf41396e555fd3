package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"puja-service/internal/models"
	"puja-service/pkg/common"
)

// KYC document categories accepted by UploadKYC, mapped to their URL column.
var kycColumns = map[string]string{
	"aadhar_front":  "aadhar_front_url",
	"aadhar_back":   "aadhar_back_url",
	"pan_card":      "pan_card_url",
	"profile_image": "profile_image_url",
}

type AgentService struct {
	DB      *gorm.DB
	Storage ObjectStorage
}

func NewAgentService(db *gorm.DB, storage ObjectStorage) *AgentService {
	return &AgentService{DB: db, Storage: storage}
}

type CreateAgentDTO struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

type UpdateAgentDTO struct {
	Name              *string `json:"name"`
	Phone             *string `json:"phone"`
	Address           *string `json:"address"`
	City              *string `json:"city"`
	State             *string `json:"state"`
	Pincode           *string `json:"pincode"`
	BankAccountNumber *string `json:"bank_account_number"`
	IfscCode          *string `json:"ifsc_code"`
	AccountHolderName *string `json:"account_holder_name"`
}

type AgentFilter struct {
	VerificationStatus string
	AvailableStatus    string
	Search             string
	IncludeDeleted     bool
}

type UploadFile struct {
	Name        string
	ContentType string
	Body        io.Reader
}

type KYCUploadDTO struct {
	AadharNumber string
	PanNumber    string
	Files        map[string]UploadFile
}

func (s *AgentService) Create(data CreateAgentDTO) (models.Agent, error) {
	data.Name = strings.TrimSpace(data.Name)
	data.Email = strings.ToLower(strings.TrimSpace(data.Email))
	data.Phone = strings.TrimSpace(data.Phone)

	if data.Name == "" || data.Email == "" || data.Phone == "" {
		return models.Agent{}, wrap(ErrValidation, "name, email and phone are required")
	}
	if _, err := mail.ParseAddress(data.Email); err != nil {
		return models.Agent{}, wrap(ErrValidation, "invalid email address")
	}
	if len(data.Password) < 6 {
		return models.Agent{}, wrap(ErrValidation, "password must be at least 6 characters")
	}

	var count int64
	if err := s.DB.Unscoped().Model(&models.Agent{}).
		Where("email = ? OR phone = ?", data.Email, data.Phone).
		Count(&count).Error; err != nil {
		return models.Agent{}, err
	}
	if count > 0 {
		return models.Agent{}, wrap(ErrConflict, "an agent with this email or phone already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Agent{}, fmt.Errorf("hash password: %w", err)
	}

	agent := models.Agent{
		Name:               data.Name,
		Email:              data.Email,
		Phone:              data.Phone,
		PasswordHash:       string(hash),
		Address:            data.Address,
		City:               data.City,
		State:              data.State,
		Pincode:            data.Pincode,
		VerificationStatus: models.VerificationPending,
		AvailableStatus:    models.AvailabilityAvailable,
	}
	if err := s.DB.Create(&agent).Error; err != nil {
		if isUniqueViolation(err) {
			return models.Agent{}, wrap(ErrConflict, "an agent with this email or phone already exists")
		}
		return models.Agent{}, err
	}

	log.WithFields(log.Fields{"agent_id": agent.ID, "email": agent.Email}).Info("Agent created")
	return agent, nil
}

func (s *AgentService) Get(id uint) (models.Agent, error) {
	var agent models.Agent
	if err := s.DB.First(&agent, id).Error; err != nil {
		return agent, notFound(err, "agent")
	}
	return agent, nil
}

func (s *AgentService) List(filter AgentFilter, page, limit int) (common.PaginationResult, error) {
	query := s.DB.Model(&models.Agent{})
	if filter.IncludeDeleted {
		query = query.Unscoped()
	}
	if filter.VerificationStatus != "" {
		query = query.Where("verification_status = ?", filter.VerificationStatus)
	}
	if filter.AvailableStatus != "" {
		query = query.Where("available_status = ?", filter.AvailableStatus)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR phone LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var agents []models.Agent
	if err := query.Order("id DESC").
		Offset(common.Offset(page, limit)).
		Limit(limit).
		Find(&agents).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(agents, total, page, limit, "Agents retrieved"), nil
}

func (s *AgentService) UpdateProfile(id uint, data UpdateAgentDTO) (models.Agent, error) {
	updates := map[string]interface{}{}
	set := func(column string, value *string) {
		if value != nil {
			updates[column] = strings.TrimSpace(*value)
		}
	}
	set("name", data.Name)
	set("phone", data.Phone)
	set("address", data.Address)
	set("city", data.City)
	set("state", data.State)
	set("pincode", data.Pincode)
	set("bank_account_number", data.BankAccountNumber)
	set("ifsc_code", data.IfscCode)
	set("account_holder_name", data.AccountHolderName)

	if v, ok := updates["name"]; ok && v == "" {
		return models.Agent{}, wrap(ErrValidation, "name cannot be empty")
	}
	if v, ok := updates["phone"]; ok && v == "" {
		return models.Agent{}, wrap(ErrValidation, "phone cannot be empty")
	}

	return s.update(id, updates)
}

// UploadKYC stores the supplied documents and resets verification to pending.
func (s *AgentService) UploadKYC(ctx context.Context, id uint, data KYCUploadDTO) (models.Agent, error) {
	if _, err := s.Get(id); err != nil {
		return models.Agent{}, err
	}

	updates := map[string]interface{}{}
	if v := strings.TrimSpace(data.AadharNumber); v != "" {
		updates["aadhar_number"] = v
	}
	if v := strings.TrimSpace(data.PanNumber); v != "" {
		updates["pan_number"] = strings.ToUpper(v)
	}

	for category, file := range data.Files {
		column, ok := kycColumns[category]
		if !ok {
			return models.Agent{}, wrap(ErrValidation, fmt.Sprintf("unknown document %q", category))
		}
		if s.Storage == nil {
			return models.Agent{}, fmt.Errorf("object storage is not configured")
		}
		url, _, err := s.Storage.Upload(ctx, category, file.Name, file.ContentType, file.Body)
		if err != nil {
			return models.Agent{}, err
		}
		updates[column] = url
	}

	if len(updates) == 0 {
		return models.Agent{}, wrap(ErrValidation, "no KYC details supplied")
	}
	updates["verification_status"] = models.VerificationPending
	updates["verification_remarks"] = ""

	return s.update(id, updates)
}

func (s *AgentService) SetVerification(id uint, status, remarks string) (models.Agent, error) {
	switch status {
	case models.VerificationPending, models.VerificationVerified, models.VerificationRejected:
	default:
		return models.Agent{}, wrap(ErrValidation, "verification_status must be pending, verified or rejected")
	}
	return s.update(id, map[string]interface{}{
		"verification_status":  status,
		"verification_remarks": remarks,
	})
}

func (s *AgentService) SetAvailability(id uint, status string) (models.Agent, error) {
	if status != models.AvailabilityAvailable && status != models.AvailabilityUnavailable {
		return models.Agent{}, wrap(ErrValidation, "available_status must be available or unavailable")
	}
	return s.update(id, map[string]interface{}{"available_status": status})
}

func (s *AgentService) update(id uint, updates map[string]interface{}) (models.Agent, error) {
	res := s.DB.Model(&models.Agent{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return models.Agent{}, wrap(ErrConflict, "an agent with this phone already exists")
		}
		return models.Agent{}, res.Error
	}
	if res.RowsAffected == 0 {
		return models.Agent{}, wrap(ErrNotFound, "agent not found")
	}
	return s.Get(id)
}

func (s *AgentService) Delete(id uint) error {
	res := s.DB.Delete(&models.Agent{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return wrap(ErrNotFound, "agent not found")
	}
	log.WithField("agent_id", id).Info("Agent deleted")
	return nil
}

func (s *AgentService) Restore(id uint) (models.Agent, error) {
	var agent models.Agent
	if err := s.DB.Unscoped().First(&agent, id).Error; err != nil {
		return agent, notFound(err, "agent")
	}
	if !agent.DeletedAt.Valid {
		return agent, wrap(ErrConflict, "agent is not deleted")
	}
	if err := s.DB.Unscoped().Model(&agent).Update("deleted_at", nil).Error; err != nil {
		return agent, err
	}
	log.WithField("agent_id", id).Info("Agent restored")
	return s.Get(id)
}

// Authenticate checks an agent's credentials. Deleted agents are not found.
func (s *AgentService) Authenticate(email, password string) (models.Agent, error) {
	var agent models.Agent
	err := s.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&agent).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return agent, wrap(ErrUnauthorized, "invalid email or password")
	}
	if err != nil {
		return agent, err
	}
	if bcrypt.CompareHashAndPassword([]byte(agent.PasswordHash), []byte(password)) != nil {
		return models.Agent{}, wrap(ErrUnauthorized, "invalid email or password")
	}
	return agent, nil
}

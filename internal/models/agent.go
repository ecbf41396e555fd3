package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	VerificationPending  = "pending"
	VerificationVerified = "verified"
	VerificationRejected = "rejected"

	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

type Agent struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string `gorm:"column:name;size:150;not null" json:"name"`
	Email        string `gorm:"column:email;size:191;not null;uniqueIndex" json:"email"`
	Phone        string `gorm:"column:phone;size:20;not null;uniqueIndex" json:"phone"`
	PasswordHash string `gorm:"column:password_hash;size:255;not null" json:"-"`
	Address      string `gorm:"column:address;type:text" json:"address"`
	City         string `gorm:"column:city;size:100" json:"city"`
	State        string `gorm:"column:state;size:100" json:"state"`
	Pincode      string `gorm:"column:pincode;size:10" json:"pincode"`

	AadharNumber      string `gorm:"column:aadhar_number;size:20" json:"aadhar_number"`
	PanNumber         string `gorm:"column:pan_number;size:20" json:"pan_number"`
	BankAccountNumber string `gorm:"column:bank_account_number;size:40" json:"bank_account_number"`
	IfscCode          string `gorm:"column:ifsc_code;size:20" json:"ifsc_code"`
	AccountHolderName string `gorm:"column:account_holder_name;size:150" json:"account_holder_name"`
	AadharFrontURL    string `gorm:"column:aadhar_front_url;size:512" json:"aadhar_front_url"`
	AadharBackURL     string `gorm:"column:aadhar_back_url;size:512" json:"aadhar_back_url"`
	PanCardURL        string `gorm:"column:pan_card_url;size:512" json:"pan_card_url"`
	ProfileImageURL   string `gorm:"column:profile_image_url;size:512" json:"profile_image_url"`

	VerificationStatus  string `gorm:"column:verification_status;size:20;default:pending;index" json:"verification_status"`
	VerificationRemarks string `gorm:"column:verification_remarks;type:text" json:"verification_remarks"`
	AvailableStatus     string `gorm:"column:available_status;size:20;default:available;index" json:"available_status"`

	CreatedAt time.Time      `gorm:"column:created;autoCreateTime" json:"created"`
	UpdatedAt time.Time      `gorm:"column:updated;autoUpdateTime" json:"updated"`
	DeletedAt gorm.DeletedAt `gorm:"column:deleted_at;index" json:"deleted_at,omitempty"`
}

func (Agent) TableName() string {
	return "agents"
}

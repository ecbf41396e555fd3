package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"puja-service/internal/models"
	"puja-service/pkg/common"
)

type BookingService struct {
	DB        *gorm.DB
	Gateway   PaymentGateway
	ReturnURL string
}

func NewBookingService(db *gorm.DB, gateway PaymentGateway, returnURL string) *BookingService {
	return &BookingService{DB: db, Gateway: gateway, ReturnURL: returnURL}
}

type CreateBookingDTO struct {
	UserName    string          `json:"user_name" binding:"required"`
	UserEmail   string          `json:"user_email"`
	UserPhone   string          `json:"user_phone" binding:"required"`
	PujaName    string          `json:"puja_name" binding:"required"`
	TempleName  string          `json:"temple_name"`
	BookingDate string          `json:"booking_date" binding:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type BookingFilter struct {
	PaymentStatus string
	PujaStatus    string
	AgentID       uint
}

type cashfreeWebhook struct {
	Type      string `json:"type"`
	EventTime string `json:"event_time"`
	Data      struct {
		Order struct {
			OrderID string `json:"order_id"`
		} `json:"order"`
		Payment struct {
			CfPaymentID   flexString `json:"cf_payment_id"`
			PaymentStatus string     `json:"payment_status"`
		} `json:"payment"`
	} `json:"data"`
}

// Create stores the booking and opens a checkout order for it. When the
// gateway call fails the booking stays pending and the error is returned.
func (s *BookingService) Create(ctx context.Context, data CreateBookingDTO) (models.BookingHistory, error) {
	data.UserName = strings.TrimSpace(data.UserName)
	data.UserPhone = strings.TrimSpace(data.UserPhone)
	data.PujaName = strings.TrimSpace(data.PujaName)

	if data.UserName == "" || data.UserPhone == "" || data.PujaName == "" {
		return models.BookingHistory{}, wrap(ErrValidation, "user_name, user_phone and puja_name are required")
	}
	if _, err := time.Parse(time.DateOnly, data.BookingDate); err != nil {
		return models.BookingHistory{}, wrap(ErrValidation, "booking_date must be YYYY-MM-DD")
	}
	if !data.TotalAmount.IsPositive() {
		return models.BookingHistory{}, wrap(ErrValidation, "total_amount must be greater than zero")
	}

	booking := models.BookingHistory{
		UserName:      data.UserName,
		UserEmail:     strings.TrimSpace(data.UserEmail),
		UserPhone:     data.UserPhone,
		PujaName:      data.PujaName,
		TempleName:    data.TempleName,
		BookingDate:   data.BookingDate,
		TotalAmount:   data.TotalAmount.Round(2),
		PujaStatus:    models.PujaStatusPending,
		PaymentStatus: models.PaymentStatusPending,
	}
	if err := s.DB.Create(&booking).Error; err != nil {
		return models.BookingHistory{}, err
	}

	orderID := "order_" + uuid.NewString()
	req := CashfreeOrderRequest{
		OrderID:       orderID,
		OrderAmount:   booking.TotalAmount.InexactFloat64(),
		OrderCurrency: "INR",
		CustomerDetails: CashfreeCustomer{
			CustomerID:    fmt.Sprintf("booking_%d", booking.ID),
			CustomerName:  booking.UserName,
			CustomerEmail: booking.UserEmail,
			CustomerPhone: booking.UserPhone,
		},
		OrderNote: booking.PujaName,
	}
	if s.ReturnURL != "" {
		req.OrderMeta = &CashfreeOrderMeta{ReturnURL: strings.ReplaceAll(s.ReturnURL, "{order_id}", orderID)}
	}

	order, err := s.Gateway.CreateOrder(ctx, req)
	if err != nil {
		log.WithError(err).WithField("booking_id", booking.ID).Error("Payment order creation failed")
		return booking, err
	}

	booking.OrderID = &orderID
	booking.CfOrderID = string(order.CfOrderID)
	booking.PaymentSessionID = order.PaymentSessionID
	if err := s.DB.Model(&booking).Updates(map[string]interface{}{
		"order_id":           orderID,
		"cf_order_id":        booking.CfOrderID,
		"payment_session_id": booking.PaymentSessionID,
	}).Error; err != nil {
		return booking, err
	}

	log.WithFields(log.Fields{"booking_id": booking.ID, "order_id": orderID}).Info("Booking created")
	return booking, nil
}

func (s *BookingService) Get(id uint) (models.BookingHistory, error) {
	var booking models.BookingHistory
	if err := s.DB.First(&booking, id).Error; err != nil {
		return booking, notFound(err, "booking")
	}
	return booking, nil
}

func (s *BookingService) GetByOrderID(orderID string) (models.BookingHistory, error) {
	var booking models.BookingHistory
	if err := s.DB.Where("order_id = ?", orderID).First(&booking).Error; err != nil {
		return booking, notFound(err, "booking")
	}
	return booking, nil
}

func (s *BookingService) List(filter BookingFilter, page, limit int) (common.PaginationResult, error) {
	query := s.DB.Model(&models.BookingHistory{})
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.PujaStatus != "" {
		query = query.Where("puja_status = ?", filter.PujaStatus)
	}
	if filter.AgentID != 0 {
		query = query.Where("agent_id = ?", filter.AgentID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return common.PaginationResult{}, err
	}

	var bookings []models.BookingHistory
	if err := query.Order("id DESC").
		Offset(common.Offset(page, limit)).
		Limit(limit).
		Find(&bookings).Error; err != nil {
		return common.PaginationResult{}, err
	}
	return common.PaginateResponse(bookings, total, page, limit, "Bookings retrieved"), nil
}

// VerifyPayment asks the gateway for the order status and records it.
func (s *BookingService) VerifyPayment(ctx context.Context, orderID string) (models.BookingHistory, error) {
	booking, err := s.GetByOrderID(orderID)
	if err != nil {
		return booking, err
	}

	order, err := s.Gateway.GetOrder(ctx, orderID)
	if err != nil {
		return booking, err
	}

	switch order.OrderStatus {
	case CashfreeStatusPaid:
		err = s.setPaymentStatus(&booking, models.PaymentStatusPaid)
	case CashfreeStatusExpired, CashfreeStatusTerminated:
		err = s.setPaymentStatus(&booking, models.PaymentStatusFailed)
	}
	return booking, err
}

// HandleWebhook verifies and applies a gateway callback. Every callback is
// logged, including ones with a bad signature.
func (s *BookingService) HandleWebhook(body []byte, timestamp, signature string) error {
	verified := s.Gateway.VerifySignature(timestamp, body, signature)

	var event cashfreeWebhook
	parseErr := json.Unmarshal(body, &event)

	entry := models.CallbackLog{
		Provider:  "cashfree",
		EventType: event.Type,
		OrderID:   event.Data.Order.OrderID,
		Request:   string(body),
		Verified:  verified,
	}
	defer func() {
		if err := s.DB.Create(&entry).Error; err != nil {
			log.WithError(err).Error("Failed to save callback log")
		}
	}()

	if !verified {
		entry.Response = "invalid signature"
		return wrap(ErrUnauthorized, "invalid webhook signature")
	}
	if parseErr != nil || event.Data.Order.OrderID == "" {
		entry.Response = "malformed payload"
		return wrap(ErrMalformedPayload, "webhook payload missing order id")
	}

	var status string
	switch event.Type {
	case WebhookPaymentSuccess:
		status = models.PaymentStatusPaid
	case WebhookPaymentFailed:
		status = models.PaymentStatusFailed
	default:
		entry.Response = "ignored"
		return nil
	}

	booking, err := s.GetByOrderID(event.Data.Order.OrderID)
	if err != nil {
		entry.Response = err.Error()
		return err
	}
	if err := s.setPaymentStatus(&booking, status); err != nil {
		entry.Response = "error"
		return err
	}

	entry.Response = status
	log.WithFields(log.Fields{"order_id": event.Data.Order.OrderID, "type": event.Type}).Info("Payment webhook applied")
	return nil
}

// setPaymentStatus records the outcome. A paid booking is never downgraded.
func (s *BookingService) setPaymentStatus(booking *models.BookingHistory, status string) error {
	if booking.PaymentStatus == status || booking.PaymentStatus == models.PaymentStatusPaid {
		return nil
	}
	res := s.DB.Model(&models.BookingHistory{}).
		Where("id = ? AND payment_status <> ?", booking.ID, models.PaymentStatusPaid).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.DB.First(booking, booking.ID).Error
	}
	booking.PaymentStatus = status
	return nil
}


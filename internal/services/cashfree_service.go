package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"puja-service/internal/config"
	"puja-service/pkg/common"
)

const (
	CashfreeStatusPaid       = "PAID"
	CashfreeStatusActive     = "ACTIVE"
	CashfreeStatusExpired    = "EXPIRED"
	CashfreeStatusTerminated = "TERMINATED"

	WebhookPaymentSuccess = "PAYMENT_SUCCESS_WEBHOOK"
	WebhookPaymentFailed  = "PAYMENT_FAILED_WEBHOOK"
)

// PaymentGateway creates and inspects hosted checkout orders.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req CashfreeOrderRequest) (CashfreeOrder, error)
	GetOrder(ctx context.Context, orderID string) (CashfreeOrder, error)
	VerifySignature(timestamp string, body []byte, signature string) bool
}

type CashfreeCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name,omitempty"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type CashfreeOrderMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type CashfreeOrderRequest struct {
	OrderID         string             `json:"order_id"`
	OrderAmount     float64            `json:"order_amount"`
	OrderCurrency   string             `json:"order_currency"`
	CustomerDetails CashfreeCustomer   `json:"customer_details"`
	OrderMeta       *CashfreeOrderMeta `json:"order_meta,omitempty"`
	OrderNote       string             `json:"order_note,omitempty"`
}

type CashfreeOrder struct {
	CfOrderID        flexString `json:"cf_order_id"`
	OrderID          string     `json:"order_id"`
	OrderAmount      float64    `json:"order_amount"`
	OrderStatus      string     `json:"order_status"`
	PaymentSessionID string     `json:"payment_session_id"`
}

type cashfreeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Type    string `json:"type"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(b) == "null" {
		*f = ""
		return nil
	}
	*f = flexString(b)
	return nil
}

type CashfreeClient struct {
	http         *resty.Client
	clientSecret string
}

func NewCashfreeClient(cfg *config.Config) *CashfreeClient {
	client := common.NewRestyClient(cfg.CashfreeBaseURL, 20*time.Second, 2, 500*time.Millisecond).
		SetHeader("x-client-id", cfg.CashfreeClientID).
		SetHeader("x-client-secret", cfg.CashfreeClientSecret).
		SetHeader("x-api-version", cfg.CashfreeAPIVersion)
	return &CashfreeClient{http: client, clientSecret: cfg.CashfreeClientSecret}
}

func (c *CashfreeClient) CreateOrder(ctx context.Context, req CashfreeOrderRequest) (CashfreeOrder, error) {
	var order CashfreeOrder
	var apiErr cashfreeError

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&order).
		SetError(&apiErr).
		Post("/pg/orders")
	if err != nil {
		return order, wrapUpstream("cashfree create order", err)
	}
	if res.IsError() {
		return order, upstreamStatus("cashfree create order", res.StatusCode(), apiErr.Message)
	}
	if order.PaymentSessionID == "" {
		return order, wrap(ErrUpstream, "cashfree create order: missing payment_session_id")
	}
	return order, nil
}

func (c *CashfreeClient) GetOrder(ctx context.Context, orderID string) (CashfreeOrder, error) {
	var order CashfreeOrder
	var apiErr cashfreeError

	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("order_id", orderID).
		SetResult(&order).
		SetError(&apiErr).
		Get("/pg/orders/{order_id}")
	if err != nil {
		return order, wrapUpstream("cashfree get order", err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return order, wrap(ErrNotFound, "order not found at payment gateway")
	}
	if res.IsError() {
		return order, upstreamStatus("cashfree get order", res.StatusCode(), apiErr.Message)
	}
	return order, nil
}

// VerifySignature checks x-webhook-signature, the base64 HMAC-SHA256 of the
// timestamp followed by the raw body, keyed by the client secret.
func (c *CashfreeClient) VerifySignature(timestamp string, body []byte, signature string) bool {
	if c.clientSecret == "" || signature == "" {
		return false
	}
	expected := SignWebhook(c.clientSecret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func SignWebhook(secret, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func wrapUpstream(op string, err error) error {
	return &domainError{msg: fmt.Sprintf("%s: %v", op, err), sentinel: ErrUpstream}
}

func upstreamStatus(op string, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	return wrap(ErrUpstream, fmt.Sprintf("%s: status %d: %s", op, status, message))
}

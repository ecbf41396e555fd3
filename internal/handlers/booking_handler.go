package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"puja-service/internal/services"
	"puja-service/pkg/common"
)

const (
	webhookTimestampHeader = "x-webhook-timestamp"
	webhookSignatureHeader = "x-webhook-signature"
	maxWebhookBody         = 1 << 20
)

// CreateBooking stores the booking and returns the checkout session. A gateway
// failure still returns the stored booking so the client can retry payment.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req services.CreateBookingDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	booking, err := h.Bookings.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrUpstream) && booking.ID != 0 {
			log.WithError(err).WithField("booking_id", booking.ID).Warn("Checkout order not created")
			c.JSON(http.StatusBadGateway, common.NewErrorResponse(
				"Booking saved but payment could not be initiated", booking, http.StatusBadGateway))
			return
		}
		respondError(c, err)
		return
	}
	respondCreated(c, booking, "Booking created")
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	booking, err := h.Bookings.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, booking, "Booking fetched")
}

func (h *Handler) ListBookings(c *gin.Context) {
	page, limit := pageParams(c)
	filter := services.BookingFilter{
		PaymentStatus: c.Query("payment_status"),
		PujaStatus:    c.Query("puja_status"),
	}
	if v := c.Query("agent_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			badRequest(c, "Invalid agent_id")
			return
		}
		filter.AgentID = uint(id)
	}

	result, err := h.Bookings.List(filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(result.Status, result)
}

func (h *Handler) VerifyPayment(c *gin.Context) {
	booking, err := h.Bookings.VerifyPayment(c.Request.Context(), c.Param("order_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, booking, "Payment status "+booking.PaymentStatus)
}

func (h *Handler) PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "Could not read body")
		return
	}

	err = h.Bookings.HandleWebhook(body, c.GetHeader(webhookTimestampHeader), c.GetHeader(webhookSignatureHeader))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Webhook processed")
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"puja-service/internal/models"
	"puja-service/internal/services"
	"puja-service/pkg/common"
)

const idempotencyHeader = "Idempotency-Key"

func (h *Handler) RequestWithdrawal(c *gin.Context) {
	var req services.WithdrawRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	req.AgentID = currentClaims(c).AgentID()
	req.IdempotencyKey = c.GetHeader(idempotencyHeader)

	withdrawal, created, err := h.Withdrawals.Request(req)
	if err != nil {
		respondError(c, err)
		return
	}
	if !created {
		respondOK(c, withdrawal, "Withdrawal already requested")
		return
	}
	respondCreated(c, withdrawal, "Withdrawal requested")
}

func (h *Handler) ListWithdrawals(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Withdrawals.List(c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(result.Status, result)
}

func (h *Handler) AgentWithdrawals(c *gin.Context) {
	agentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !agentOrSelf(currentClaims(c), agentID) {
		c.AbortWithStatusJSON(http.StatusForbidden, common.NewErrorResponse("Forbidden", nil, http.StatusForbidden))
		return
	}

	page, limit := pageParams(c)
	result, err := h.Withdrawals.ListForAgent(agentID, c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(result.Status, result)
}

func (h *Handler) ApproveWithdrawal(c *gin.Context) {
	h.processWithdrawal(c, h.Withdrawals.Approve, "Withdrawal approved")
}

func (h *Handler) RejectWithdrawal(c *gin.Context) {
	h.processWithdrawal(c, h.Withdrawals.Reject, "Withdrawal rejected")
}

type withdrawalAction func(uint, services.ProcessWithdrawalDTO) (models.WithdrawalRequest, error)

func (h *Handler) processWithdrawal(c *gin.Context, action withdrawalAction, message string) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.ProcessWithdrawalDTO
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	req.ProcessedBy = currentClaims(c).Subject

	withdrawal, err := action(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, withdrawal, message)
}

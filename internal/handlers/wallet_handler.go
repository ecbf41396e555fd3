package handlers

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) AgentWallet(c *gin.Context) {
	wallet, err := h.Wallets.Get(currentClaims(c).AgentID())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, wallet, "Wallet fetched")
}

func (h *Handler) AgentCommissions(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Wallets.ListCommissions(currentClaims(c).AgentID(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(result.Status, result)
}

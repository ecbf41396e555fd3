package handlers

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gin-gonic/gin"

	"puja-service/internal/services"
)

type verifyAgentRequest struct {
	VerificationStatus string `json:"verification_status" binding:"required"`
	Remarks            string `json:"remarks"`
}

type availabilityRequest struct {
	AvailableStatus string `json:"available_status" binding:"required"`
}

func (h *Handler) CreateAgent(c *gin.Context) {
	var req services.CreateAgentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent, err := h.Agents.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, agent, "Agent created")
}

func (h *Handler) GetAgents(c *gin.Context) {
	page, limit := pageParams(c)
	filter := services.AgentFilter{
		VerificationStatus: c.Query("verification_status"),
		AvailableStatus:    c.Query("available_status"),
		Search:             c.Query("search"),
		IncludeDeleted:     c.Query("include_deleted") == "true",
	}

	result, err := h.Agents.List(filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(result.Status, result)
}

func (h *Handler) GetAgent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	agent, err := h.Agents.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "Agent fetched")
}

func (h *Handler) UpdateAgent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.UpdateAgentDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent, err := h.Agents.UpdateProfile(id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "Agent updated")
}

func (h *Handler) VerifyAgent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req verifyAgentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent, err := h.Agents.SetVerification(id, req.VerificationStatus, req.Remarks)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "Verification status updated")
}

func (h *Handler) UpdateAvailability(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req availabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	agent, err := h.Agents.SetAvailability(id, req.AvailableStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "Availability updated")
}

func (h *Handler) DeleteAgent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Agents.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Agent deleted")
}

func (h *Handler) RestoreAgent(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	agent, err := h.Agents.Restore(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "Agent restored")
}

func (h *Handler) Profile(c *gin.Context) {
	agent, err := h.Agents.Get(currentClaims(c).AgentID())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "Profile fetched")
}

// UploadKYC accepts a multipart form with the document numbers and any of the
// aadhar_front, aadhar_back, pan_card and profile_image files.
func (h *Handler) UploadKYC(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		badRequest(c, "Expected multipart form data")
		return
	}

	req := services.KYCUploadDTO{
		AadharNumber: strings.TrimSpace(c.PostForm("aadhar_number")),
		PanNumber:    strings.TrimSpace(c.PostForm("pan_number")),
		Files:        map[string]services.UploadFile{},
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()

	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		fh := headers[0]
		f, err := fh.Open()
		if err != nil {
			badRequest(c, fmt.Sprintf("Could not read %s", field))
			return
		}
		opened = append(opened, f)
		req.Files[field] = services.UploadFile{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Body:        f,
		}
	}

	agent, err := h.Agents.UploadKYC(c.Request.Context(), currentClaims(c).AgentID(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, agent, "KYC documents uploaded")
}

// Reconcile reports drift between an agent's wallet and its ledger rows.
func (h *Handler) Reconcile(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	report, err := h.Wallets.Reconcile(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, report, "Reconciliation complete")
}

func agentOrSelf(claims *Claims, requested uint) bool {
	return claims.Role == RoleAdmin || (claims.Role == RoleAgent && claims.AgentID() == requested)
}

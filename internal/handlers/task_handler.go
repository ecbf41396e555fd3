package handlers

import (
	"github.com/gin-gonic/gin"

	"puja-service/internal/services"
)

type updateTaskStatusRequest struct {
	TaskStatus string `json:"task_status" binding:"required"`
	AgentID    uint   `json:"agent_id"`
}

func (h *Handler) AssignTask(c *gin.Context) {
	var req services.AssignTaskDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	task, err := h.Tasks.Assign(req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, task, "Task assigned")
}

func (h *Handler) RemoveTask(c *gin.Context) {
	bookingID, ok := paramID(c, "booking_id")
	if !ok {
		return
	}
	if err := h.Tasks.Remove(bookingID); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil, "Task removed")
}

// UpdateTaskStatus moves a task along its lifecycle. Agents act on their own
// tasks; an admin names the agent in the body.
func (h *Handler) UpdateTaskStatus(c *gin.Context) {
	bookingID, ok := paramID(c, "booking_id")
	if !ok {
		return
	}
	var req updateTaskStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	claims := currentClaims(c)
	agentID := claims.AgentID()
	if claims.Role == RoleAdmin {
		if req.AgentID == 0 {
			badRequest(c, "agent_id is required")
			return
		}
		agentID = req.AgentID
	}

	task, err := h.Tasks.UpdateStatus(services.UpdateTaskStatusDTO{
		BookingID: bookingID,
		AgentID:   agentID,
		Status:    req.TaskStatus,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, task, "Task status updated")
}

func (h *Handler) AgentTasks(c *gin.Context) {
	page, limit := pageParams(c)
	result, err := h.Tasks.ListForAgent(currentClaims(c).AgentID(), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(result.Status, result)
}

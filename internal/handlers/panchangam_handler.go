package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"puja-service/internal/tasks"
	"puja-service/pkg/common"
)

type syncRequest struct {
	Date string `json:"date"`
}

// GetPanchangam serves cached facts. date defaults to today in the service zone.
func (h *Handler) GetPanchangam(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		date = time.Now().In(h.Panchangam.Location).Format(time.DateOnly)
	}

	entries, err := h.Panchangam.Get(date, c.Query("type"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"date": date, "entries": entries}, "Panchangam fetched")
}

func (h *Handler) SyncPanchangam(c *gin.Context) {
	var req syncRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}
	}
	if req.Date != "" {
		if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
			badRequest(c, "date must be YYYY-MM-DD")
			return
		}
	}
	if h.Queue == nil {
		c.JSON(http.StatusServiceUnavailable,
			common.NewErrorResponse("Task queue unavailable", nil, http.StatusServiceUnavailable))
		return
	}

	task, err := tasks.NewPanchangamSyncTask(tasks.PanchangamSyncPayload{Date: req.Date})
	if err != nil {
		respondError(c, err)
		return
	}
	info, err := h.Queue.Enqueue(task)
	if err != nil {
		log.WithError(err).Error("Failed to enqueue panchangam sync")
		c.JSON(http.StatusServiceUnavailable,
			common.NewErrorResponse("Could not schedule sync", nil, http.StatusServiceUnavailable))
		return
	}

	c.JSON(http.StatusAccepted, common.NewSuccessResponse(gin.H{"task_id": info.ID, "queue": info.Queue}, "Sync scheduled"))
}

package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/queue"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminTriggerPeriodCloseRequest names the period to close.
type AdminTriggerPeriodCloseRequest struct {
	PeriodKey string `json:"period_key" binding:"required"`
	Async     bool   `json:"async"`
}

// AdminTriggerPeriodClose runs a period close, inline or through the queue.
// Re-running a completed period returns the stored run.
func (h *Handler) AdminTriggerPeriodClose(c *gin.Context) {
	var req AdminTriggerPeriodCloseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	periodKey := strings.TrimSpace(req.PeriodKey)

	if req.Async && h.QueueClient != nil && h.QueueClient.Enabled() {
		if err := h.QueueClient.EnqueuePeriodClose(queue.PeriodClosePayload{PeriodKey: periodKey}); err != nil {
			respondError(c, response.CodeInternal, "period close enqueue failed", err)
			return
		}
		response.SuccessWithMsg(c, "period close queued", gin.H{"period_key": periodKey})
		return
	}

	if h.PeriodCloseService == nil {
		respondError(c, response.CodeInternal, "period close unavailable", nil)
		return
	}
	run, err := h.PeriodCloseService.RunPeriodClose(periodKey)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeBadRequest, "period key invalid", nil)
		case errors.Is(err, service.ErrPeriodNotElapsed):
			respondError(c, response.CodeBadRequest, "period has not ended yet", nil)
		case errors.Is(err, service.ErrPeriodCloseRunning):
			respondError(c, response.CodeConflict, "period close already running", nil)
		default:
			respondError(c, response.CodeInternal, "period close failed", err)
		}
		return
	}
	response.Success(c, run)
}

// AdminListPeriodCloses lists close runs, newest first.
func (h *Handler) AdminListPeriodCloses(c *gin.Context) {
	if h.PeriodCloseService == nil {
		respondError(c, response.CodeInternal, "period close unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.PeriodCloseService.ListRuns(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "close run fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdminGetPeriodClose returns one close run by period key.
func (h *Handler) AdminGetPeriodClose(c *gin.Context) {
	periodKey := strings.TrimSpace(c.Param("key"))
	if periodKey == "" {
		respondError(c, response.CodeBadRequest, "period key required", nil)
		return
	}
	if h.PeriodCloseService == nil {
		respondError(c, response.CodeInternal, "period close unavailable", nil)
		return
	}
	run, err := h.PeriodCloseService.GetRun(periodKey)
	if err != nil {
		respondError(c, response.CodeInternal, "close run fetch failed", err)
		return
	}
	if run == nil {
		respondError(c, response.CodeNotFound, "close run not found", nil)
		return
	}
	response.Success(c, run)
}

package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/models"
	"github.com/neonclub/neon-api/internal/repository"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListPayouts lists payout requests across all distributors.
func (h *Handler) AdminListPayouts(c *gin.Context) {
	if h.PayoutService == nil {
		respondError(c, response.CodeInternal, "payouts unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var distributorID uint
	if raw := strings.TrimSpace(c.Query("distributor_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			distributorID = uint(parsed)
		}
	}

	rows, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: distributorID,
		Status:        strings.TrimSpace(c.Query("status")),
		Method:        strings.TrimSpace(c.Query("method")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdminGetPayout returns one payout request.
func (h *Handler) AdminGetPayout(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	payout, err := h.PayoutService.GetPayout(id)
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	if payout == nil {
		respondError(c, response.CodeNotFound, "payout not found", nil)
		return
	}
	response.Success(c, payout)
}

// AdminApprovePayout moves a pending request to approved.
func (h *Handler) AdminApprovePayout(c *gin.Context) {
	h.transitionPayout(c, func(id uint) (*models.PayoutRequest, error) {
		return h.PayoutService.Approve(id)
	})
}

// AdminDispatchPayout starts the transfer and hands it to the worker.
func (h *Handler) AdminDispatchPayout(c *gin.Context) {
	h.transitionPayout(c, func(id uint) (*models.PayoutRequest, error) {
		return h.PayoutService.Dispatch(id)
	})
}

// AdminCompletePayout finalizes a processing request.
func (h *Handler) AdminCompletePayout(c *gin.Context) {
	h.transitionPayout(c, func(id uint) (*models.PayoutRequest, error) {
		return h.PayoutService.Complete(id)
	})
}

// AdminFailPayoutRequest carries the transfer failure reason.
type AdminFailPayoutRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// AdminFailPayout records a transfer failure.
func (h *Handler) AdminFailPayout(c *gin.Context) {
	var req AdminFailPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	h.transitionPayout(c, func(id uint) (*models.PayoutRequest, error) {
		return h.PayoutService.Fail(id, req.Reason)
	})
}

// AdminRetryPayout moves a failed request back to pending.
func (h *Handler) AdminRetryPayout(c *gin.Context) {
	h.transitionPayout(c, func(id uint) (*models.PayoutRequest, error) {
		return h.PayoutService.Retry(id)
	})
}

func (h *Handler) transitionPayout(c *gin.Context, apply func(uint) (*models.PayoutRequest, error)) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if h.PayoutService == nil {
		respondError(c, response.CodeInternal, "payouts unavailable", nil)
		return
	}
	payout, err := apply(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutNotFound):
			respondError(c, response.CodeNotFound, "payout not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "payout status does not allow this action", nil)
		default:
			respondError(c, response.CodeInternal, "payout update failed", err)
		}
		return
	}
	response.Success(c, payout)
}

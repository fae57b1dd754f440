package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RequestPayoutRequest is a withdrawal request.
type RequestPayoutRequest struct {
	Method      string `json:"method" binding:"required"`
	PaypalEmail string `json:"paypal_email"`
	MailingAddr string `json:"mailing_addr"`
}

// RequestPayout locks the caller's approved balance into a pending request.
func (h *Handler) RequestPayout(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	var req RequestPayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.PayoutService == nil {
		respondError(c, response.CodeInternal, "payouts unavailable", nil)
		return
	}

	payout, err := h.PayoutService.RequestPayout(service.RequestPayoutInput{
		DistributorID: id,
		Method:        req.Method,
		PaypalEmail:   req.PaypalEmail,
		MailingAddr:   req.MailingAddr,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPayoutMethod):
			respondError(c, response.CodeBadRequest, "payout method not supported", nil)
		case errors.Is(err, service.ErrMissingPayoutDetail):
			respondError(c, response.CodeBadRequest, "payout method details missing", nil)
		case errors.Is(err, service.ErrBelowMinimum):
			respondError(c, response.CodeBadRequest, "balance below payout minimum", nil)
		default:
			respondError(c, response.CodeInternal, "payout request failed", err)
		}
		return
	}
	response.Success(c, payout)
}

// CancelPayout cancels the caller's pending or approved request and releases
// the bound commissions.
func (h *Handler) CancelPayout(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	payoutID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || payoutID == 0 {
		respondError(c, response.CodeBadRequest, "invalid payout id", nil)
		return
	}
	if h.PayoutService == nil {
		respondError(c, response.CodeInternal, "payouts unavailable", nil)
		return
	}

	payout, err := h.PayoutService.GetPayout(uint(payoutID))
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	if payout == nil || payout.DistributorID != id {
		respondError(c, response.CodeNotFound, "payout not found", nil)
		return
	}

	cancelled, err := h.PayoutService.Cancel(uint(payoutID))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPayoutNotFound):
			respondError(c, response.CodeNotFound, "payout not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "payout can no longer be cancelled", nil)
		default:
			respondError(c, response.CodeInternal, "payout cancel failed", err)
		}
		return
	}
	response.Success(c, cancelled)
}

// ListMyPayouts lists the caller's payout requests.
func (h *Handler) ListMyPayouts(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	if h.PayoutService == nil {
		respondError(c, response.CodeInternal, "payouts unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.PayoutService.ListPayouts(repository.PayoutListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: id,
		Status:        strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "payout fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// GetMyBalance reports the caller's unclaimed approved commission balance.
func (h *Handler) GetMyBalance(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	if h.PayoutService == nil {
		respondError(c, response.CodeInternal, "payouts unavailable", nil)
		return
	}
	balance, err := h.PayoutService.AvailableBalance(id)
	if err != nil {
		respondError(c, response.CodeInternal, "balance fetch failed", err)
		return
	}
	response.Success(c, gin.H{"available_cents": balance})
}

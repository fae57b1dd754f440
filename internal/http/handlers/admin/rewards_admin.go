package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListRewardPoints lists enrollment reward points across distributors.
func (h *Handler) AdminListRewardPoints(c *gin.Context) {
	if h.RewardsService == nil {
		respondError(c, response.CodeInternal, "rewards unavailable", nil)
		return
	}
	page, pageSize, filter := h.rewardFilter(c)
	rows, total, err := h.RewardsService.ListPoints(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "reward fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdminListFreeRewards lists earned free product rewards.
func (h *Handler) AdminListFreeRewards(c *gin.Context) {
	if h.RewardsService == nil {
		respondError(c, response.CodeInternal, "rewards unavailable", nil)
		return
	}
	page, pageSize, filter := h.rewardFilter(c)
	rows, total, err := h.RewardsService.ListFreeRewards(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "reward fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdminShipFreeReward marks a pending free reward as shipped.
func (h *Handler) AdminShipFreeReward(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if h.RewardsService == nil {
		respondError(c, response.CodeInternal, "rewards unavailable", nil)
		return
	}
	if err := h.RewardsService.MarkShipped(id); err != nil {
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			respondError(c, response.CodeNotFound, "reward not found", nil)
		case errors.Is(err, service.ErrInvalidTransition):
			respondError(c, response.CodeConflict, "reward already shipped", nil)
		default:
			respondError(c, response.CodeInternal, "reward update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"ok": true})
}

func (h *Handler) rewardFilter(c *gin.Context) (int, int, repository.RewardListFilter) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var distributorID uint
	if raw := strings.TrimSpace(c.Query("distributor_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			distributorID = uint(parsed)
		}
	}
	return page, pageSize, repository.RewardListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: distributorID,
		PeriodKey:     strings.TrimSpace(c.Query("period_key")),
		Status:        strings.TrimSpace(c.Query("status")),
	}
}

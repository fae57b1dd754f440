package public

import (
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListMyRewardPoints lists the caller's qualifying enrollment points.
func (h *Handler) ListMyRewardPoints(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	if h.RewardsService == nil {
		respondError(c, response.CodeInternal, "rewards unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.RewardsService.ListPoints(repository.RewardListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: id,
		PeriodKey:     strings.TrimSpace(c.Query("period_key")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "reward fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// ListMyFreeRewards lists the caller's earned free product rewards.
func (h *Handler) ListMyFreeRewards(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	if h.RewardsService == nil {
		respondError(c, response.CodeInternal, "rewards unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.RewardsService.ListFreeRewards(repository.RewardListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: id,
		Status:        strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "reward fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

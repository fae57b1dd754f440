package public

import (
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListMyCommissions lists the authenticated distributor's commission records.
func (h *Handler) ListMyCommissions(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	if h.CommissionService == nil {
		respondError(c, response.CodeInternal, "commissions unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rows, total, err := h.CommissionService.ListCommissions(repository.CommissionListFilter{
		Page:      page,
		PageSize:  pageSize,
		EarnerID:  id,
		PeriodKey: strings.TrimSpace(c.Query("period_key")),
		Type:      strings.TrimSpace(c.Query("type")),
		Status:    strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "commission fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

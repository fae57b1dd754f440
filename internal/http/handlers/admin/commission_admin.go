package admin

import (
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListCommissions lists commission records across all earners.
func (h *Handler) AdminListCommissions(c *gin.Context) {
	if h.CommissionService == nil {
		respondError(c, response.CodeInternal, "commissions unavailable", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var earnerID uint
	if raw := strings.TrimSpace(c.Query("earner_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			earnerID = uint(parsed)
		}
	}

	rows, total, err := h.CommissionService.ListCommissions(repository.CommissionListFilter{
		Page:      page,
		PageSize:  pageSize,
		EarnerID:  earnerID,
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

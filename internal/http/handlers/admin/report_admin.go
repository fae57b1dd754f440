package admin

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// AdminExportCommissions streams the commission run for a period as XLSX.
func (h *Handler) AdminExportCommissions(c *gin.Context) {
	periodKey := strings.TrimSpace(c.Param("key"))
	if periodKey == "" {
		respondError(c, response.CodeBadRequest, "period key required", nil)
		return
	}
	if h.ReportService == nil {
		respondError(c, response.CodeInternal, "reports unavailable", nil)
		return
	}

	data, err := h.ReportService.ExportCommissionRun(periodKey)
	if err != nil {
		respondError(c, response.CodeInternal, "report export failed", err)
		return
	}

	filename := h.ReportService.ExportFilename(periodKey)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

// AdminGetPlan exposes the active compensation plan parameters.
func (h *Handler) AdminGetPlan(c *gin.Context) {
	if h.Plan == nil {
		respondError(c, response.CodeInternal, "plan unavailable", nil)
		return
	}
	response.Success(c, h.Plan)
}

package admin

import (
	"strconv"
	"strings"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/repository"

	"github.com/gin-gonic/gin"
)

// AdminListDistributors lists distributors with keyword and status filters.
func (h *Handler) AdminListDistributors(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.DistributorListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Rank:     strings.TrimSpace(c.Query("rank")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("is_active")); raw != "" {
		active := raw == "true" || raw == "1"
		filter.IsActive = &active
	}

	rows, total, err := h.DistributorRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "distributor fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

// AdminGetDistributor returns one distributor.
func (h *Handler) AdminGetDistributor(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	distributor, err := h.DistributorRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "distributor fetch failed", err)
		return
	}
	if distributor == nil {
		respondError(c, response.CodeNotFound, "distributor not found", nil)
		return
	}
	response.Success(c, distributor)
}

// AdminSetAutoshipRequest toggles a distributor's autoship subscription.
type AdminSetAutoshipRequest struct {
	Enabled bool `json:"enabled"`
}

// AdminSetAutoship flips autoship for a distributor. Disabling drops the
// active flag right away; re-enabling waits for the next applied event.
func (h *Handler) AdminSetAutoship(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req AdminSetAutoshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	distributor, err := h.DistributorRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "distributor fetch failed", err)
		return
	}
	if distributor == nil {
		respondError(c, response.CodeNotFound, "distributor not found", nil)
		return
	}

	fields := map[string]interface{}{"autoship_enabled": req.Enabled}
	if !req.Enabled {
		// Dropping autoship drops activity immediately.
		fields["is_active"] = false
	}
	if err := h.DistributorRepo.UpdateFields(id, fields); err != nil {
		respondError(c, response.CodeInternal, "distributor update failed", err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// AdminListRankChanges lists the promotion and demotion audit log.
func (h *Handler) AdminListRankChanges(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var distributorID uint
	if raw := strings.TrimSpace(c.Query("distributor_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			distributorID = uint(parsed)
		}
	}

	rows, total, err := h.DistributorRepo.ListRankChanges(repository.RankChangeListFilter{
		Page:          page,
		PageSize:      pageSize,
		DistributorID: distributorID,
		PeriodKey:     strings.TrimSpace(c.Query("period_key")),
		Reason:        strings.TrimSpace(c.Query("reason")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "rank change fetch failed", err)
		return
	}
	response.SuccessWithPage(c, rows, response.BuildPagination(page, pageSize, total))
}

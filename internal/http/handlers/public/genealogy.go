package public

import (
	"errors"
	"strconv"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetMyTree renders the authenticated distributor's subtree.
func (h *Handler) GetMyTree(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "4"))
	if h.GenealogyService == nil {
		respondError(c, response.CodeInternal, "genealogy unavailable", nil)
		return
	}
	tree, err := h.GenealogyService.GetTree(c.Request.Context(), id, depth)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "distributor not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "genealogy fetch failed", err)
		return
	}
	response.Success(c, tree)
}

// GetRankProgress reports standing against the next rank's thresholds.
func (h *Handler) GetRankProgress(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	if h.RankService == nil {
		respondError(c, response.CodeInternal, "rank service unavailable", nil)
		return
	}
	progress, err := h.RankService.GetProgress(id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "distributor not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "rank progress fetch failed", err)
		return
	}
	response.Success(c, progress)
}

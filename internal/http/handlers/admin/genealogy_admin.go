package admin

import (
	"errors"
	"strconv"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminGetTree renders any distributor's subtree.
func (h *Handler) AdminGetTree(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	depth, _ := strconv.Atoi(c.DefaultQuery("depth", "6"))
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

// AdminAuditTree sweeps the whole tree for structural and volume invariant
// violations.
func (h *Handler) AdminAuditTree(c *gin.Context) {
	if h.GenealogyService == nil {
		respondError(c, response.CodeInternal, "genealogy unavailable", nil)
		return
	}
	issues, err := h.GenealogyService.CheckIntegrity()
	if err != nil {
		respondError(c, response.CodeInternal, "tree audit failed", err)
		return
	}
	response.Success(c, gin.H{
		"issue_count": len(issues),
		"issues":      issues,
	})
}

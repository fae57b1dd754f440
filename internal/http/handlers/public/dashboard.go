package public

import (
	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// GetDashboard aggregates the caller's current standing: volumes, rank
// progress, and unclaimed balance.
func (h *Handler) GetDashboard(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	distributor, err := h.DistributorRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "dashboard fetch failed", err)
		return
	}
	if distributor == nil {
		respondError(c, response.CodeNotFound, "distributor not found", nil)
		return
	}

	var progress *service.Progress
	if h.RankService != nil {
		if p, err := h.RankService.GetProgress(id); err == nil {
			progress = p
		}
	}
	var balance int64
	if h.PayoutService != nil {
		if b, err := h.PayoutService.AvailableBalance(id); err == nil {
			balance = int64(b)
		}
	}

	response.Success(c, gin.H{
		"code":                     distributor.Code,
		"rank":                     distributor.Rank,
		"is_active":                distributor.IsActive,
		"autoship_enabled":         distributor.AutoshipEnabled,
		"personal_volume":          distributor.PersonalVolume,
		"team_volume":              distributor.TeamVolume,
		"left_carry_volume":        distributor.LeftCarryVolume,
		"right_carry_volume":       distributor.RightCarryVolume,
		"lifetime_personal_volume": distributor.LifetimePersonalVolume,
		"lifetime_team_volume":     distributor.LifetimeTeamVolume,
		"period_key":               service.CurrentPeriodKey(),
		"available_cents":          balance,
		"rank_progress":            progress,
	})
}

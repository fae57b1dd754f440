package public

import (
	"errors"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest is the portal login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login authenticates a distributor and issues a portal token.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.DistributorAuthService == nil {
		respondError(c, response.CodeInternal, "login unavailable", nil)
		return
	}

	distributor, token, expiresAt, err := h.DistributorAuthService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeUnauthorized, "invalid email or password", nil)
		case errors.Is(err, service.ErrAccountDisabled):
			respondError(c, response.CodeForbidden, "account disabled", nil)
		default:
			respondError(c, response.CodeInternal, "login failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"token":      token,
		"expires_at": expiresAt,
		"distributor": gin.H{
			"id":    distributor.ID,
			"code":  distributor.Code,
			"email": distributor.Email,
			"rank":  distributor.Rank,
		},
	})
}

// GetMe returns the authenticated distributor's profile.
func (h *Handler) GetMe(c *gin.Context) {
	id, ok := getDistributorID(c)
	if !ok {
		return
	}
	distributor, err := h.DistributorRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "profile fetch failed", err)
		return
	}
	if distributor == nil {
		respondError(c, response.CodeNotFound, "distributor not found", nil)
		return
	}
	response.Success(c, distributor)
}

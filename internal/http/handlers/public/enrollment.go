package public

import (
	"errors"

	"github.com/neonclub/neon-api/internal/http/response"
	"github.com/neonclub/neon-api/internal/service"

	"github.com/gin-gonic/gin"
)

// EnrollRequest is a new distributor signup.
type EnrollRequest struct {
	SponsorCode       string `json:"sponsor_code" binding:"required"`
	Email             string `json:"email" binding:"required"`
	Password          string `json:"password" binding:"required"`
	Username          string `json:"username"`
	PackageID         uint   `json:"package_id" binding:"required"`
	PreferredPosition string `json:"preferred_position"`
	AutoshipEnabled   bool   `json:"autoship_enabled"`
}

// Enroll signs up a recruit under a sponsor and places them in the tree.
func (h *Handler) Enroll(c *gin.Context) {
	var req EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.EnrollmentService == nil {
		respondError(c, response.CodeInternal, "enrollment unavailable", nil)
		return
	}

	distributor, err := h.EnrollmentService.Enroll(service.EnrollInput{
		SponsorCode:       req.SponsorCode,
		Email:             req.Email,
		Password:          req.Password,
		Username:          req.Username,
		PackageID:         req.PackageID,
		PreferredPosition: req.PreferredPosition,
		AutoshipEnabled:   req.AutoshipEnabled,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSponsor):
			respondError(c, response.CodeBadRequest, "sponsor code not recognized", nil)
		case errors.Is(err, service.ErrInvalidPackage):
			respondError(c, response.CodeBadRequest, "enrollment package not available", nil)
		case errors.Is(err, service.ErrInvalidPosition):
			respondError(c, response.CodeBadRequest, "preferred position must be left or right", nil)
		case errors.Is(err, service.ErrEmailTaken):
			respondError(c, response.CodeConflict, "email already registered", nil)
		case errors.Is(err, service.ErrTreeFull):
			respondError(c, response.CodeConflict, "no open placement slot found", nil)
		case errors.Is(err, service.ErrInvalidCredentials):
			respondError(c, response.CodeBadRequest, "email or password not acceptable", nil)
		default:
			respondError(c, response.CodeInternal, "enrollment failed", err)
		}
		return
	}

	response.Success(c, gin.H{
		"id":          distributor.ID,
		"code":        distributor.Code,
		"email":       distributor.Email,
		"parent_id":   distributor.ParentID,
		"position":    distributor.Position,
		"enrolled_at": distributor.EnrolledAt,
	})
}

// ListPackages returns the active enrollment packages.
func (h *Handler) ListPackages(c *gin.Context) {
	packages, err := h.ProductRepo.ListActivePackages()
	if err != nil {
		respondError(c, response.CodeInternal, "package fetch failed", err)
		return
	}
	response.Success(c, packages)
}

package admin

import (
	"github.com/neonclub/neon-api/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetAuthzMe returns the caller's roles and effective policies.
func (h *Handler) GetAuthzMe(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "authz fetch failed", err)
		return
	}
	policies, err := h.AuthzService.GetAdminPolicies(adminID)
	if err != nil {
		respondError(c, response.CodeInternal, "authz fetch failed", err)
		return
	}
	response.Success(c, gin.H{
		"roles":    roles,
		"policies": policies,
	})
}

// ListAuthzRoles lists every role.
func (h *Handler) ListAuthzRoles(c *gin.Context) {
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	roles, err := h.AuthzService.ListRoles()
	if err != nil {
		respondError(c, response.CodeInternal, "authz fetch failed", err)
		return
	}
	response.Success(c, roles)
}

// AuthzRoleRequest names a role.
type AuthzRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// CreateAuthzRole creates an empty role.
func (h *Handler) CreateAuthzRole(c *gin.Context) {
	var req AuthzRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	role, err := h.AuthzService.EnsureRole(req.Role)
	if err != nil {
		respondError(c, response.CodeBadRequest, "role create failed", err)
		return
	}
	response.Success(c, gin.H{"role": role})
}

// DeleteAuthzRole removes a role and its rules.
func (h *Handler) DeleteAuthzRole(c *gin.Context) {
	role := c.Param("role")
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	if err := h.AuthzService.DeleteRole(role); err != nil {
		respondError(c, response.CodeBadRequest, "role delete failed", err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// AuthzPolicyRequest is one role policy rule.
type AuthzPolicyRequest struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GrantAuthzPolicy adds a rule to a role.
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req AuthzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "policy grant failed", err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// RevokeAuthzPolicy removes a rule from a role.
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req AuthzPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, "policy revoke failed", err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// SetAdminRolesRequest replaces an admin's role set.
type SetAdminRolesRequest struct {
	Roles []string `json:"roles"`
}

// SetAuthzAdminRoles replaces the role set of an admin.
func (h *Handler) SetAuthzAdminRoles(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	var req SetAdminRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	if err := h.AuthzService.SetAdminRoles(id, req.Roles); err != nil {
		respondError(c, response.CodeBadRequest, "role assignment failed", err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// GetAuthzAdminRoles returns the roles assigned to an admin.
func (h *Handler) GetAuthzAdminRoles(c *gin.Context) {
	id, ok := paramUint(c, "id")
	if !ok {
		return
	}
	if h.AuthzService == nil {
		respondError(c, response.CodeInternal, "authz unavailable", nil)
		return
	}
	roles, err := h.AuthzService.GetAdminRoles(id)
	if err != nil {
		respondError(c, response.CodeInternal, "authz fetch failed", err)
		return
	}
	response.Success(c, roles)
}

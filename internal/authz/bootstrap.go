package authz

import "fmt"

// RoleSeed declares a built-in role with its default rules.
type RoleSeed struct {
	Role      string
	Inherits  []string
	Policies  []Policy
	Immutable bool
}

// BuiltinRoleSeeds returns the preset role matrix for the back office.
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: "readonly_auditor",
			Policies: []Policy{
				{Object: "/admin/*", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "support",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/distributors", Action: "GET"},
				{Object: "/admin/distributors/:id", Action: "GET"},
				{Object: "/admin/distributors/:id/autoship", Action: "PATCH"},
				{Object: "/admin/genealogy/:id", Action: "GET"},
				{Object: "/admin/genealogy/audit", Action: "GET"},
				{Object: "/admin/rewards/points", Action: "GET"},
				{Object: "/admin/rewards/free", Action: "GET"},
				{Object: "/admin/rewards/free/:id/ship", Action: "POST"},
			},
			Immutable: true,
		},
		{
			Role:     "compensation_ops",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/commissions", Action: "GET"},
				{Object: "/admin/period-closes", Action: "*"},
				{Object: "/admin/period-closes/:key", Action: "GET"},
				{Object: "/admin/reports/commissions/:key", Action: "GET"},
				{Object: "/admin/plan", Action: "GET"},
			},
			Immutable: true,
		},
		{
			Role:     "finance",
			Inherits: []string{"readonly_auditor"},
			Policies: []Policy{
				{Object: "/admin/payouts", Action: "GET"},
				{Object: "/admin/payouts/:id", Action: "GET"},
				{Object: "/admin/payouts/:id/approve", Action: "POST"},
				{Object: "/admin/payouts/:id/dispatch", Action: "POST"},
				{Object: "/admin/payouts/:id/complete", Action: "POST"},
				{Object: "/admin/payouts/:id/fail", Action: "POST"},
				{Object: "/admin/payouts/:id/retry", Action: "POST"},
				{Object: "/admin/reports/commissions/:key", Action: "GET"},
			},
			Immutable: true,
		},
	}
}

// BootstrapBuiltinRoles seeds the preset roles and their default rules.
func (s *Service) BootstrapBuiltinRoles() error {
	if s == nil || s.enforcer == nil {
		return fmt.Errorf("authz service unavailable")
	}

	changed := false
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}

		exists, err := s.enforcer.HasNamedGroupingPolicy("g", role, roleAnchor)
		if err != nil {
			return fmt.Errorf("check builtin role failed: %w", err)
		}
		if !exists {
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, roleAnchor)
			if err != nil {
				return fmt.Errorf("create builtin role failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			added, err := s.enforcer.AddNamedGroupingPolicy("g", role, parentRole)
			if err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
			if added {
				changed = true
			}
		}

		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			added, err := s.enforcer.AddPolicy(role, NormalizeObject(policy.Object), action)
			if err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
			if added {
				changed = true
			}
		}
	}

	if changed {
		return s.saveAndReload()
	}
	return nil
}

// Package rbac holds the authorization core: the permission evaluator and
// the tenant guard. Both are pure functions over data already loaded into
// memory, safe to call concurrently without locking.
package rbac

import "sort"

// Role is a named permission grouping. Permissions map a resource name to
// the actions granted on it.
type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions map[string][]string
	IsSystem    bool
	IsActive    bool
}

// grants reports whether the role grants the action on the resource,
// either directly or through the wildcard.
func (r Role) grants(resource, action string) bool {
	actions, ok := r.Permissions[resource]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action || a == ActionAll {
			return true
		}
	}
	return false
}

// Principal is the authenticated actor as seen by the evaluator. Roles are
// loaded by an explicit join before evaluation, never lazily.
type Principal struct {
	ID          int64
	TenantID    string
	IsActive    bool
	IsSuperuser bool
	Roles       []Role
}

// HasPermission decides whether the principal may perform action on
// resource. Superusers bypass the role scan entirely; inactive roles
// contribute nothing. Evaluation is commutative over the role set.
func HasPermission(p Principal, resource, action string) bool {
	if p.IsSuperuser {
		return true
	}
	for _, role := range p.Roles {
		if !role.IsActive {
			continue
		}
		if role.grants(resource, action) {
			return true
		}
	}
	return false
}

// AllPermissions returns the union of all active roles' permission entries.
// Superusers report a single universal wildcard instead of enumerating.
// Action lists are sorted so the result is independent of role order.
func AllPermissions(p Principal) map[string][]string {
	if p.IsSuperuser {
		return map[string][]string{ActionAll: {ActionAll}}
	}

	merged := make(map[string]map[string]struct{})
	for _, role := range p.Roles {
		if !role.IsActive {
			continue
		}
		for resource, actions := range role.Permissions {
			set, ok := merged[resource]
			if !ok {
				set = make(map[string]struct{})
				merged[resource] = set
			}
			for _, a := range actions {
				set[a] = struct{}{}
			}
		}
	}

	result := make(map[string][]string, len(merged))
	for resource, set := range merged {
		actions := make([]string, 0, len(set))
		for a := range set {
			actions = append(actions, a)
		}
		sort.Strings(actions)
		result[resource] = actions
	}
	return result
}

// CanAccessTenant is the sole multi-tenancy isolation rule: superusers reach
// every tenant, everyone else only their own.
func CanAccessTenant(p Principal, tenantID string) bool {
	if p.IsSuperuser {
		return true
	}
	return p.TenantID == tenantID
}

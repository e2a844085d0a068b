package rbac

import (
	"fmt"

	"github.com/shiftwise/shiftwise/internal/shared"
)

// Closed action vocabulary. Anything else is rejected at role
// creation/update time.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAll    = "*"
)

// Closed resource vocabulary shared by the evaluator and the role registry.
const (
	ResourceUsers       = "users"
	ResourceRoles       = "roles"
	ResourceHypervisors = "hypervisors"
	ResourceVMs         = "vms"
	ResourceMigrations  = "migrations"
	ResourceReports     = "reports"
	ResourceSettings    = "settings"
)

// Actions lists the closed action vocabulary.
func Actions() []string {
	return []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete, ActionAll}
}

// Resources lists the closed resource vocabulary.
func Resources() []string {
	return []string{
		ResourceUsers,
		ResourceRoles,
		ResourceHypervisors,
		ResourceVMs,
		ResourceMigrations,
		ResourceReports,
		ResourceSettings,
	}
}

var (
	validActions   = map[string]struct{}{}
	validResources = map[string]struct{}{}
)

func init() {
	for _, a := range Actions() {
		validActions[a] = struct{}{}
	}
	for _, r := range Resources() {
		validResources[r] = struct{}{}
	}
}

// ValidatePermissions checks a permission map against the closed
// vocabularies.
func ValidatePermissions(permissions map[string][]string) error {
	for resource, actions := range permissions {
		if _, ok := validResources[resource]; !ok {
			return fmt.Errorf("%w: %q", shared.ErrInvalidResource, resource)
		}
		for _, action := range actions {
			if _, ok := validActions[action]; !ok {
				return fmt.Errorf("%w: %q for resource %q", shared.ErrInvalidAction, action, resource)
			}
		}
	}
	return nil
}

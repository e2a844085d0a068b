package roles

import (
	"time"

	"github.com/shiftwise/shiftwise/internal/rbac"
)

// Role is the registry's view of a role: the evaluation fields plus
// persistence metadata. Names are stored case-folded; a role with
// IsSystem=true is seeded once and can never be mutated or deleted.
type Role struct {
	ID          int64
	Name        string
	Description string
	Permissions map[string][]string
	IsSystem    bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Eval converts the role to its evaluation shape.
func (r Role) Eval() rbac.Role {
	return rbac.Role{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions,
		IsSystem:    r.IsSystem,
		IsActive:    r.IsActive,
	}
}

package users

import (
	"time"

	"github.com/shiftwise/shiftwise/internal/rbac"
)

// User is a principal account. The tenant is assigned at creation and never
// changes; roles are a many-to-many relation loaded by an explicit join.
type User struct {
	ID           int64
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	TenantID     string
	IsActive     bool
	IsVerified   bool
	IsSuperuser  bool
	Roles        []rbac.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName concatenates first and last name, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}

// Principal converts the user to the evaluator's view.
func (u User) Principal() rbac.Principal {
	return rbac.Principal{
		ID:          u.ID,
		TenantID:    u.TenantID,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		Roles:       u.Roles,
	}
}

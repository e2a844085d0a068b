package users

import (
	"time"

	"github.com/shiftwise/shiftwise/internal/rbac"
)

type CreateUserRequest struct {
	Email     string  `json:"email" validate:"required,email,max=255"`
	Username  string  `json:"username" validate:"required,min=3,max=100"`
	Password  string  `json:"password" validate:"required"`
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,max=100"`
	TenantID  string  `json:"tenant_id" validate:"required,max=100"`
	RoleIDs   []int64 `json:"role_ids,omitempty"`
	IsActive  *bool   `json:"is_active,omitempty"`
}

// UpdateUserRequest carries a partial update: only non-nil fields are
// applied. Superuser and tenant cannot be changed through the API.
type UpdateUserRequest struct {
	Email     *string  `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Username  *string  `json:"username,omitempty" validate:"omitempty,min=3,max=100"`
	Password  *string  `json:"password,omitempty"`
	FirstName *string  `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName  *string  `json:"last_name,omitempty" validate:"omitempty,max=100"`
	RoleIDs   *[]int64 `json:"role_ids,omitempty"`
	IsActive  *bool    `json:"is_active,omitempty"`
}

type ListUsersRequest struct {
	TenantID    *string `json:"tenant_id,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
	IsSuperuser *bool   `json:"is_superuser,omitempty"`
	Search      *string `json:"search,omitempty"`
	Limit       int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset      int     `json:"offset" validate:"gte=0"`
}

type RoleSummary struct {
	ID          int64               `json:"id"`
	Name        string              `json:"name"`
	Permissions map[string][]string `json:"permissions"`
	IsActive    bool                `json:"is_active"`
}

type UserResponse struct {
	ID          int64         `json:"id"`
	Email       string        `json:"email"`
	Username    string        `json:"username"`
	FirstName   string        `json:"first_name,omitempty"`
	LastName    string        `json:"last_name,omitempty"`
	FullName    string        `json:"full_name"`
	TenantID    string        `json:"tenant_id"`
	IsActive    bool          `json:"is_active"`
	IsVerified  bool          `json:"is_verified"`
	IsSuperuser bool          `json:"is_superuser"`
	Roles       []RoleSummary `json:"roles"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type UserWithPermissionsResponse struct {
	UserResponse
	Permissions map[string][]string `json:"permissions"`
}

type ListUsersResponse struct {
	Users  []UserResponse `json:"users"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ToResponse converts a user to its API shape.
func ToResponse(user User) UserResponse {
	roleSummaries := make([]RoleSummary, 0, len(user.Roles))
	for _, role := range user.Roles {
		roleSummaries = append(roleSummaries, RoleSummary{
			ID:          role.ID,
			Name:        role.Name,
			Permissions: role.Permissions,
			IsActive:    role.IsActive,
		})
	}
	return UserResponse{
		ID:          user.ID,
		Email:       user.Email,
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		FullName:    user.FullName(),
		TenantID:    user.TenantID,
		IsActive:    user.IsActive,
		IsVerified:  user.IsVerified,
		IsSuperuser: user.IsSuperuser,
		Roles:       roleSummaries,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// ToResponseWithPermissions attaches the effective permission union.
func ToResponseWithPermissions(user User) UserWithPermissionsResponse {
	return UserWithPermissionsResponse{
		UserResponse: ToResponse(user),
		Permissions:  rbac.AllPermissions(user.Principal()),
	}
}

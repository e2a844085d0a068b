package roles

import "time"

type CreateRoleRequest struct {
	Name        string              `json:"name" validate:"required,min=2,max=50"`
	Description string              `json:"description" validate:"max=500"`
	Permissions map[string][]string `json:"permissions"`
	IsActive    *bool               `json:"is_active,omitempty"`
}

// UpdateRoleRequest carries a partial update: only non-nil fields are
// applied. Absence and null are treated identically (field untouched).
type UpdateRoleRequest struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Description *string              `json:"description,omitempty" validate:"omitempty,max=500"`
	Permissions *map[string][]string `json:"permissions,omitempty"`
	IsActive    *bool                `json:"is_active,omitempty"`
}

type ListRolesRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Search   *string `json:"search,omitempty"`
	Limit    int     `json:"limit" validate:"gte=0,lte=1000"`
	Offset   int     `json:"offset" validate:"gte=0"`
}

type RoleResponse struct {
	ID           int64               `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description"`
	Permissions  map[string][]string `json:"permissions"`
	IsSystemRole bool                `json:"is_system_role"`
	IsActive     bool                `json:"is_active"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type ListRolesResponse struct {
	Roles  []RoleResponse `json:"roles"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func toResponse(role Role) RoleResponse {
	perms := role.Permissions
	if perms == nil {
		perms = map[string][]string{}
	}
	return RoleResponse{
		ID:           role.ID,
		Name:         role.Name,
		Description:  role.Description,
		Permissions:  perms,
		IsSystemRole: role.IsSystem,
		IsActive:     role.IsActive,
		CreatedAt:    role.CreatedAt,
		UpdatedAt:    role.UpdatedAt,
	}
}

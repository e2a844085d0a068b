package rbac

// System role names seeded at bootstrap.
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleUser       = "user"
	RoleViewer     = "viewer"
)

// SystemRoleCatalog returns the canonical permission maps for the seeded
// system roles. Seeding is idempotent by name: an existing role is left
// untouched even when its permission map has drifted from this catalog.
func SystemRoleCatalog() map[string]map[string][]string {
	return map[string]map[string][]string{
		RoleSuperAdmin: {
			ResourceUsers:       {ActionAll},
			ResourceRoles:       {ActionAll},
			ResourceHypervisors: {ActionAll},
			ResourceVMs:         {ActionAll},
			ResourceMigrations:  {ActionAll},
			ResourceReports:     {ActionAll},
			ResourceSettings:    {ActionAll},
		},
		RoleAdmin: {
			ResourceUsers:       {ActionRead, ActionCreate, ActionUpdate},
			ResourceHypervisors: {ActionAll},
			ResourceVMs:         {ActionAll},
			ResourceMigrations:  {ActionAll},
			ResourceReports:     {ActionAll},
		},
		RoleUser: {
			ResourceVMs:        {ActionRead, ActionCreate, ActionUpdate},
			ResourceMigrations: {ActionRead, ActionCreate},
			ResourceReports:    {ActionRead},
		},
		RoleViewer: {
			ResourceVMs:        {ActionRead},
			ResourceMigrations: {ActionRead},
			ResourceReports:    {ActionRead},
		},
	}
}

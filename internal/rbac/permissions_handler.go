package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shiftwise/shiftwise/internal/platform/httpx"
)

// PermissionsHandler exposes the permission vocabulary and the system role
// catalog so clients can build role editors without hardcoding them.
type PermissionsHandler struct {
	rbac Middleware
}

// NewPermissionsHandler builds PermissionsHandler instance.
func NewPermissionsHandler(rbac Middleware) *PermissionsHandler {
	return &PermissionsHandler{rbac: rbac}
}

// MountRoutes registers permission routes.
func (h *PermissionsHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(ResourceRoles, ActionRead))
		r.Get("/", h.listVocabulary)
	})
}

type vocabularyResponse struct {
	Actions     []string                       `json:"actions"`
	Resources   []string                       `json:"resources"`
	SystemRoles map[string]map[string][]string `json:"system_roles"`
}

func (h *PermissionsHandler) listVocabulary(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, vocabularyResponse{
		Actions:     Actions(),
		Resources:   Resources(),
		SystemRoles: SystemRoleCatalog(),
	})
}

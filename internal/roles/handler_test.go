package roles

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/shiftwise/shiftwise/internal/rbac"
)

func newTestRouter(repo Repository, principal *rbac.Principal) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo), rbac.Middleware{Logger: logger})

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithPrincipal(req.Context(), principal)))
		})
	})
	r.Route("/roles", handler.MountRoutes)
	return r
}

func roleManager() *rbac.Principal {
	return &rbac.Principal{
		ID:       1,
		IsActive: true,
		Roles: []rbac.Role{{
			Name:        "role_manager",
			IsActive:    true,
			Permissions: map[string][]string{rbac.ResourceRoles: {rbac.ActionAll}},
		}},
	}
}

func readOnlyPrincipal() *rbac.Principal {
	return &rbac.Principal{
		ID:       2,
		IsActive: true,
		Roles: []rbac.Role{{
			Name:        "auditor",
			IsActive:    true,
			Permissions: map[string][]string{rbac.ResourceRoles: {rbac.ActionRead}},
		}},
	}
}

func TestCreateRoleEndpoint(t *testing.T) {
	router := newTestRouter(newMemoryRoleRepo(), roleManager())

	payload, _ := json.Marshal(CreateRoleRequest{
		Name:        "Operator",
		Description: "runs migrations",
		Permissions: map[string][]string{rbac.ResourceMigrations: {rbac.ActionCreate, rbac.ActionRead}},
	})
	req := httptest.NewRequest(http.MethodPost, "/roles/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var created RoleResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, "operator", created.Name)
	require.False(t, created.IsSystemRole)
}

func TestCreateRoleRejectsUnknownVocabulary(t *testing.T) {
	router := newTestRouter(newMemoryRoleRepo(), roleManager())

	payload, _ := json.Marshal(CreateRoleRequest{
		Name:        "operator",
		Permissions: map[string][]string{"fleet": {rbac.ActionRead}},
	})
	req := httptest.NewRequest(http.MethodPost, "/roles/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteRequiresCreatePermission(t *testing.T) {
	router := newTestRouter(newMemoryRoleRepo(), readOnlyPrincipal())

	payload, _ := json.Marshal(CreateRoleRequest{Name: "operator"})
	req := httptest.NewRequest(http.MethodPost, "/roles/", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// Reading still works for the same principal.
	req = httptest.NewRequest(http.MethodGet, "/roles/", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestUnauthenticatedRequestIsRejected(t *testing.T) {
	router := newTestRouter(newMemoryRoleRepo(), nil)

	req := httptest.NewRequest(http.MethodGet, "/roles/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteSystemRoleEndpoint(t *testing.T) {
	repo := newMemoryRoleRepo()
	svc := NewService(repo)
	seeded, err := svc.SeedSystemRoles(context.Background())
	require.NoError(t, err)

	router := newTestRouter(repo, roleManager())

	req := httptest.NewRequest(http.MethodDelete, "/roles/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NotEmpty(t, seeded)
}

package users

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shiftwise/shiftwise/internal/platform/httpx"
	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
)

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbac      rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		rbac:      rbac,
		validator: validator.New(),
	}
}

// MountRoutes registers user routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceUsers, rbac.ActionRead))
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/permissions", h.permissions)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceUsers, rbac.ActionRead))
		r.Use(h.rbac.RequireTenant("tenant_id"))
		r.Get("/tenant/{tenant_id}/count", h.tenantCount)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceUsers, rbac.ActionCreate))
		r.Post("/", h.create)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceUsers, rbac.ActionUpdate))
		r.Put("/{id}", h.update)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.Require(rbac.ResourceUsers, rbac.ActionDelete))
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}

	req := ListUsersRequest{Limit: 100}
	if v := r.URL.Query().Get("tenant_id"); v != "" {
		req.TenantID = &v
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		active := v == "true"
		req.IsActive = &active
	}
	if v := r.URL.Query().Get("is_superuser"); v != "" {
		super := v == "true"
		req.IsSuperuser = &super
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			req.Limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			req.Offset = parsed
		}
	}

	// Non-superusers only ever see their own tenant.
	if !principal.IsSuperuser {
		if req.TenantID != nil && *req.TenantID != principal.TenantID {
			httpx.RespondError(w, shared.ErrTenantForbidden)
			return
		}
		tenant := principal.TenantID
		req.TenantID = &tenant
	}

	result, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	resp := ListUsersResponse{
		Users:  make([]UserResponse, 0, len(result)),
		Total:  total,
		Limit:  req.Limit,
		Offset: req.Offset,
	}
	for _, user := range result {
		resp.Users = append(resp.Users, ToResponse(user))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(*user))
}

func (h *Handler) permissions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponseWithPermissions(*user))
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return
	}
	var req CreateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	// Non-superusers can only create accounts inside their own tenant.
	if !rbac.CanAccessTenant(*principal, normalizeTenant(req.TenantID)) {
		httpx.RespondError(w, shared.ErrTenantForbidden)
		return
	}
	user, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, ToResponse(*user))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, err := h.service.Update(r.Context(), target.ID, req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ToResponse(*user))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	target, ok := h.loadScoped(w, r)
	if !ok {
		return
	}
	principal := rbac.PrincipalFromContext(r.Context())
	if principal != nil && target.ID == principal.ID {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "cannot delete your own account")
		return
	}
	if err := h.service.Delete(r.Context(), target.ID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) tenantCount(w http.ResponseWriter, r *http.Request) {
	tenant := chi.URLParam(r, "tenant_id")
	count, err := h.service.CountByTenant(r.Context(), tenant)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"tenant_id":  tenant,
		"user_count": count,
	})
}

// loadScoped fetches the target user and enforces the tenant boundary for
// non-superusers.
func (h *Handler) loadScoped(w http.ResponseWriter, r *http.Request) (*User, bool) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return nil, false
	}
	id, ok := h.userID(w, r)
	if !ok {
		return nil, false
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return nil, false
	}
	if !rbac.CanAccessTenant(*principal, user.TenantID) {
		httpx.RespondError(w, shared.ErrTenantForbidden)
		return nil, false
	}
	return user, true
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return 0, false
	}
	return id, true
}

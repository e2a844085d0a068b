package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/shiftwise/shiftwise/internal/platform/httpx"
	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
	"github.com/shiftwise/shiftwise/internal/users"
)

// Handler manages authentication endpoints.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	middleware *Middleware
	validator  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, middleware *Middleware) *Handler {
	return &Handler{
		logger:     logger,
		service:    service,
		middleware: middleware,
		validator:  validator.New(),
	}
}

// MountRoutes registers authentication routes. Login and refresh are public;
// the rest require a valid access token.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.login)
	r.Post("/refresh", h.refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.middleware.Authenticate)
		r.Get("/me", h.me)
		r.Get("/verify", h.verify)
		r.Post("/change-password", h.changePassword)
		r.Post("/logout", h.logout)
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	user, tokens, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.logger.Info("login rejected", slog.String("email", req.Email), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("login succeeded", slog.Int64("user_id", user.ID))
	httpx.JSON(w, http.StatusOK, tokens)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	tokens, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, tokens)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	user, err := h.service.users.Get(r.Context(), principal.ID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, users.ToResponseWithPermissions(*user))
}

func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, VerifyResponse{Valid: true, UserID: principal.ID})
}

func (h *Handler) changePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.ChangePassword(r.Context(), principal.ID, req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, MessageResponse{Message: "password changed"})
}

// logout is stateless: tokens are not persisted server-side, so there is
// nothing to revoke. The endpoint exists so clients have a uniform flow.
func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*rbac.Principal, bool) {
	principal := rbac.PrincipalFromContext(r.Context())
	if principal == nil {
		httpx.RespondError(w, shared.ErrTokenInvalid)
		return nil, false
	}
	return principal, true
}

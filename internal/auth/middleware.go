package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shiftwise/shiftwise/internal/platform/httpx"
	"github.com/shiftwise/shiftwise/internal/rbac"
	"github.com/shiftwise/shiftwise/internal/shared"
	"github.com/shiftwise/shiftwise/internal/token"
	"github.com/shiftwise/shiftwise/internal/users"
)

// Middleware authenticates requests from the Authorization header and puts
// the resulting principal into the request context. Routes behind it can
// rely on rbac.PrincipalFromContext returning non-nil.
type Middleware struct {
	logger *slog.Logger
	users  *users.Service
	tokens *token.Service
}

// NewMiddleware builds Middleware instance.
func NewMiddleware(logger *slog.Logger, users *users.Service, tokens *token.Service) *Middleware {
	return &Middleware{logger: logger, users: users, tokens: tokens}
}

// Authenticate verifies the bearer token, loads the account and rejects
// inactive ones. Only access tokens pass; a refresh token presented here is
// a wrong-kind failure, not an invalid one.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		claims, err := m.tokens.Decode(raw)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if err := claims.RequireKind(token.KindAccess); err != nil {
			httpx.RespondError(w, err)
			return
		}
		id, err := strconv.ParseInt(claims.Subject, 10, 64)
		if err != nil {
			httpx.RespondError(w, shared.ErrTokenInvalid)
			return
		}

		user, err := m.users.Get(r.Context(), id)
		if err != nil {
			m.logger.Warn("token subject not resolvable", slog.Int64("user_id", id))
			httpx.RespondError(w, shared.ErrTokenInvalid)
			return
		}
		if !user.IsActive {
			httpx.RespondError(w, shared.ErrAccountInactive)
			return
		}

		principal := user.Principal()
		next.ServeHTTP(w, r.WithContext(rbac.ContextWithPrincipal(r.Context(), &principal)))
	})
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", shared.ErrTokenInvalid
	}
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", shared.ErrTokenInvalid
	}
	return raw, nil
}

package httpx

import (
	"errors"
	"net/http"

	"github.com/shiftwise/shiftwise/internal/shared"
)

// RespondError maps domain errors to HTTP responses. The mapping lives here
// so the core packages can stay transport-agnostic: every failure they
// return is a value, never a status code.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidCredentials):
		w.Header().Set("WWW-Authenticate", "Bearer")
		Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
	case errors.Is(err, shared.ErrTokenInvalid):
		w.Header().Set("WWW-Authenticate", "Bearer")
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrTokenInvalid.Error())
	case errors.Is(err, shared.ErrTokenWrongKind):
		w.Header().Set("WWW-Authenticate", "Bearer")
		Problem(w, http.StatusUnauthorized, "Unauthorized", shared.ErrTokenWrongKind.Error())
	case errors.Is(err, shared.ErrAccountInactive):
		Problem(w, http.StatusForbidden, "Forbidden", shared.ErrAccountInactive.Error())
	case errors.Is(err, shared.ErrPermissionDenied):
		Problem(w, http.StatusForbidden, "Forbidden", shared.ErrPermissionDenied.Error())
	case errors.Is(err, shared.ErrTenantForbidden):
		Problem(w, http.StatusForbidden, "Forbidden", shared.ErrTenantForbidden.Error())
	case errors.Is(err, shared.ErrSystemRoleImmutable):
		Problem(w, http.StatusForbidden, "Forbidden", shared.ErrSystemRoleImmutable.Error())
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", shared.ErrNotFound.Error())
	case errors.Is(err, shared.ErrDuplicateRoleName),
		errors.Is(err, shared.ErrDuplicateUserIdentity),
		errors.Is(err, shared.ErrRoleInUse):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrInvalidAction),
		errors.Is(err, shared.ErrInvalidResource),
		errors.Is(err, shared.ErrEmptyPassword),
		errors.Is(err, shared.ErrWeakPassword),
		errors.Is(err, shared.ErrSamePassword):
		Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

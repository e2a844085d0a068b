package shared

import "errors"

// Authorization and authentication failures are decision outcomes, not
// infrastructure faults. None of them is retryable.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure. Unknown email and wrong
	// password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountInactive indicates the account is disabled.
	ErrAccountInactive = errors.New("account inactive")
	// ErrTokenInvalid covers forged, malformed and expired tokens. The
	// categories are merged so callers cannot build a forgery oracle.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrTokenWrongKind indicates an access token used where a refresh token
	// is required, or vice versa.
	ErrTokenWrongKind = errors.New("wrong token kind")
	// ErrPermissionDenied indicates the principal lacks a permission.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrTenantForbidden indicates a cross-tenant access attempt.
	ErrTenantForbidden = errors.New("tenant access forbidden")
	// ErrDuplicateRoleName indicates a case-insensitive role name collision.
	ErrDuplicateRoleName = errors.New("role name already exists")
	// ErrDuplicateUserIdentity indicates an email or username collision.
	ErrDuplicateUserIdentity = errors.New("email or username already exists")
	// ErrInvalidAction indicates a permission action outside the closed set.
	ErrInvalidAction = errors.New("invalid permission action")
	// ErrInvalidResource indicates a permission resource outside the closed set.
	ErrInvalidResource = errors.New("invalid permission resource")
	// ErrSystemRoleImmutable indicates a mutation attempt on a seeded role.
	ErrSystemRoleImmutable = errors.New("system role cannot be modified")
	// ErrRoleInUse indicates the role is still assigned to at least one user.
	ErrRoleInUse = errors.New("role still assigned to users")
	// ErrEmptyPassword indicates an empty secret passed to the hasher.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrWeakPassword indicates the secret failed the strength policy.
	ErrWeakPassword = errors.New("password too weak")
	// ErrSamePassword indicates the new password equals the current one.
	ErrSamePassword = errors.New("new password must differ from current password")
)

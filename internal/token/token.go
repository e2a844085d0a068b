// Package token issues and validates the signed claims that carry identity
// across requests. Tokens are never persisted; validity is derived from the
// signature, the expiry instant and the kind tag alone.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shiftwise/shiftwise/internal/shared"
)

// Kind distinguishes access tokens from refresh tokens.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// signingMethod is the only algorithm ever signed with or accepted on
// verification. Pinning it on both sides rules out algorithm confusion.
var signingMethod = jwt.SigningMethodHS256

// Claims is the wire-visible payload: exactly subject, expiry and kind.
type Claims struct {
	Kind Kind `json:"type"`
	jwt.RegisteredClaims
}

// RequireKind checks the kind tag. A kind mismatch is a distinct failure
// from an invalid or expired token.
func (c *Claims) RequireKind(kind Kind) error {
	if c.Kind != kind {
		return shared.ErrTokenWrongKind
	}
	return nil
}

// Config carries the immutable signing settings. It is constructed once at
// startup and passed in; there is no ambient global state.
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service signs and verifies claims with a single symmetric key.
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewService constructs a Service from the given configuration.
func NewService(cfg Config) *Service {
	return &Service{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}
}

// IssueAccessToken signs a short-lived access token for the subject.
func (s *Service) IssueAccessToken(subject string) (string, error) {
	return s.issue(subject, KindAccess, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the subject.
func (s *Service) IssueRefreshToken(subject string) (string, error) {
	return s.issue(subject, KindRefresh, s.refreshTTL)
}

// Pair issues a fresh access/refresh token pair for the subject.
func (s *Service) Pair(subject string) (access, refresh string, err error) {
	access, err = s.IssueAccessToken(subject)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.IssueRefreshToken(subject)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// AccessExpiresIn reports the access token lifetime in whole seconds, as
// advertised to clients in login responses.
func (s *Service) AccessExpiresIn() int64 {
	return int64(s.accessTTL / time.Second)
}

func (s *Service) issue(subject string, kind Kind, ttl time.Duration) (string, error) {
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(signingMethod, claims).SignedString(s.secret)
}

// Decode verifies the signature and expiry and returns the claims. Signature
// mismatch, malformed input and expiry all collapse into ErrTokenInvalid so
// callers cannot distinguish a forged token from an expired one.
func (s *Service) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{signingMethod.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, shared.ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, shared.ErrTokenInvalid
	}
	return claims, nil
}

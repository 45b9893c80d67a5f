// Copyright (c) 2026 CBCoder. All rights reserved.

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via narrow interfaces (see middleware.TokenVerifier).
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Error Taxonomy

// Structural token failures returned by [TokenService.ParseSubject]. Callers
// branch on these to distinguish "reject outright" (malformed, bad signature)
// from "needs refresh" (intact but expired, reported by IsExpired).
var (
	// ErrTokenMalformed means the token cannot be decoded into its
	// header.payload.signature segments.
	ErrTokenMalformed = errors.New("sec: token malformed")

	// ErrTokenSignatureInvalid means the segments decoded but the signature
	// does not verify under the configured key.
	ErrTokenSignatureInvalid = errors.New("sec: token signature invalid")

	// ErrTokenExpired means the token is structurally intact and correctly
	// signed but its exp claim is in the past.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrSubjectMismatch means the token's sub claim does not exactly match
	// the expected subject.
	ErrSubjectMismatch = errors.New("sec: token subject mismatch")
)

// # Claims

// AccessClaims is the payload embedded inside an issued token.
//
// Access tokens carry only the registered claims (sub, iat, exp, iss).
// The role set lives in storage and is re-derived per request by default,
// so grants and revocations take effect immediately; Roles is populated
// only when the service runs with the "token" role source.
type AccessClaims struct {
	jwt.RegisteredClaims

	// Roles is an optional snapshot of the subject's role names at issuance.
	Roles []string `json:"rol,omitempty"`
}

// # Token Service

// TokenService issues and verifies compact HMAC-signed tokens (HS256).
//
// It is independent of any request context: every method takes plain values
// and the only state is the read-only signing key and the two TTLs.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	// now is injectable for tests that need to advance the clock.
	now func() time.Time
}

// Option customizes a [TokenService].
type Option func(*TokenService)

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// minSecretLen guards against weak HMAC keys (HS256 block size is 64 bytes,
// but 32 bytes of entropy is the accepted floor).
const minSecretLen = 32

// NewTokenService creates a TokenService with a symmetric signing secret.
//
// # Invariants
//   - The secret must be at least 32 bytes.
//   - refreshTTL must be strictly larger than accessTTL.
func NewTokenService(secret, issuer string, accessTTL, refreshTTL time.Duration, opts ...Option) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("sec: signing secret must be at least %d bytes, got %d", minSecretLen, len(secret))
	}
	if accessTTL <= 0 {
		return nil, fmt.Errorf("sec: access token TTL must be positive, got %s", accessTTL)
	}
	if refreshTTL <= accessTTL {
		return nil, fmt.Errorf("sec: refresh token TTL (%s) must exceed access token TTL (%s)", refreshTTL, accessTTL)
	}

	service := &TokenService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service, nil
}

// AccessTTL returns the configured access token lifetime.
func (service *TokenService) AccessTTL() time.Duration { return service.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (service *TokenService) RefreshTTL() time.Duration { return service.refreshTTL }

// # Issuance

// IssueAccessToken creates a signed access token for a subject.
// The payload carries only sub, iss, iat and exp.
func (service *TokenService) IssueAccessToken(subject string) (string, error) {
	return service.sign(subject, service.accessTTL, nil, nil)
}

// IssueAccessTokenWithRoles creates a signed access token carrying a role
// snapshot. Used only when the server is configured to authorize from token
// claims instead of re-reading storage on every request.
func (service *TokenService) IssueAccessTokenWithRoles(subject string, roles []string) (string, error) {
	return service.sign(subject, service.accessTTL, roles, nil)
}

// IssueRefreshToken creates a signed refresh token. Extra claims supplied by
// the caller are flattened at the top level of the payload.
func (service *TokenService) IssueRefreshToken(subject string, extra map[string]any) (string, error) {
	return service.sign(subject, service.refreshTTL, nil, extra)
}

// sign builds and signs the payload. Issued tokens are immutable; a token is
// never updated, only replaced by a newly issued one.
func (service *TokenService) sign(subject string, ttl time.Duration, roles []string, extra map[string]any) (string, error) {
	issuedAt := service.now()

	claims := jwt.MapClaims{
		"sub": subject,
		"iss": service.issuer,
		"iat": jwt.NewNumericDate(issuedAt),
		"exp": jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
	if len(roles) > 0 {
		claims["rol"] = roles
	}
	for name, value := range extra {
		// Registered claims win over caller-supplied ones.
		if _, reserved := claims[name]; reserved {
			continue
		}
		claims[name] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(service.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signed, nil
}

// # Verification Primitives
//
// Parsing, expiry and full validation are separately callable so that the
// authentication gate can tell "needs refresh" (intact but expired) apart
// from "reject outright" (malformed or tampered).

// ParseSubject verifies the token structure and signature and returns the
// sub claim. It deliberately skips expiry checks: an expired but intact
// token still has a trustworthy subject, which the refresh flow relies on.
func (service *TokenService) ParseSubject(tokenString string) (string, error) {
	claims, err := service.parse(tokenString)
	if err != nil {
		return "", err
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", ErrTokenMalformed
	}

	return subject, nil
}

// ParseRoles returns the role snapshot embedded at issuance, or nil when the
// token carries none (the default for access tokens).
func (service *TokenService) ParseRoles(tokenString string) ([]string, error) {
	claims, err := service.parse(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Roles, nil
}

// IsExpired reports whether the token's exp claim is in the past.
//
// It does not re-verify the signature (a separate concern); a token that
// cannot be decoded at all is reported as expired so that callers treating
// this as a liveness predicate fail closed.
func (service *TokenService) IsExpired(tokenString string) bool {
	claims, err := service.parse(tokenString)
	if err != nil {
		return true
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return true
	}

	return !expiry.After(service.now())
}

// Validate reports whether the token is fully trustworthy for the expected
// subject: signature verifies, the sub claim matches exactly (case-sensitive)
// and the token is not expired.
//
// Validation is a predicate, not an error source: every failure is false, so
// calling code can branch without unwinding errors.
func (service *TokenService) Validate(tokenString, expectedSubject string) bool {
	subject, err := service.ParseSubject(tokenString)
	if err != nil {
		return false
	}
	if subject != expectedSubject {
		return false
	}
	return !service.IsExpired(tokenString)
}

// parse decodes and signature-checks the token without claims validation.
// Expiry is evaluated separately by [TokenService.IsExpired].
func (service *TokenService) parse(tokenString string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	claims := &AccessClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return service.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	return claims, nil
}

// Copyright (c) 2026 CBCoder. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/lucleber13/webapp/internal/platform/apperr"
	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/pkg/uuidv7"
)

// # Contracts & Types

// TokenIssuer defines the token service contract consumed by the
// authentication flows.
type TokenIssuer interface {
	// IssueAccessToken creates a signed access token for the subject.
	IssueAccessToken(subject string) (string, error)

	// IssueAccessTokenWithRoles creates an access token carrying a role
	// snapshot, for deployments authorizing from token claims.
	IssueAccessTokenWithRoles(subject string, roles []string) (string, error)

	// IssueRefreshToken creates a signed refresh token with extra claims.
	IssueRefreshToken(subject string, extra map[string]any) (string, error)

	// ParseSubject extracts the subject after structure+signature checks.
	ParseSubject(token string) (string, error)

	// Validate reports whether the token is valid for the subject.
	Validate(token, expectedSubject string) bool

	// AccessTTL returns the configured access token lifetime.
	AccessTTL() time.Duration
}

// Service implements the credential & refresh lifecycle.
//
// # State machine
//
// Anonymous -> (login) -> Authenticated -> (access expiry) -> AccessExpired
// -> (refresh) -> Authenticated, or -> (refresh expiry) -> Anonymous.
// No server-side session state exists; the tokens themselves are the state.
type Service struct {
	users      UserStore
	throttle   LoginThrottle
	tokens     TokenIssuer
	embedRoles bool
}

// NewService constructs a new authentication [Service].
//
// embedRoles selects the "token" role source: access tokens then carry the
// role snapshot captured at issuance instead of forcing a storage lookup per
// request (accepting staleness until expiry).
func NewService(users UserStore, throttle LoginThrottle, tokens TokenIssuer, embedRoles bool) *Service {
	return &Service{
		users:      users,
		throttle:   throttle,
		tokens:     tokens,
		embedRoles: embedRoles,
	}
}

// TokenPair is the transport-ready result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// # Login

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

// Login validates user credentials and issues a fresh token pair.
//
// Every failure mode (unknown email, wrong password, disabled account)
// collapses into the same generic InvalidCredentials error, so the response
// cannot be used to enumerate accounts.
func (service *Service) Login(ctx context.Context, input LoginInput) (*TokenPair, error) {

	// Throttle before touching storage: a locked-out email never reaches
	// the password check.
	failures, err := service.throttle.Failures(ctx, input.Email)
	if err == nil && failures >= MaxLoginFailures {
		return nil, apperr.RateLimited(int(LoginLockoutTTL.Seconds()))
	}

	user, err := service.users.FindByEmail(ctx, input.Email)
	if err != nil {
		_ = service.throttle.RecordFailure(ctx, input.Email)
		return nil, apperr.InvalidCredentials()
	}

	if !user.Enabled {
		return nil, apperr.InvalidCredentials()
	}

	// Constant-time comparison inside bcrypt prevents timing attacks.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		_ = service.throttle.RecordFailure(ctx, input.Email)
		return nil, apperr.InvalidCredentials()
	}

	_ = service.throttle.Reset(ctx, input.Email)

	return service.issuePair(user)
}

// # Refresh

// Refresh implements the token rotation flow: a valid, unexpired refresh
// token yields a brand-new access+refresh pair for the same subject.
//
// There is no server-side record of issued refresh tokens, so the old
// refresh token stays independently valid until its own natural expiry.
// That is an accepted property of the stateless design, not an oversight.
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {

	// A malformed or tampered token has no trustworthy subject at all.
	subject, err := service.tokens.ParseSubject(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// The subject must still resolve to a live principal.
	user, err := service.users.FindByEmail(ctx, subject)
	if err != nil || !user.Enabled {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	// Full validation: signature, exact subject match, expiry.
	if !service.tokens.Validate(refreshToken, user.Email) {
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	return service.issuePair(user)
}

// issuePair signs a new access+refresh pair for the user.
func (service *Service) issuePair(user *User) (*TokenPair, error) {
	var accessToken string
	var err error

	if service.embedRoles {
		accessToken, err = service.tokens.IssueAccessTokenWithRoles(user.Email, user.RoleNames())
	} else {
		accessToken, err = service.tokens.IssueAccessToken(user.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, err := service.tokens.IssueRefreshToken(user.Email, map[string]any{
		"typ": RefreshTokenType,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(service.tokens.AccessTTL() / time.Second),
	}, nil
}

// # Registration

// RegisterInput holds the data required to enroll a new account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Roles     []sec.RoleName
}

// Register validates, hashes, and persists a brand new account.
//
// Requested roles must come from the closed role enumeration; when none are
// supplied the account defaults to the USER role.
func (service *Service) Register(ctx context.Context, input RegisterInput) (*User, error) {

	exists, err := service.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return nil, fmt.Errorf("auth_service_register_lookup_failed: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("Email is already registered")
	}

	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	roleNames := input.Roles
	if len(roleNames) == 0 {
		roleNames = []sec.RoleName{sec.RoleUser}
	}

	roles := make([]sec.Role, 0, len(roleNames))
	for _, name := range roleNames {
		roles = append(roles, sec.Role{Name: name})
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuidv7.New(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		Enabled:      true,
		Roles:        roles,
	}

	if err := service.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

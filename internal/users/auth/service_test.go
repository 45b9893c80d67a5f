// Copyright (c) 2026 CBCoder. All rights reserved.

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucleber13/webapp/internal/platform/apperr"
	"github.com/lucleber13/webapp/internal/platform/dberr"
	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/internal/users/auth"
)

const serviceTestSecret = "0123456789abcdef0123456789abcdef"

// # In-Memory Fakes

type fakeUserStore struct {
	byEmail map[string]*auth.User
	created []*auth.User
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, dberr.ErrNotFound
}

func (f *fakeUserStore) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeUserStore) Create(_ context.Context, user *auth.User) error {
	f.byEmail[user.Email] = user
	f.created = append(f.created, user)
	return nil
}

type fakeThrottle struct {
	counts map[string]int
	resets int
}

func (f *fakeThrottle) Failures(_ context.Context, email string) (int, error) {
	return f.counts[email], nil
}

func (f *fakeThrottle) RecordFailure(_ context.Context, email string) error {
	f.counts[email]++
	return nil
}

func (f *fakeThrottle) Reset(_ context.Context, email string) error {
	f.counts[email] = 0
	f.resets++
	return nil
}

// # Fixture

type serviceFixture struct {
	service  *auth.Service
	users    *fakeUserStore
	throttle *fakeThrottle
	tokens   *sec.TokenService
}

func newServiceFixture(t *testing.T, embedRoles bool) *serviceFixture {
	t.Helper()

	tokens, err := sec.NewTokenService(serviceTestSecret, "cbcoder.webapp", 15*time.Minute, 168*time.Hour)
	require.NoError(t, err)

	hash, err := sec.HashPassword("correct horse battery")
	require.NoError(t, err)

	users := &fakeUserStore{byEmail: map[string]*auth.User{
		"alice@example.com": {
			ID:           "0192aaaa-0000-7000-8000-000000000001",
			FirstName:    "Alice",
			LastName:     "Doe",
			Email:        "alice@example.com",
			PasswordHash: hash,
			Enabled:      true,
			Roles:        []sec.Role{{ID: 2, Name: sec.RoleAdmin}},
		},
		"mallory@example.com": {
			ID:           "0192aaaa-0000-7000-8000-000000000002",
			FirstName:    "Mallory",
			LastName:     "Doe",
			Email:        "mallory@example.com",
			PasswordHash: hash,
			Enabled:      false,
			Roles:        []sec.Role{{ID: 4, Name: sec.RoleUser}},
		},
	}}

	throttle := &fakeThrottle{counts: map[string]int{}}

	return &serviceFixture{
		service:  auth.NewService(users, throttle, tokens, embedRoles),
		users:    users,
		throttle: throttle,
		tokens:   tokens,
	}
}

// # Login

/*
TestService_Login_Success asserts a valid credential pair yields a token pair
whose tokens validate for the subject, and resets the failure counter.
*/
func TestService_Login_Success(t *testing.T) {
	fixture := newServiceFixture(t, false)
	fixture.throttle.counts["alice@example.com"] = 3

	pair, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	assert.True(t, fixture.tokens.Validate(pair.AccessToken, "alice@example.com"))
	assert.True(t, fixture.tokens.Validate(pair.RefreshToken, "alice@example.com"))
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, int64(15*60), pair.ExpiresIn)

	assert.Equal(t, 0, fixture.throttle.counts["alice@example.com"])
	assert.Equal(t, 1, fixture.throttle.resets)
}

/*
TestService_Login_GenericFailure asserts that unknown email, wrong password
and disabled account all produce the exact same error, so responses cannot be
used to enumerate accounts.
*/
func TestService_Login_GenericFailure(t *testing.T) {
	fixture := newServiceFixture(t, false)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown_email", "nobody@example.com", "correct horse battery"},
		{"wrong_password", "alice@example.com", "wrong"},
		{"disabled_account", "mallory@example.com", "correct horse battery"},
	}

	var messages []string
	var codes []string

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.service.Login(context.Background(), auth.LoginInput{
				Email:    tt.email,
				Password: tt.password,
			})
			require.Error(t, err)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, 401, appError.HTTPStatus)

			messages = append(messages, appError.Message)
			codes = append(codes, appError.Code)
		})
	}

	// All three failures are byte-identical to the caller.
	for i := 1; i < len(messages); i++ {
		assert.Equal(t, messages[0], messages[i])
		assert.Equal(t, codes[0], codes[i])
	}
}

/*
TestService_Login_Throttle asserts the failure counter locks the email out
after the limit and that lockout responses are rate-limit errors, not
credential errors.
*/
func TestService_Login_Throttle(t *testing.T) {
	fixture := newServiceFixture(t, false)

	for i := 0; i < auth.MaxLoginFailures; i++ {
		_, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "alice@example.com",
			Password: "wrong",
		})
		require.Error(t, err)
	}

	// Even the correct password is refused while locked out.
	_, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 429, appError.HTTPStatus)
}

// # Refresh

/*
TestService_Refresh_Rotation asserts the rotation flow: a valid refresh token
yields a brand-new pair, and the old refresh token remains independently
valid until its own expiry. There is no server-side revocation.
*/
func TestService_Refresh_Rotation(t *testing.T) {
	fixture := newServiceFixture(t, false)

	first, err := fixture.service.Login(context.Background(), auth.LoginInput{
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	second, err := fixture.service.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)

	assert.True(t, fixture.tokens.Validate(second.AccessToken, "alice@example.com"))
	assert.True(t, fixture.tokens.Validate(second.RefreshToken, "alice@example.com"))

	// The old refresh token still works: stateless by design.
	third, err := fixture.service.Refresh(context.Background(), first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, fixture.tokens.Validate(third.AccessToken, "alice@example.com"))
}

/*
TestService_Refresh_Rejections asserts every refresh failure collapses into
one generic 401.
*/
func TestService_Refresh_Rejections(t *testing.T) {
	fixture := newServiceFixture(t, false)

	expiredTokens, err := sec.NewTokenService(serviceTestSecret, "cbcoder.webapp", 15*time.Minute, 168*time.Hour,
		sec.WithClock(func() time.Time { return time.Now().Add(-200 * time.Hour) }),
	)
	require.NoError(t, err)
	expiredRefresh, err := expiredTokens.IssueRefreshToken("alice@example.com", nil)
	require.NoError(t, err)

	disabledRefresh, err := fixture.tokens.IssueRefreshToken("mallory@example.com", nil)
	require.NoError(t, err)

	unknownRefresh, err := fixture.tokens.IssueRefreshToken("nobody@example.com", nil)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not.a.token"},
		{"expired", expiredRefresh},
		{"disabled_account", disabledRefresh},
		{"unknown_subject", unknownRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fixture.service.Refresh(context.Background(), tt.token)
			require.Error(t, err)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, 401, appError.HTTPStatus)
			assert.Equal(t, "Invalid or expired refresh token", appError.Message)
		})
	}
}

// # Registration

/*
TestService_Register covers enrollment: hashing, the USER default role, and
the duplicate-email conflict.
*/
func TestService_Register(t *testing.T) {
	fixture := newServiceFixture(t, false)

	t.Run("defaults_to_user_role", func(t *testing.T) {
		user, err := fixture.service.Register(context.Background(), auth.RegisterInput{
			FirstName: "Bob",
			LastName:  "Doe",
			Email:     "bob@example.com",
			Password:  "a strong password",
		})
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.True(t, user.Enabled)
		assert.True(t, user.HasRole(sec.RoleUser))

		// Never store the plaintext.
		assert.NotEqual(t, "a strong password", user.PasswordHash)
		assert.True(t, sec.CheckPasswordHash("a strong password", user.PasswordHash))
	})

	t.Run("explicit_roles", func(t *testing.T) {
		user, err := fixture.service.Register(context.Background(), auth.RegisterInput{
			FirstName: "Carol",
			LastName:  "Doe",
			Email:     "carol@example.com",
			Password:  "a strong password",
			Roles:     []sec.RoleName{sec.RoleSales},
		})
		require.NoError(t, err)
		assert.True(t, user.HasRole(sec.RoleSales))
		assert.False(t, user.HasRole(sec.RoleUser))
	})

	t.Run("duplicate_email_conflicts", func(t *testing.T) {
		_, err := fixture.service.Register(context.Background(), auth.RegisterInput{
			FirstName: "Alice",
			LastName:  "Clone",
			Email:     "alice@example.com",
			Password:  "a strong password",
		})
		require.Error(t, err)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 409, appError.HTTPStatus)
	})
}

// # Role Embedding

/*
TestService_Login_EmbedRoles asserts the "token" role source embeds the role
snapshot at issuance, while the default leaves access tokens snapshot-free.
*/
func TestService_Login_EmbedRoles(t *testing.T) {
	t.Run("store_source_no_snapshot", func(t *testing.T) {
		fixture := newServiceFixture(t, false)

		pair, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "alice@example.com",
			Password: "correct horse battery",
		})
		require.NoError(t, err)

		roles, err := fixture.tokens.ParseRoles(pair.AccessToken)
		require.NoError(t, err)
		assert.Empty(t, roles)
	})

	t.Run("token_source_embeds_snapshot", func(t *testing.T) {
		fixture := newServiceFixture(t, true)

		pair, err := fixture.service.Login(context.Background(), auth.LoginInput{
			Email:    "alice@example.com",
			Password: "correct horse battery",
		})
		require.NoError(t, err)

		roles, err := fixture.tokens.ParseRoles(pair.AccessToken)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"ADMIN"}, roles)
	})
}

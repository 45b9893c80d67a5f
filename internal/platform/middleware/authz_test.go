// Copyright (c) 2026 CBCoder. All rights reserved.

package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucleber13/webapp/internal/platform/constants"
	"github.com/lucleber13/webapp/internal/platform/ctxutil"
	"github.com/lucleber13/webapp/internal/platform/middleware"
	"github.com/lucleber13/webapp/internal/platform/sec"
)

const gateTestSecret = "0123456789abcdef0123456789abcdef"

// fakePrincipals is an in-memory PrincipalSource.
type fakePrincipals struct {
	records map[string]*middleware.StoredPrincipal
	lookups int
}

func (f *fakePrincipals) FindPrincipal(_ context.Context, subject string) (*middleware.StoredPrincipal, error) {
	f.lookups++
	return f.records[subject], nil
}

// newGateFixture builds a real token service plus one stored principal.
func newGateFixture(t *testing.T) (*sec.TokenService, *fakePrincipals) {
	t.Helper()

	tokens, err := sec.NewTokenService(gateTestSecret, "cbcoder.webapp", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	principals := &fakePrincipals{records: map[string]*middleware.StoredPrincipal{
		"alice@example.com": {
			Subject: "alice@example.com",
			Enabled: true,
			Roles:   sec.NewRoleSet(sec.RoleAdmin),
		},
		"mallory@example.com": {
			Subject: "mallory@example.com",
			Enabled: false,
			Roles:   sec.NewRoleSet(sec.RoleUser),
		},
	}}

	return tokens, principals
}

// captureHandler records the principal observed by the downstream handler.
func captureHandler(observed **sec.Principal) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		*observed = ctxutil.GetPrincipal(request.Context())
		writer.WriteHeader(http.StatusOK)
	})
}

/*
TestAuthenticate_Anonymous asserts the gate lets credential-less and
bad-credential requests straight through with an empty security context.
Public routes must keep working in every one of these cases.
*/
func TestAuthenticate_Anonymous(t *testing.T) {
	tokens, principals := newGateFixture(t)

	expiredTokens, err := sec.NewTokenService(gateTestSecret, "cbcoder.webapp", time.Hour, 24*time.Hour,
		sec.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }),
	)
	require.NoError(t, err)
	expiredToken, err := expiredTokens.IssueAccessToken("alice@example.com")
	require.NoError(t, err)

	foreignTokens, err := sec.NewTokenService("fedcba9876543210fedcba9876543210", "cbcoder.webapp", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	foreignToken, err := foreignTokens.IssueAccessToken("alice@example.com")
	require.NoError(t, err)

	unknownToken, err := tokens.IssueAccessToken("nobody@example.com")
	require.NoError(t, err)

	disabledToken, err := tokens.IssueAccessToken("mallory@example.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"no_header", ""},
		{"not_bearer", "Basic dXNlcjpwYXNz"},
		{"empty_bearer", "Bearer "},
		{"garbage_token", "Bearer not.a.token"},
		{"wrong_key", "Bearer " + foreignToken},
		{"expired_token", "Bearer " + expiredToken},
		{"unknown_subject", "Bearer " + unknownToken},
		{"disabled_account", "Bearer " + disabledToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var observed *sec.Principal
			gate := middleware.Authenticate(tokens, principals, constants.RoleSourceStore)
			handler := gate(captureHandler(&observed))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/login", nil)
			if tt.header != "" {
				request.Header.Set(constants.HeaderAuthorization, tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			// The request reaches the handler; it is just anonymous.
			assert.Equal(t, http.StatusOK, recorder.Code)
			assert.Nil(t, observed)
		})
	}
}

/*
TestAuthenticate_ValidToken asserts a good bearer token yields a populated
security context whose roles come from storage.
*/
func TestAuthenticate_ValidToken(t *testing.T) {
	tokens, principals := newGateFixture(t)

	token, err := tokens.IssueAccessToken("alice@example.com")
	require.NoError(t, err)

	var observed *sec.Principal
	gate := middleware.Authenticate(tokens, principals, constants.RoleSourceStore)
	handler := gate(captureHandler(&observed))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, observed)
	assert.Equal(t, "alice@example.com", observed.Subject)
	assert.True(t, observed.Roles.Has(sec.RoleAdmin))
	assert.Equal(t, 1, principals.lookups)
}

/*
TestAuthenticate_Idempotent asserts that stacking the gate twice performs
authentication at most once.
*/
func TestAuthenticate_Idempotent(t *testing.T) {
	tokens, principals := newGateFixture(t)

	token, err := tokens.IssueAccessToken("alice@example.com")
	require.NoError(t, err)

	var observed *sec.Principal
	gate := middleware.Authenticate(tokens, principals, constants.RoleSourceStore)
	handler := gate(gate(captureHandler(&observed)))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, observed)
	assert.Equal(t, 1, principals.lookups)
}

/*
TestAuthenticate_TokenRoleSource asserts that with the "token" role source
the authority set comes from the snapshot embedded at issuance, not storage.
*/
func TestAuthenticate_TokenRoleSource(t *testing.T) {
	tokens, principals := newGateFixture(t)

	// Stored roles say ADMIN; the snapshot says SALES.
	token, err := tokens.IssueAccessTokenWithRoles("alice@example.com", []string{"SALES"})
	require.NoError(t, err)

	var observed *sec.Principal
	gate := middleware.Authenticate(tokens, principals, constants.RoleSourceToken)
	handler := gate(captureHandler(&observed))

	request := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	require.NotNil(t, observed)
	assert.True(t, observed.Roles.Has(sec.RoleSales))
	assert.False(t, observed.Roles.Has(sec.RoleAdmin))
}

/*
TestRequireAnyRole distinguishes the two deny causes: 401 for an anonymous
request, 403 for an authenticated one with the wrong roles.
*/
func TestRequireAnyRole(t *testing.T) {
	tests := []struct {
		name       string
		principal  *sec.Principal
		required   []sec.RoleName
		wantStatus int
	}{
		{
			name:       "anonymous_gets_401",
			principal:  nil,
			required:   []sec.RoleName{sec.RoleAdmin},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong_role_gets_403",
			principal:  &sec.Principal{Subject: "alice@example.com", Roles: sec.NewRoleSet(sec.RoleUser)},
			required:   []sec.RoleName{sec.RoleSuperAdmin, sec.RoleAdmin, sec.RoleSales},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "admin_denied_on_superadmin_route",
			principal:  &sec.Principal{Subject: "alice@example.com", Roles: sec.NewRoleSet(sec.RoleAdmin)},
			required:   []sec.RoleName{sec.RoleSuperAdmin},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "one_shared_role_suffices",
			principal:  &sec.Principal{Subject: "alice@example.com", Roles: sec.NewRoleSet(sec.RoleSales)},
			required:   []sec.RoleName{sec.RoleSuperAdmin, sec.RoleAdmin, sec.RoleSales},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := middleware.RequireAnyRole(tt.required...)
			handler := policy(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(http.StatusOK)
			}))

			request := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
			if tt.principal != nil {
				request = request.WithContext(ctxutil.WithPrincipal(request.Context(), tt.principal))
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantStatus, recorder.Code)
		})
	}
}

/*
TestRequireAuth asserts the plain authentication policy.
*/
func TestRequireAuth(t *testing.T) {
	handler := middleware.RequireAuth(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	}))

	t.Run("anonymous_gets_401", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("authenticated_passes", func(t *testing.T) {
		principal := &sec.Principal{Subject: "alice@example.com", Roles: sec.NewRoleSet(sec.RoleUser)}
		request := httptest.NewRequest(http.MethodGet, "/", nil)
		request = request.WithContext(ctxutil.WithPrincipal(request.Context(), principal))

		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

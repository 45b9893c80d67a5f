// Copyright (c) 2026 CBCoder. All rights reserved.

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/lucleber13/webapp/internal/platform/apperr"
	"github.com/lucleber13/webapp/internal/platform/constants"
	"github.com/lucleber13/webapp/internal/platform/ctxutil"
	"github.com/lucleber13/webapp/internal/platform/respond"
	"github.com/lucleber13/webapp/internal/platform/sec"
)

// TokenVerifier defines the token primitives the authentication gate needs.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the gate from the sec.TokenService
// implementation, allowing mocks to be injected during unit testing.
type TokenVerifier interface {
	// ParseSubject extracts the subject after structure+signature checks.
	ParseSubject(token string) (string, error)

	// Validate reports whether the token is valid for the subject.
	Validate(token, expectedSubject string) bool

	// ParseRoles returns the role snapshot embedded at issuance, if any.
	ParseRoles(token string) ([]string, error)
}

// PrincipalSource loads the current identity record for a subject.
//
// The returned principal reflects storage state at lookup time; role
// membership is never taken from a cache that outlives the request.
type PrincipalSource interface {
	FindPrincipal(ctx context.Context, subject string) (*StoredPrincipal, error)
}

// StoredPrincipal is the storage view of an identity consumed by the gate.
type StoredPrincipal struct {
	Subject string
	Enabled bool
	Roles   sec.RoleSet
}

// Authenticate is the per-request authentication gate. It runs exactly once
// before any handler logic and populates the request-scoped security context.
//
// # Flow
//  1. If the context is already authenticated (re-entrant chains), skip.
//  2. No 'Authorization: Bearer <token>' header: proceed anonymous. Public
//     routes must work with no header, so this is not an error.
//  3. Token present but malformed or badly signed: proceed anonymous. The
//     route's own policy rejects later if authentication is required.
//  4. Subject resolves to no stored principal, or a disabled one: anonymous.
//  5. Full validation against the stored subject fails: anonymous.
//  6. Otherwise attach a [sec.Principal] snapshot to the request context.
//
// # Role freshness
//
// With roleSource "store" the authority set is re-derived from storage on
// every request, so grants and revocations take effect immediately at the
// cost of one lookup per authenticated request. With "token" the snapshot
// embedded at issuance is trusted and stays stale until the token expires.
func Authenticate(verifier TokenVerifier, principals PrincipalSource, roleSource string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. At-most-once authentication per request ───────────────────
			if ctxutil.GetPrincipal(request.Context()) != nil {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Bearer extraction ──────────────────────────────────────────
			authHeader := request.Header.Get(constants.HeaderAuthorization)
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				next.ServeHTTP(writer, request)
				return
			}
			token := parts[1]

			// ── 3. Structural verification ────────────────────────────────────
			// Malformed or tampered tokens are absorbed here; they never
			// surface directly to the caller.
			subject, err := verifier.ParseSubject(token)
			if err != nil {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 4. Principal resolution ───────────────────────────────────────
			stored, err := principals.FindPrincipal(request.Context(), subject)
			if err != nil || stored == nil || !stored.Enabled {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 5. Full validation against the stored subject ─────────────────
			if !verifier.Validate(token, stored.Subject) {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 6. Context population ─────────────────────────────────────────
			principal := &sec.Principal{
				Subject: stored.Subject,
				Roles:   authoritySet(verifier, token, stored, roleSource),
			}

			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// authoritySet picks the authority snapshot per the configured role source.
func authoritySet(verifier TokenVerifier, token string, stored *StoredPrincipal, roleSource string) sec.RoleSet {
	if roleSource == constants.RoleSourceToken {
		if names, err := verifier.ParseRoles(token); err == nil && len(names) > 0 {
			set := sec.RoleSet{}
			for _, name := range names {
				if role, ok := sec.ParseRole(name); ok {
					set[role] = struct{}{}
				}
			}
			return set
		}
		// Tokens without a snapshot (issued before the mode switch) fall
		// back to the stored set.
	}
	return stored.Roles.Clone()
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAnyRole blocks requests whose principal does not hold at least one
// of the required roles. This is the coarse route-prefix policy; operations
// needing a finer check re-test the context authority set at the call site.
//
// # Deny causes
//
// The two deny causes are deliberately distinguishable: an empty security
// context maps to 401 (not logged in), an insufficient role set to 403
// (logged in, wrong role).
func RequireAnyRole(required ...sec.RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication check ───────────────────────────────────────
			if principal == nil {
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
				return
			}

			// ── 2. Authorization check (set intersection) ─────────────────────
			if !principal.Roles.Intersects(required...) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient role"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}

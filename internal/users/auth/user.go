// Copyright (c) 2026 CBCoder. All rights reserved.

/*
Package auth implements the identity and access management core.

It defines the stored principal entity (User) and the credential/refresh
lifecycle: login, token refresh and registration.

# Architecture

  - Service: Orchestrates the credential & refresh state machine.
  - Stores: Abstracted interfaces for PostgreSQL (users, roles) and
    Redis (failed-login throttle).
  - Security: bcrypt password hashing and HMAC-signed tokens, both provided
    by the platform sec package.
*/
package auth

import (
	"time"

	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/pkg/slice"
)

// # Domain Entities

// User is the stored principal record: identity, credential hash, enabled
// flag and current role memberships.
//
// Role membership is many-to-many and lives in storage only; it is never
// cached inside a token by default, so a freshly loaded User always reflects
// current grants.
type User struct {
	ID           string     `json:"id"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Explicitly omitted from JSON for security.
	Enabled      bool       `json:"enabled"`
	Roles        []sec.Role `json:"roles"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// RoleSet returns the user's current role memberships as a set.
func (u *User) RoleSet() sec.RoleSet {
	set := make(sec.RoleSet, len(u.Roles))
	for _, role := range u.Roles {
		set[role.Name] = struct{}{}
	}
	return set
}

// RoleNames returns the user's role names as plain strings.
func (u *User) RoleNames() []string {
	return slice.Map(u.Roles, func(r sec.Role) string { return string(r.Name) })
}

// HasRole reports whether the user currently holds the given role.
func (u *User) HasRole(name sec.RoleName) bool {
	for _, role := range u.Roles {
		if role.Name == name {
			return true
		}
	}
	return false
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldFirstName    = "first_name"
	FieldLastName     = "last_name"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldRoles        = "roles"
	FieldRefreshToken = "refresh_token"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUserID       = "user_id"
)

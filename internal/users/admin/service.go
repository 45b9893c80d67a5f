// Copyright (c) 2026 CBCoder. All rights reserved.

/*
Package admin implements the superadmin-only role administration flows:
granting and revoking the ADMIN role on existing accounts.

The route prefix is already guarded by the coarse role policy, but the
service re-tests the caller's authority set per operation. Route policy and
operation policy can drift independently, so the sensitive mutation keeps its
own check.
*/
package admin

import (
	"context"

	"github.com/lucleber13/webapp/internal/platform/apperr"
	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/internal/users/auth"
)

// # Store Contract

// UserStore is the data access contract the admin service needs. It is
// satisfied by [auth.PostgresUserStore].
type UserStore interface {
	// FindByID returns the account with the given ID, roles included.
	FindByID(ctx context.Context, id string) (*auth.User, error)

	// FindRoleByName resolves a stored role record from its unique name.
	FindRoleByName(ctx context.Context, name sec.RoleName) (*sec.Role, error)

	// AddRole grants a role membership to an account.
	AddRole(ctx context.Context, userID string, roleID int64) error

	// RemoveRole revokes a role membership from an account.
	RemoveRole(ctx context.Context, userID string, roleID int64) error
}

// # Service

// Service orchestrates role administration.
type Service struct {
	users UserStore
}

// NewService constructs the role administration service.
func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// GrantInput identifies the target account for an admin grant. The email
// must match the stored account's email; requiring both values makes an
// accidental grant to the wrong ID fail loudly.
type GrantInput struct {
	UserID string
	Email  string
}

// GrantAdmin adds the ADMIN role to the target account.
//
// # Errors
//   - 403 when the caller does not hold SUPERADMIN.
//   - 404 when the target account does not exist.
//   - 400 when the email does not belong to the target account.
//   - 409 when the account already holds ADMIN.
func (service *Service) GrantAdmin(ctx context.Context, caller *sec.Principal, input GrantInput) (*auth.User, error) {
	if err := requireSuperAdmin(caller, "Only superadmin can grant the admin role"); err != nil {
		return nil, err
	}

	user, err := service.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if user.Email != input.Email {
		return nil, apperr.ValidationError("Email does not match the target account")
	}

	if user.HasRole(sec.RoleAdmin) {
		return nil, apperr.Conflict("Account already holds the admin role")
	}

	role, err := service.users.FindRoleByName(ctx, sec.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := service.users.AddRole(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}

	// With the store role source the wider authority applies from the
	// holder's very next request; no re-login is needed.
	return service.users.FindByID(ctx, user.ID)
}

// RevokeAdmin removes the ADMIN role from the target account.
//
// # Errors
//   - 403 when the caller does not hold SUPERADMIN.
//   - 404 when the target account does not exist.
//   - 409 when the account does not hold ADMIN.
func (service *Service) RevokeAdmin(ctx context.Context, caller *sec.Principal, userID string) (*auth.User, error) {
	if err := requireSuperAdmin(caller, "Only superadmin can revoke the admin role"); err != nil {
		return nil, err
	}

	user, err := service.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !user.HasRole(sec.RoleAdmin) {
		return nil, apperr.Conflict("Account does not hold the admin role")
	}

	role, err := service.users.FindRoleByName(ctx, sec.RoleAdmin)
	if err != nil {
		return nil, err
	}

	if err := service.users.RemoveRole(ctx, user.ID, role.ID); err != nil {
		return nil, err
	}

	return service.users.FindByID(ctx, user.ID)
}

// requireSuperAdmin enforces the fine-grained operation policy.
func requireSuperAdmin(caller *sec.Principal, denyMessage string) error {
	if caller == nil {
		return apperr.Unauthorized("Authentication required")
	}
	if !caller.HasAnyRole(sec.RoleSuperAdmin) {
		return apperr.Forbidden(denyMessage)
	}
	return nil
}

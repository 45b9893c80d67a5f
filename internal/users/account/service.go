// Copyright (c) 2026 CBCoder. All rights reserved.

/*
Package account implements staff-facing user management: paginated listing,
lookup, profile updates and account removal.

Every endpoint in this package sits behind the role policy (SUPERADMIN,
ADMIN or SALES); the authentication package owns self-service flows.
*/
package account

import (
	"context"

	"github.com/lucleber13/webapp/internal/platform/apperr"
	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/internal/users/auth"
	"github.com/lucleber13/webapp/pkg/pagination"
	"github.com/lucleber13/webapp/pkg/pointer"
)

// # Store Contract

// UserStore is the data access contract the account service needs. It is
// satisfied by [auth.PostgresUserStore].
type UserStore interface {
	// FindByID returns the account with the given ID, roles included.
	FindByID(ctx context.Context, id string) (*auth.User, error)

	// ExistsByEmail reports whether an account with the email already exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// List returns one page of accounts plus the filtered total. An empty
	// roleNames slice means no role filter.
	List(ctx context.Context, params pagination.Params, roleNames []string) ([]*auth.User, int, error)

	// Update persists changes to the mutable profile fields.
	Update(ctx context.Context, user *auth.User) error

	// Delete removes an account and its role memberships.
	Delete(ctx context.Context, id string) error
}

// # Service

// Service orchestrates user management operations.
type Service struct {
	users UserStore
}

// NewService constructs the account management service.
func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// UpdateInput carries a partial profile update. Nil fields are left as-is.
type UpdateInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Enabled   *bool
}

// List returns one page of accounts with pagination metadata. The optional
// role filter keeps only accounts holding at least one of the named roles;
// unknown names are rejected up front rather than silently matching nothing.
func (service *Service) List(ctx context.Context, params pagination.Params, roleFilter []string) ([]*auth.User, pagination.Meta, error) {
	names := make([]string, 0, len(roleFilter))
	for _, raw := range roleFilter {
		role, ok := sec.ParseRole(raw)
		if !ok {
			return nil, pagination.Meta{}, apperr.ValidationError("Unknown role in filter: " + raw)
		}
		names = append(names, string(role))
	}

	users, total, err := service.users.List(ctx, params, names)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	return users, pagination.NewMeta(params.Page, params.Limit, total), nil
}

// Get returns a single account by ID.
func (service *Service) Get(ctx context.Context, id string) (*auth.User, error) {
	return service.users.FindByID(ctx, id)
}

// Update applies a partial profile update.
//
// When the email changes, uniqueness is re-checked first so the caller gets
// a clean conflict instead of a constraint violation surfacing from storage.
func (service *Service) Update(ctx context.Context, id string, input UpdateInput) (*auth.User, error) {
	user, err := service.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Email != nil && *input.Email != user.Email {
		taken, err := service.users.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, apperr.Conflict("Email already in use")
		}
	}

	user.FirstName = pointer.Fallback(input.FirstName, user.FirstName)
	user.LastName = pointer.Fallback(input.LastName, user.LastName)
	user.Email = pointer.Fallback(input.Email, user.Email)
	user.Enabled = pointer.Fallback(input.Enabled, user.Enabled)

	if err := service.users.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Delete removes an account permanently.
func (service *Service) Delete(ctx context.Context, id string) error {
	return service.users.Delete(ctx, id)
}

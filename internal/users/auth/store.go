// Copyright (c) 2026 CBCoder. All rights reserved.

package auth

import (
	"context"
)

// # User Data Access

// UserStore defines the data access contract for stored principals, as
// needed by the authentication flows. Wider contracts (listing, role
// mutation) are declared by the packages that consume them and are satisfied
// by the same PostgreSQL implementation.
type UserStore interface {
	// FindByID returns the account with the given ID, roles included.
	FindByID(ctx context.Context, id string) (*User, error)

	// FindByEmail returns the account with the given email, roles included.
	// Email lookup is exact and case-sensitive.
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail reports whether an account with the email already exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Create persists a brand-new account together with its role memberships.
	Create(ctx context.Context, user *User) error
}

// # Login Throttling

// LoginThrottle tracks consecutive failed login attempts per email.
//
// It deliberately stores only counters with a TTL, never tokens or
// sessions, so the bearer-token scheme stays stateless.
type LoginThrottle interface {
	// Failures returns the current consecutive-failure count for the email.
	Failures(ctx context.Context, email string) (int, error)

	// RecordFailure increments the failure count and refreshes its TTL.
	RecordFailure(ctx context.Context, email string) error

	// Reset clears the failure count after a successful login.
	Reset(ctx context.Context, email string) error
}

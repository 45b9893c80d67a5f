// Copyright (c) 2026 CBCoder. All rights reserved.

package auth

import "time"

// # Authentication Constraints

const (
	// MinPasswordLength is the minimum accepted password length at
	// registration and update.
	MinPasswordLength = 8

	// MaxLoginFailures is how many consecutive failed logins an email may
	// accumulate before the throttle kicks in.
	MaxLoginFailures = 5

	// LoginLockoutTTL is how long the failure counter (and therefore the
	// lockout) lives. Counters only; no session or token state is stored.
	LoginLockoutTTL = 15 * time.Minute

	// RefreshTokenType is the extra claim value stamped into refresh tokens
	// so they are recognizable in logs and debugging output.
	RefreshTokenType = "refresh"
)

// Copyright (c) 2026 CBCoder. All rights reserved.

package auth

import (
	"context"
	"errors"

	"github.com/lucleber13/webapp/internal/platform/dberr"
	"github.com/lucleber13/webapp/internal/platform/middleware"
)

// PrincipalAdapter bridges the user store to the authentication gate's
// [middleware.PrincipalSource] contract.
type PrincipalAdapter struct {
	users UserStore
}

// NewPrincipalAdapter wraps a user store for principal resolution.
func NewPrincipalAdapter(users UserStore) *PrincipalAdapter {
	return &PrincipalAdapter{users: users}
}

// FindPrincipal loads the current storage view of the subject. Unknown
// subjects return (nil, nil) so the gate proceeds anonymously instead of
// treating the miss as an infrastructure failure.
func (adapter *PrincipalAdapter) FindPrincipal(ctx context.Context, subject string) (*middleware.StoredPrincipal, error) {
	user, err := adapter.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &middleware.StoredPrincipal{
		Subject: user.Email,
		Enabled: user.Enabled,
		Roles:   user.RoleSet(),
	}, nil
}

// Copyright (c) 2026 CBCoder. All rights reserved.

package admin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucleber13/webapp/internal/platform/apperr"
	"github.com/lucleber13/webapp/internal/platform/dberr"
	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/internal/users/admin"
	"github.com/lucleber13/webapp/internal/users/auth"
)

// fakeUserStore is an in-memory role-administration store.
type fakeUserStore struct {
	byID  map[string]*auth.User
	roles map[sec.RoleName]*sec.Role
}

func (f *fakeUserStore) FindByID(_ context.Context, id string) (*auth.User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserStore) FindRoleByName(_ context.Context, name sec.RoleName) (*sec.Role, error) {
	role, ok := f.roles[name]
	if !ok {
		return nil, dberr.ErrNotFound
	}
	return role, nil
}

func (f *fakeUserStore) AddRole(_ context.Context, userID string, roleID int64) error {
	user := f.byID[userID]
	for _, role := range f.roles {
		if role.ID == roleID {
			user.Roles = append(user.Roles, *role)
			return nil
		}
	}
	return dberr.ErrNotFound
}

func (f *fakeUserStore) RemoveRole(_ context.Context, userID string, roleID int64) error {
	user := f.byID[userID]
	kept := user.Roles[:0]
	for _, role := range user.Roles {
		if role.ID != roleID {
			kept = append(kept, role)
		}
	}
	user.Roles = kept
	return nil
}

const (
	regularID = "0192bbbb-0000-7000-8000-000000000001"
	adminID   = "0192bbbb-0000-7000-8000-000000000002"
)

func newFixture() (*admin.Service, *fakeUserStore) {
	store := &fakeUserStore{
		byID: map[string]*auth.User{
			regularID: {
				ID:      regularID,
				Email:   "bob@example.com",
				Enabled: true,
				Roles:   []sec.Role{{ID: 4, Name: sec.RoleUser}},
			},
			adminID: {
				ID:      adminID,
				Email:   "carol@example.com",
				Enabled: true,
				Roles:   []sec.Role{{ID: 2, Name: sec.RoleAdmin}},
			},
		},
		roles: map[sec.RoleName]*sec.Role{
			sec.RoleSuperAdmin: {ID: 1, Name: sec.RoleSuperAdmin},
			sec.RoleAdmin:      {ID: 2, Name: sec.RoleAdmin},
			sec.RoleSales:      {ID: 3, Name: sec.RoleSales},
			sec.RoleUser:       {ID: 4, Name: sec.RoleUser},
		},
	}

	return admin.NewService(store), store
}

func superadmin() *sec.Principal {
	return &sec.Principal{
		Subject: "root@example.com",
		Roles:   sec.NewRoleSet(sec.RoleSuperAdmin),
	}
}

/*
TestService_GrantAdmin_Success asserts the happy path: a superadmin grants
ADMIN to a regular account identified by matching ID and email.
*/
func TestService_GrantAdmin_Success(t *testing.T) {
	service, store := newFixture()

	user, err := service.GrantAdmin(context.Background(), superadmin(), admin.GrantInput{
		UserID: regularID,
		Email:  "bob@example.com",
	})
	require.NoError(t, err)

	assert.True(t, user.HasRole(sec.RoleAdmin))
	assert.True(t, store.byID[regularID].HasRole(sec.RoleAdmin))
}

/*
TestService_GrantAdmin_Denied asserts the fine-grained operation policy: any
caller without SUPERADMIN is refused regardless of route policy, and 401 vs
403 depends on whether a principal exists at all.
*/
func TestService_GrantAdmin_Denied(t *testing.T) {
	service, _ := newFixture()

	tests := []struct {
		name       string
		caller     *sec.Principal
		wantStatus int
	}{
		{"anonymous", nil, 401},
		{"plain_admin", &sec.Principal{Subject: "carol@example.com", Roles: sec.NewRoleSet(sec.RoleAdmin)}, 403},
		{"sales", &sec.Principal{Subject: "dave@example.com", Roles: sec.NewRoleSet(sec.RoleSales)}, 403},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.GrantAdmin(context.Background(), tt.caller, admin.GrantInput{
				UserID: regularID,
				Email:  "bob@example.com",
			})
			require.Error(t, err)

			appError := apperr.As(err)
			require.NotNil(t, appError)
			assert.Equal(t, tt.wantStatus, appError.HTTPStatus)
		})
	}
}

/*
TestService_GrantAdmin_EmailBinding asserts a grant whose email does not
match the target account fails loudly instead of proceeding by ID alone.
*/
func TestService_GrantAdmin_EmailBinding(t *testing.T) {
	service, store := newFixture()

	_, err := service.GrantAdmin(context.Background(), superadmin(), admin.GrantInput{
		UserID: regularID,
		Email:  "carol@example.com",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 400, appError.HTTPStatus)
	assert.False(t, store.byID[regularID].HasRole(sec.RoleAdmin))
}

/*
TestService_GrantAdmin_Duplicate asserts granting ADMIN twice is a conflict.
*/
func TestService_GrantAdmin_Duplicate(t *testing.T) {
	service, _ := newFixture()

	_, err := service.GrantAdmin(context.Background(), superadmin(), admin.GrantInput{
		UserID: adminID,
		Email:  "carol@example.com",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 409, appError.HTTPStatus)
}

/*
TestService_GrantAdmin_UnknownTarget asserts a missing account maps to 404.
*/
func TestService_GrantAdmin_UnknownTarget(t *testing.T) {
	service, _ := newFixture()

	_, err := service.GrantAdmin(context.Background(), superadmin(), admin.GrantInput{
		UserID: "0192bbbb-0000-7000-8000-00000000dead",
		Email:  "ghost@example.com",
	})
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, 404, appError.HTTPStatus)
}

/*
TestService_RevokeAdmin covers revocation: success, the missing-role
conflict, and the superadmin-only policy.
*/
func TestService_RevokeAdmin(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		service, store := newFixture()

		user, err := service.RevokeAdmin(context.Background(), superadmin(), adminID)
		require.NoError(t, err)

		assert.False(t, user.HasRole(sec.RoleAdmin))
		assert.False(t, store.byID[adminID].HasRole(sec.RoleAdmin))
	})

	t.Run("not_an_admin", func(t *testing.T) {
		service, _ := newFixture()

		_, err := service.RevokeAdmin(context.Background(), superadmin(), regularID)
		require.Error(t, err)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 409, appError.HTTPStatus)
	})

	t.Run("non_superadmin_denied", func(t *testing.T) {
		service, _ := newFixture()
		caller := &sec.Principal{Subject: "carol@example.com", Roles: sec.NewRoleSet(sec.RoleAdmin)}

		_, err := service.RevokeAdmin(context.Background(), caller, adminID)
		require.Error(t, err)

		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, 403, appError.HTTPStatus)
	})
}

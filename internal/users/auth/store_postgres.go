// Copyright (c) 2026 CBCoder. All rights reserved.

package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lucleber13/webapp/internal/platform/dberr"
	"github.com/lucleber13/webapp/internal/platform/sec"
	"github.com/lucleber13/webapp/pkg/pagination"
)

// PostgresUserStore implements the user data access contracts using pgx.
//
// It satisfies [UserStore] plus the wider store interfaces declared by the
// account and admin packages, so a single pool-backed instance serves every
// domain.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a new PostgreSQL implementation of the user stores.
func NewUserStore(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

const userColumns = `id, first_name, last_name, email, password_hash, enabled, created_at, updated_at`

// scanUser hydrates one account row.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Enabled,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// loadRoles attaches the current role memberships to a user.
func (store *PostgresUserStore) loadRoles(ctx context.Context, user *User) error {
	const query = `
		SELECT r.id, r.name
		FROM users.role r
		JOIN users.account_role ar ON ar.role_id = r.id
		WHERE ar.account_id = $1
		ORDER BY r.id`

	rows, err := store.pool.Query(ctx, query, user.ID)
	if err != nil {
		return fmt.Errorf("postgres_user_store_load_roles_failed: %w", err)
	}
	defer rows.Close()

	user.Roles = user.Roles[:0]
	for rows.Next() {
		var role sec.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return fmt.Errorf("postgres_user_store_scan_role_failed: %w", err)
		}
		user.Roles = append(user.Roles, role)
	}

	return rows.Err()
}

// FindByID retrieves an account and its roles by primary key.
func (store *PostgresUserStore) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE id = $1`

	user, err := scanUser(store.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, dberr.Wrap(err)
	}

	if err := store.loadRoles(ctx, user); err != nil {
		return nil, dberr.Wrap(err)
	}

	return user, nil
}

// FindByEmail retrieves an account and its roles by unique email.
// The lookup is exact and case-sensitive.
func (store *PostgresUserStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users.account WHERE email = $1`

	user, err := scanUser(store.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, dberr.Wrap(err)
	}

	if err := store.loadRoles(ctx, user); err != nil {
		return nil, dberr.Wrap(err)
	}

	return user, nil
}

// ExistsByEmail reports whether an account with the email already exists.
func (store *PostgresUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users.account WHERE email = $1)`

	var exists bool
	if err := store.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, dberr.Wrap(err)
	}

	return exists, nil
}

// Create persists a new account plus its role memberships in one transaction.
func (store *PostgresUserStore) Create(ctx context.Context, user *User) error {
	const insertAccount = `
		INSERT INTO users.account (
			id, first_name, last_name, email, password_hash, enabled, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	const insertRoles = `
		INSERT INTO users.account_role (account_id, role_id)
		SELECT $1, id FROM users.role WHERE name = ANY($2)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	tx, err := store.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertAccount,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Enabled,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err)
	}

	if len(user.Roles) > 0 {
		names := make([]string, len(user.Roles))
		for i, role := range user.Roles {
			names[i] = string(role.Name)
		}
		if _, err := tx.Exec(ctx, insertRoles, user.ID, names); err != nil {
			return dberr.Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap(err)
	}

	// Reload so the caller sees role IDs as stored.
	return store.loadRoles(ctx, user)
}

// Update persists changes to the mutable profile fields.
func (store *PostgresUserStore) Update(ctx context.Context, user *User) error {
	const query = `
		UPDATE users.account
		SET first_name = $2, last_name = $3, email = $4, enabled = $5, updated_at = $6
		WHERE id = $1`

	user.UpdatedAt = time.Now()

	tag, err := store.pool.Exec(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Enabled,
		user.UpdatedAt,
	)
	if err != nil {
		return dberr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// Delete removes an account; role memberships cascade in the schema.
func (store *PostgresUserStore) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users.account WHERE id = $1`

	tag, err := store.pool.Exec(ctx, query, id)
	if err != nil {
		return dberr.Wrap(err)
	}
	if tag.RowsAffected() == 0 {
		return dberr.ErrNotFound
	}

	return nil
}

// List returns one page of accounts, optionally filtered to those holding at
// least one of the given role names, together with the unfiltered-page total.
func (store *PostgresUserStore) List(ctx context.Context, params pagination.Params, roleNames []string) ([]*User, int, error) {
	const listQuery = `
		SELECT ` + userColumns + `
		FROM users.account a
		WHERE $3::text[] IS NULL OR EXISTS (
			SELECT 1 FROM users.account_role ar
			JOIN users.role r ON r.id = ar.role_id
			WHERE ar.account_id = a.id AND r.name = ANY($3)
		)
		ORDER BY a.id
		LIMIT $1 OFFSET $2`

	const countQuery = `
		SELECT COUNT(*)
		FROM users.account a
		WHERE $1::text[] IS NULL OR EXISTS (
			SELECT 1 FROM users.account_role ar
			JOIN users.role r ON r.id = ar.role_id
			WHERE ar.account_id = a.id AND r.name = ANY($1)
		)`

	var filter any
	if len(roleNames) > 0 {
		filter = roleNames
	}

	var total int
	if err := store.pool.QueryRow(ctx, countQuery, filter).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err)
	}

	rows, err := store.pool.Query(ctx, listQuery, params.Limit, params.Offset(), filter)
	if err != nil {
		return nil, 0, dberr.Wrap(err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err)
	}

	for _, user := range users {
		if err := store.loadRoles(ctx, user); err != nil {
			return nil, 0, dberr.Wrap(err)
		}
	}

	return users, total, nil
}

// FindRoleByName resolves a stored role record from its unique name.
func (store *PostgresUserStore) FindRoleByName(ctx context.Context, name sec.RoleName) (*sec.Role, error) {
	const query = `SELECT id, name FROM users.role WHERE name = $1`

	role := &sec.Role{}
	if err := store.pool.QueryRow(ctx, query, string(name)).Scan(&role.ID, &role.Name); err != nil {
		return nil, dberr.Wrap(err)
	}

	return role, nil
}

// AddRole grants a role membership. Granting an already-held role is a
// storage no-op; callers detect duplicates beforehand for precise errors.
func (store *PostgresUserStore) AddRole(ctx context.Context, userID string, roleID int64) error {
	const query = `
		INSERT INTO users.account_role (account_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	if _, err := store.pool.Exec(ctx, query, userID, roleID); err != nil {
		return dberr.Wrap(err)
	}

	return store.touch(ctx, userID)
}

// RemoveRole revokes a role membership.
func (store *PostgresUserStore) RemoveRole(ctx context.Context, userID string, roleID int64) error {
	const query = `DELETE FROM users.account_role WHERE account_id = $1 AND role_id = $2`

	if _, err := store.pool.Exec(ctx, query, userID, roleID); err != nil {
		return dberr.Wrap(err)
	}

	return store.touch(ctx, userID)
}

// touch bumps updated_at after a role mutation.
func (store *PostgresUserStore) touch(ctx context.Context, userID string) error {
	const query = `UPDATE users.account SET updated_at = $2 WHERE id = $1`

	if _, err := store.pool.Exec(ctx, query, userID, time.Now()); err != nil {
		return dberr.Wrap(err)
	}

	return nil
}

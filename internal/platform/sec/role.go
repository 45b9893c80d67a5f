// Copyright (c) 2026 CBCoder. All rights reserved.

package sec

import "strings"

// # Roles

// RoleName identifies one of the closed set of authorization roles.
type RoleName string

const (
	// RoleSuperAdmin can manage admin grants and every other operation.
	RoleSuperAdmin RoleName = "SUPERADMIN"

	// RoleAdmin can manage user accounts.
	RoleAdmin RoleName = "ADMIN"

	// RoleSales can read and maintain customer-facing records.
	RoleSales RoleName = "SALES"

	// RoleUser is the default role for registered accounts.
	RoleUser RoleName = "USER"
)

// AllRoles lists every valid role name. Role names are globally unique.
var AllRoles = []RoleName{RoleSuperAdmin, RoleAdmin, RoleSales, RoleUser}

// ParseRole maps a string to a RoleName, case-insensitively.
// The second return reports whether the name belongs to the closed set.
func ParseRole(name string) (RoleName, bool) {
	candidate := RoleName(strings.ToUpper(strings.TrimSpace(name)))
	for _, role := range AllRoles {
		if candidate == role {
			return role, true
		}
	}
	return "", false
}

// Role is a stored role record: a stable ID plus its unique name.
// Role membership is many-to-many with user accounts.
type Role struct {
	ID   int64    `json:"id"`
	Name RoleName `json:"name"`
}

// # Role Sets

// RoleSet is a set of role names, unique by name, order irrelevant.
//
// The authorization decision rule everywhere is set intersection against a
// required-role set, never a numeric hierarchy.
type RoleSet map[RoleName]struct{}

// NewRoleSet builds a set from role names, dropping duplicates.
func NewRoleSet(roles ...RoleName) RoleSet {
	set := make(RoleSet, len(roles))
	for _, role := range roles {
		set[role] = struct{}{}
	}
	return set
}

// Has reports whether the set contains the given role.
func (s RoleSet) Has(role RoleName) bool {
	_, ok := s[role]
	return ok
}

// Intersects reports whether the set shares at least one role with required.
// An empty required set never matches.
func (s RoleSet) Intersects(required ...RoleName) bool {
	for _, role := range required {
		if s.Has(role) {
			return true
		}
	}
	return false
}

// Names returns the member role names as strings, in unspecified order.
func (s RoleSet) Names() []string {
	names := make([]string, 0, len(s))
	for role := range s {
		names = append(names, string(role))
	}
	return names
}

// Clone returns an independent copy, so a per-request snapshot cannot be
// mutated through a shared reference.
func (s RoleSet) Clone() RoleSet {
	clone := make(RoleSet, len(s))
	for role := range s {
		clone[role] = struct{}{}
	}
	return clone
}

// # Security Context

// Principal is the authenticated identity snapshot held by a request context.
//
// It is created at most once per request by the authentication gate and
// discarded with the request context on every exit path. The role set is an
// immutable snapshot captured at authentication time; it is never shared or
// reused across requests.
type Principal struct {
	// Subject is the unique, case-sensitive identity (an email address).
	Subject string

	// Roles is the authority snapshot captured by the gate.
	Roles RoleSet
}

// HasAnyRole reports whether the principal's authority set intersects the
// required roles.
func (p *Principal) HasAnyRole(required ...RoleName) bool {
	if p == nil {
		return false
	}
	return p.Roles.Intersects(required...)
}

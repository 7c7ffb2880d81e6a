// Package authz turns a session's role and permission grants into
// constant-time predicates.
package authz

import "github.com/naveenspark/opsdesk/pkg/domain"

// Resolver answers permission and role questions for exactly one session.
// It is immutable once built; the zero value denies everything.
type Resolver struct {
	role  domain.Role
	perms map[domain.Permission]struct{}
}

// New builds a Resolver for s. A nil s yields a Resolver that denies
// everything, which is how "no session" is represented.
func New(s *domain.Session) Resolver {
	if s == nil {
		return Resolver{}
	}
	perms := make(map[domain.Permission]struct{}, len(s.Permissions))
	for _, p := range s.Permissions {
		perms[p] = struct{}{}
	}
	return Resolver{role: s.Role, perms: perms}
}

// HasPermission reports whether p was granted. Names match exactly.
func (r Resolver) HasPermission(p domain.Permission) bool {
	if p == "" {
		return false
	}
	_, ok := r.perms[p]
	return ok
}

// HasRole reports whether the session's role is exactly role.
func (r Resolver) HasRole(role domain.Role) bool {
	return role != "" && r.role == role
}

package auth

import (
	"github.com/naveenspark/opsdesk/internal/authz"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// Snapshot is one consistent view of the auth state. The session and the
// resolver always come from the same login, so a permission answer and a
// role answer can never disagree about who is signed in.
type Snapshot struct {
	State    State
	session  *domain.Session
	resolver authz.Resolver
}

// User returns a copy of the session, if one is present.
func (s Snapshot) User() (domain.Session, bool) {
	if s.session == nil {
		return domain.Session{}, false
	}
	return s.session.Clone(), true
}

// Loading is true for every state before ready. Consumers must render a
// neutral waiting state rather than assume either signed in or signed out.
func (s Snapshot) Loading() bool {
	return s.State != StateReady
}

// Authenticated is true when ready with a session.
func (s Snapshot) Authenticated() bool {
	return s.State == StateReady && s.session != nil
}

// HasPermission is false whenever no session is present.
func (s Snapshot) HasPermission(p domain.Permission) bool {
	return s.resolver.HasPermission(p)
}

// HasRole is false whenever no session is present.
func (s Snapshot) HasRole(r domain.Role) bool {
	return s.resolver.HasRole(r)
}

// NewSnapshot builds a snapshot without a Context, for code that decides on
// snapshots (the route guard) and wants to exercise every state.
func NewSnapshot(state State, s *domain.Session) Snapshot {
	if s == nil {
		return Snapshot{State: state}
	}
	c := s.Clone()
	return Snapshot{State: state, session: &c, resolver: authz.New(&c)}
}

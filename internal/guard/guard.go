// Package guard decides whether a route may be shown for a given auth
// snapshot. Decisions are pure: the same snapshot and requirement always
// produce the same outcome.
package guard

import (
	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// Requirement is what a route demands. Zero fields mean "no requirement".
// When both are set, both must hold.
type Requirement struct {
	Permission domain.Permission
	Role       domain.Role
}

// Outcome is the kind of decision.
type Outcome int

const (
	// Wait renders a neutral placeholder while auth is still loading.
	Wait Outcome = iota
	// Render shows the requested route.
	Render
	// RedirectSignIn sends an anonymous visitor to sign in.
	RedirectSignIn
	// RedirectLanding sends a signed-in user who lacks access to the landing route.
	RedirectLanding
)

func (o Outcome) String() string {
	switch o {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case RedirectSignIn:
		return "redirect-signin"
	case RedirectLanding:
		return "redirect-landing"
	default:
		return "unknown"
	}
}

// Reason explains a redirect.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonUnauthenticated
	ReasonUnauthorized
)

func (r Reason) String() string {
	switch r {
	case ReasonUnauthenticated:
		return "sign in required"
	case ReasonUnauthorized:
		return "not permitted"
	default:
		return ""
	}
}

// Decision is the result of evaluating a requirement. Target is set by
// Registry.Navigate; Decide alone leaves it empty.
type Decision struct {
	Outcome Outcome
	Target  string
	Reason  Reason
}

// Decide evaluates req against snap. Checks run in a fixed order: loading,
// then presence of a session, then permission, then role.
func Decide(snap auth.Snapshot, req Requirement) Decision {
	if snap.Loading() {
		return Decision{Outcome: Wait}
	}
	if !snap.Authenticated() {
		return Decision{Outcome: RedirectSignIn, Reason: ReasonUnauthenticated}
	}
	if req.Permission != "" && !snap.HasPermission(req.Permission) {
		return Decision{Outcome: RedirectLanding, Reason: ReasonUnauthorized}
	}
	if req.Role != "" && !snap.HasRole(req.Role) {
		return Decision{Outcome: RedirectLanding, Reason: ReasonUnauthorized}
	}
	return Decision{Outcome: Render}
}

package guard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/naveenspark/opsdesk/internal/auth"
)

// SignInRoute is the name of the sign-in screen. It is always reachable.
const SignInRoute = "signin"

// DefaultLanding is the landing route when none is configured.
const DefaultLanding = "dashboard"

var (
	ErrDuplicateRoute = errors.New("route already registered")
	ErrUnknownRoute   = errors.New("unknown route")
	ErrLandingGuarded = errors.New("landing route must not carry requirements")
)

// Route is a named, protected screen.
type Route struct {
	Name  string
	Title string
	Key   string
	Requirement
}

// Registry holds the console's routes.
type Registry struct {
	landing string
	routes  map[string]Route
	order   []string
}

// NewRegistry creates a registry whose landing route is landing
// (DefaultLanding when empty). The landing route must be registered before
// Navigate is used.
func NewRegistry(landing string) *Registry {
	if landing == "" {
		landing = DefaultLanding
	}
	return &Registry{landing: landing, routes: make(map[string]Route)}
}

// Landing returns the landing route name.
func (r *Registry) Landing() string { return r.landing }

// Register adds a route. The landing route may not have requirements, so any
// signed-in user can always be redirected there.
func (r *Registry) Register(rt Route) error {
	if rt.Name == "" || rt.Name == SignInRoute {
		return fmt.Errorf("guard.Register: invalid route name %q", rt.Name)
	}
	if _, ok := r.routes[rt.Name]; ok {
		return fmt.Errorf("guard.Register %q: %w", rt.Name, ErrDuplicateRoute)
	}
	if rt.Name == r.landing && rt.Requirement != (Requirement{}) {
		return fmt.Errorf("guard.Register %q: %w", rt.Name, ErrLandingGuarded)
	}
	r.routes[rt.Name] = rt
	r.order = append(r.order, rt.Name)
	return nil
}

// Lookup returns the route registered under name.
func (r *Registry) Lookup(name string) (Route, bool) {
	rt, ok := r.routes[name]
	return rt, ok
}

// Routes returns the registered routes in registration order.
func (r *Registry) Routes() []Route {
	out := make([]Route, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.routes[n])
	}
	return out
}

// Visible returns the routes snap can reach right now, in registration order.
func (r *Registry) Visible(snap auth.Snapshot) []Route {
	var out []Route
	for _, rt := range r.Routes() {
		if Decide(snap, rt.Requirement).Outcome == Render {
			out = append(out, rt)
		}
	}
	return out
}

// Navigate decides what to show when name is requested and fills in Target.
// The sign-in route renders only for anonymous visitors; a signed-in user is
// sent to the landing route instead.
func (r *Registry) Navigate(snap auth.Snapshot, name string) (Decision, error) {
	if name == SignInRoute {
		switch {
		case snap.Loading():
			return Decision{Outcome: Wait, Target: SignInRoute}, nil
		case snap.Authenticated():
			return Decision{Outcome: RedirectLanding, Target: r.landing}, nil
		default:
			return Decision{Outcome: Render, Target: SignInRoute}, nil
		}
	}

	rt, ok := r.routes[name]
	if !ok {
		return Decision{}, fmt.Errorf("guard.Navigate %q: %w", name, ErrUnknownRoute)
	}
	d := Decide(snap, rt.Requirement)
	switch d.Outcome {
	case RedirectSignIn:
		d.Target = SignInRoute
	case RedirectLanding:
		d.Target = r.landing
	default:
		d.Target = name
	}
	return d, nil
}

// Names lists registered route names, sorted. Handy for flag help and errors.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.routes))
	for n := range r.routes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

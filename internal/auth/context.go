// Package auth is the process-wide view of who is signed in. It composes the
// session store with the permission resolver, tracks the startup lifecycle,
// and fans changes out to subscribers.
package auth

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/naveenspark/opsdesk/internal/authz"
	"github.com/naveenspark/opsdesk/internal/log"
	"github.com/naveenspark/opsdesk/internal/session"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// State is the lifecycle position of a Context.
type State int

const (
	// StateUninitialized is before Bootstrap has started.
	StateUninitialized State = iota
	// StateLoading is while the persisted session is being restored.
	StateLoading
	// StateReady holds a session or none, and is re-entered on every login/logout.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Context is the single source of identity for the console. Construct one
// per process with New; tests build as many isolated ones as they like.
type Context struct {
	store  *session.Store
	logger *log.Logger

	// mu orders snapshot publication between Bootstrap and store callbacks.
	mu   sync.Mutex
	snap atomic.Pointer[Snapshot]

	subMu  sync.Mutex
	subs   map[int]func(Snapshot)
	nextID int

	bootOnce  sync.Once
	stopStore func()
}

// New wires a Context to store. Login and logout performed on the store
// directly are observed too.
func New(store *session.Store, logger *log.Logger) *Context {
	if logger == nil {
		logger = log.Nop()
	}
	c := &Context{
		store:  store,
		logger: logger.With("component", "auth"),
		subs:   make(map[int]func(Snapshot)),
	}
	c.snap.Store(&Snapshot{State: StateUninitialized})
	c.stopStore = store.Subscribe(c.onSessionChange)
	return c
}

// Bootstrap moves the context through loading to ready, restoring any
// persisted session on the way. It never fails: bad records mean signed out.
// Only the first call does anything.
func (c *Context) Bootstrap() Snapshot {
	c.bootOnce.Do(func() {
		c.mu.Lock()
		if c.snap.Load().State == StateUninitialized {
			c.publishLocked(&Snapshot{State: StateLoading})
		}
		c.mu.Unlock()

		c.store.Bootstrap()

		c.mu.Lock()
		defer c.mu.Unlock()
		sess, ok := c.store.Current()
		snap := readySnapshot(sess, ok)
		c.logger.Debug("bootstrap complete", "authenticated", ok)
		c.publishLocked(snap)
	})
	return c.Snapshot()
}

// Login records s as the signed-in session. Subscribers have seen the new
// snapshot by the time it returns.
func (c *Context) Login(s domain.Session) error {
	return c.store.Login(s)
}

// Logout signs out. Safe to call when nobody is signed in.
func (c *Context) Logout() error {
	return c.store.Logout()
}

// Snapshot returns the current immutable state.
func (c *Context) Snapshot() Snapshot {
	return *c.snap.Load()
}

// User returns the signed-in session, if any.
func (c *Context) User() (domain.Session, bool) {
	return c.Snapshot().User()
}

// Loading is true until Bootstrap has completed.
func (c *Context) Loading() bool {
	return c.Snapshot().Loading()
}

// HasPermission reports whether the current session was granted p.
func (c *Context) HasPermission(p domain.Permission) bool {
	return c.Snapshot().HasPermission(p)
}

// HasRole reports whether the current session's role is exactly r.
func (c *Context) HasRole(r domain.Role) bool {
	return c.Snapshot().HasRole(r)
}

// Subscribe registers fn for every published snapshot and returns a cancel
// func. fn runs synchronously inside the state change and must not call
// Login, Logout or Bootstrap.
func (c *Context) Subscribe(fn func(Snapshot)) (cancel func()) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subs, id)
	}
}

// Close detaches the context from its store.
func (c *Context) Close() {
	c.stopStore()
}

func (c *Context) onSessionChange(s domain.Session, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publishLocked(readySnapshot(s, ok))
}

func (c *Context) publishLocked(snap *Snapshot) {
	c.snap.Store(snap)

	c.subMu.Lock()
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(*snap)
	}
}

func readySnapshot(s domain.Session, ok bool) *Snapshot {
	if !ok {
		return &Snapshot{State: StateReady}
	}
	s = s.Clone()
	return &Snapshot{State: StateReady, session: &s, resolver: authz.New(&s)}
}

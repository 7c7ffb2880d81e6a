// Package session owns the signed-in identity: the in-memory session and the
// durable record that lets a restart resume it without signing in again.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/naveenspark/opsdesk/internal/log"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

var (
	// ErrInvalidSession is returned by Login for a session missing required fields.
	ErrInvalidSession = errors.New("invalid session")

	// ErrCorruptRecord marks a durable record that exists but cannot be used.
	// Bootstrap recovers from it by starting signed out.
	ErrCorruptRecord = errors.New("corrupt session record")
)

// Listener is called after every login or logout with the new state.
type Listener func(s domain.Session, ok bool)

// Store is the single writer of the session. Reads are lock-free.
type Store struct {
	storage Storage
	logger  *log.Logger

	// mu serializes Login/Logout so persist, publish and notify happen as
	// one step from every reader's point of view.
	mu      sync.Mutex
	current atomic.Pointer[domain.Session]

	subMu  sync.Mutex
	subs   map[int]Listener
	nextID int

	bootOnce sync.Once
}

// NewStore creates a Store over storage. A nil logger discards logs.
func NewStore(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	return &Store{
		storage: storage,
		logger:  logger.With("component", "session"),
		subs:    make(map[int]Listener),
	}
}

// Bootstrap restores the persisted session, if any. It runs once; later calls
// return the current state without touching storage. Missing, unreadable,
// malformed or incomplete records all yield "no session".
func (s *Store) Bootstrap() (domain.Session, bool) {
	s.bootOnce.Do(func() {
		sess, err := s.load()
		if err != nil {
			if errors.Is(err, ErrNoRecord) {
				s.logger.Debug("no persisted session")
			} else {
				s.logger.WithError(err).Warn("ignoring persisted session")
			}
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		// A Login that raced ahead of Bootstrap wins.
		if s.current.Load() == nil {
			s.current.Store(&sess)
			s.logger.Info("session restored", "user_id", sess.UserID, "role", sess.Role)
		}
	})
	return s.Current()
}

func (s *Store) load() (sess domain.Session, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("session storage panicked: %v", r)
		}
	}()

	data, err := s.storage.Load()
	if err != nil {
		return domain.Session{}, err
	}
	if err := json.Unmarshal(data, &sess); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	if err := sess.Validate(); err != nil {
		return domain.Session{}, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return sess, nil
}

// Login replaces the current session and persists it. On any error nothing
// changes: an invalid session is rejected before I/O, and a failed write
// leaves both memory and the old record in place. Listeners have run by the
// time Login returns.
func (s *Store) Login(sess domain.Session) error {
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("session.Login: %w: %w", ErrInvalidSession, err)
	}
	sess = sess.Clone()

	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session.Login: marshal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Save(data); err != nil {
		return fmt.Errorf("session.Login: persist: %w", err)
	}
	s.current.Store(&sess)
	s.logger.Info("signed in", "user_id", sess.UserID, "role", sess.Role)
	s.notify(sess.Clone(), true)
	return nil
}

// Logout clears the session from memory and storage. Calling it while signed
// out is a no-op apart from removing any leftover record, and notifies nobody.
// Memory is always cleared; a storage error is returned afterwards.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current.Swap(nil)
	err := s.storage.Delete()
	if prev != nil {
		s.logger.Info("signed out", "user_id", prev.UserID)
		s.notify(domain.Session{}, false)
	}
	if err != nil {
		return fmt.Errorf("session.Logout: %w", err)
	}
	return nil
}

// Current returns a copy of the in-memory session. It never blocks on a
// writer and never performs I/O.
func (s *Store) Current() (domain.Session, bool) {
	p := s.current.Load()
	if p == nil {
		return domain.Session{}, false
	}
	return p.Clone(), true
}

// Subscribe registers fn for login/logout notifications and returns a func
// that unregisters it. fn runs synchronously on the writer's goroutine and
// must not call Login or Logout.
func (s *Store) Subscribe(fn Listener) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(sess domain.Session, ok bool) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	subs := make([]Listener, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		subs = append(subs, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(sess.Clone(), ok)
	}
}

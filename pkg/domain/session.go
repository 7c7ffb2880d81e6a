package domain

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIncompleteSession is returned by Validate when a required field is empty.
var ErrIncompleteSession = errors.New("session is incomplete")

// Session is the signed-in identity held by the console for the lifetime of
// a sign-in. The JSON shape is shared by the login response and the durable
// session record.
type Session struct {
	UserID          string       `json:"userId"`
	Email           string       `json:"email"`
	DisplayName     string       `json:"displayName"`
	Token           string       `json:"token"`
	Role            Role         `json:"role"`
	Permissions     []Permission `json:"permissions"`
	ProfileImageRef string       `json:"profileImageRef,omitempty"`
}

// Validate reports whether every required field is present. A session with
// no permissions is valid; it just cannot reach guarded screens.
func (s Session) Validate() error {
	switch {
	case s.UserID == "":
		return fmt.Errorf("%w: missing userId", ErrIncompleteSession)
	case s.Email == "":
		return fmt.Errorf("%w: missing email", ErrIncompleteSession)
	case s.DisplayName == "":
		return fmt.Errorf("%w: missing displayName", ErrIncompleteSession)
	case s.Token == "":
		return fmt.Errorf("%w: missing token", ErrIncompleteSession)
	case s.Role == "":
		return fmt.Errorf("%w: missing role", ErrIncompleteSession)
	}
	return nil
}

// Clone returns a deep copy so callers can never alias the store's permission slice.
func (s Session) Clone() Session {
	s.Permissions = slices.Clone(s.Permissions)
	return s
}

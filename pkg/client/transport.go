package client

import (
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/naveenspark/opsdesk/pkg/domain"
)

// RequestIDHeader correlates a console request with server logs.
const RequestIDHeader = "X-Request-ID"

// SessionSource yields the current session, if any. *session.Store
// satisfies it.
type SessionSource interface {
	Current() (domain.Session, bool)
}

// Transport attaches the current session's bearer token to every outgoing
// request. The session is read per request, so a login or logout takes
// effect on the next call; requests already in flight keep what they had.
type Transport struct {
	src  SessionSource
	base http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(src SessionSource, base http.RoundTripper) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{src: src, base: base}
}

// RoundTrip implements http.RoundTripper. It never mutates req.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if req.Header.Get(RequestIDHeader) == "" {
		req.Header.Set(RequestIDHeader, uuid.NewString())
	}

	sess, ok := t.src.Current()
	if !ok || sess.Token == "" {
		return t.base.RoundTrip(req)
	}
	bearer := &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}),
		Base:   t.base,
	}
	return bearer.RoundTrip(req)
}

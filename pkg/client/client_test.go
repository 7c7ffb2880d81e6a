package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/naveenspark/opsdesk/pkg/domain"
)

type staticSource struct {
	s  domain.Session
	ok bool
}

func (s staticSource) Current() (domain.Session, bool) { return s.s, s.ok }

func signedIn(token string) staticSource {
	return staticSource{s: domain.Session{Token: token}, ok: true}
}

// fakeAPI serves a small slice of the opsdesk API. Every route requires
// "Bearer test-token".
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if req.URL.Path == "/api/auth/login" {
				next.ServeHTTP(w, req)
				return
			}
			if req.Header.Get("Authorization") != "Bearer test-token" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"message": "not authenticated"}) //nolint:errcheck
				return
			}
			next.ServeHTTP(w, req)
		})
	})

	r.HandleFunc("/api/auth/login", func(w http.ResponseWriter, req *http.Request) {
		var body LoginRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if body.Password != "hunter2" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"}) //nolint:errcheck
			return
		}
		json.NewEncoder(w).Encode(domain.Session{ //nolint:errcheck
			UserID:      "u-1",
			Email:       body.Email,
			DisplayName: "Ana",
			Token:       "test-token",
			Role:        domain.RoleManager,
			Permissions: []domain.Permission{domain.PermItemRead, domain.PermItemDelete},
		})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/permissions", func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode([]string{"ITEM_READ", "ITEM_DELETE"}) //nolint:errcheck
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/items", func(w http.ResponseWriter, req *http.Request) {
		items := []domain.Item{
			{ID: uuid.New(), SKU: "BOLT-10", Name: "Bolt M10", Quantity: 4, ReorderLevel: 10},
			{ID: uuid.New(), SKU: "NUT-10", Name: "Nut M10", Quantity: 40, ReorderLevel: 10},
		}
		if q := req.URL.Query().Get("q"); q != "" {
			items = items[:1]
		}
		json.NewEncoder(w).Encode(items) //nolint:errcheck
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/items/{id}", func(w http.ResponseWriter, req *http.Request) {
		if _, err := uuid.Parse(mux.Vars(req)["id"]); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	r.HandleFunc("/api/notifications/{id}/read", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "missing NOTIFICATION_UPDATE"}) //nolint:errcheck
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/users", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"bad filter","errors":{"limit":["too large","must be positive"]}}`)) //nolint:errcheck
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server, src SessionSource) *Client {
	return New(srv.URL, WithTransport(NewTransport(src, nil)))
}

func TestLogin(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, staticSource{})

	s, err := c.Login(context.Background(), "ana@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login() error: %v", err)
	}
	if s.Token != "test-token" {
		t.Errorf("Token = %q, want %q", s.Token, "test-token")
	}
	if err := s.Validate(); err != nil {
		t.Errorf("returned session invalid: %v", err)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, staticSource{})

	_, err := c.Login(context.Background(), "ana@example.com", "wrong")
	if !IsUnauthenticated(err) {
		t.Fatalf("Login() error = %v, want 401", err)
	}
	if !strings.Contains(err.Error(), "invalid credentials") {
		t.Errorf("error = %q, want server message", err)
	}
}

func TestListItems(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, signedIn("test-token"))

	items, err := c.ListItems(context.Background(), "", 50, 0)
	if err != nil {
		t.Fatalf("ListItems() error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if !items[0].LowStock() {
		t.Errorf("items[0] should be low stock")
	}

	items, err = c.ListItems(context.Background(), "bolt", 50, 0)
	if err != nil {
		t.Fatalf("ListItems(q) error: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("got %d items, want 1", len(items))
	}
}

func TestListItems_SignedOut(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, staticSource{})

	_, err := c.ListItems(context.Background(), "", 50, 0)
	if !IsUnauthenticated(err) {
		t.Fatalf("error = %v, want 401", err)
	}
}

func TestDeleteItem(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, signedIn("test-token"))

	if err := c.DeleteItem(context.Background(), uuid.New()); err != nil {
		t.Fatalf("DeleteItem() error: %v", err)
	}
}

func TestMarkNotificationRead_Forbidden(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, signedIn("test-token"))

	err := c.MarkNotificationRead(context.Background(), uuid.New())
	if !IsForbidden(err) {
		t.Fatalf("error = %v, want 403", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("expected *APIError")
	}
	if apiErr.Message != "missing NOTIFICATION_UPDATE" {
		t.Errorf("Message = %q", apiErr.Message)
	}
}

func TestListUsers_FieldErrors(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, signedIn("test-token"))

	_, err := c.ListUsers(context.Background(), 5000, 0)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d", apiErr.Status)
	}
	if got := apiErr.FieldErrors["limit"]; got != "too large; must be positive" {
		t.Errorf("FieldErrors[limit] = %q", got)
	}
}

func TestListPermissions(t *testing.T) {
	srv := fakeAPI(t)
	c := newTestClient(srv, signedIn("test-token"))

	names, err := c.ListPermissions(context.Background())
	if err != nil {
		t.Fatalf("ListPermissions() error: %v", err)
	}
	if len(names) != 2 || names[0] != "ITEM_READ" {
		t.Errorf("names = %v", names)
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, WithTimeout(time.Second))
	_, err := c.ListRoles(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != 0 {
		t.Errorf("Status = %d, want 0", apiErr.Status)
	}
	if apiErr.FieldErrors == nil {
		t.Error("FieldErrors must not be nil")
	}
}

func TestDoRequest_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(5 * time.Second) // slow server
		json.NewEncoder(w).Encode([]domain.Project{}) //nolint:errcheck
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	_, err := c.ListProjects(ctx, 10, 0)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

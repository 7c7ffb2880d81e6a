package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/naveenspark/opsdesk/pkg/domain"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// Client is the opsdesk API client. Authentication is the transport's job:
// build one with NewTransport and pass it via WithTransport.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the round tripper used for every request.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// New creates a new API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// LoginRequest is the payload of the authentication exchange.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a session. The caller decides whether to
// keep it (auth.Context.Login).
func (c *Client) Login(ctx context.Context, email, password string) (domain.Session, error) {
	var s domain.Session
	if err := c.post(ctx, "/api/auth/login", LoginRequest{Email: email, Password: password}, &s); err != nil {
		return domain.Session{}, fmt.Errorf("client.Login: %w", err)
	}
	return s, nil
}

// Me returns the signed-in user's account.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var u domain.User
	if err := c.get(ctx, "/api/auth/me", &u); err != nil {
		return nil, fmt.Errorf("client.Me: %w", err)
	}
	return &u, nil
}

// ListPermissions returns every permission name the server defines.
func (c *Client) ListPermissions(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.get(ctx, "/api/permissions", &names); err != nil {
		return nil, fmt.Errorf("client.ListPermissions: %w", err)
	}
	return names, nil
}

// ListUsers fetches user accounts.
func (c *Client) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	var users []domain.User
	if err := c.get(ctx, "/api/users?"+page(limit, offset), &users); err != nil {
		return nil, fmt.Errorf("client.ListUsers: %w", err)
	}
	return users, nil
}

// ListRoles fetches role definitions.
func (c *Client) ListRoles(ctx context.Context) ([]domain.RoleInfo, error) {
	var roles []domain.RoleInfo
	if err := c.get(ctx, "/api/roles", &roles); err != nil {
		return nil, fmt.Errorf("client.ListRoles: %w", err)
	}
	return roles, nil
}

// ListItems fetches inventory, optionally filtered by a search query.
func (c *Client) ListItems(ctx context.Context, query string, limit, offset int) ([]domain.Item, error) {
	params := pageParams(limit, offset)
	if query != "" {
		params.Set("q", query)
	}
	var items []domain.Item
	if err := c.get(ctx, "/api/items?"+params.Encode(), &items); err != nil {
		return nil, fmt.Errorf("client.ListItems: %w", err)
	}
	return items, nil
}

// DeleteItem removes an inventory item.
func (c *Client) DeleteItem(ctx context.Context, id uuid.UUID) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/items/"+url.PathEscape(id.String()), nil, nil); err != nil {
		return fmt.Errorf("client.DeleteItem: %w", err)
	}
	return nil
}

// ListSuppliers fetches suppliers.
func (c *Client) ListSuppliers(ctx context.Context, limit, offset int) ([]domain.Supplier, error) {
	var suppliers []domain.Supplier
	if err := c.get(ctx, "/api/suppliers?"+page(limit, offset), &suppliers); err != nil {
		return nil, fmt.Errorf("client.ListSuppliers: %w", err)
	}
	return suppliers, nil
}

// ListProjects fetches projects.
func (c *Client) ListProjects(ctx context.Context, limit, offset int) ([]domain.Project, error) {
	var projects []domain.Project
	if err := c.get(ctx, "/api/projects?"+page(limit, offset), &projects); err != nil {
		return nil, fmt.Errorf("client.ListProjects: %w", err)
	}
	return projects, nil
}

// ListNotifications fetches the signed-in user's notifications.
func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	params := url.Values{}
	if unreadOnly {
		params.Set("unread", "true")
	}
	path := "/api/notifications"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var ns []domain.Notification
	if err := c.get(ctx, path, &ns); err != nil {
		return nil, fmt.Errorf("client.ListNotifications: %w", err)
	}
	return ns, nil
}

// MarkNotificationRead marks a notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/notifications/"+url.PathEscape(id.String())+"/read", nil, nil); err != nil {
		return fmt.Errorf("client.MarkNotificationRead: %w", err)
	}
	return nil
}

// ListAuditLog fetches audit entries, newest first.
func (c *Client) ListAuditLog(ctx context.Context, limit, offset int) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	if err := c.get(ctx, "/api/audit?"+page(limit, offset), &entries); err != nil {
		return nil, fmt.Errorf("client.ListAuditLog: %w", err)
	}
	return entries, nil
}

func pageParams(limit, offset int) url.Values {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	return params
}

func page(limit, offset int) string {
	return pageParams(limit, offset).Encode()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return &APIError{
				Status:      resp.StatusCode,
				Message:     fmt.Sprintf("failed to read body: %v", readErr),
				FieldErrors: map[string]string{},
			}
		}
		return newAPIError(resp.StatusCode, respBody)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

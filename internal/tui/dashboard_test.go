package tui

import (
	"net/http"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/internal/session"
	"github.com/naveenspark/opsdesk/pkg/client"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

func newTestDashboard(t *testing.T, s *domain.Session) dashboardModel {
	t.Helper()
	ac := auth.New(session.NewStore(session.NewMemoryStorage(nil), nil), nil)
	t.Cleanup(ac.Close)
	ac.Bootstrap()
	if s != nil {
		if err := ac.Login(*s); err != nil {
			t.Fatal(err)
		}
	}
	return newDashboardModel(nil, ac, "https://api.example.com")
}

func TestDashboardIdentityCard(t *testing.T) {
	s := testSession(domain.PermUserRead, domain.PermItemRead)
	m := newTestDashboard(t, &s)

	view := m.View()
	for _, want := range []string{"Ana", "ana@example.com", "[STAFF]", "2 permissions", "USER_READ"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in dashboard, got:\n%s", want, view)
		}
	}
}

func TestDashboardNoPermissions(t *testing.T) {
	s := testSession()
	m := newTestDashboard(t, &s)
	if !strings.Contains(m.View(), "no permissions granted") {
		t.Errorf("got:\n%s", m.View())
	}
}

func TestDashboardCounts(t *testing.T) {
	s := testSession(domain.PermNotificationRead, domain.PermItemRead)
	m := newTestDashboard(t, &s)
	m, _ = m.Update(dashboardLoadedMsg{
		unread:   3,
		lowStock: 2,
		counted:  map[string]bool{RouteNotifications: true, RouteInventory: true},
	})

	view := m.View()
	if !strings.Contains(view, "unread notifications") {
		t.Errorf("expected unread count, got:\n%s", view)
	}
	if !strings.Contains(view, "items at or below reorder level") {
		t.Errorf("expected low stock count, got:\n%s", view)
	}
}

func TestDashboardCountsHiddenWithoutPermission(t *testing.T) {
	s := testSession()
	m := newTestDashboard(t, &s)
	m, _ = m.Update(dashboardLoadedMsg{counted: map[string]bool{}})
	if strings.Contains(m.View(), "unread notifications") {
		t.Errorf("counts should be hidden, got:\n%s", m.View())
	}
}

func TestDashboardUnauthenticated(t *testing.T) {
	s := testSession()
	m := newTestDashboard(t, &s)
	_, cmd := m.Update(dashboardLoadedMsg{err: &client.APIError{Status: http.StatusUnauthorized, Message: "expired", FieldErrors: map[string]string{}}})
	if cmd == nil {
		t.Fatal("expected session-expired command")
	}
}

func TestDashboardOpenProfileImage(t *testing.T) {
	var opened string
	orig := openURL
	openURL = func(u string) error { opened = u; return nil }
	defer func() { openURL = orig }()

	s := testSession()
	s.ProfileImageRef = "/files/avatars/u-1.png"
	m := newTestDashboard(t, &s)
	if !strings.Contains(m.helpKeys(), "profile image") {
		t.Errorf("help = %q", m.helpKeys())
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if cmd == nil {
		t.Fatal("expected open command")
	}
	m, _ = m.Update(cmd())
	if opened != "https://api.example.com/files/avatars/u-1.png" {
		t.Errorf("opened %q", opened)
	}
	if !strings.Contains(m.View(), "opened profile image") {
		t.Errorf("got:\n%s", m.View())
	}
}

func TestDashboardNoProfileImage(t *testing.T) {
	s := testSession()
	m := newTestDashboard(t, &s)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("o")})
	if cmd != nil {
		t.Error("expected no command without a profile image")
	}
	if !strings.Contains(m.View(), "no profile image") {
		t.Errorf("got:\n%s", m.View())
	}
}

func TestDashboardSignedOut(t *testing.T) {
	m := newTestDashboard(t, nil)
	if !strings.Contains(m.View(), "not signed in") {
		t.Errorf("got:\n%s", m.View())
	}
}

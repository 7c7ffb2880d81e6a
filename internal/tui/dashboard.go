package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/internal/browser"
	"github.com/naveenspark/opsdesk/pkg/client"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// openURL is swapped out in tests.
var openURL = browser.Open

// -- messages --

type dashboardLoadedMsg struct {
	gen      int
	unread   int
	lowStock int
	counted  map[string]bool
	err      error
}

type profileOpenedMsg struct {
	err error
}

// -- model --

type dashboardModel struct {
	client   *client.Client
	auth     *auth.Context
	apiURL   string
	gen      int
	unread   int
	lowStock int
	counted  map[string]bool
	loading  bool
	err      string
	status   string
}

func newDashboardModel(c *client.Client, ac *auth.Context, apiURL string) dashboardModel {
	return dashboardModel{client: c, auth: ac, apiURL: apiURL}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.loadCounts()
}

// loadCounts only asks for what the session may read.
func (m dashboardModel) loadCounts() tea.Cmd {
	c := m.client
	snap := m.auth.Snapshot()
	gen := m.gen
	return func() tea.Msg {
		msg := dashboardLoadedMsg{gen: gen, counted: map[string]bool{}}
		ctx := context.Background()
		if snap.HasPermission(domain.PermNotificationRead) {
			ns, err := c.ListNotifications(ctx, true)
			if err != nil {
				return dashboardLoadedMsg{gen: gen, err: err}
			}
			msg.unread = len(ns)
			msg.counted[RouteNotifications] = true
		}
		if snap.HasPermission(domain.PermItemRead) {
			items, err := c.ListItems(ctx, "", pageSize, 0)
			if err != nil {
				return dashboardLoadedMsg{gen: gen, err: err}
			}
			for _, it := range items {
				if it.LowStock() {
					msg.lowStock++
				}
			}
			msg.counted[RouteInventory] = true
		}
		return msg
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if client.IsUnauthenticated(msg.err) {
				return m, sessionExpired
			}
			m.err = errText(msg.err)
			return m, nil
		}
		m.err = ""
		m.unread = msg.unread
		m.lowStock = msg.lowStock
		m.counted = msg.counted

	case profileOpenedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("open failed: " + msg.err.Error())
		} else {
			m.status = okStyle.Render("opened profile image")
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "o":
			return m.openProfile()
		case "r":
			m.loading = true
			return m, m.loadCounts()
		}
	}
	return m, nil
}

func (m dashboardModel) openProfile() (dashboardModel, tea.Cmd) {
	u, ok := m.auth.User()
	if !ok || u.ProfileImageRef == "" {
		m.status = dimStyle.Render("no profile image")
		return m, nil
	}
	target, err := browser.Resolve(m.apiURL, u.ProfileImageRef)
	if err != nil {
		m.status = errorStyle.Render(err.Error())
		return m, nil
	}
	return m, func() tea.Msg {
		return profileOpenedMsg{err: openURL(target)}
	}
}

func (m dashboardModel) View() string {
	u, ok := m.auth.User()
	if !ok {
		return " " + dimStyle.Render("not signed in") + "\n"
	}
	snap := m.auth.Snapshot()

	var card strings.Builder
	card.WriteString(selectedStyle.Render(u.DisplayName) + "  " + RoleBadge(u.Role) + "\n")
	card.WriteString(dimStyle.Render(u.Email) + "\n")
	card.WriteString(metaStyle.Render("id "+u.UserID) + "\n\n")

	perms := make([]string, 0, len(u.Permissions))
	for _, p := range u.Permissions {
		perms = append(perms, string(p))
	}
	if len(perms) == 0 {
		card.WriteString(dimStyle.Render("no permissions granted"))
	} else {
		card.WriteString(dimStyle.Render(fmt.Sprintf("%d permissions", len(perms))) + "\n")
		card.WriteString(normalStyle.Render(wrapWords(perms, 56)))
	}

	var b strings.Builder
	b.WriteString("\n" + cardStyle.Render(card.String()) + "\n\n")

	switch {
	case m.loading:
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render("error: "+m.err) + "\n")
	default:
		if m.counted[RouteNotifications] && snap.HasPermission(domain.PermNotificationRead) {
			b.WriteString(" " + accentStyle.Render(fmt.Sprintf("%d", m.unread)) + dimStyle.Render(" unread notifications") + "\n")
		}
		if m.counted[RouteInventory] && snap.HasPermission(domain.PermItemRead) {
			style := dimStyle
			if m.lowStock > 0 {
				style = warnStyle
			}
			b.WriteString(" " + style.Render(fmt.Sprintf("%d", m.lowStock)) + dimStyle.Render(" items at or below reorder level") + "\n")
		}
	}
	if m.status != "" {
		b.WriteString(" " + m.status + "\n")
	}
	return b.String()
}

func (m dashboardModel) helpKeys() string {
	entries := []string{helpEntry("r", "refresh")}
	if u, ok := m.auth.User(); ok && u.ProfileImageRef != "" {
		entries = append(entries, helpEntry("o", "profile image"))
	}
	return strings.Join(entries, "  ")
}

// wrapWords joins words with spaces, breaking lines at width.
func wrapWords(words []string, width int) string {
	var b strings.Builder
	line := 0
	for i, w := range words {
		if i > 0 {
			if line+1+len(w) > width {
				b.WriteString("\n")
				line = 0
			} else {
				b.WriteString(" ")
				line++
			}
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}

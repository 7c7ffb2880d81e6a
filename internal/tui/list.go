package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/opsdesk/pkg/client"
	"github.com/naveenspark/opsdesk/pkg/domain"
)

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// -- messages --

// gen on the result messages is the identity generation the request was
// issued under; the App drops results from an earlier one.
type listLoadedMsg struct {
	route   string
	gen     int
	records []record
	err     error
}

type listActionMsg struct {
	route string
	gen   int
	id    string
	err   error
}

type copiedMsg struct {
	route string
	id    string
	err   error
}

// sessionExpiredMsg asks the App to sign out after the server rejected the token.
type sessionExpiredMsg struct{}

func sessionExpired() tea.Msg { return sessionExpiredMsg{} }

// -- collection definitions --

// record is one table row plus the id actions operate on.
type record struct {
	id    string
	cells table.Row
}

// rowAction is a mutating key bound to the selected row.
type rowAction struct {
	key   string
	label string
	perm  domain.Permission
	done  string
	run   func(ctx context.Context, c *client.Client, id string) error
}

// collection describes one list screen.
type collection struct {
	route   string
	title   string
	empty   string
	columns []table.Column
	load    func(ctx context.Context, c *client.Client) ([]record, error)
	action  *rowAction
}

// -- model --

type listModel struct {
	source  collection
	gen     int
	client  *client.Client
	can     func(domain.Permission) bool
	table   table.Model
	records []record
	loaded  bool
	loading bool
	err     string
	status  string
	width   int
	height  int
}

func newListModel(src collection, c *client.Client, can func(domain.Permission) bool) listModel {
	t := table.New(
		table.WithColumns(src.columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(cardStyle.GetBorderStyle()).
		BorderForeground(borderColor).
		BorderBottom(true).
		Bold(false).
		Foreground(dimStyle.GetForeground())
	styles.Selected = selectedStyle.Background(borderColor)
	t.SetStyles(styles)

	return listModel{source: src, client: c, can: can, table: t}
}

func (m listModel) Init() tea.Cmd {
	return m.load()
}

// reload marks the model as loading and returns the fetch command.
func (m listModel) reload() (listModel, tea.Cmd) {
	m.loading = true
	m.status = ""
	return m, m.load()
}

func (m listModel) load() tea.Cmd {
	c := m.client
	src := m.source
	gen := m.gen
	return func() tea.Msg {
		records, err := src.load(context.Background(), c)
		return listLoadedMsg{route: src.route, gen: gen, records: records, err: err}
	}
}

func (m listModel) Update(msg tea.Msg) (listModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 4; h > 3 {
			m.table.SetHeight(h)
		}

	case listLoadedMsg:
		m.loading = false
		if msg.err != nil {
			if client.IsUnauthenticated(msg.err) {
				return m, sessionExpired
			}
			m.err = errText(msg.err)
			return m, nil
		}
		m.err = ""
		m.loaded = true
		m.records = msg.records
		rows := make([]table.Row, len(msg.records))
		for i, r := range msg.records {
			rows[i] = r.cells
		}
		m.table.SetRows(rows)
		if m.table.Cursor() >= len(rows) {
			m.table.SetCursor(0)
		}

	case listActionMsg:
		if msg.err != nil {
			if client.IsUnauthenticated(msg.err) {
				return m, sessionExpired
			}
			m.status = errorStyle.Render(m.source.action.label + " failed: " + errText(msg.err))
			return m, nil
		}
		m.status = okStyle.Render(m.source.action.done)
		m.loading = true
		return m, m.load()

	case copiedMsg:
		if msg.err != nil {
			m.status = errorStyle.Render("copy failed: " + msg.err.Error())
		} else {
			m.status = okStyle.Render("copied " + msg.id)
		}

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m listModel) handleKey(msg tea.KeyMsg) (listModel, tea.Cmd) {
	switch msg.String() {
	case "r":
		if m.source.action == nil || m.source.action.key != "r" {
			return m.reload()
		}
	case "ctrl+r":
		return m.reload()
	case "c":
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		route := m.source.route
		return m, func() tea.Msg {
			return copiedMsg{route: route, id: id, err: writeClipboard(id)}
		}
	}

	if act := m.source.action; act != nil && msg.String() == act.key {
		id, ok := m.selectedID()
		if !ok {
			return m, nil
		}
		if !m.allowed(act.perm) {
			m.status = warnStyle.Render("not permitted: " + act.label + " needs " + string(act.perm))
			return m, nil
		}
		c := m.client
		route := m.source.route
		gen := m.gen
		return m, func() tea.Msg {
			err := act.run(context.Background(), c, id)
			return listActionMsg{route: route, gen: gen, id: id, err: err}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m listModel) allowed(p domain.Permission) bool {
	return m.can != nil && m.can(p)
}

func (m listModel) selectedID() (string, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.records) {
		return "", false
	}
	return m.records[i].id, true
}

func (m listModel) View() string {
	var b strings.Builder

	if m.loading && !m.loaded {
		b.WriteString(" " + dimStyle.Render("loading...") + "\n")
		return b.String()
	}
	if m.err != "" {
		b.WriteString(" " + errorStyle.Render("error: "+m.err) + "\n")
		return b.String()
	}
	if len(m.records) == 0 {
		b.WriteString("\n " + dimStyle.Render(m.source.empty) + "\n")
		return b.String()
	}

	b.WriteString(m.table.View() + "\n")
	count := fmt.Sprintf("%d %s", len(m.records), strings.ToLower(m.source.title))
	if m.loading {
		count += " · refreshing"
	}
	b.WriteString(" " + metaStyle.Render(count) + "\n")
	if m.status != "" {
		b.WriteString(" " + m.status + "\n")
	}
	return b.String()
}

func (m listModel) helpKeys() string {
	entries := []string{helpEntry("j/k", "nav"), helpEntry("c", "copy id")}
	if act := m.source.action; act != nil && m.allowed(act.perm) {
		entries = append(entries, helpEntry(act.key, act.label))
	}
	refresh := "r"
	if act := m.source.action; act != nil && act.key == "r" {
		refresh = "ctrl+r"
	}
	entries = append(entries, helpEntry(refresh, "refresh"))
	return strings.Join(entries, "  ")
}

// errText renders an API failure for inline display, field errors included.
func errText(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	msg := apiErr.Message
	if len(apiErr.FieldErrors) > 0 {
		fields := make([]string, 0, len(apiErr.FieldErrors))
		for f, e := range apiErr.FieldErrors {
			fields = append(fields, f+": "+e)
		}
		sort.Strings(fields)
		msg += " (" + strings.Join(fields, "; ") + ")"
	}
	if client.IsForbidden(err) {
		return "not permitted: " + msg
	}
	return msg
}

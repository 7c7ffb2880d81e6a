package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/internal/guard"
	"github.com/naveenspark/opsdesk/internal/log"
	"github.com/naveenspark/opsdesk/pkg/client"
)

// bootstrappedMsg is returned once the auth context has left loading.
type bootstrappedMsg struct{}

// authChangedMsg is delivered whenever the auth context publishes.
type authChangedMsg struct{}

// AuthChanged is the message the program's auth subscription sends.
func AuthChanged() tea.Msg { return authChangedMsg{} }

type loggedOutMsg struct {
	err error
}

// Options configures an App.
type Options struct {
	APIURL  string
	Version string
	Logger  *log.Logger
}

// App is the root Bubbletea model.
type App struct {
	client    *client.Client
	auth      *auth.Context
	routes    *guard.Registry
	logger    *log.Logger
	version   string
	route     string
	pending   string
	signin    signinModel
	dashboard dashboardModel
	lists     map[string]listModel
	spinner   spinner.Model
	flash     string
	vocab     string
	authed    bool
	userID    string
	gen       int // bumped on every identity change
	width     int
	height    int
}

// NewApp creates a new TUI application. Every screen switch goes through
// routes, so a screen is only ever rendered for a session allowed to see it.
func NewApp(c *client.Client, ac *auth.Context, routes *guard.Registry, opts Options) App {
	logger := opts.Logger
	if logger == nil {
		logger = log.Nop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle

	a := App{
		client:    c,
		auth:      ac,
		routes:    routes,
		logger:    logger.With("component", "tui"),
		version:   opts.Version,
		signin:    newSigninModel(c, ac),
		dashboard: newDashboardModel(c, ac, opts.APIURL),
		spinner:   sp,
	}
	a.lists = a.newLists()
	return a
}

func (a App) newLists() map[string]listModel {
	lists := make(map[string]listModel)
	for route, src := range collections() {
		m := newListModel(src, a.client, a.auth.HasPermission)
		m.gen = a.gen
		lists[route] = m
	}
	return lists
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.bootstrap())
}

func (a App) bootstrap() tea.Cmd {
	ac := a.auth
	return func() tea.Msg {
		ac.Bootstrap()
		return bootstrappedMsg{}
	}
}

func (a App) logout() tea.Cmd {
	ac := a.auth
	return func() tea.Msg {
		return loggedOutMsg{err: ac.Logout()}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Chrome: header(1) + tabs(1) + flash(1) + help(1) + gaps(2) = 6 lines
		bodyMsg := tea.WindowSizeMsg{Width: msg.Width, Height: msg.Height - 6}
		for route, m := range a.lists {
			a.lists[route], _ = m.Update(bodyMsg)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.auth.Loading() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case bootstrappedMsg, authChangedMsg:
		return a.syncAuth()

	case signedInMsg:
		a.signin, _ = a.signin.Update(msg)
		if msg.err != nil {
			a.logger.WithError(msg.err).Info("sign-in failed")
			return a, nil
		}
		return a.syncAuth()

	case loggedOutMsg:
		if msg.err != nil {
			a.logger.WithError(msg.err).Warn("stored session could not be removed")
			a.flash = "signed out, but the stored session could not be removed"
		}
		return a.syncAuth()

	case sessionExpiredMsg:
		a.logger.Info("server rejected session, signing out")
		a.flash = "session expired, sign in again"
		return a, a.logout()

	case vocabularyCheckedMsg:
		if msg.err != nil {
			a.logger.WithError(msg.err).Debug("permission vocabulary check skipped")
			return a, nil
		}
		a.vocab = vocabularyWarning(msg.report)
		if a.vocab != "" {
			a.logger.Warn("permission vocabulary drift",
				"unknown_to_client", msg.report.UnknownToClient,
				"missing_on_server", msg.report.MissingOnServer)
		}
		return a, nil

	case listLoadedMsg:
		if a.stale(msg.gen) {
			return a, nil
		}
		return a.updateList(msg.route, msg)
	case listActionMsg:
		if a.stale(msg.gen) {
			return a, nil
		}
		return a.updateList(msg.route, msg)
	case copiedMsg:
		return a.updateList(msg.route, msg)

	case dashboardLoadedMsg:
		if a.stale(msg.gen) {
			return a, nil
		}
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd

	case profileOpenedMsg:
		var cmd tea.Cmd
		a.dashboard, cmd = a.dashboard.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.auth.Loading() {
			if msg.String() == "q" {
				return a, tea.Quit
			}
			return a, nil
		}
		a.flash = ""
		if a.route == guard.SignInRoute {
			var cmd tea.Cmd
			a.signin, cmd = a.signin.Update(msg)
			return a, cmd
		}

		switch key := msg.String(); key {
		case "q":
			return a, tea.Quit
		case "L":
			return a, a.logout()
		default:
			if rt, ok := a.routeForKey(key); ok {
				if rt.Name == a.route {
					return a, nil
				}
				return a.navigate(rt.Name)
			}
		}
	}

	var cmd tea.Cmd
	switch {
	case a.route == guard.SignInRoute:
		a.signin, cmd = a.signin.Update(msg)
	case a.route == RouteDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	default:
		if m, ok := a.lists[a.route]; ok {
			a.lists[a.route], cmd = m.Update(msg)
		}
	}
	return a, cmd
}

func (a App) updateList(route string, msg tea.Msg) (tea.Model, tea.Cmd) {
	m, ok := a.lists[route]
	if !ok {
		return a, nil
	}
	var cmd tea.Cmd
	a.lists[route], cmd = m.Update(msg)
	return a, cmd
}

// stale reports whether a result was fetched under an earlier identity.
// Such results, a 401 included, say nothing about the current session.
func (a App) stale(gen int) bool {
	if gen == a.gen {
		return false
	}
	a.logger.Debug("dropping result from previous session", "gen", gen, "current", a.gen)
	return true
}

func (a App) routeForKey(key string) (guard.Route, bool) {
	for _, rt := range a.routes.Routes() {
		if rt.Key == key {
			return rt, true
		}
	}
	return guard.Route{}, false
}

// syncAuth re-evaluates the current route against the latest snapshot. It
// runs after bootstrap and after every login or logout.
func (a App) syncAuth() (tea.Model, tea.Cmd) {
	snap := a.auth.Snapshot()
	if snap.Loading() {
		return a, nil
	}

	var cmds []tea.Cmd
	u, authed := snap.User()
	if authed != a.authed || u.UserID != a.userID {
		a.gen++
	}
	if authed && (!a.authed || u.UserID != a.userID) {
		// Another identity: nothing fetched for the previous one may show.
		a.dashboard = newDashboardModel(a.client, a.auth, a.dashboard.apiURL)
		a.dashboard.gen = a.gen
		a.lists = a.newLists()
		if a.width > 0 {
			bodyMsg := tea.WindowSizeMsg{Width: a.width, Height: a.height - 6}
			for route, m := range a.lists {
				a.lists[route], _ = m.Update(bodyMsg)
			}
		}
		a.vocab = ""
		cmds = append(cmds, checkVocabulary(a.client))
		a.logger.Info("signed in", "user_id", u.UserID, "role", u.Role)
	}
	if !authed && a.authed {
		a.logger.Info("signed out", "user_id", a.userID)
	}
	a.authed = authed
	a.userID = u.UserID

	target := a.route
	if target == "" {
		target = a.routes.Landing()
	}
	if authed && target == guard.SignInRoute && a.pending != "" {
		target = a.pending
		a.pending = ""
	}

	var cmd tea.Cmd
	a, cmd = a.navigate(target)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

// navigate asks the guard what to show for name and switches to it.
func (a App) navigate(name string) (App, tea.Cmd) {
	d, err := a.routes.Navigate(a.auth.Snapshot(), name)
	if err != nil {
		a.flash = err.Error()
		return a, nil
	}
	a.logger.Debug("navigate", "requested", name, "outcome", d.Outcome.String(), "target", d.Target)

	switch d.Outcome {
	case guard.Wait:
		a.route = name
		return a, nil

	case guard.RedirectSignIn:
		if a.route != "" && name != guard.SignInRoute {
			a.pending = name
			if a.flash == "" {
				a.flash = d.Reason.String()
			}
		}
		if a.route == guard.SignInRoute {
			return a, nil
		}
		a.route = guard.SignInRoute
		a.signin = a.signin.reset()
		return a, a.signin.Init()

	case guard.RedirectLanding:
		if d.Reason == guard.ReasonUnauthorized {
			title := name
			if rt, ok := a.routes.Lookup(name); ok {
				title = rt.Title
			}
			a.flash = fmt.Sprintf("%s: %s", d.Reason, title)
		}
		return a.show(d.Target)

	default:
		return a.show(d.Target)
	}
}

// show switches to a permitted route, fetching its data on first display.
func (a App) show(name string) (App, tea.Cmd) {
	changed := a.route != name
	a.route = name

	if name == RouteDashboard {
		if changed || (a.dashboard.counted == nil && !a.dashboard.loading) {
			a.dashboard.loading = true
			return a, a.dashboard.Init()
		}
		return a, nil
	}
	m, ok := a.lists[name]
	if !ok {
		return a, nil
	}
	if changed || (!m.loaded && !m.loading) {
		var cmd tea.Cmd
		a.lists[name], cmd = m.reload()
		return a, cmd
	}
	return a, nil
}

func (a App) View() string {
	snap := a.auth.Snapshot()

	// Header: logo left, identity right
	logo := " " + renderLogo()
	ident := dimStyle.Render("signed out")
	if u, ok := snap.User(); ok {
		ident = normalStyle.Render(u.DisplayName) + " " + RoleBadge(u.Role)
	}
	if a.version != "" {
		ident += " " + metaStyle.Render(a.version)
	}
	gap := a.width - lipgloss.Width(logo) - lipgloss.Width(ident) - 1
	if gap < 2 {
		gap = 2
	}
	header := logo + strings.Repeat(" ", gap) + ident

	if snap.Loading() {
		return fmt.Sprintf("%s\n\n %s %s\n", header, a.spinner.View(), dimStyle.Render("restoring session..."))
	}

	// Tab bar: only routes this session can open
	var tabs []string
	for _, rt := range a.routes.Visible(snap) {
		if rt.Name == a.route {
			tabs = append(tabs, accentStyle.Render(rt.Key)+" "+selectedStyle.Underline(true).Render(rt.Title))
		} else {
			tabs = append(tabs, metaStyle.Render(rt.Key)+" "+dimStyle.Render(rt.Title))
		}
	}
	tabBar := " " + strings.Join(tabs, "   ")

	var notice []string
	if a.flash != "" {
		notice = append(notice, warnStyle.Render(a.flash))
	}
	if a.vocab != "" {
		notice = append(notice, metaStyle.Render(a.vocab))
	}
	noticeLine := " " + strings.Join(notice, metaStyle.Render(" · "))

	var body, help string
	switch {
	case a.route == guard.SignInRoute:
		body = a.signin.View()
		help = helpBar(a.signin.helpKeys())
	case a.route == RouteDashboard:
		body = a.dashboard.View()
		help = helpBar(helpEntry("d/1-7", "go"), a.dashboard.helpKeys(), helpEntry("L", "sign out"), helpEntry("q", "quit"))
	default:
		if m, ok := a.lists[a.route]; ok {
			body = m.View()
			help = helpBar(helpEntry("d/1-7", "go"), m.helpKeys(), helpEntry("L", "sign out"), helpEntry("q", "quit"))
		}
	}

	// Chrome budget: header + tabs + notice + help + gaps = 6 lines
	body = strings.TrimRight(truncateToHeight(body, a.height-6), "\n")

	return fmt.Sprintf("%s\n%s\n%s\n%s\n\n%s", header, tabBar, noticeLine, body, help)
}

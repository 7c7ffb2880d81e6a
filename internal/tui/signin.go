package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/pkg/client"
)

// signedInMsg reports the outcome of the authentication exchange.
type signedInMsg struct {
	err error
}

type signinModel struct {
	client   *client.Client
	auth     *auth.Context
	email    textinput.Model
	password textinput.Model
	focus    int
	busy     bool
	err      string
}

func newSigninModel(c *client.Client, ac *auth.Context) signinModel {
	email := textinput.New()
	email.Placeholder = "you@company.com"
	email.Prompt = inputPromptStyle.Render("email    ")
	email.CharLimit = 254
	email.Focus()

	pw := textinput.New()
	pw.Placeholder = "password"
	pw.Prompt = inputPromptStyle.Render("password ")
	pw.EchoMode = textinput.EchoPassword
	pw.EchoCharacter = '•'
	pw.CharLimit = 128

	return signinModel{client: c, auth: ac, email: email, password: pw}
}

// reset clears the form, keeping the last email for convenience.
func (m signinModel) reset() signinModel {
	m.password.SetValue("")
	m.busy = false
	m.focus = 0
	m.email.Focus()
	m.password.Blur()
	return m
}

func (m signinModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m signinModel) Update(msg tea.Msg) (signinModel, tea.Cmd) {
	switch msg := msg.(type) {
	case signedInMsg:
		m.busy = false
		if msg.err != nil {
			m.err = signinErrText(msg.err)
			m.password.SetValue("")
			return m, nil
		}
		m.err = ""
		return m.reset(), nil

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "down", "up":
			m = m.toggleFocus()
			return m, textinput.Blink
		case "enter":
			if m.focus == 0 {
				m = m.toggleFocus()
				return m, textinput.Blink
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m signinModel) toggleFocus() signinModel {
	if m.focus == 0 {
		m.focus = 1
		m.email.Blur()
		m.password.Focus()
	} else {
		m.focus = 0
		m.password.Blur()
		m.email.Focus()
	}
	return m
}

func (m signinModel) submit() (signinModel, tea.Cmd) {
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	if email == "" || password == "" {
		m.err = "email and password are required"
		return m, nil
	}
	m.busy = true
	m.err = ""
	c := m.client
	ac := m.auth
	return m, func() tea.Msg {
		s, err := c.Login(context.Background(), email, password)
		if err != nil {
			return signedInMsg{err: err}
		}
		return signedInMsg{err: ac.Login(s)}
	}
}

func (m signinModel) View() string {
	var b strings.Builder
	b.WriteString("\n " + selectedStyle.Render("Sign in") + "\n\n")
	b.WriteString(" " + m.email.View() + "\n")
	b.WriteString(" " + m.password.View() + "\n\n")
	switch {
	case m.busy:
		b.WriteString(" " + dimStyle.Render("signing in...") + "\n")
	case m.err != "":
		b.WriteString(" " + errorStyle.Render(m.err) + "\n")
	}
	return b.String()
}

func (m signinModel) helpKeys() string {
	return helpEntry("tab", "next field") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("ctrl+c", "quit")
}

func signinErrText(err error) string {
	if client.IsUnauthenticated(err) {
		return "invalid email or password"
	}
	return errText(err)
}

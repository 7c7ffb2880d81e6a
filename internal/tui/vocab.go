package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/opsdesk/internal/authz"
	"github.com/naveenspark/opsdesk/pkg/client"
)

// vocabularyCheckedMsg carries the result of comparing the server's
// permission names with the console's.
type vocabularyCheckedMsg struct {
	report authz.VocabularyReport
	err    error
}

// checkVocabulary runs in the background once per sign-in. Failures are
// reported but never block the console.
func checkVocabulary(c *client.Client) tea.Cmd {
	if c == nil {
		return nil
	}
	return func() tea.Msg {
		names, err := c.ListPermissions(context.Background())
		if err != nil {
			return vocabularyCheckedMsg{err: err}
		}
		return vocabularyCheckedMsg{report: authz.CheckVocabulary(names)}
	}
}

// vocabularyWarning renders a one-line banner, empty when the vocabularies agree.
func vocabularyWarning(r authz.VocabularyReport) string {
	if r.OK() {
		return ""
	}
	return fmt.Sprintf("permission drift: %d unknown to console, %d missing on server",
		len(r.UnknownToClient), len(r.MissingOnServer))
}

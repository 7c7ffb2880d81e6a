package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/opsdesk/internal/auth"
	"github.com/naveenspark/opsdesk/internal/tui"
)

// runConsole starts the full-screen console. Auth changes made anywhere
// (sign-in screen, logout key, a 401 from the API) reach the model as a
// message so it re-reads the snapshot on its own goroutine.
func (e *env) runConsole(ctx context.Context) error {
	routes, err := tui.NewRoutes(e.cfg.Landing)
	if err != nil {
		return err
	}

	m := tui.NewApp(e.client, e.auth, routes, tui.Options{
		APIURL:  e.cfg.APIURL,
		Version: version,
		Logger:  e.logger,
	})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	cancel := e.auth.Subscribe(func(auth.Snapshot) {
		p.Send(tui.AuthChanged())
	})
	defer cancel()

	e.logger.Info("console started", "version", version, "landing", routes.Landing())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

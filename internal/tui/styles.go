package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/opsdesk/pkg/domain"
)

var (
	// Base styles: neutral slate palette
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e4e4ec")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#c0c4d0"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	// Help bar
	helpKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8890a0"))

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#505868"))

	accentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#38bdf8"))

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#38bdf8")).
			Bold(true)

	// Status lines
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#e06060"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4a844"))

	okStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ade80"))

	inputPromptStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#38bdf8")).
				Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 2)

	borderColor = lipgloss.Color("#2a2e3a")

	roleColors = map[domain.Role]lipgloss.Color{
		domain.RoleAdmin:   lipgloss.Color("#f0944a"),
		domain.RoleManager: lipgloss.Color("#b080d0"),
		domain.RoleStaff:   lipgloss.Color("#60a0e0"),
	}
)

// RoleStyle returns a bold style colored for the given role.
func RoleStyle(r domain.Role) lipgloss.Style {
	if c, ok := roleColors[r]; ok {
		return lipgloss.NewStyle().Foreground(c).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#8890a0")).Bold(true)
}

// RoleBadge returns a short colored badge, e.g. "[ADMIN]".
func RoleBadge(r domain.Role) string {
	if r == "" {
		return ""
	}
	return RoleStyle(r).Render("[" + string(r) + "]")
}

// renderLogo renders the spaced-out product name.
func renderLogo() string {
	return logoStyle.Render(strings.Join(strings.Split("OPSDESK", ""), " "))
}

// helpEntry renders a single "key label" pair for help bars.
func helpEntry(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpLabelStyle.Render(label)
}

// helpBar joins entries with the usual two-space gap.
func helpBar(entries ...string) string {
	return " " + strings.Join(entries, "  ")
}

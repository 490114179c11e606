package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan, package names
	colorAccent  = lipgloss.Color("#FFD700") // Gold, potential conflicts
	colorSuccess = lipgloss.Color("#00E676") // Green, clean runs
	colorDanger  = lipgloss.Color("#FF5252") // Red, conflicts and errors
	colorMuted   = lipgloss.Color("#636363") // Gray, report kinds
)

// Status icons.
const (
	iconOK       = "✓"
	iconConflict = "✗"
	iconWarning  = "!"
	iconSkipped  = "–"
)

// Styles bundles the lipgloss styles used by a Renderer.
type Styles struct {
	Package lipgloss.Style
	Kind    lipgloss.Style
	Danger  lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles returns the colored styles, or plain ones when noColor is set.
func NewStyles(noColor bool) Styles {
	if noColor {
		plain := lipgloss.NewStyle()
		return Styles{Package: plain, Kind: plain, Danger: plain, Warning: plain, Success: plain, Muted: plain}
	}
	return Styles{
		Package: lipgloss.NewStyle().Foreground(colorPrimary).Bold(true),
		Kind:    lipgloss.NewStyle().Foreground(colorMuted),
		Danger:  lipgloss.NewStyle().Foreground(colorDanger).Bold(true),
		Warning: lipgloss.NewStyle().Foreground(colorAccent),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	}
}

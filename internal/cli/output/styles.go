package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style

	ProjectPath lipgloss.Style
}

// NewStyles builds the styles on r so colours follow its profile.
func NewStyles(r *lipgloss.Renderer) *Styles {
	green := lipgloss.AdaptiveColor{Light: "#15803d", Dark: "#4ade80"}
	red := lipgloss.AdaptiveColor{Light: "#b91c1c", Dark: "#f87171"}
	yellow := lipgloss.AdaptiveColor{Light: "#a16207", Dark: "#facc15"}
	blue := lipgloss.AdaptiveColor{Light: "#1d4ed8", Dark: "#60a5fa"}
	grey := lipgloss.AdaptiveColor{Light: "#6b7280", Dark: "#9ca3af"}

	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(blue),
		Header2: r.NewStyle().Bold(true).Underline(true),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(grey),
		Success: r.NewStyle().Foreground(green),
		Warning: r.NewStyle().Foreground(yellow),
		Error:   r.NewStyle().Foreground(red),
		Info:    r.NewStyle().Foreground(blue),

		StatusSuccess: r.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(red).SetString("✗"),

		ProjectPath: r.NewStyle().Foreground(grey).Italic(true),
	}
}

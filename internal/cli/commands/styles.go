package commands

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the terminal styles for interactive output.
type Styles struct {
	Title  lipgloss.Style
	Prompt lipgloss.Style
	Error  lipgloss.Style
	Muted  lipgloss.Style
}

// NewStyles returns styles bound to w. Color is dropped when w is not a
// terminal or NO_COLOR is set.
func NewStyles(w io.Writer) *Styles {
	r := lipgloss.NewRenderer(w)
	if termenv.EnvNoColor() {
		r.SetColorProfile(termenv.Ascii)
	}
	return &Styles{
		Title:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Prompt: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		Muted:  r.NewStyle().Faint(true),
	}
}

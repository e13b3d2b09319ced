package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme bundles palette + symbols + box borders.
type Theme struct {
	Name string

	Title, Muted, Accent, Success, Error, Pending lipgloss.Style
	Done                                          lipgloss.Style

	BoxUnchecked, BoxChecked string
	SymDone, SymPending      string
	SymOK, SymFail           string
	Border                   lipgloss.Border
}

// ThemeNames lists the themes NewTheme knows.
var ThemeNames = []string{"classic", "neon", "mono"}

// NewTheme builds the named theme on renderer r. Unknown names get classic.
func NewTheme(name string, r *lipgloss.Renderer) Theme {
	if r == nil {
		r = lipgloss.DefaultRenderer()
	}
	plain := r.NewStyle()
	switch strings.ToLower(name) {
	case "neon":
		return Theme{
			Name:    "neon",
			Title:   plain.Bold(true).Foreground(lipgloss.Color("13")),
			Muted:   plain.Faint(true),
			Accent:  plain.Foreground(lipgloss.Color("14")),
			Success: plain.Foreground(lipgloss.Color("10")),
			Error:   plain.Foreground(lipgloss.Color("9")).Bold(true),
			Pending: plain.Foreground(lipgloss.Color("11")),
			Done:    plain.Faint(true).Strikethrough(true),

			BoxUnchecked: "◻", BoxChecked: "◼",
			SymDone: "✔", SymPending: "•",
			SymOK: "✔", SymFail: "✖",
			Border: lipgloss.RoundedBorder(),
		}
	case "mono":
		return Theme{
			Name:    "mono",
			Title:   plain,
			Muted:   plain,
			Accent:  plain,
			Success: plain,
			Error:   plain,
			Pending: plain,
			Done:    plain,

			BoxUnchecked: "[ ]", BoxChecked: "[x]",
			SymDone: "x", SymPending: "-",
			SymOK: "ok:", SymFail: "error:",
			Border: lipgloss.ASCIIBorder(),
		}
	}
	return Theme{
		Name:    "classic",
		Title:   plain.Bold(true),
		Muted:   plain.Faint(true),
		Accent:  plain.Foreground(lipgloss.Color("12")),
		Success: plain.Foreground(lipgloss.Color("42")),
		Error:   plain.Foreground(lipgloss.Color("9")).Bold(true),
		Pending: plain.Foreground(lipgloss.Color("214")),
		Done:    plain.Faint(true).Strikethrough(true),

		BoxUnchecked: "☐", BoxChecked: "☑",
		SymDone: "✔", SymPending: "•",
		SymOK: "✔", SymFail: "✖",
		Border: lipgloss.NormalBorder(),
	}
}

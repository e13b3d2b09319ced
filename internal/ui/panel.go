package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes themed output. Out receives regular output, Err receives
// failures.
type Printer struct {
	Out, Err io.Writer
	Theme    Theme
}

// NewPrinter returns a printer whose colors follow what out supports.
// Nil writers default to stdout and stderr.
func NewPrinter(out, errOut io.Writer, theme string) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	return &Printer{Out: out, Err: errOut, Theme: NewTheme(theme, lipgloss.NewRenderer(out))}
}

func (p *Printer) OK(msg string) {
	fmt.Fprintln(p.Out, p.Theme.Success.Render(p.Theme.SymOK+" "+msg))
}

func (p *Printer) Fail(msg string) {
	fmt.Fprintln(p.Err, p.Theme.Error.Render(p.Theme.SymFail+" "+msg))
}

// Hint prints a muted line on the error stream.
func (p *Printer) Hint(msg string) {
	fmt.Fprintln(p.Err, p.Theme.Muted.Render(msg))
}

func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.Out, a...)
}

// Panel draws a framed box around lines.
func (p *Printer) Panel(lines []string) {
	fmt.Fprintln(p.Out, PanelString(p.Theme, strings.Join(lines, "\n")))
}

// PanelString frames inner with the theme border.
func PanelString(t Theme, inner string) string {
	return t.Muted.UnsetFaint().
		Border(t.Border).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1).
		Render(inner)
}

// ProgressBar renders a Unicode progress bar with percentage.
func ProgressBar(done, total, width int) string {
	if total <= 0 {
		total = 1
	}
	if width < 5 {
		width = 5
	}
	filled := int(float64(done) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	pct := int(float64(done) / float64(total) * 100)
	return fmt.Sprintf("%s %3d%%", bar, pct)
}

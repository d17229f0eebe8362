package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
  ┌─┐┬  ┬┌─┐┬┌─┬─┐┌─┐┌─┐┬─┐┌─┐┌─┐┬─┐
  ├┤ │  ││  ├┴┐├┬┘└─┐│  ├┬┘├─┤├─┘├┬┘
  └  ┴─┘┴└─┘┴ ┴┴└─└─┘└─┘┴└─┴ ┴┴  ┴└─
  photo page scraper
`

// Terminal prints status lines for humans. Colors are used only when the
// output is a terminal.
type Terminal struct {
	out   io.Writer
	quiet bool

	cyan    lipgloss.Style
	yellow  lipgloss.Style
	red     lipgloss.Style
	green   lipgloss.Style
	magenta lipgloss.Style
}

// NewTerminal writes to out. Colors are disabled when noColor is set or out
// is not a terminal.
func NewTerminal(out io.Writer, noColor, quiet bool) *Terminal {
	r := lipgloss.NewRenderer(out)
	if noColor || !IsTerminal(out) {
		r.SetColorProfile(termenv.Ascii)
	}
	return newTerminal(out, r, quiet)
}

func newTerminal(out io.Writer, r *lipgloss.Renderer, quiet bool) *Terminal {
	return &Terminal{
		out:     out,
		quiet:   quiet,
		cyan:    r.NewStyle().Foreground(lipgloss.Color("6")),
		yellow:  r.NewStyle().Foreground(lipgloss.Color("3")),
		red:     r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		green:   r.NewStyle().Foreground(lipgloss.Color("2")),
		magenta: r.NewStyle().Foreground(lipgloss.Color("5")),
	}
}

// IsTerminal reports whether w is an interactive terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

func (t *Terminal) Cyan(s string) string    { return t.cyan.Render(s) }
func (t *Terminal) Yellow(s string) string  { return t.yellow.Render(s) }
func (t *Terminal) Red(s string) string     { return t.red.Render(s) }
func (t *Terminal) Green(s string) string   { return t.green.Render(s) }
func (t *Terminal) Magenta(s string) string { return t.magenta.Render(s) }

// PrintLogo prints the ASCII logo
func (t *Terminal) PrintLogo() {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, t.Cyan(ASCIILogo))
}

// PrintError prints an error message in red. Errors are printed even when
// quiet.
func (t *Terminal) PrintError(msg string, err error) {
	if err != nil {
		msg = msg + ": " + err.Error()
	}
	fmt.Fprintln(t.out, t.Red(msg))
}

// PrintSuccess prints a success message in green
func (t *Terminal) PrintSuccess(msg string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, t.Green(msg))
}

// PrintInfo prints a label and value
func (t *Terminal) PrintInfo(label string, value string) {
	if t.quiet {
		return
	}
	fmt.Fprintf(t.out, "%s: %s\n", t.Cyan(label), t.Yellow(value))
}

// PrintWarning prints a warning message in yellow
func (t *Terminal) PrintWarning(msg string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, t.Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func (t *Terminal) PrintHighlight(msg string) {
	if t.quiet {
		return
	}
	fmt.Fprintln(t.out, t.Magenta(msg))
}

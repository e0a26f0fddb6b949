package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Spotify brand green and neutrals.
const (
	ColorTitle = "#1DB954"
	ColorOK    = "#1ED760"
	ColorErr   = "#E22134"
	ColorWarn  = "#FFA42B"
	ColorHelp  = "#6A6A6A"
)

// Default is the palette used by the CLI.
var Default = NewPalette(ColorTitle, ColorOK, ColorErr, ColorWarn, ColorHelp)

// Palette is a small stylesheet of named [lipgloss.Style] values.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

// NewPalette builds a palette from foreground colors for titles, success, error, warning and help text.
func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func (p *Palette) Title(s string) string { return p.title.Render(s) }

// OK renders a success line with a check mark.
func (p *Palette) OK(format string, args ...any) string {
	return p.ok.Render("✓ " + fmt.Sprintf(format, args...))
}

// Err renders a failure line with a cross.
func (p *Palette) Err(format string, args ...any) string {
	return p.err.Render("✗ " + fmt.Sprintf(format, args...))
}

// Warn renders a warning line.
func (p *Palette) Warn(format string, args ...any) string {
	return p.warn.Render("⚠ " + fmt.Sprintf(format, args...))
}

// Step renders a progress line.
func (p *Palette) Step(format string, args ...any) string {
	return p.title.Render("→ ") + fmt.Sprintf(format, args...)
}

func (p *Palette) Help(s string) string { return p.help.Render(s) }

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	user  lipgloss.Style
	agent lipgloss.Style
	err   lipgloss.Style
	help  lipgloss.Style
	frame lipgloss.Style
}

// NewPalette builds a [Palette] from hex colors for titles, the agent, errors, the user and help text.
func NewPalette(t, a, e, u, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		agent: NewBold(a),
		err:   NewBold(e),
		user:  NewStyle(u),
		help:  NewEm(h),
		frame: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(h)).Padding(0, 1),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

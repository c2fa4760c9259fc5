package console

import (
	"github.com/bissquit/incident-console/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Theme is the color palette of the console. Colors are ANSI 256 codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	ErrorText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	FocusColor       lipgloss.Color

	// Indexed by severity rank - 1.
	SeverityColors [4]lipgloss.Color

	StatusOpen      lipgloss.Color
	StatusMitigated lipgloss.Color
	StatusResolved  lipgloss.Color
}

// DefaultTheme targets dark terminals.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),
	ErrorText:  lipgloss.Color("203"),

	SelectedBackground: lipgloss.Color("237"),
	SelectedForeground: lipgloss.Color("255"),

	HeaderForeground: lipgloss.Color("75"),
	BorderColor:      lipgloss.Color("240"),
	FocusColor:       lipgloss.Color("212"),

	SeverityColors: [4]lipgloss.Color{
		lipgloss.Color("196"),
		lipgloss.Color("208"),
		lipgloss.Color("220"),
		lipgloss.Color("111"),
	},

	StatusOpen:      lipgloss.Color("203"),
	StatusMitigated: lipgloss.Color("220"),
	StatusResolved:  lipgloss.Color("114"),
}

func (t Theme) severity(s domain.Severity) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	if rank := s.Rank(); rank > 0 {
		style = style.Foreground(t.SeverityColors[rank-1])
	}
	return style
}

func (t Theme) status(s domain.Status) lipgloss.Style {
	style := lipgloss.NewStyle()
	switch s {
	case domain.StatusOpen:
		return style.Foreground(t.StatusOpen)
	case domain.StatusMitigated:
		return style.Foreground(t.StatusMitigated)
	case domain.StatusResolved:
		return style.Foreground(t.StatusResolved)
	}
	return style
}

func (t Theme) title() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(t.HeaderForeground)
}

func (t Theme) faint() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.FaintText)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.ErrorText)
}

func (t Theme) label(focused bool) lipgloss.Style {
	style := lipgloss.NewStyle().Width(10).Foreground(t.FaintText)
	if focused {
		style = style.Foreground(t.FocusColor).Bold(true)
	}
	return style
}

func (t Theme) modal() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderColor).
		Padding(1, 2)
}

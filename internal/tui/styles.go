package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/releaseboard/internal/state"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("236"))
	headingStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	optionalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	sidebarStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			MarginRight(2)

	labelStyles = map[state.Label]lipgloss.Style{
		state.LabelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		state.LabelDanger:  lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		state.LabelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		state.LabelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	}

	verdictStyles = map[state.Verdict]lipgloss.Style{
		state.VerdictPending: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")),
		state.VerdictSuccess: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		state.VerdictFailure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}

	errorStyle = labelStyles[state.LabelDanger].Bold(true)
)

// labelGlyphs prefix check rows so the label survives colourless terminals.
var labelGlyphs = map[state.Label]string{
	state.LabelSuccess: "✔",
	state.LabelDanger:  "✖",
	state.LabelWarning: "!",
	state.LabelInfo:    "•",
}

const pendingGlyph = "…"

func verdictText(v state.Verdict) string {
	switch v {
	case state.VerdictSuccess:
		return "All checks are successful"
	case state.VerdictFailure:
		return "Some checks failed"
	default:
		return "Checks in progress"
	}
}

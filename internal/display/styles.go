package display

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/davidahmann/gate/internal/policy"
)

var (
	colorInfo    = lipgloss.Color("#2196F3")
	colorWarning = lipgloss.Color("#FFC107")
	colorSuccess = lipgloss.Color("#8BC34A")
	colorDanger  = lipgloss.Color("#e53935")
	colorMuted   = lipgloss.Color("#8a94a6")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	errorStyle  = lipgloss.NewStyle().Foreground(colorDanger)
	okStyle     = lipgloss.NewStyle().Foreground(colorSuccess)
)

func stageColor(stage policy.Stage) lipgloss.Color {
	switch stage {
	case policy.StageDocReview:
		return colorInfo
	case policy.StageRiskReview:
		return colorWarning
	case policy.StageApproved:
		return colorSuccess
	case policy.StageRejected:
		return colorDanger
	default:
		return colorMuted
	}
}

// StageBadge renders the stage label in its stage color.
func StageBadge(stage string) string {
	return lipgloss.NewStyle().
		Foreground(stageColor(policy.Stage(stage))).
		Bold(true).
		Render(policy.LabelFor(policy.Stage(stage)))
}

func Title(s string) string {
	return titleStyle.Render(s)
}

func Muted(s string) string {
	return mutedStyle.Render(s)
}

func Error(s string) string {
	return errorStyle.Render(s)
}

func OK(s string) string {
	return okStyle.Render(s)
}

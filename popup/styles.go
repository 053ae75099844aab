package popup

import "github.com/charmbracelet/lipgloss"

var (
	accent    = lipgloss.Color("#4285F4")
	success   = lipgloss.Color("#4CAF50")
	danger    = lipgloss.Color("#F44336")
	mutedGray = lipgloss.Color("#6B7280")
	textColor = lipgloss.Color("#F9FAFB")
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 2).
			Width(48)

	textStyle = lipgloss.NewStyle().
			Foreground(textColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	successTextStyle = lipgloss.NewStyle().
				Foreground(success).
				Bold(true)

	toastBase = lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true)

	toastStyles = map[toastKind]lipgloss.Style{
		toastInfo:    toastBase.Foreground(lipgloss.Color("#333333")).Background(lipgloss.Color("#E5E7EB")),
		toastSuccess: toastBase.Foreground(textColor).Background(success),
		toastError:   toastBase.Foreground(textColor).Background(danger),
	}
)

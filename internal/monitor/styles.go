package monitor

import "github.com/charmbracelet/lipgloss"

// Color palette for the watch dashboard.
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - offered services
	ErrorColor   = lipgloss.Color("#FF5555") // Red - stopped services
	WarningColor = lipgloss.Color("#FFA500") // Orange - waiting services
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Background(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)

	offeredStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	waitingStyle = lipgloss.NewStyle().Foreground(WarningColor)
	stoppedStyle = lipgloss.NewStyle().Foreground(ErrorColor)

	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(PrimaryColor)

	eventStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(1)
)

// stateStyle picks the style for a discovery state name.
func stateStyle(state string) lipgloss.Style {
	switch state {
	case "ServiceReady", "ServiceSeen":
		return offeredStyle
	case "Stopped":
		return stoppedStyle
	default:
		return waitingStyle
	}
}

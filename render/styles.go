package render

import "github.com/charmbracelet/lipgloss"

var (
	youStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("28")).
			Padding(0, 1)

	agentHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("255")).
				Padding(0, 1)

	sectionTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Underline(true)

	collapsedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")).
			Italic(true)

	preStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))

	errorBubbleStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("160")).
				Foreground(lipgloss.Color("203")).
				Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("204")).
			Padding(1, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242"))
)

package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#DB2777")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center).
			Foreground(lipgloss.Color("#6B7280"))

	selectedCellStyle = cellStyle.
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#DB2777")).
				Bold(true)

	todayCellStyle = cellStyle.
			Foreground(lipgloss.Color("#DB2777")).
			Bold(true)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#1F2937"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DB2777"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))
)

package tui

import "github.com/charmbracelet/lipgloss"

// Colors matching the output/colors.go scheme
var (
	colorCyan    = lipgloss.Color("6")  // Cyan - names, focus
	colorYellow  = lipgloss.Color("3")  // Yellow - pending, prompts
	colorRed     = lipgloss.Color("1")  // Red - errors
	colorGreen   = lipgloss.Color("2")  // Green - notices
	colorMagenta = lipgloss.Color("5")  // Magenta - locations
	colorWhite   = lipgloss.Color("15") // White - headings
	colorGray    = lipgloss.Color("8")  // Gray - muted text
)

// Text styles
var (
	styleNames    = lipgloss.NewStyle().Foreground(colorCyan)
	styleLocation = lipgloss.NewStyle().Foreground(colorMagenta)
	styleMuted    = lipgloss.NewStyle().Foreground(colorGray)
	styleHeader   = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleTitle    = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	styleLabel    = lipgloss.NewStyle().Foreground(colorGray)
	styleWarning  = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
)

// Focused form label
var styleLabelFocused = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Panel border styles
var (
	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)

	stylePanelError = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorRed)
)

// Selected item in a list
var styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Action button, reverse-video
var styleButton = lipgloss.NewStyle().
	Foreground(lipgloss.Color("0")).
	Background(colorCyan).
	Bold(true).
	Padding(0, 1)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

// Loading indicator
var styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)

// Error text
var styleError = lipgloss.NewStyle().Foreground(colorRed)

// Transient notice
var styleNotice = lipgloss.NewStyle().Foreground(colorGreen)

package output

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// ColorMode represents the color output mode
type ColorMode int

const (
	// ColorAuto enables colors if output is a TTY
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever disables colors
	ColorNever
)

// Colors holds the color functions for the ticket fields and chrome
type Colors struct {
	ID       func(format string, a ...interface{}) string
	Names    func(format string, a ...interface{}) string
	Location func(format string, a ...interface{}) string
	Issue    func(format string, a ...interface{}) string
	Header   func(format string, a ...interface{}) string
	Label    func(format string, a ...interface{}) string
	Muted    func(format string, a ...interface{}) string
	Success  func(format string, a ...interface{}) string
	Error    func(format string, a ...interface{}) string
}

// NewColors creates a new Colors instance based on the color mode
func NewColors(mode ColorMode) *Colors {
	useColors := false
	switch mode {
	case ColorAlways:
		useColors = true
		color.NoColor = false // Force colors on
	case ColorNever:
		useColors = false
	case ColorAuto:
		useColors = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	if !useColors {
		noColor := func(format string, a ...interface{}) string {
			if len(a) == 0 {
				return format
			}
			return color.New().Sprintf(format, a...)
		}
		return &Colors{
			ID:       noColor,
			Names:    noColor,
			Location: noColor,
			Issue:    noColor,
			Header:   noColor,
			Label:    noColor,
			Muted:    noColor,
			Success:  noColor,
			Error:    noColor,
		}
	}

	return &Colors{
		ID:       color.New(color.FgHiBlack).SprintfFunc(),
		Names:    color.New(color.FgCyan, color.Bold).SprintfFunc(),
		Location: color.New(color.FgMagenta).SprintfFunc(),
		Issue:    color.New(color.FgWhite).SprintfFunc(),
		Header:   color.New(color.FgWhite, color.Bold).SprintfFunc(),
		Label:    color.New(color.FgHiBlack).SprintfFunc(),
		Muted:    color.New(color.FgHiBlack).SprintfFunc(),
		Success:  color.New(color.FgGreen).SprintfFunc(),
		Error:    color.New(color.FgRed, color.Bold).SprintfFunc(),
	}
}

// ParseColorMode parses a color mode string
func ParseColorMode(s string) ColorMode {
	switch s {
	case "always":
		return ColorAlways
	case "never":
		return ColorNever
	default:
		return ColorAuto
	}
}

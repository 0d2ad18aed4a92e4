package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors defines the color palette for task status output.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color
	Running lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow
	Running: lipgloss.Color("#74B9FF"), // Light blue
}

// Styles used by the status printer and command output.
var Styles = struct {
	Header  lipgloss.Style
	Muted   lipgloss.Style
	Error   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Running lipgloss.Style
}{
	Header:  lipgloss.NewStyle().Bold(true).Foreground(Colors.Primary),
	Muted:   lipgloss.NewStyle().Foreground(Colors.Muted),
	Error:   lipgloss.NewStyle().Bold(true).Foreground(Colors.Error),
	Success: lipgloss.NewStyle().Foreground(Colors.Success),
	Warning: lipgloss.NewStyle().Foreground(Colors.Warning),
	Running: lipgloss.NewStyle().Foreground(Colors.Running),
}

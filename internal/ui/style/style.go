// Package style provides shared UI styling primitives including brand colors
// and icons for consistent visual presentation across the CLI.
package style

import "github.com/charmbracelet/lipgloss"

// Brand Colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Cyan   = lipgloss.Color("#06B6D4")
	Green  = lipgloss.Color("#22A06B")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
	Blue   = lipgloss.Color("#3B82F6")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)

// Severity is the closed set of console message severities.
type Severity uint8

const (
	// SeverityDebug is verbose diagnostic output.
	SeverityDebug Severity = iota
	// SeverityInfo is regular progress output.
	SeverityInfo
	// SeverityOK marks a completed operation.
	SeverityOK
	// SeverityWarn marks a recoverable problem.
	SeverityWarn
	// SeverityError marks a failure.
	SeverityError
)

// Tag returns the icon printed in front of a message of the given severity.
func Tag(s Severity) string {
	switch s {
	case SeverityOK:
		return Check
	case SeverityWarn:
		return Warning
	case SeverityError:
		return Cross
	case SeverityInfo:
		return Dot
	default:
		return Circle
	}
}

// ColorOf returns the foreground color of a message of the given severity.
func ColorOf(s Severity) lipgloss.Color {
	switch s {
	case SeverityOK:
		return Green
	case SeverityWarn:
		return Yellow
	case SeverityError:
		return Red
	case SeverityInfo:
		return Cyan
	default:
		return Slate
	}
}

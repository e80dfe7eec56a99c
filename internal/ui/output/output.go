// Package output provides termenv outputs with consistent color profile and
// TTY handling, plus a Printer for console text that is not a log record.
package output

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// ColorProfile returns the color profile to use for the console.
// It checks if NO_COLOR is set, returning Ascii if so.
// Otherwise, it detects the terminal's capabilities automatically.
func ColorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// New creates a new termenv.Output with the shared profile logic.
func New(w io.Writer, opts ...termenv.OutputOption) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}

	opts = append(opts,
		termenv.WithProfile(ColorProfile()),
		termenv.WithTTY(true),
	)

	return termenv.NewOutput(w, opts...)
}

// Printer serializes console writes from concurrent renders so that
// streamed engine lines never interleave mid-line.
type Printer struct {
	mu  sync.Mutex
	out *termenv.Output
}

// NewPrinter creates a Printer writing to w (stdout when nil).
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: New(w)}
}

// Line writes text in the given color followed by a newline.
func (p *Printer) Line(color lipgloss.Color, text string) {
	styled := p.out.String(text).Foreground(termenv.RGBColor(string(color)))

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = p.out.WriteString(styled.String() + "\n")
}

// Write passes raw bytes through unchanged.
func (p *Printer) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.out.Write(b)
}

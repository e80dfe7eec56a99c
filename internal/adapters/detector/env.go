// Package detector inspects the host: console interactivity, external
// executables and the desktop browser.
package detector

import (
	"io"
	"os"
	"os/exec"

	"github.com/pkg/browser"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

var _ ports.Environment = (*Environment)(nil)

// Environment implements ports.Environment for the current process.
type Environment struct {
	getenv func(string) string
	isTTY  func() bool
}

// NewEnvironment creates an Environment reading the process state.
func NewEnvironment() *Environment {
	// The opener's own chatter would interleave with render output.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard

	return &Environment{
		getenv: os.Getenv,
		isTTY:  func() bool { return term.IsTerminal(int(os.Stdout.Fd())) },
	}
}

// Interactive reports whether stdout is a terminal outside of CI.
func (e *Environment) Interactive() bool {
	ci := e.getenv("CI")
	isCI := ci == "true" || ci == "1"
	return e.isTTY() && !isCI
}

// LookPath resolves an executable on PATH.
func (e *Environment) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// OpenBrowser opens url in the default browser.
func (e *Environment) OpenBrowser(url string) error {
	if err := browser.OpenURL(url); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open browser"), "url", url)
	}
	return nil
}

// CheckDependencies verifies the external programs a session needs.
// A missing engine is fatal. A missing encoder is returned as a warning,
// since some engine setups bundle their own.
func CheckDependencies(env ports.Environment, cfg domain.Config) (warnings []string, err error) {
	if len(cfg.Engine) == 0 {
		return nil, zerr.With(domain.ErrEngineNotFound, "engine", "")
	}
	if _, lookErr := env.LookPath(cfg.Engine[0]); lookErr != nil {
		return nil, zerr.With(domain.ErrEngineNotFound, "engine", cfg.Engine[0])
	}
	if cfg.Encoder != "" {
		if _, lookErr := env.LookPath(cfg.Encoder); lookErr != nil {
			warnings = append(warnings, zerr.With(domain.ErrEncoderNotFound, "encoder", cfg.Encoder).Error())
		}
	}
	return warnings, nil
}

// ShouldOpenBrowser resolves the --no-open flag against the console state:
// a browser is only opened for a person at an interactive terminal.
func ShouldOpenBrowser(env ports.Environment, requested bool) bool {
	return requested && env.Interactive()
}

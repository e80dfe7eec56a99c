// Package shell runs external commands, streaming their combined output line by line.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

// waitDelay bounds how long Wait blocks on output after the process was killed.
const waitDelay = 2 * time.Second

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
//
// Commands run attached to a pseudo-terminal when one is available so that
// engines keep their progress output line-buffered. Without a PTY the
// executor falls back to a shared pipe for stdout and stderr.
type Executor struct {
	usePTY bool
}

// Option configures an Executor.
type Option func(*Executor)

// WithoutPTY forces plain pipes instead of a pseudo-terminal.
func WithoutPTY() Option {
	return func(e *Executor) {
		e.usePTY = false
	}
}

// NewExecutor creates a new Executor.
func NewExecutor(opts ...Option) *Executor {
	e := &Executor{usePTY: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the command and waits for it to complete.
// Output is normalized to "\n" terminated lines before it reaches output.
func (e *Executor) Execute(ctx context.Context, command domain.Command, output io.Writer) error {
	if len(command.Args) == 0 {
		return domain.ErrEmptyCommand
	}
	if output == nil {
		output = io.Discard
	}

	lines := &lineWriter{out: output}
	defer func() { _ = lines.Close() }()

	var err error
	if e.usePTY {
		err = runPTY(newCmd(ctx, command), lines)
		if errors.Is(err, errPTYUnavailable) {
			err = runPipe(newCmd(ctx, command), lines)
		}
	} else {
		err = runPipe(newCmd(ctx, command), lines)
	}
	if err == nil {
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ctx.Err() != nil {
			return zerr.Wrap(ctx.Err(), "command canceled")
		}
		return zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitErr.ExitCode())
	}
	return zerr.With(zerr.Wrap(err, domain.ErrCommandStartFailed.Error()), "command", command.Args[0])
}

func newCmd(ctx context.Context, command domain.Command) *exec.Cmd {
	cmdEnv := resolveEnvironment(os.Environ(), command.Env)
	name := command.Args[0]

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, command.Args[1:]...) //nolint:gosec // user provided command
	cmd.Args[0] = name
	cmd.Dir = command.Dir
	cmd.Env = cmdEnv
	cmd.WaitDelay = waitDelay
	return cmd
}

var errPTYUnavailable = errors.New("pty unavailable")

func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(cmd)
	if err != nil {
		// The process never started, so the caller may retry on pipes.
		return errors.Join(errPTYUnavailable, err)
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master fails with EIO once the child side is closed.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	_ = ptmx.Close()
	return err
}

func runPipe(cmd *exec.Cmd, out io.Writer) error {
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// lineWriter splits a byte stream into lines, dropping the carriage
// returns a PTY adds, and forwards each line with a trailing newline.
type lineWriter struct {
	out io.Writer
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		if err := w.emit(w.buf[:i]); err != nil {
			return len(p), err
		}
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close flushes a trailing partial line.
func (w *lineWriter) Close() error {
	if len(w.buf) == 0 {
		return nil
	}
	err := w.emit(w.buf)
	w.buf = nil
	return err
}

func (w *lineWriter) emit(line []byte) error {
	text := strings.TrimRight(string(line), "\r")
	_, err := io.WriteString(w.out, text+"\n")
	return err
}

// resolveEnvironment layers extra "KEY=VALUE" entries over the inherited environment.
// Later entries win; the first occurrence fixes a key's position.
func resolveEnvironment(sysEnv, extra []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(extra))
	order := make([]string, 0, len(sysEnv)+len(extra))

	for _, list := range [][]string{sysEnv, extra} {
		for _, entry := range list {
			k, v, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if _, seen := envMap[k]; !seen {
				order = append(order, k)
			}
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH
// entry of env, which may differ from the current process's PATH.
func lookPath(file string, env []string) (string, error) {
	if strings.ContainsRune(file, filepath.Separator) {
		return file, findExecutable(file)
	}

	var path string
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "PATH="); ok {
			path = after
		}
	}
	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

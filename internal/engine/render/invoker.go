// Package render runs the rendering engine for one target and publishes the
// resulting artifact to the target's preview path.
package render

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/reel/internal/ui/output"
	"go.trai.ch/reel/internal/ui/style"
	"go.trai.ch/zerr"
)

const (
	// TailLines is how many trailing log lines are printed after a failure.
	TailLines = 80
	// MaxTailLineLen caps a single printed log line.
	MaxTailLineLen = 4096

	truncatedMark = " [truncated]"
	headerRule   = 80
	headerLayout = "2006-01-02 15:04:05"
)

var _ ports.Renderer = (*Invoker)(nil)

// Options configure every invocation of a session.
type Options struct {
	// Engine is the argv prefix of the rendering engine, e.g. ["manim"].
	Engine []string
	// ArtifactExt is the extension of the artifact to publish.
	ArtifactExt string
	// Verbose raises the engine's own log level.
	Verbose bool
}

// Invoker implements ports.Renderer by running the engine as a subprocess.
type Invoker struct {
	executor ports.Executor
	tracer   ports.Tracer
	logger   ports.Logger
	store    ports.BuildInfoStore
	console  *output.Printer
	opts     Options
	now      func() time.Time
}

// NewInvoker creates an Invoker. store may be nil to skip build history.
func NewInvoker(
	executor ports.Executor,
	tracer ports.Tracer,
	logger ports.Logger,
	store ports.BuildInfoStore,
	console *output.Printer,
	opts Options,
) *Invoker {
	if opts.ArtifactExt == "" {
		opts.ArtifactExt = domain.DefaultArtifactExt
	}
	if console == nil {
		console = output.NewPrinter(nil)
	}
	return &Invoker{
		executor: executor,
		tracer:   tracer,
		logger:   logger,
		store:    store,
		console:  console,
		opts:     opts,
		now:      time.Now,
	}
}

// Command returns the engine invocation for target.
// The artifact base name is always the target name and engine-side caching
// is disabled so the output reflects the current source.
func (i *Invoker) Command(target *domain.Target) domain.Command {
	verbosity := "WARNING"
	if i.opts.Verbose {
		verbosity = "DEBUG"
	}

	args := make([]string, 0, len(i.opts.Engine)+11)
	args = append(args, i.opts.Engine...)
	args = append(args,
		target.SourcePath,
		target.SceneID,
		target.Quality.Flag(),
		"--media_dir", target.OutputDir,
		"--output_file", target.Name,
		"-v", verbosity,
		"--disable_caching",
	)
	return domain.Command{Args: args}
}

// Render runs one invocation for target. A failed invocation leaves the
// preview untouched.
func (i *Invoker) Render(ctx context.Context, target *domain.Target) domain.RenderResult {
	ctx, span := i.tracer.Start(ctx, "render",
		ports.WithAttribute("reel.target", target.Name),
		ports.WithAttribute("reel.scene", target.SceneID),
		ports.WithAttribute("reel.quality", target.Quality.String()),
	)
	defer span.End()

	started := i.now()
	digest, err := i.run(ctx, target)
	elapsed := i.now().Sub(started)

	res := domain.RenderResult{Target: target.Name, OK: err == nil, Duration: elapsed, Err: err}
	i.record(target, started, digest, res)

	if err != nil {
		span.RecordError(err)
		i.logger.Error(zerr.With(zerr.With(zerr.With(err,
			"target", target.Name),
			"elapsed", formatElapsed(elapsed)),
			"log", target.LogPath))
		i.printTail(target.LogPath)
		return res
	}

	span.SetAttribute("reel.preview_digest", digest)
	i.logger.Success(fmt.Sprintf("[%s] preview updated: %s (%s)", target.Name, target.PreviewPath, formatElapsed(elapsed)))
	return res
}

func (i *Invoker) run(ctx context.Context, target *domain.Target) (string, error) {
	cmd := i.Command(target)
	i.console.Line(style.Iris, "[cmd] "+cmd.String())

	if err := i.execute(ctx, target, cmd); err != nil {
		return "", err
	}

	artifact, err := FindNewest(target.OutputDir, i.opts.ArtifactExt)
	if err != nil {
		return "", err
	}

	digest, err := CopyAtomic(artifact, target.PreviewPath)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrArtifactCopyFailed.Error()), "artifact", artifact)
	}
	return digest, nil
}

// execute appends a header to the target log and streams the engine's output
// to the console and the log at the same time.
func (i *Invoker) execute(ctx context.Context, target *domain.Target, cmd domain.Command) error {
	if err := os.MkdirAll(filepath.Dir(target.LogPath), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDirCreateFailed.Error()), "dir", filepath.Dir(target.LogPath))
	}

	//nolint:gosec // log path is derived from the target name
	logFile, err := os.OpenFile(target.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.FilePerm)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLogOpenFailed.Error()), "log", target.LogPath)
	}
	defer func() { _ = logFile.Close() }()

	if _, err := io.WriteString(logFile, logHeader(i.now(), cmd)); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLogOpenFailed.Error()), "log", target.LogPath)
	}

	if err := i.executor.Execute(ctx, cmd, io.MultiWriter(i.console, logFile)); err != nil {
		return zerr.Wrap(err, domain.ErrRenderFailed.Error())
	}
	return nil
}

func logHeader(at time.Time, cmd domain.Command) string {
	rule := strings.Repeat("=", headerRule)
	return "\n" + rule + "\n[" + at.Format(headerLayout) + "] " + cmd.String() + "\n" + rule + "\n"
}

func (i *Invoker) record(target *domain.Target, started time.Time, digest string, res domain.RenderResult) {
	if i.store == nil {
		return
	}

	info := domain.BuildInfo{Target: target.Name}
	if prev, err := i.store.Get(target.Name); err != nil {
		i.logger.Warn("[" + target.Name + "] build history unreadable: " + err.Error())
	} else if prev != nil {
		info = *prev
	}

	info.Scene = target.SceneID
	info.StartedAt = started
	info.Duration = res.Duration
	info.Attempts++
	if res.OK {
		info.Status = domain.StatusOK
		info.PreviewDigest = digest
		info.Error = ""
	} else {
		info.Status = domain.StatusFailed
		info.Failures++
		info.Error = firstLine(res.Err)
	}

	if err := i.store.Put(info); err != nil {
		i.logger.Warn("[" + target.Name + "] build history not saved: " + err.Error())
	}
}

func (i *Invoker) printTail(logPath string) {
	lines, err := Tail(logPath, TailLines)
	if len(lines) == 0 {
		return
	}
	i.console.Line(style.Blue, "\n--- "+filepath.Base(logPath)+" (tail) ---")
	for _, line := range lines {
		_, _ = i.console.Write([]byte(line + "\n"))
	}
	if err != nil {
		i.console.Line(style.Yellow, "(log read stopped early: "+err.Error()+")")
	}
	i.console.Line(style.Blue, "--- end ---")
}

// Tail returns the last n lines of the file at path. Lines longer than
// MaxTailLineLen are cut short. On a read error the lines collected so far
// are returned with it.
func Tail(path string, n int) ([]string, error) {
	f, err := os.Open(path) //nolint:gosec // path is a target log
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	ring := make([]string, 0, n)
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if len(line) > MaxTailLineLen {
				line = line[:MaxTailLineLen] + truncatedMark
			}
			if len(ring) == n {
				ring = ring[1:]
			}
			ring = append(ring, line)
		}
		if errors.Is(err, io.EOF) {
			return ring, nil
		}
		if err != nil {
			return ring, err
		}
	}
}

// FindNewest returns the most recently modified file with extension ext
// anywhere under root.
func FindNewest(root, ext string) (string, error) {
	var (
		newest  string
		newestT time.Time
	)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ext) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil //nolint:nilerr // the file vanished during the walk
		}
		if newest == "" || info.ModTime().After(newestT) {
			newest, newestT = path, info.ModTime()
		}
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", zerr.With(zerr.Wrap(err, domain.ErrArtifactNotFound.Error()), "dir", root)
	}
	if newest == "" {
		return "", zerr.With(zerr.With(domain.ErrArtifactNotFound, "dir", root), "ext", ext)
	}
	return newest, nil
}

// CopyAtomic copies src over dst through a temporary file in dst's directory,
// so readers of dst only ever see a complete file. It returns the xxhash
// digest of the copied bytes.
func CopyAtomic(src, dst string) (string, error) {
	in, err := os.Open(src) //nolint:gosec // src is an engine artifact
	if err != nil {
		return "", err
	}
	defer func() { _ = in.Close() }()

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return "", err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	digest := xxhash.New()
	if _, err := io.Copy(io.MultiWriter(tmp, digest), in); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return "", err
	}
	return hex.EncodeToString(digest.Sum(nil)), nil
}

func formatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

func firstLine(err error) string {
	if err == nil {
		return ""
	}
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return msg
}

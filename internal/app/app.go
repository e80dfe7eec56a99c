// Package app implements the application layer for reel.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"go.trai.ch/reel/internal/adapters/dashboard"
	"go.trai.ch/reel/internal/adapters/detector"
	"go.trai.ch/reel/internal/adapters/server"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/reel/internal/engine/rebuild"
	"go.trai.ch/reel/internal/engine/registry"
	"go.trai.ch/reel/internal/engine/render"
	"go.trai.ch/reel/internal/engine/router"
	"go.trai.ch/reel/internal/ui/output"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Components holds the resolved entry points used by the command line.
type Components struct {
	App    *App
	Logger ports.Logger
}

// consoleLogger is implemented by loggers whose format can change at runtime.
type consoleLogger interface {
	SetVerbose(enable bool)
	SetJSON(enable bool)
}

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	env            ports.Environment
	executor       ports.Executor
	logger         ports.Logger
	tracer         ports.Tracer
	scenes         ports.SceneDetectorFactory
	storeFactory   ports.BuildInfoStoreFactory
	watcherFactory ports.WatcherFactory
	publishers     PublisherFactory
	stdout         io.Writer
	listening      func(url string)
}

// PublisherFactory creates the dashboard publisher of a session.
type PublisherFactory func(layout domain.Layout, store ports.BuildInfoStore) ports.Publisher

// New creates a new App instance.
func New(
	loader ports.ConfigLoader,
	env ports.Environment,
	executor ports.Executor,
	log ports.Logger,
	tracer ports.Tracer,
	scenes ports.SceneDetectorFactory,
	storeFactory ports.BuildInfoStoreFactory,
	watcherFactory ports.WatcherFactory,
) *App {
	return &App{
		configLoader:   loader,
		env:            env,
		executor:       executor,
		logger:         log,
		tracer:         tracer,
		scenes:         scenes,
		storeFactory:   storeFactory,
		watcherFactory: watcherFactory,
		publishers: func(layout domain.Layout, store ports.BuildInfoStore) ports.Publisher {
			return dashboard.NewPublisher(layout, store)
		},
		stdout: os.Stdout,
	}
}

// WithOutput redirects streamed engine output, which goes to stdout by default.
func (a *App) WithOutput(w io.Writer) *App {
	a.stdout = w
	return a
}

// WithPublisher replaces the dashboard publisher.
// This is primarily used for testing.
func (a *App) WithPublisher(fn PublisherFactory) *App {
	a.publishers = fn
	return a
}

// WithListening registers fn to be called with the dashboard URL once the
// preview server accepts connections.
// This is primarily used for testing.
func (a *App) WithListening(fn func(url string)) *App {
	a.listening = fn
	return a
}

// Options are the command line overrides of a session. Zero values leave
// the configured value untouched.
type Options struct {
	Targets  []string
	Quality  string
	Port     int
	MediaDir string
	NoOpen   bool
	Verbose  bool
	JSONLogs bool
	Jobs     int
}

func (o Options) apply(cfg *domain.Config) error {
	if len(o.Targets) > 0 {
		cfg.Targets = o.Targets
	}
	if o.Quality != "" {
		q, err := domain.ParseQuality(o.Quality)
		if err != nil {
			return err
		}
		cfg.Quality = q
	}
	if o.Port != 0 {
		cfg.Port = o.Port
	}
	if o.MediaDir != "" {
		cfg.MediaDir = o.MediaDir
	}
	if o.NoOpen {
		cfg.Open = false
	}
	if o.Verbose {
		cfg.Verbose = true
	}
	if o.Jobs != 0 {
		cfg.Jobs = o.Jobs
	}
	return nil
}

// session is everything a run needs once its targets are registered.
type session struct {
	cfg       domain.Config
	layout    domain.Layout
	store     ports.BuildInfoStore
	targets   []*domain.Target
	invoker   *render.Invoker
	publisher ports.Publisher
}

// Watch renders every target once, serves the dashboard and re-renders
// targets whose sources change until ctx is canceled.
//
//nolint:cyclop,funlen // orchestration function
func (a *App) Watch(ctx context.Context, opts Options) error {
	s, err := a.prepare(ctx, opts)
	if err != nil {
		return err
	}

	// Published before any render so the page is viewable immediately.
	if err := s.publisher.Publish(s.targets); err != nil {
		return err
	}

	// Renders are never canceled by an interrupt. They are only abandoned
	// once the shutdown timeout expires.
	renderCtx, cancelRenders := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRenders()

	a.logger.Info("rendering all targets once")
	a.reportFailures(a.renderAll(renderCtx, s), len(s.targets))
	a.publish(s)
	if ctx.Err() != nil {
		return nil
	}

	var (
		jobs     = make(map[string]*rebuild.Job, len(s.targets))
		triggers = make(map[string]router.Trigger, len(s.targets))
		inflight sync.WaitGroup
		srv      *server.Server
	)

	srv = server.New(server.Options{
		Host:    s.cfg.Host,
		Port:    s.cfg.Port,
		Verbose: s.cfg.Verbose,
		Layout:  s.layout,
	}, s.targets, s.store, func(name string) error {
		job, ok := jobs[name]
		if !ok {
			return domain.ErrTargetNotFound
		}
		inflight.Go(func() { job.Trigger(renderCtx) })
		return nil
	}, a.logger)

	after := rebuild.WithAfter(func(domain.RenderResult) {
		a.publish(s)
		srv.Notify(s.publisher.Path())
	})
	for _, t := range s.targets {
		job := rebuild.NewJob(t, s.invoker, a.logger, s.cfg.Debounce, after)
		jobs[t.Name] = job
		triggers[t.Name] = job
	}
	rt := router.New(s.targets, triggers, rebuild.NewGate(s.cfg.Debounce), s.cfg.Extensions, a.logger)

	lis, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ServeListener(gctx, lis)
	})

	watchers, err := a.startWatchers(gctx, renderCtx, g, s, rt, srv)
	defer stopWatchers(watchers)
	if err != nil {
		stop()
		return errors.Join(err, g.Wait())
	}

	url := srv.URL()
	a.logger.Info("serving " + url)
	if a.listening != nil {
		a.listening(url)
	}
	if detector.ShouldOpenBrowser(a.env, s.cfg.Open) {
		if err := a.env.OpenBrowser(url); err != nil {
			a.logger.Warn("could not open the browser, visit " + url)
		}
	}
	a.logger.Info(fmt.Sprintf("watching %d target(s), press Ctrl+C to stop", len(s.targets)))

	err = g.Wait()

	a.logger.Info("shutting down")
	stopWatchers(watchers)
	if !a.drain(s.cfg.ShutdownTimeout, rt.Wait, inflight.Wait) {
		a.logger.Warn("renders still running after " + s.cfg.ShutdownTimeout.String() + ", stopping them")
		cancelRenders()
	}
	return err
}

// startWatchers starts one recursive watcher per target watch root plus one
// on the previews directory that feeds the reload channel.
func (a *App) startWatchers(
	ctx context.Context,
	renderCtx context.Context,
	g *errgroup.Group,
	s *session,
	rt *router.Router,
	reloader ports.Reloader,
) ([]ports.Watcher, error) {
	skip := []string{
		s.layout.MediaDir,
		s.layout.PreviewsDir(),
		s.layout.LogsDir(),
		filepath.Join(s.layout.WorkDir, domain.ReelDirName),
	}

	var watchers []ports.Watcher
	start := func(root string, consume func(ports.WatchEvent), skipDirs ...string) error {
		w, err := a.watcherFactory(skipDirs...)
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "root", root)
		}
		if err := w.Start(ctx, root); err != nil {
			_ = w.Stop()
			return zerr.With(zerr.Wrap(err, domain.ErrWatcherStartFailed.Error()), "root", root)
		}
		watchers = append(watchers, w)
		g.Go(func() error {
			for ev := range w.Events() {
				consume(ev)
			}
			return nil
		})
		return nil
	}

	// Every render runs off the watcher goroutine: Dispatch only hands the
	// event over to the target's job.
	dispatch := func(ev ports.WatchEvent) {
		a.logger.Debug(ev.Operation.String() + " " + ev.Path)
		rt.Dispatch(renderCtx, ev)
	}
	for _, t := range s.targets {
		if err := start(t.WatchRoot, dispatch, skip...); err != nil {
			return watchers, err
		}
	}

	notify := func(ev ports.WatchEvent) {
		for _, p := range ev.Paths() {
			if isPreview(p, s.cfg.ArtifactExt) {
				reloader.Notify(p)
			}
		}
	}
	if err := start(s.layout.PreviewsDir(), notify); err != nil {
		return watchers, err
	}
	return watchers, nil
}

// isPreview rejects the hidden temp files a preview is staged in.
func isPreview(path, ext string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && strings.EqualFold(filepath.Ext(base), ext)
}

func stopWatchers(watchers []ports.Watcher) {
	for _, w := range watchers {
		_ = w.Stop()
	}
}

// drain waits for every wait function, giving up after timeout.
func (a *App) drain(timeout time.Duration, waits ...func()) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, wait := range waits {
			wait()
		}
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

// Render renders every target once and returns domain.ErrBuildFailed when
// any of them failed.
func (a *App) Render(ctx context.Context, opts Options) error {
	s, err := a.prepare(ctx, opts)
	if err != nil {
		return err
	}

	a.logger.Info(fmt.Sprintf("rendering %d target(s)", len(s.targets)))
	failed := a.renderAll(ctx, s)
	a.publish(s)

	if len(failed) > 0 {
		a.reportFailures(failed, len(s.targets))
		return domain.ErrBuildFailed
	}
	a.logger.Success(fmt.Sprintf("rendered %d target(s), previews in %s", len(s.targets), s.layout.PreviewsDir()))
	return nil
}

// renderAll renders every target once, at most cfg.Jobs at a time, and
// returns the names of the targets that failed.
func (a *App) renderAll(ctx context.Context, s *session) []string {
	var (
		mu     sync.Mutex
		failed []string
		g      errgroup.Group
	)
	g.SetLimit(s.cfg.Jobs)

	for _, t := range s.targets {
		g.Go(func() error {
			if res := s.invoker.Render(ctx, t); !res.OK {
				mu.Lock()
				failed = append(failed, t.Name)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	slices.Sort(failed)
	return failed
}

func (a *App) reportFailures(failed []string, total int) {
	if len(failed) == 0 {
		return
	}
	a.logger.Warn(fmt.Sprintf("%d of %d target(s) failed: %s", len(failed), total, strings.Join(failed, ", ")))
}

// publish refreshes the dashboard. A failed write is reported and the
// previous page stays in place.
func (a *App) publish(s *session) {
	if err := s.publisher.Publish(s.targets); err != nil {
		a.logger.Error(err)
	}
}

// prepare merges configuration, checks the host and registers the targets.
// Every error it returns is fatal for the run.
func (a *App) prepare(ctx context.Context, opts Options) (*session, error) {
	if l, ok := a.logger.(consoleLogger); ok {
		l.SetVerbose(opts.Verbose)
		l.SetJSON(opts.JSONLogs)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, errors.Join(domain.ErrFatalConfig, zerr.Wrap(err, "failed to resolve working directory"))
	}

	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if err := opts.apply(&cfg); err != nil {
		return nil, errors.Join(domain.ErrFatalConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Join(domain.ErrFatalConfig, err)
	}

	warnings, err := detector.CheckDependencies(a.env, cfg)
	if err != nil {
		return nil, errors.Join(domain.ErrFatalConfig, err)
	}
	for _, w := range warnings {
		a.logger.Warn(w)
	}

	if len(cfg.Targets) == 0 {
		a.logger.Warn("no target given, trying " + domain.DefaultSourceFile + " with scene detection")
	}
	specs, err := registry.ResolveSpecs(cfg.Targets)
	if err != nil {
		return nil, err
	}

	layout := domain.NewLayout(cwd, cfg.MediaDir)
	reg := registry.New(layout, a.scenes(cfg.Detector, cfg.Python), a.logger)
	targets, err := reg.Register(ctx, specs, registry.Options{
		Quality:     cfg.Quality,
		ArtifactExt: cfg.ArtifactExt,
	})
	if err != nil {
		return nil, err
	}

	store := a.storeFactory(layout.StorePath())
	invoker := render.NewInvoker(a.executor, a.tracer, a.logger, store, output.NewPrinter(a.stdout), render.Options{
		Engine:      cfg.Engine,
		ArtifactExt: cfg.ArtifactExt,
		Verbose:     cfg.Verbose,
	})

	return &session{
		cfg:       cfg,
		layout:    layout,
		store:     store,
		targets:   targets,
		invoker:   invoker,
		publisher: a.publishers(layout, store),
	}, nil
}

// Clean removes everything reel generated in the working directory.
func (a *App) Clean(_ context.Context) error {
	cwd, err := os.Getwd()
	if err != nil {
		return zerr.Wrap(err, "failed to resolve working directory")
	}

	mediaDir := ""
	if cfg, err := a.configLoader.Load(cwd); err == nil {
		mediaDir = cfg.MediaDir
	}
	layout := domain.NewLayout(cwd, mediaDir)

	var errs error

	remove := func(path string, name string) {
		if _, err := os.Lstat(path); errors.Is(err, os.ErrNotExist) {
			return
		}
		a.logger.Info(fmt.Sprintf("removing %s...", name))
		if err := os.RemoveAll(path); err != nil {
			errs = errors.Join(errs, zerr.Wrap(err, fmt.Sprintf("failed to remove %s", name)))
			return
		}
		a.logger.Info(fmt.Sprintf("removed %s", name))
	}

	remove(layout.MediaDir, "render output")
	remove(layout.PreviewsDir(), "previews")
	remove(layout.LogsDir(), "logs")
	remove(filepath.Join(layout.WorkDir, domain.ReelDirName), "build history")
	remove(layout.DashboardPath(), "dashboard")

	return errs
}

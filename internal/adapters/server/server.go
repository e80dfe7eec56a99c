// Package server serves the dashboard, previews and logs over HTTP and
// pushes live reload signals to open pages.
package server

import (
	"context"
	_ "embed"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"go.trai.ch/reel/internal/adapters/dashboard"
	"go.trai.ch/reel/internal/adapters/watcher"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// ReloadCoalesce merges bursts of changed files into one reload.
	ReloadCoalesce = 300 * time.Millisecond

	wsRoute           = "/reel/ws"
	readHeaderTimeout = 5 * time.Second
)

//go:embed reload.js
var reloadScript []byte

var _ ports.Reloader = (*Server)(nil)

// RebuildFunc requests an asynchronous rebuild of the named target.
// It returns domain.ErrTargetNotFound for unknown names.
type RebuildFunc func(name string) error

// Options configure a Server.
type Options struct {
	Host    string
	Port    int
	Verbose bool
	Layout  domain.Layout
}

// Server is the local preview server.
type Server struct {
	opts      Options
	targets   []*domain.Target
	store     ports.BuildInfoStore
	rebuild   RebuildFunc
	logger    ports.Logger
	hub       *Hub
	debouncer *watcher.Debouncer
	engine    *gin.Engine
}

// New creates a Server for targets. store and rebuild may be nil.
func New(opts Options, targets []*domain.Target, store ports.BuildInfoStore, rebuild RebuildFunc, logger ports.Logger) *Server {
	s := &Server{
		opts:    opts,
		targets: targets,
		store:   store,
		rebuild: rebuild,
		logger:  logger,
		hub:     NewHub(logger),
	}
	s.debouncer = watcher.NewDebouncer(ReloadCoalesce, s.broadcastReload)
	s.engine = s.routes()
	return s
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.opts.Host, strconv.Itoa(s.opts.Port))
}

// URL returns the dashboard URL.
func (s *Server) URL() string {
	return "http://" + s.Addr() + "/" + domain.DashboardFileName
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Hub returns the reload hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Notify declares that path changed on disk. Notifications arriving close
// together are pushed to clients as a single reload.
func (s *Server) Notify(path string) {
	s.debouncer.Add(path)
}

// Listen binds the configured address.
func (s *Server) Listen() (net.Listener, error) {
	lis, err := net.Listen("tcp", s.Addr())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", s.Addr())
	}
	return lis, nil
}

// Serve listens until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	lis, err := s.Listen()
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, lis)
}

// ServeListener serves on lis until ctx is canceled.
func (s *Server) ServeListener(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	select {
	case err := <-errCh:
		s.stop()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	case <-ctx.Done():
	}

	s.stop()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return zerr.Wrap(err, domain.ErrServerFailed.Error())
	}
	return nil
}

// stop pushes any reload still waiting in the coalescing window, then
// disconnects every page.
func (s *Server) stop() {
	s.debouncer.Flush()
	s.debouncer.Stop()
	s.hub.Close()
}

func (s *Server) broadcastReload(paths []string) {
	names := make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	s.hub.Broadcast(Message{Type: "reload", Paths: names})
	if s.logger != nil {
		s.logger.Debug("reload pushed to " + strconv.Itoa(s.hub.Count()) + " client(s)")
	}
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/", s.page)
	r.GET("/"+domain.DashboardFileName, s.page)

	files := r.Group("/", noCache)
	files.GET(dashboard.PreviewsRoute+"*file", serveDir(s.opts.Layout.PreviewsDir()))
	files.GET(dashboard.LogsRoute+"*file", serveDir(s.opts.Layout.LogsDir()))

	r.GET(dashboard.ReloadScriptRoute, func(c *gin.Context) {
		c.Data(http.StatusOK, "application/javascript; charset=utf-8", reloadScript)
	})
	r.GET(wsRoute, func(c *gin.Context) {
		s.hub.ServeHTTP(c.Writer, c.Request)
	})

	api := r.Group("/api")
	api.GET("/targets", s.listTargets)
	api.POST("/targets/:name/rebuild", s.requestRebuild)

	if s.opts.Verbose {
		pprof.Register(r)
	}
	return r
}

// page serves the dashboard itself rather than through http.ServeFile,
// which redirects any path ending in /index.html.
func (s *Server) page(c *gin.Context) {
	noCache(c)
	data, err := os.ReadFile(s.opts.Layout.DashboardPath())
	if err != nil {
		c.String(http.StatusNotFound, "dashboard not generated yet")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

func serveDir(dir string) gin.HandlerFunc {
	fs := http.Dir(dir)
	return func(c *gin.Context) {
		c.FileFromFS(c.Param("file"), fs)
	}
}

func noCache(c *gin.Context) {
	c.Header("Cache-Control", "no-cache, no-store, must-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.logger != nil {
			s.logger.Debug(c.Request.Method + " " + c.Request.URL.Path + " " +
				strconv.Itoa(c.Writer.Status()) + " " + time.Since(start).Round(time.Microsecond).String())
		}
	}
}

// TargetView is the JSON representation of a target.
type TargetView struct {
	Name         string            `json:"name"`
	Source       string            `json:"source"`
	Scene        string            `json:"scene"`
	AutoDetected bool              `json:"auto_detected"`
	Preview      string            `json:"preview"`
	Log          string            `json:"log"`
	Build        *domain.BuildInfo `json:"build,omitempty"`
}

func (s *Server) listTargets(c *gin.Context) {
	views := make([]TargetView, 0, len(s.targets))
	for _, t := range s.targets {
		v := TargetView{
			Name:         t.Name,
			Source:       t.SourcePath,
			Scene:        t.SceneID,
			AutoDetected: t.AutoDetected,
			Preview:      dashboard.PreviewsRoute + filepath.Base(t.PreviewPath),
			Log:          dashboard.LogsRoute + filepath.Base(t.LogPath),
		}
		if s.store != nil {
			if info, err := s.store.Get(t.Name); err == nil {
				v.Build = info
			}
		}
		views = append(views, v)
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) requestRebuild(c *gin.Context) {
	name := c.Param("name")
	if s.rebuild == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rebuilds are not available"})
		return
	}
	if err := s.rebuild(name); err != nil {
		if errors.Is(err, domain.ErrTargetNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrTargetNotFound.Error(), "target": name})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "target": name})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"target": name, "queued": true})
}

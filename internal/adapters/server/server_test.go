package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/adapters/cas"
	"go.trai.ch/reel/internal/adapters/server"
	"go.trai.ch/reel/internal/core/domain"
)

type fixture struct {
	layout  domain.Layout
	server  *server.Server
	store   *cas.Store
	target  *domain.Target
	mu      sync.Mutex
	rebuilt []string
}

func (f *fixture) requested() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rebuilt...)
}

func newFixture(t *testing.T, verbose bool) *fixture {
	t.Helper()
	work := t.TempDir()
	layout := domain.NewLayout(work, "")
	require.NoError(t, os.MkdirAll(layout.PreviewsDir(), domain.DirPerm))
	require.NoError(t, os.MkdirAll(layout.LogsDir(), domain.DirPerm))
	require.NoError(t, os.WriteFile(layout.DashboardPath(), []byte("<html>dashboard</html>"), domain.FilePerm))

	target := &domain.Target{
		SourcePath:  filepath.Join(work, "a.py"),
		SceneID:     "SceneA",
		Name:        "SceneA",
		PreviewPath: layout.PreviewPath("SceneA", ".mp4"),
		LogPath:     layout.LogPath("SceneA"),
	}
	require.NoError(t, os.WriteFile(target.PreviewPath, []byte("video-bytes"), domain.FilePerm))
	require.NoError(t, os.WriteFile(target.LogPath, []byte("log-line\n"), domain.FilePerm))

	f := &fixture{layout: layout, target: target, store: cas.NewStore(layout.StorePath())}
	rebuild := func(name string) error {
		if name != target.Name {
			return domain.ErrTargetNotFound
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.rebuilt = append(f.rebuilt, name)
		return nil
	}

	f.server = server.New(server.Options{
		Host:    domain.DefaultHost,
		Port:    domain.DefaultPort,
		Verbose: verbose,
		Layout:  layout,
	}, []*domain.Target{target}, f.store, rebuild, nil)
	return f
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	f.server.Handler().ServeHTTP(w, req)
	return w
}

func TestServer_URL(t *testing.T) {
	f := newFixture(t, false)
	assert.Equal(t, "127.0.0.1:5500", f.server.Addr())
	assert.Equal(t, "http://127.0.0.1:5500/index.html", f.server.URL())
}

func TestServer_Routes(t *testing.T) {
	f := newFixture(t, false)

	tests := []struct {
		name     string
		path     string
		wantCode int
		wantBody string
		noCache  bool
	}{
		{name: "root serves dashboard", path: "/", wantCode: http.StatusOK, wantBody: "dashboard", noCache: true},
		{name: "dashboard page", path: "/index.html", wantCode: http.StatusOK, wantBody: "dashboard", noCache: true},
		{name: "preview", path: "/previews/SceneA.mp4", wantCode: http.StatusOK, wantBody: "video-bytes", noCache: true},
		{name: "log", path: "/logs/SceneA.log", wantCode: http.StatusOK, wantBody: "log-line", noCache: true},
		{name: "missing preview", path: "/previews/Missing.mp4", wantCode: http.StatusNotFound},
		{name: "reload script", path: "/reel/reload.js", wantCode: http.StatusOK, wantBody: "/reel/ws"},
		{name: "pprof disabled", path: "/debug/pprof/", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodGet, tt.path)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
			if tt.noCache {
				assert.Equal(t, "no-cache, no-store, must-revalidate", w.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestServer_PprofWhenVerbose(t *testing.T) {
	f := newFixture(t, true)
	w := f.do(t, http.MethodGet, "/debug/pprof/")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_ListTargets(t *testing.T) {
	f := newFixture(t, false)
	require.NoError(t, f.store.Put(domain.BuildInfo{Target: "SceneA", Status: domain.StatusOK, Attempts: 2}))

	w := f.do(t, http.MethodGet, "/api/targets")
	require.Equal(t, http.StatusOK, w.Code)

	var views []server.TargetView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "SceneA", views[0].Name)
	assert.Equal(t, "/previews/SceneA.mp4", views[0].Preview)
	assert.Equal(t, "/logs/SceneA.log", views[0].Log)
	require.NotNil(t, views[0].Build)
	assert.Equal(t, domain.StatusOK, views[0].Build.Status)
	assert.Equal(t, 2, views[0].Build.Attempts)
}

func TestServer_RequestRebuild(t *testing.T) {
	f := newFixture(t, false)

	w := f.do(t, http.MethodPost, "/api/targets/SceneA/rebuild")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, []string{"SceneA"}, f.requested())

	w = f.do(t, http.MethodPost, "/api/targets/Nope/rebuild")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrTargetNotFound.Error())
	assert.Equal(t, []string{"SceneA"}, f.requested())
}

func TestServer_RequestRebuild_Unavailable(t *testing.T) {
	layout := domain.NewLayout(t.TempDir(), "")
	s := server.New(server.Options{Host: domain.DefaultHost, Port: domain.DefaultPort, Layout: layout}, nil, nil, nil, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/targets/SceneA/rebuild", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_RequestRebuild_Error(t *testing.T) {
	layout := domain.NewLayout(t.TempDir(), "")
	s := server.New(server.Options{Host: domain.DefaultHost, Port: domain.DefaultPort, Layout: layout}, nil, nil,
		func(string) error { return errors.New("busy") }, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/targets/SceneA/rebuild", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "busy")
}

func TestServer_NotifyPushesReload(t *testing.T) {
	f := newFixture(t, false)
	ts := httptest.NewServer(f.server.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/reel/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	require.Eventually(t, func() bool { return f.server.Hub().Count() == 1 }, time.Second, 10*time.Millisecond)

	f.server.Notify(f.target.PreviewPath)
	f.server.Notify(f.layout.DashboardPath())
	f.server.Notify(f.target.PreviewPath)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg server.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "reload", msg.Type)
	assert.Equal(t, []string{"index.html", "SceneA.mp4"}, msg.Paths)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return f.server.Hub().Count() == 0 }, time.Second, 10*time.Millisecond)
}

func TestServer_ServeListener_StopsOnCancel(t *testing.T) {
	f := newFixture(t, false)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.ServeListener(ctx, lis) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + lis.Addr().String() + "/index.html") //nolint:noctx // test request
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_ShutdownFlushesPendingReload(t *testing.T) {
	f := newFixture(t, false)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.ServeListener(ctx, lis) }()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+lis.Addr().String()+"/reel/ws", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	require.Eventually(t, func() bool { return f.server.Hub().Count() == 1 }, time.Second, 10*time.Millisecond)

	// Shut down well inside the coalescing window.
	f.server.Notify(f.target.PreviewPath)
	cancel()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg server.Message
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "reload", msg.Type)
	assert.Equal(t, []string{"SceneA.mp4"}, msg.Paths)

	_, _, err = conn.ReadMessage()
	require.Error(t, err, "the page is disconnected after the last reload")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_Serve_AddressInUse(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = lis.Close() }()
	port := lis.Addr().(*net.TCPAddr).Port

	layout := domain.NewLayout(t.TempDir(), "")
	s := server.New(server.Options{Host: "127.0.0.1", Port: port, Layout: layout}, nil, nil, nil, nil)

	err = s.Serve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrServerFailed.Error())
}

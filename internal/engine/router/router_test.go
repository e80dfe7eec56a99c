package router_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/reel/internal/engine/rebuild"
	"go.trai.ch/reel/internal/engine/router"
)

type countingTrigger struct {
	mu    sync.Mutex
	calls int
}

func (c *countingTrigger) Trigger(context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return true
}

func (c *countingTrigger) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fixture struct {
	work     string
	router   *router.Router
	triggers map[string]*countingTrigger
}

// newFixture registers one target per watch root, relative to a fresh work dir.
func newFixture(t *testing.T, roots map[string]string) *fixture {
	t.Helper()
	work := t.TempDir()

	var targets []*domain.Target
	triggers := make(map[string]router.Trigger)
	counters := make(map[string]*countingTrigger)
	for _, name := range []string{"A", "B", "C"} {
		rel, ok := roots[name]
		if !ok {
			continue
		}
		root := filepath.Join(work, rel)
		require.NoError(t, os.MkdirAll(root, domain.DirPerm))
		targets = append(targets, &domain.Target{Name: name, WatchRoot: root})
		c := &countingTrigger{}
		counters[name] = c
		triggers[name] = c
	}

	r := router.New(targets, triggers, rebuild.NewGate(0), []string{".py"}, nil)
	return &fixture{work: work, router: r, triggers: counters}
}

func (f *fixture) path(rel string) string {
	return filepath.Join(f.work, rel)
}

func TestRouter_Match(t *testing.T) {
	tests := []struct {
		name  string
		roots map[string]string
		event func(f *fixture) ports.WatchEvent
		want  []string
	}{
		{
			name:  "source file under root",
			roots: map[string]string{"A": "a"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("a/scene.py"), Operation: ports.OpWrite}
			},
			want: []string{"A"},
		},
		{
			name:  "nested source file",
			roots: map[string]string{"A": "a"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("a/lib/deep/util.py"), Operation: ports.OpCreate}
			},
			want: []string{"A"},
		},
		{
			name:  "non-source extension",
			roots: map[string]string{"A": "a"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("a/previews/A.mp4"), Operation: ports.OpWrite}
			},
			want: nil,
		},
		{
			name:  "extension is case insensitive",
			roots: map[string]string{"A": "a"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("a/SCENE.PY"), Operation: ports.OpWrite}
			},
			want: []string{"A"},
		},
		{
			name:  "non-overlapping roots are isolated",
			roots: map[string]string{"A": "a", "B": "b"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("b/scene.py"), Operation: ports.OpWrite}
			},
			want: []string{"B"},
		},
		{
			name:  "sibling with shared prefix",
			roots: map[string]string{"A": "foo", "B": "foobar"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("foobar/scene.py"), Operation: ports.OpWrite}
			},
			want: []string{"B"},
		},
		{
			name:  "overlapping roots trigger both",
			roots: map[string]string{"A": "proj", "B": "proj/sub"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("proj/sub/scene.py"), Operation: ports.OpWrite}
			},
			want: []string{"A", "B"},
		},
		{
			name:  "move routes origin and destination",
			roots: map[string]string{"A": "a", "B": "b"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{
					Path:      f.path("b/moved.py"),
					OldPath:   f.path("a/gone/moved.py"),
					Operation: ports.OpRename,
				}
			},
			want: []string{"A", "B"},
		},
		{
			name:  "outside every root",
			roots: map[string]string{"A": "a"},
			event: func(f *fixture) ports.WatchEvent {
				return ports.WatchEvent{Path: f.path("elsewhere/scene.py"), Operation: ports.OpWrite}
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.roots)
			assert.Equal(t, tt.want, f.router.Match(tt.event(f)))
		})
	}
}

func TestRouter_Dispatch_NonSourceProducesNoTriggers(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "a"})

	fired := f.router.Dispatch(context.Background(), ports.WatchEvent{Path: f.path("a/out.mp4"), Operation: ports.OpWrite})
	f.router.Wait()

	assert.Empty(t, fired)
	assert.Zero(t, f.triggers["A"].count())
}

func TestRouter_Dispatch_IsolatesTargets(t *testing.T) {
	f := newFixture(t, map[string]string{"A": "a", "B": "b"})

	fired := f.router.Dispatch(context.Background(), ports.WatchEvent{Path: f.path("a/scene.py"), Operation: ports.OpWrite})
	f.router.Wait()

	assert.Equal(t, []string{"A"}, fired)
	assert.Equal(t, 1, f.triggers["A"].count())
	assert.Zero(t, f.triggers["B"].count())
}

func TestRouter_Dispatch_GateDropsBursts(t *testing.T) {
	work := t.TempDir()
	target := &domain.Target{Name: "A", WatchRoot: work}
	c := &countingTrigger{}
	r := router.New([]*domain.Target{target}, map[string]router.Trigger{"A": c}, rebuild.NewGate(domain.DefaultDebounce), []string{".py"}, nil)

	ev := ports.WatchEvent{Path: filepath.Join(work, "scene.py"), Operation: ports.OpWrite}
	for range 5 {
		r.Dispatch(context.Background(), ev)
	}
	r.Wait()

	assert.Equal(t, 1, c.count())
}

func TestContains(t *testing.T) {
	sep := string(filepath.Separator)
	root := sep + filepath.Join("w", "foo")

	tests := []struct {
		path string
		want bool
	}{
		{root, true},
		{filepath.Join(root, "a.py"), true},
		{filepath.Join(root, "x", "y", "a.py"), true},
		{filepath.Join(root, "..foo", "a.py"), true},
		{sep + filepath.Join("w", "foobar", "a.py"), false},
		{sep + filepath.Join("w", "a.py"), false},
		{sep + filepath.Join("other", "foo", "a.py"), false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, router.Contains(root, tt.path))
		})
	}
}

func TestCanonical_ResolvesThroughSymlinkedAncestor(t *testing.T) {
	base := t.TempDir()
	realDir := filepath.Join(base, "real")
	link := filepath.Join(base, "link")
	require.NoError(t, os.Mkdir(realDir, domain.DirPerm))
	require.NoError(t, os.Symlink(realDir, link))

	realCanon := router.CanonicalExported(realDir)
	assert.Equal(t, filepath.Join(realCanon, "missing", "a.py"), router.CanonicalExported(filepath.Join(link, "missing", "a.py")))
	assert.Equal(t, realCanon, router.CanonicalExported(link))
}

package dashboard_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/adapters/cas"
	"go.trai.ch/reel/internal/adapters/dashboard"
	"go.trai.ch/reel/internal/core/domain"
)

func newTargets(layout domain.Layout) []*domain.Target {
	mk := func(src, scene, name string, auto bool) *domain.Target {
		return &domain.Target{
			SourcePath:   filepath.Join(layout.WorkDir, src),
			SceneID:      scene,
			Name:         name,
			PreviewPath:  layout.PreviewPath(name, ".mp4"),
			LogPath:      layout.LogPath(name),
			AutoDetected: auto,
		}
	}
	return []*domain.Target{
		mk("a.py", "SceneA", "SceneA", false),
		mk("b.py", "SceneA", "SceneA_2", true),
	}
}

func TestPublisher_Publish(t *testing.T) {
	work := t.TempDir()
	layout := domain.NewLayout(work, "")
	p := dashboard.NewPublisher(layout, nil)

	require.NoError(t, p.Publish(newTargets(layout)))
	assert.Equal(t, filepath.Join(work, "index.html"), p.Path())

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, `data-target="SceneA"`)
	assert.Contains(t, page, `data-target="SceneA_2"`)
	assert.Contains(t, page, `src="/previews/SceneA.mp4?ts=`)
	assert.Contains(t, page, `src="/previews/SceneA_2.mp4?ts=`)
	assert.Contains(t, page, `href="/logs/SceneA_2.log"`)
	assert.Contains(t, page, `<code>b.py</code> · <code>SceneA</code> (auto)`)
	assert.Contains(t, page, `<script src="/reel/reload.js"></script>`)
	assert.Contains(t, page, "status-pending")
	assert.Contains(t, page, layout.LogsDir())

	entries, err := os.ReadDir(work)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the page remains, no temp files")
}

func TestPublisher_Publish_ShowsBuildHistory(t *testing.T) {
	work := t.TempDir()
	layout := domain.NewLayout(work, "")
	store := cas.NewStore(layout.StorePath())
	require.NoError(t, store.Put(domain.BuildInfo{
		Target:   "SceneA",
		Status:   domain.StatusFailed,
		Duration: 1500 * time.Millisecond,
		Attempts: 3,
	}))

	p := dashboard.NewPublisher(layout, store)
	require.NoError(t, p.Publish(newTargets(layout)))

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	page := string(data)

	assert.Contains(t, page, `<span class="status-failed">failed · 1.50s · 3 builds</span>`)
	assert.Contains(t, page, `<span class="status-pending">pending</span>`)
}

func TestPublisher_Publish_Golden(t *testing.T) {
	work := t.TempDir()
	layout := domain.NewLayout(work, "")
	store := cas.NewStore(layout.StorePath())
	require.NoError(t, store.Put(domain.BuildInfo{
		Target:   "SceneA",
		Status:   domain.StatusFailed,
		Duration: 1500 * time.Millisecond,
		Attempts: 3,
	}))

	p := dashboard.NewPublisher(layout, store)
	p.SetNow(func() time.Time { return time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC) })
	require.NoError(t, p.Publish(newTargets(layout)))

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	page := bytes.ReplaceAll(data, []byte(layout.LogsDir()), []byte("$WORK/logs"))

	g := goldie.New(t)
	g.Assert(t, "dashboard", page)
}

func TestPublisher_Publish_ReplacesPage(t *testing.T) {
	work := t.TempDir()
	layout := domain.NewLayout(work, "")
	p := dashboard.NewPublisher(layout, nil)
	targets := newTargets(layout)

	require.NoError(t, p.Publish(targets))
	require.NoError(t, p.Publish(targets[:1]))

	data, err := os.ReadFile(p.Path())
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), `class="card"`))
}

func TestPublisher_Publish_UnwritableDir(t *testing.T) {
	layout := domain.NewLayout(filepath.Join(t.TempDir(), "missing"), "")
	p := dashboard.NewPublisher(layout, nil)

	err := p.Publish(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrDashboardWriteFailed.Error())
}

func TestToken(t *testing.T) {
	dir := t.TempDir()
	preview := filepath.Join(dir, "SceneA.mp4")
	now := time.Unix(1700000000, 0)

	assert.Equal(t, "1700000000", dashboard.Token(now, preview), "missing preview uses the timestamp only")

	require.NoError(t, os.WriteFile(preview, []byte("v1"), domain.FilePerm))
	first := dashboard.Token(now, preview)
	assert.True(t, strings.HasPrefix(first, "1700000000-"))
	assert.Equal(t, first, dashboard.Token(now, preview), "stable for unchanged content")

	require.NoError(t, os.WriteFile(preview, []byte("v2"), domain.FilePerm))
	assert.NotEqual(t, first, dashboard.Token(now, preview), "changes with the content")

	assert.NotEqual(t, dashboard.Token(now, preview), dashboard.Token(now.Add(time.Second), preview))
}

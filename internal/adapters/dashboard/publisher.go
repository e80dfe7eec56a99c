// Package dashboard renders the preview page listing every target.
package dashboard

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"html/template"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	// PreviewsRoute is the URL prefix the previews directory is served under.
	PreviewsRoute = "/previews/"
	// LogsRoute is the URL prefix the logs directory is served under.
	LogsRoute = "/logs/"
	// ReloadScriptRoute is the URL of the live reload client script.
	ReloadScriptRoute = "/reel/reload.js"
)

//go:embed page.html.tmpl
var pageSource string

var pageTmpl = template.Must(template.New("page").Parse(pageSource))

var _ ports.Publisher = (*Publisher)(nil)

type pageData struct {
	Cards        []card
	LogsDir      string
	Generated    string
	ReloadScript string
}

type card struct {
	Name         string
	Source       string
	Scene        string
	AutoDetected bool
	PreviewURL   string
	LogURL       string
	Status       domain.BuildStatus
	Duration     string
	Attempts     int
}

// Publisher writes the dashboard page to disk.
type Publisher struct {
	path    string
	logsDir string
	store   ports.BuildInfoStore
	now     func() time.Time

	mu sync.Mutex
}

// NewPublisher creates a Publisher writing the page described by layout.
// store may be nil; cards then show no build history.
func NewPublisher(layout domain.Layout, store ports.BuildInfoStore) *Publisher {
	return &Publisher{
		path:    layout.DashboardPath(),
		logsDir: layout.LogsDir(),
		store:   store,
		now:     time.Now,
	}
}

// Path returns the page location on disk.
func (p *Publisher) Path() string {
	return p.path
}

// Publish regenerates the whole page and replaces the previous one atomically.
func (p *Publisher) Publish(targets []*domain.Target) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	data := pageData{
		Cards:        make([]card, 0, len(targets)),
		LogsDir:      p.logsDir,
		Generated:    now.Format(time.DateTime),
		ReloadScript: ReloadScriptRoute,
	}
	for _, t := range targets {
		data.Cards = append(data.Cards, p.card(t, now))
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return zerr.Wrap(err, domain.ErrDashboardWriteFailed.Error())
	}
	if err := writeAtomic(p.path, buf.Bytes()); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrDashboardWriteFailed.Error()), "path", p.path)
	}
	return nil
}

func (p *Publisher) card(t *domain.Target, now time.Time) card {
	c := card{
		Name:         t.Name,
		Source:       t.SourceName(),
		Scene:        t.SceneID,
		AutoDetected: t.AutoDetected,
		PreviewURL:   PreviewsRoute + url.PathEscape(filepath.Base(t.PreviewPath)) + "?ts=" + Token(now, t.PreviewPath),
		LogURL:       LogsRoute + url.PathEscape(filepath.Base(t.LogPath)),
		Status:       domain.StatusPending,
	}

	if p.store == nil {
		return c
	}
	info, err := p.store.Get(t.Name)
	if err != nil || info == nil {
		return c
	}
	c.Status = info.Status
	c.Attempts = info.Attempts
	if info.Duration > 0 {
		c.Duration = strconv.FormatFloat(info.Duration.Seconds(), 'f', 2, 64) + "s"
	}
	return c
}

// Token returns the cache-busting token for a preview: the publish time in
// seconds plus a digest of the preview's current content, so a changed
// preview always gets a new URL.
func Token(now time.Time, previewPath string) string {
	ts := strconv.FormatInt(now.Unix(), 10)
	f, err := os.Open(previewPath) //nolint:gosec // preview path is derived from the target name
	if err != nil {
		return ts
	}
	defer func() { _ = f.Close() }()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return ts
	}
	return ts + "-" + hex.EncodeToString(h.Sum(nil))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(domain.FilePerm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

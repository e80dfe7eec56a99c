package rebuild

import (
	"context"
	"sync"
	"time"

	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
)

// Job binds one target to its renderer and serializes its rebuilds.
type Job struct {
	target   *domain.Target
	renderer ports.Renderer
	logger   ports.Logger
	window   time.Duration
	after    func(domain.RenderResult)
	now      func() time.Time

	mu        sync.Mutex
	lastBuild time.Time
}

// JobOption configures a Job.
type JobOption func(*Job)

// WithAfter registers fn to run after every render, successful or not,
// while the target's lock is still held.
func WithAfter(fn func(domain.RenderResult)) JobOption {
	return func(j *Job) {
		j.after = fn
	}
}

// NewJob creates a Job for target.
func NewJob(target *domain.Target, renderer ports.Renderer, logger ports.Logger, window time.Duration, opts ...JobOption) *Job {
	j := &Job{
		target:   target,
		renderer: renderer,
		logger:   logger,
		window:   window,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Target returns the bound target.
func (j *Job) Target() *domain.Target {
	return j.target
}

// Trigger requests a rebuild. It blocks while another rebuild of the same
// target is running and reports whether this request rendered.
//
// A request made within the window of the last build start is dropped, even
// when it had to wait for that build to finish.
func (j *Job) Trigger(ctx context.Context) bool {
	requested := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.lastBuild.IsZero() && requested.Sub(j.lastBuild) < j.window {
		return false
	}
	j.lastBuild = j.now()

	j.logger.Info("[" + j.target.Name + "] change detected, rendering")
	res := j.renderer.Render(ctx, j.target)
	if !res.OK {
		j.logger.Warn("[" + j.target.Name + "] render failed, keeping the previous preview. See " + j.target.LogPath)
	}

	if j.after != nil {
		j.after(res)
	}
	return true
}

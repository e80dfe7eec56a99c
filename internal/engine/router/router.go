// Package router maps file system events onto the targets they affect.
package router

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/reel/internal/engine/rebuild"
)

// Trigger rebuilds one target.
type Trigger interface {
	Trigger(ctx context.Context) bool
}

// Router routes change events to target rebuilds.
//
// An event path triggers a target when its extension marks a source file and
// it lies inside the target's watch root. Both paths of a move are routed.
// Matching targets pass through the gate and are rebuilt asynchronously.
type Router struct {
	targets    []*domain.Target
	roots      map[string]string
	triggers   map[string]Trigger
	gate       *rebuild.Gate
	extensions map[string]bool
	logger     ports.Logger

	wg sync.WaitGroup
}

// New creates a Router. triggers is keyed by target name.
func New(
	targets []*domain.Target,
	triggers map[string]Trigger,
	gate *rebuild.Gate,
	extensions []string,
	logger ports.Logger,
) *Router {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}

	roots := make(map[string]string, len(targets))
	for _, t := range targets {
		roots[t.Name] = canonical(t.WatchRoot)
	}

	return &Router{
		targets:    targets,
		roots:      roots,
		triggers:   triggers,
		gate:       gate,
		extensions: exts,
		logger:     logger,
	}
}

// Match returns the names of the targets that ev belongs to, in
// registration order, without consulting the gate.
func (r *Router) Match(ev ports.WatchEvent) []string {
	var names []string
	for _, path := range ev.Paths() {
		if !r.isSource(path) {
			continue
		}
		p := canonical(path)
		for _, t := range r.targets {
			if slices.Contains(names, t.Name) {
				continue
			}
			if Contains(r.roots[t.Name], p) {
				names = append(names, t.Name)
			}
		}
	}
	return names
}

// Dispatch routes ev and starts a rebuild for every matching target the
// gate admits. It returns the names of the dispatched targets and never
// blocks on a render.
func (r *Router) Dispatch(ctx context.Context, ev ports.WatchEvent) []string {
	var fired []string
	for _, name := range r.Match(ev) {
		trigger, ok := r.triggers[name]
		if !ok || !r.gate.Admit(name) {
			continue
		}
		fired = append(fired, name)

		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			trigger.Trigger(ctx)
		}()
	}

	if len(fired) > 0 && r.logger != nil {
		sorted := slices.Clone(fired)
		slices.Sort(sorted)
		r.logger.Info("rebuild triggered: " + strings.Join(sorted, ", "))
	}
	return fired
}

// Wait blocks until every dispatched rebuild has returned.
func (r *Router) Wait() {
	r.wg.Wait()
}

func (r *Router) isSource(path string) bool {
	return r.extensions[strings.ToLower(filepath.Ext(path))]
}

// Contains reports whether path equals root or lies beneath it. Both must
// be canonical. Sibling directories sharing a name prefix do not match.
func Contains(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// canonical returns an absolute, cleaned path with symlinks resolved. A path
// that no longer exists, such as the origin of a move, is resolved through
// its longest existing ancestor.
func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}

	var rest []string
	cur := abs
	for {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...)
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return abs
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}


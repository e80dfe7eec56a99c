// Package registry resolves target specifications into fully configured targets.
package registry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

// Options are the session-wide settings applied to every target.
type Options struct {
	Quality     domain.Quality
	ArtifactExt string
}

// ResolveSpecs parses raw specifications. With none given it falls back to
// the default source file with scene auto-detection.
func ResolveSpecs(raws []string) ([]domain.TargetSpec, error) {
	if len(raws) == 0 {
		return []domain.TargetSpec{{Source: domain.DefaultSourceFile}}, nil
	}
	specs, err := domain.ParseTargetSpecs(raws)
	if err != nil {
		return nil, errors.Join(domain.ErrFatalConfig, err)
	}
	return specs, nil
}

// Registry builds the session's targets. It is used once at startup.
type Registry struct {
	layout   domain.Layout
	detector ports.SceneDetector
	logger   ports.Logger
}

// New creates a Registry writing into layout.
func New(layout domain.Layout, detector ports.SceneDetector, logger ports.Logger) *Registry {
	return &Registry{layout: layout, detector: detector, logger: logger}
}

// Register resolves specs in order. Every failure is fatal: a missing
// source, a directory, or a source without a detectable scene stops the
// whole registration.
//
// Names come from the scene; a name already taken by an earlier target is
// suffixed with the 1-based registration index of the later target.
func (r *Registry) Register(ctx context.Context, specs []domain.TargetSpec, opts Options) ([]*domain.Target, error) {
	if len(specs) == 0 {
		return nil, errors.Join(domain.ErrFatalConfig, domain.ErrNoTargets)
	}
	if opts.ArtifactExt == "" {
		opts.ArtifactExt = domain.DefaultArtifactExt
	}

	if err := r.ensureSharedDirs(); err != nil {
		return nil, errors.Join(domain.ErrFatalConfig, err)
	}

	targets := make([]*domain.Target, 0, len(specs))
	taken := make(map[string]bool, len(specs))

	for idx, spec := range specs {
		source, err := r.resolveSource(spec.Source)
		if err != nil {
			return nil, errors.Join(domain.ErrFatalConfig, err)
		}

		scene, autoDetected := spec.Scene, false
		if scene == "" {
			scene, err = r.detect(ctx, source)
			if err != nil {
				return nil, errors.Join(domain.ErrFatalConfig, err)
			}
			autoDetected = true
		}

		name := uniqueName(scene, idx, taken)
		taken[name] = true

		t := &domain.Target{
			SourcePath:   source,
			SceneID:      scene,
			Name:         name,
			Quality:      opts.Quality,
			OutputDir:    r.layout.OutputDir(name),
			PreviewPath:  r.layout.PreviewPath(name, opts.ArtifactExt),
			LogPath:      r.layout.LogPath(name),
			WatchRoot:    filepath.Dir(source),
			AutoDetected: autoDetected,
		}
		if err := os.MkdirAll(t.OutputDir, domain.DirPerm); err != nil {
			return nil, errors.Join(domain.ErrFatalConfig,
				zerr.With(zerr.Wrap(err, domain.ErrDirCreateFailed.Error()), "dir", t.OutputDir))
		}

		targets = append(targets, t)
	}

	return targets, nil
}

func (r *Registry) ensureSharedDirs() error {
	for _, dir := range []string{r.layout.PreviewsDir(), r.layout.LogsDir(), r.layout.MediaDir} {
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrDirCreateFailed.Error()), "dir", dir)
		}
	}
	return nil
}

// resolveSource makes source absolute against the working directory and
// checks that it is an existing regular file.
func (r *Registry) resolveSource(source string) (string, error) {
	if !filepath.IsAbs(source) {
		source = filepath.Join(r.layout.WorkDir, source)
	}
	source = filepath.Clean(source)

	info, err := os.Stat(source)
	if err != nil {
		return "", zerr.With(domain.ErrSourceNotFound, "path", source)
	}
	if info.IsDir() {
		return "", zerr.With(domain.ErrSourceIsDirectory, "path", source)
	}
	return source, nil
}

func (r *Registry) detect(ctx context.Context, source string) (string, error) {
	if r.logger != nil {
		r.logger.Info("[" + filepath.Base(source) + "] detecting scene")
	}

	scenes, err := r.detector.Detect(ctx, source)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrSceneNotDetected.Error()), "path", source)
	}
	if len(scenes) == 0 {
		return "", zerr.With(domain.ErrSceneNotDetected, "path", source)
	}

	if r.logger != nil && len(scenes) > 1 {
		r.logger.Warn("[" + filepath.Base(source) + "] several scenes found, using " + scenes[0])
	}
	return scenes[0], nil
}

// uniqueName returns scene, or scene suffixed with the 1-based index when the
// name is taken. A suffixed name that is itself taken gets a further counter.
func uniqueName(scene string, idx int, taken map[string]bool) string {
	if !taken[scene] {
		return scene
	}
	name := scene + "_" + strconv.Itoa(idx+1)
	for n := 2; taken[name]; n++ {
		name = scene + "_" + strconv.Itoa(idx+1) + "_" + strconv.Itoa(n)
	}
	return name
}

package domain

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// Target is one watched (source, scene) pair with isolated output locations.
// Targets are built once at startup and never change afterwards.
type Target struct {
	// SourcePath is the absolute path of the scene source file.
	SourcePath string
	// SceneID is the scene to render within the source.
	SceneID string
	// Name is the unique display and output key of the target.
	Name string
	// Quality is the session-wide render quality.
	Quality Quality
	// OutputDir receives the engine's intermediate artifacts for this target only.
	OutputDir string
	// PreviewPath always holds the latest successfully rendered artifact.
	PreviewPath string
	// LogPath accumulates the output of every render invocation.
	LogPath string
	// WatchRoot is the directory tree whose changes trigger this target.
	WatchRoot string
	// AutoDetected reports whether SceneID was discovered rather than given.
	AutoDetected bool
}

// SourceName returns the base name of the source file.
func (t *Target) SourceName() string {
	return filepath.Base(t.SourcePath)
}

// TargetSpec is an unresolved user specification of a target.
type TargetSpec struct {
	// Source is the source path as given by the user.
	Source string
	// Scene is the explicit scene, empty when it must be auto-detected.
	Scene string
}

// String renders the spec back into its command line form.
func (s TargetSpec) String() string {
	if s.Scene == "" {
		return s.Source
	}
	return s.Source + ":" + s.Scene
}

var sceneIdentRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseTargetSpec parses "path" or "path:Scene".
// The split happens on the last colon and only when the remainder is a valid
// identifier, so Windows drive letters ("C:\\src\\a.py") are kept in the path.
// Any other colon in the path is rejected: "a.py:SceneA:x" is an error, not
// scene x of a file named "a.py:SceneA".
// A trailing colon with nothing after it ("a.py:") requests auto-detection.
func ParseTargetSpec(raw string) (TargetSpec, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return TargetSpec{}, zerr.With(ErrInvalidTargetSpec, "spec", raw)
	}

	idx := strings.LastIndex(raw, ":")
	if idx < 0 {
		return TargetSpec{Source: raw}, nil
	}

	source := strings.TrimSpace(raw[:idx])
	scene := strings.TrimSpace(raw[idx+1:])

	var spec TargetSpec
	switch {
	case scene == "" && source != "":
		spec = TargetSpec{Source: source}
	case sceneIdentRegex.MatchString(scene) && source != "":
		spec = TargetSpec{Source: source, Scene: scene}
	case strings.ContainsAny(scene, `/\.`):
		// The colon belongs to the path, e.g. a drive letter.
		spec = TargetSpec{Source: raw}
	default:
		return TargetSpec{}, zerr.With(ErrInvalidTargetSpec, "spec", raw)
	}

	if strings.Contains(trimDriveLetter(spec.Source), ":") {
		return TargetSpec{}, zerr.With(ErrInvalidTargetSpec, "spec", raw)
	}
	return spec, nil
}

// trimDriveLetter drops a leading "C:\\" or "C:/" volume prefix.
func trimDriveLetter(path string) string {
	if len(path) >= 3 && path[1] == ':' && (path[2] == '\\' || path[2] == '/') {
		c := path[0]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return path[3:]
		}
	}
	return path
}

// ParseTargetSpecs parses every raw specification in order.
func ParseTargetSpecs(raws []string) ([]TargetSpec, error) {
	specs := make([]TargetSpec, 0, len(raws))
	for _, raw := range raws {
		spec, err := ParseTargetSpec(raw)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

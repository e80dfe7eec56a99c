// Package scene finds renderable scene classes in source files.
package scene

import (
	"context"
	"os"
	"regexp"
	"strings"

	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SceneDetector = (*StaticDetector)(nil)

// classPattern matches top-level class declarations with an explicit base list.
var classPattern = regexp.MustCompile(`(?m)^class[ \t]+([A-Za-z_][A-Za-z0-9_]*)[ \t]*\(([^)]*)\)[ \t]*:`)

// sceneBases are the engine classes a renderable scene derives from.
var sceneBases = map[string]bool{
	"Scene":                     true,
	"ThreeDScene":               true,
	"MovingCameraScene":         true,
	"ZoomedScene":               true,
	"VectorScene":               true,
	"LinearTransformationScene": true,
	"SpecialThreeDScene":        true,
}

// StaticDetector reads the source text and never executes it.
type StaticDetector struct{}

// NewStaticDetector creates a StaticDetector.
func NewStaticDetector() *StaticDetector {
	return &StaticDetector{}
}

// Detect returns the scene classes declared in sourcePath, in file order.
// A class counts as a scene when one of its bases is a known engine scene
// class or another scene declared in the same file.
func (d *StaticDetector) Detect(_ context.Context, sourcePath string) ([]string, error) {
	src, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceNotFound.Error()), "path", sourcePath)
	}
	return ScanScenes(string(src)), nil
}

type classDecl struct {
	name  string
	bases []string
}

// ScanScenes extracts scene class names from source text.
func ScanScenes(src string) []string {
	var decls []classDecl
	for _, m := range classPattern.FindAllStringSubmatch(src, -1) {
		decls = append(decls, classDecl{name: m[1], bases: parseBases(m[2])})
	}

	scenes := make(map[string]bool, len(decls))
	for changed := true; changed; {
		changed = false
		for _, decl := range decls {
			if scenes[decl.name] {
				continue
			}
			for _, base := range decl.bases {
				if sceneBases[base] || scenes[base] {
					scenes[decl.name] = true
					changed = true
					break
				}
			}
		}
	}

	var found []string
	seen := make(map[string]bool, len(scenes))
	for _, decl := range decls {
		if scenes[decl.name] && !seen[decl.name] {
			seen[decl.name] = true
			found = append(found, decl.name)
		}
	}
	return found
}

// parseBases returns the unqualified base class names of a base list,
// ignoring keyword arguments such as metaclass=.
func parseBases(list string) []string {
	var bases []string
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" || strings.Contains(part, "=") {
			continue
		}
		if i := strings.LastIndexByte(part, '.'); i >= 0 {
			part = part[i+1:]
		}
		if j := strings.IndexByte(part, '['); j >= 0 {
			part = part[:j]
		}
		bases = append(bases, part)
	}
	return bases
}

package scene

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SceneDetector = (*PythonDetector)(nil)

const sceneMarker = "REEL_SCENE:"

// inspectScript imports the source file and prints every scene class it
// defines, in definition order. Import side effects may print freely;
// only marked lines are read back.
const inspectScript = `import importlib.util, sys
spec = importlib.util.spec_from_file_location("reel_inspect", sys.argv[1])
module = importlib.util.module_from_spec(spec)
spec.loader.exec_module(module)
from manim import Scene
for name, obj in vars(module).items():
    try:
        if isinstance(obj, type) and issubclass(obj, Scene) and obj is not Scene and obj.__module__ == module.__name__:
            print("` + sceneMarker + `" + name)
    except Exception:
        pass
`

// PythonDetector imports the source with the engine's interpreter and asks
// the engine which classes are scenes.
type PythonDetector struct {
	executor ports.Executor
	python   string
}

// NewPythonDetector creates a PythonDetector running the given interpreter.
func NewPythonDetector(executor ports.Executor, python string) *PythonDetector {
	if python == "" {
		python = domain.DefaultPython
	}
	return &PythonDetector{executor: executor, python: python}
}

// Detect runs the inspection script against sourcePath.
func (d *PythonDetector) Detect(ctx context.Context, sourcePath string) ([]string, error) {
	var out bytes.Buffer
	cmd := domain.Command{
		Args: []string{d.python, "-c", inspectScript, sourcePath},
		Dir:  filepath.Dir(sourcePath),
	}
	if err := d.executor.Execute(ctx, cmd, &out); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "scene inspection failed"), "path", sourcePath)
	}
	return parseInspectOutput(out.Bytes()), nil
}

func parseInspectOutput(out []byte) []string {
	var scenes []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if name, ok := strings.CutPrefix(line, sceneMarker); ok && name != "" {
			scenes = append(scenes, name)
		}
	}
	return scenes
}

// fallbackDetector tries primary and consults secondary when primary
// fails or finds nothing.
type fallbackDetector struct {
	primary   ports.SceneDetector
	secondary ports.SceneDetector
	logger    ports.Logger
}

func (d *fallbackDetector) Detect(ctx context.Context, sourcePath string) ([]string, error) {
	scenes, err := d.primary.Detect(ctx, sourcePath)
	if err == nil && len(scenes) > 0 {
		return scenes, nil
	}
	if err != nil && d.logger != nil {
		d.logger.Warn("scene inspection failed, falling back to static scan: " + err.Error())
	}
	return d.secondary.Detect(ctx, sourcePath)
}

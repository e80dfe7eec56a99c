package scene_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/adapters/scene"
)

func TestScanScenes(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "single scene",
			src:  "from manim import *\n\nclass SceneA(Scene):\n    def construct(self):\n        pass\n",
			want: []string{"SceneA"},
		},
		{
			name: "declaration order kept",
			src:  "class Zed(Scene):\n    pass\n\nclass Alpha(ThreeDScene):\n    pass\n",
			want: []string{"Zed", "Alpha"},
		},
		{
			name: "qualified and generic bases",
			src:  "import manim\nclass Intro(manim.MovingCameraScene):\n    pass\nclass Outro(mn.Scene[int]):\n    pass\n",
			want: []string{"Intro", "Outro"},
		},
		{
			name: "helper classes ignored",
			src:  "class Config:\n    pass\nclass Palette(object):\n    pass\nclass Demo(Scene):\n    pass\n",
			want: []string{"Demo"},
		},
		{
			name: "inherits from local scene declared later",
			src:  "class Child(Base):\n    pass\nclass Base(Scene):\n    pass\n",
			want: []string{"Child", "Base"},
		},
		{
			name: "keyword arguments skipped",
			src:  "class Tagged(Scene, metaclass=Meta):\n    pass\n",
			want: []string{"Tagged"},
		},
		{
			name: "nested classes not counted",
			src:  "class Outer(Scene):\n    class Inner(Scene):\n        pass\n",
			want: []string{"Outer"},
		},
		{
			name: "no scenes",
			src:  "def main():\n    pass\n",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scene.ScanScenes(tt.src))
		})
	}
}

func TestStaticDetector_Detect(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "demo.py")
	require.NoError(t, os.WriteFile(src, []byte("class SceneA(Scene):\n    pass\n"), 0o600))

	scenes, err := scene.NewStaticDetector().Detect(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []string{"SceneA"}, scenes)

	_, err = scene.NewStaticDetector().Detect(context.Background(), filepath.Join(dir, "missing.py"))
	require.Error(t, err)
}

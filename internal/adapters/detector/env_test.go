package detector_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/adapters/detector"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestEnvironment_Interactive(t *testing.T) {
	tests := []struct {
		name  string
		ci    string
		isTTY bool
		want  bool
	}{
		{name: "terminal outside CI", ci: "", isTTY: true, want: true},
		{name: "CI=true", ci: "true", isTTY: true, want: false},
		{name: "CI=1", ci: "1", isTTY: true, want: false},
		{name: "CI=false is not CI", ci: "false", isTTY: true, want: true},
		{name: "not a terminal", ci: "", isTTY: false, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := detector.NewEnvironmentWith(
				func(key string) string {
					if key == "CI" {
						return tt.ci
					}
					return ""
				},
				func() bool { return tt.isTTY },
			)
			assert.Equal(t, tt.want, env.Interactive())
		})
	}
}

func TestCheckDependencies(t *testing.T) {
	cfg := domain.DefaultConfig()

	t.Run("all present", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		env := mocks.NewMockEnvironment(ctrl)
		env.EXPECT().LookPath("manim").Return("/usr/bin/manim", nil)
		env.EXPECT().LookPath("ffmpeg").Return("/usr/bin/ffmpeg", nil)

		warnings, err := detector.CheckDependencies(env, cfg)
		require.NoError(t, err)
		assert.Empty(t, warnings)
	})

	t.Run("missing engine is fatal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		env := mocks.NewMockEnvironment(ctrl)
		env.EXPECT().LookPath("manim").Return("", errors.New("not found"))

		_, err := detector.CheckDependencies(env, cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrEngineNotFound.Error())
	})

	t.Run("missing encoder warns", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		env := mocks.NewMockEnvironment(ctrl)
		env.EXPECT().LookPath("manim").Return("/usr/bin/manim", nil)
		env.EXPECT().LookPath("ffmpeg").Return("", errors.New("not found"))

		warnings, err := detector.CheckDependencies(env, cfg)
		require.NoError(t, err)
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], domain.ErrEncoderNotFound.Error())
	})
}

func TestShouldOpenBrowser(t *testing.T) {
	ctrl := gomock.NewController(t)
	env := mocks.NewMockEnvironment(ctrl)
	env.EXPECT().Interactive().Return(true)

	assert.True(t, detector.ShouldOpenBrowser(env, true))
	assert.False(t, detector.ShouldOpenBrowser(env, false), "opt-out never consults the terminal")
}

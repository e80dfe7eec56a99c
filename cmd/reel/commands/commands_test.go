package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/cmd/reel/commands"
	"go.trai.ch/reel/internal/app"
	"go.trai.ch/reel/internal/build"
)

type mockApp struct {
	watchFunc  func(ctx context.Context, opts app.Options) error
	renderFunc func(ctx context.Context, opts app.Options) error
	cleaned    bool
}

func (m *mockApp) Watch(ctx context.Context, opts app.Options) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Render(ctx context.Context, opts app.Options) error {
	if m.renderFunc != nil {
		return m.renderFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Clean(_ context.Context) error {
	m.cleaned = true
	return nil
}

func TestCommands_Watch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.Options
	}{
		{
			name: "root watches by default",
			args: []string{"-t", "a.py:SceneA", "--target", "b.py", "--no-open"},
			want: app.Options{Targets: []string{"a.py:SceneA", "b.py"}, NoOpen: true},
		},
		{
			name: "positional targets follow flag targets",
			args: []string{"watch", "-t", "a.py:SceneA", "c.py:Intro"},
			want: app.Options{Targets: []string{"a.py:SceneA", "c.py:Intro"}},
		},
		{
			name: "every session flag",
			args: []string{
				"watch", "-q", "high", "-p", "8080", "--media-dir", "out",
				"--verbose", "--json-logs", "-j", "3", "demo.py",
			},
			want: app.Options{
				Targets:  []string{"demo.py"},
				Quality:  "high",
				Port:     8080,
				MediaDir: "out",
				Verbose:  true,
				JSONLogs: true,
				Jobs:     3,
			},
		},
		{
			name: "no targets at all",
			args: []string{},
			want: app.Options{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got app.Options
			called := false
			mock := &mockApp{
				watchFunc: func(_ context.Context, opts app.Options) error {
					got = opts
					called = true
					return nil
				},
			}

			cli := commands.New(mock)
			cli.SetArgs(tt.args)

			require.NoError(t, cli.Execute(context.Background()))
			assert.True(t, called)
			assert.ElementsMatch(t, tt.want.Targets, got.Targets)
			got.Targets, tt.want.Targets = nil, nil
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommands_Render(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var got app.Options
		mock := &mockApp{
			renderFunc: func(_ context.Context, opts app.Options) error {
				got = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"render", "--target", "a.py:SceneA", "--quality", "medium"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, []string{"a.py:SceneA"}, got.Targets)
		assert.Equal(t, "medium", got.Quality)
	})

	t.Run("returns error on render failure", func(t *testing.T) {
		mock := &mockApp{
			renderFunc: func(_ context.Context, _ app.Options) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"render", "a.py"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})
}

func TestCommands_Clean(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)
	cli.SetArgs([]string{"clean"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, mock.cleaned)
}

func TestCommands_Clean_RejectsArgs(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)
	cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
	cli.SetArgs([]string{"clean", "previews"})

	require.Error(t, cli.Execute(context.Background()))
	assert.False(t, mock.cleaned)
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "reel version "+build.Version)
}

func TestCommands_VersionFlag(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"--version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), build.Version)
}

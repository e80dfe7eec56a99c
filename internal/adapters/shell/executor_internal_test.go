package shell

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEnvironment(t *testing.T) {
	tests := []struct {
		name     string
		sysEnv   []string
		extra    []string
		expected []string
	}{
		{
			name:     "system only",
			sysEnv:   []string{"USER=test", "PATH=/bin"},
			expected: []string{"USER=test", "PATH=/bin"},
		},
		{
			name:     "extra appended",
			sysEnv:   []string{"USER=test"},
			extra:    []string{"PYTHONUNBUFFERED=1"},
			expected: []string{"USER=test", "PYTHONUNBUFFERED=1"},
		},
		{
			name:     "extra overrides in place",
			sysEnv:   []string{"USER=test", "PATH=/bin"},
			extra:    []string{"PATH=/custom/bin"},
			expected: []string{"USER=test", "PATH=/custom/bin"},
		},
		{
			name:     "malformed entries skipped",
			sysEnv:   []string{"USER=test", "garbage"},
			expected: []string{"USER=test"},
		},
		{
			name:     "value containing equals",
			extra:    []string{"OPTS=a=b"},
			expected: []string{"OPTS=a=b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolveEnvironment(tt.sysEnv, tt.extra))
		})
	}
}

func TestLookPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "engine")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o700))
	plain := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o600))

	got, err := lookPath("engine", []string{"PATH=/nonexistent" + string(os.PathListSeparator) + dir})
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	_, err = lookPath("notes", []string{"PATH=" + dir})
	require.Error(t, err, "non-executable files are not matches")

	_, err = lookPath("engine", []string{"HOME=/root"})
	require.Error(t, err, "missing PATH finds nothing")

	got, err = lookPath(exe, nil)
	require.NoError(t, err)
	assert.Equal(t, exe, got)
}

func TestLineWriter(t *testing.T) {
	var out bytes.Buffer
	w := &lineWriter{out: &out}

	_, err := w.Write([]byte("one\r\ntw"))
	require.NoError(t, err)
	assert.Equal(t, "one\n", out.String())

	_, err = w.Write([]byte("o\nthree"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", out.String())

	require.NoError(t, w.Close())
	assert.Equal(t, "one\ntwo\nthree\n", out.String())

	require.NoError(t, w.Close())
	assert.Equal(t, "one\ntwo\nthree\n", out.String(), "second close is a no-op")
}

package cas_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/reel/internal/adapters/cas"
	"go.trai.ch/reel/internal/core/domain"
)

func TestStore_PutGet(t *testing.T) {
	store := cas.NewStore(filepath.Join(t.TempDir(), ".reel", "store"))

	info := domain.BuildInfo{
		Target:        "SceneA",
		Scene:         "SceneA",
		Status:        domain.StatusOK,
		StartedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:      1500 * time.Millisecond,
		PreviewDigest: "abc123",
		Attempts:      2,
	}
	require.NoError(t, store.Put(info))

	got, err := store.Get("SceneA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, info, *got)
}

func TestStore_Get_Missing(t *testing.T) {
	store := cas.NewStore(t.TempDir())

	got, err := store.Get("nothing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Put_Overwrites(t *testing.T) {
	store := cas.NewStore(t.TempDir())

	require.NoError(t, store.Put(domain.BuildInfo{Target: "SceneA", Status: domain.StatusOK, Attempts: 1}))
	require.NoError(t, store.Put(domain.BuildInfo{Target: "SceneA", Status: domain.StatusFailed, Attempts: 2, Failures: 1}))

	got, err := store.Get("SceneA")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, got.Status)
	assert.Equal(t, 2, got.Attempts)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestStore_TargetsIsolated(t *testing.T) {
	store := cas.NewStore(t.TempDir())

	require.NoError(t, store.Put(domain.BuildInfo{Target: "SceneA", Status: domain.StatusOK}))
	require.NoError(t, store.Put(domain.BuildInfo{Target: "SceneA_2", Status: domain.StatusFailed}))

	a, err := store.Get("SceneA")
	require.NoError(t, err)
	b, err := store.Get("SceneA_2")
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOK, a.Status)
	assert.Equal(t, domain.StatusFailed, b.Status)
}

func TestStore_Get_Corrupt(t *testing.T) {
	dir := t.TempDir()
	store := cas.NewStore(dir)
	require.NoError(t, store.Put(domain.BuildInfo{Target: "SceneA"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NoError(t, os.WriteFile(filepath.Join(dir, entries[0].Name()), []byte("{not json"), 0o600))

	_, err = store.Get("SceneA")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrStoreUnmarshalFailed.Error())
}

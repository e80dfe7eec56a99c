// Package cas implements the per-target build history store.
package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.BuildInfoStore = (*Store)(nil)

// Store implements ports.BuildInfoStore using a file-per-target strategy.
type Store struct {
	dir string
}

// NewStore creates a new BuildInfoStore backed by the directory at the given path.
// The directory is created on the first Put.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the store directory.
func (s *Store) Dir() string {
	return s.dir
}

// Get retrieves the build info for a given target name.
func (s *Store) Get(target string) (*domain.BuildInfo, error) {
	filename := s.getFilename(target)
	//nolint:gosec // Path is constructed from trusted directory and hashed filename
	data, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, zerr.Wrap(err, domain.ErrStoreReadFailed.Error())
	}

	var info domain.BuildInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, zerr.Wrap(err, domain.ErrStoreUnmarshalFailed.Error())
	}

	return &info, nil
}

// Put stores the build info, replacing any previous record atomically.
func (s *Store) Put(info domain.BuildInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreMarshalFailed.Error())
	}

	if err := os.MkdirAll(s.dir, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrStoreCreateFailed.Error())
	}

	tmp, err := os.CreateTemp(s.dir, ".buildinfo-*")
	if err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := tmp.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}
	if err := os.Rename(tmpName, s.getFilename(info.Target)); err != nil {
		return zerr.Wrap(err, domain.ErrStoreWriteFailed.Error())
	}

	return nil
}

func (s *Store) getFilename(target string) string {
	hash := sha256.Sum256([]byte(target))
	return filepath.Join(s.dir, hex.EncodeToString(hash[:])+".json")
}

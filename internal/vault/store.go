package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// Store abstracts blob persistence so sessions can be tested against
// simulated write failures.
type Store interface {
	Read() ([]byte, error)
	Write(blob []byte) error
	Exists() bool
}

// FileStore owns the single vault file on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Read returns the raw blob, or ErrVaultNotFound when the file is absent.
func (s *FileStore) Read() ([]byte, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, ErrVaultNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("vault: read blob: %w", err)
	}
	return b, nil
}

// Write replaces the vault file atomically: the blob goes to a sibling temp
// file which is fsynced and renamed over the real path. A crash mid-write
// leaves either the previous complete file or the new one, never a mix. The
// temp file is removed on any failure before the error propagates.
func (s *FileStore) Write(blob []byte) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("vault: create vault dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("vault: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}

	if err := tmp.Chmod(0o600); err != nil {
		return cleanup(fmt.Errorf("vault: chmod temp file: %w", err))
	}
	if _, err := tmp.Write(blob); err != nil {
		return cleanup(fmt.Errorf("vault: write temp file: %w", err))
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(fmt.Errorf("vault: sync temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vault: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("vault: replace vault file: %w", err)
	}
	return nil
}

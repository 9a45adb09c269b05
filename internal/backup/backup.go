// Package backup snapshots package manifests before mutation and restores
// them on failure or when versions are not persisted.
package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/monodeploy/cli/internal/output"
)

// Store holds manifest snapshots keyed by invocation.
type Store struct {
	mu        sync.Mutex
	snapshots map[string]map[string][]byte
}

// NewStore creates an empty backup store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]map[string][]byte)}
}

// NewKey returns a backup key unique to this invocation.
func NewKey() string {
	return uuid.NewString()
}

// Snapshot copies the current bytes of every path under the key. Missing
// files are recorded as absent and removed again on restore.
func (s *Store) Snapshot(key string, paths []string) error {
	files := make(map[string][]byte, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				files[path] = nil
				continue
			}
			return fmt.Errorf("snapshotting %s: %w", path, err)
		}
		files[path] = data
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = files
	output.Debug("manifests snapshotted", "key", key, "files", len(files))
	return nil
}

// Restore writes every snapshotted file back byte-identically and drops the
// snapshot. Files that were absent at snapshot time are deleted.
func (s *Store) Restore(key string) error {
	s.mu.Lock()
	files, ok := s.snapshots[key]
	delete(s.snapshots, key)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("no snapshot for key %s", key)
	}

	for path, data := range files {
		if data == nil {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing %s: %w", path, err)
			}
			continue
		}
		if err := writeAtomic(path, data); err != nil {
			return err
		}
	}
	output.Debug("manifests restored", "key", key, "files", len(files))
	return nil
}

// Discard drops the snapshot without touching disk.
func (s *Store) Discard(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
}

// Has reports whether a snapshot exists for the key.
func (s *Store) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.snapshots[key]
	return ok
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".backup-restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("restoring %s: %w", path, err)
	}
	return nil
}

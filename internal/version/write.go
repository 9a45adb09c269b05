package version

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/monodeploy/cli/internal/workspace"
)

// WriteManifest persists a manifest atomically: the content lands in a
// temp file in the same directory and replaces the target via rename.
func WriteManifest(path string, m *workspace.Manifest) error {
	data, err := m.Encode()
	if err != nil {
		return fmt.Errorf("encoding manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".package-json-*")
	if err != nil {
		return fmt.Errorf("creating temp manifest in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp manifest %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp manifest %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing manifest %s: %w", path, err)
	}
	return nil
}

// Package publish drives the per-package pack and upload pipeline under
// concurrency and ordering constraints.
package publish

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/monodeploy/cli/internal/version"
	"github.com/monodeploy/cli/internal/workspace"
)

// archiveRoot is the directory prefix registries expect inside package
// tarballs.
const archiveRoot = "package"

// skipDirs are never packed.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	".git":         {},
}

// Pack produces a gzipped tarball of the package directory. The manifest
// entry comes from the publish manifest (workspace-protocol ranges already
// resolved), not the on-disk file.
func Pack(applied *version.Applied) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	manifest, err := applied.ForPublish.Encode()
	if err != nil {
		return nil, fmt.Errorf("encoding publish manifest: %w", err)
	}
	if err := writeEntry(tw, filepath.Join(archiveRoot, workspace.ManifestFilename), manifest); err != nil {
		return nil, err
	}

	err = filepath.Walk(applied.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(applied.Dir, path)
		if err != nil {
			return err
		}
		if info.IsDir() {
			if _, skip := skipDirs[info.Name()]; skip && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}
		if rel == workspace.ManifestFilename {
			// Replaced by the publish manifest above.
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return writeEntry(tw, filepath.Join(archiveRoot, rel), data)
	})
	if err != nil {
		return nil, fmt.Errorf("packing %s: %w", applied.Name, err)
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("finalizing tarball: %w", err)
	}
	if err := gz.Close(); err != nil {
		return nil, fmt.Errorf("finalizing gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name:    filepath.ToSlash(name),
		Mode:    0o644,
		Size:    int64(len(data)),
		ModTime: time.Unix(0, 0),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("writing tar entry %s: %w", name, err)
	}
	return nil
}

// ReadArchive lists the entries of a packed archive. Test helper for
// asserting archive contents.
func ReadArchive(archive []byte) (map[string][]byte, error) {
	gz, err := gzip.NewReader(bytes.NewReader(archive))
	if err != nil {
		return nil, err
	}
	defer gz.Close()

	entries := make(map[string][]byte)
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, err
		}
		entries[strings.TrimPrefix(filepath.ToSlash(hdr.Name), "./")] = data
	}
	return entries, nil
}

package workspace

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	monoerrors "github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/testutil"
)

func TestLoad(t *testing.T) {
	root := testutil.ThreePackageWorkspace(t)

	ws, err := Load(root)
	require.NoError(t, err)

	assert.Equal(t, 3, ws.Len())
	require.NotNil(t, ws.Package("pkg-2"))
	assert.Equal(t, "0.0.1", ws.Package("pkg-2").Manifest.Version)
	assert.Equal(t, filepath.Join(root, "packages", "pkg-3"), ws.Package("pkg-3").Dir)
}

func TestLoadMissingRootManifest(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, monoerrors.ErrWorkspace))
}

func TestLoadRejectsNamelessPackage(t *testing.T) {
	root := t.TempDir()
	testutil.WriteManifest(t, root, testutil.ManifestSpec{
		Name:       "root",
		Private:    true,
		Workspaces: []string{"packages/*"},
	})
	testutil.WriteFile(t, filepath.Join(root, "packages", "anon"), "package.json", `{"version": "1.0.0"}`)

	_, err := Load(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, monoerrors.ErrWorkspace))
}

func TestOwnerOf(t *testing.T) {
	root := testutil.ThreePackageWorkspace(t)
	ws, err := Load(root)
	require.NoError(t, err)

	tests := []struct {
		path string
		want string
	}{
		{"packages/pkg-1/src/index.ts", "pkg-1"},
		{"packages/pkg-3/package.json", "pkg-3"},
		{"packages/pkg-2", "pkg-2"},
		{"README.md", ""},
		{"packages/unknown/file.ts", ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			owner := ws.OwnerOf(tt.path)
			if tt.want == "" {
				assert.Nil(t, owner)
				return
			}
			require.NotNil(t, owner)
			assert.Equal(t, tt.want, owner.Name)
		})
	}
}

func TestOwnerOfDeepestWins(t *testing.T) {
	root := t.TempDir()
	testutil.WriteManifest(t, root, testutil.ManifestSpec{
		Name:       "root",
		Private:    true,
		Workspaces: []string{"packages/outer", "packages/outer/nested/*"},
	})
	testutil.WriteManifest(t, filepath.Join(root, "packages", "outer"), testutil.ManifestSpec{Name: "outer", Version: "1.0.0"})
	testutil.WriteManifest(t, filepath.Join(root, "packages", "outer", "nested", "inner"), testutil.ManifestSpec{Name: "inner", Version: "1.0.0"})

	ws, err := Load(root)
	require.NoError(t, err)

	owner := ws.OwnerOf("packages/outer/nested/inner/main.go")
	require.NotNil(t, owner)
	assert.Equal(t, "inner", owner.Name)
}

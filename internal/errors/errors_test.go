package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackageError(t *testing.T) {
	inner := Publishf("tarball upload rejected")
	err := ForPackage("@scope/pkg-2", inner)

	assert.EqualError(t, err, "@scope/pkg-2: publish error: tarball upload rejected")
	assert.True(t, errors.Is(err, ErrPublish))

	var pkgErr *PackageError
	require.True(t, errors.As(err, &pkgErr))
	assert.Equal(t, "@scope/pkg-2", pkgErr.Package)
}

func TestWrapKeepsBothChains(t *testing.T) {
	cause := errors.New("exit status 128")
	err := Wrap(ErrAnalysis, cause, "git log failed")

	assert.True(t, errors.Is(err, ErrAnalysis))
	assert.True(t, errors.Is(err, cause))
}

func TestAggregate(t *testing.T) {
	t.Run("nil for empty slice", func(t *testing.T) {
		assert.NoError(t, Aggregate(ErrPublish, "publishing failed", nil))
	})

	t.Run("joins all failures under the sentinel", func(t *testing.T) {
		e1 := ForPackage("pkg-1", errors.New("pack failed"))
		e2 := ForPackage("pkg-2", errors.New("upload failed"))
		err := Aggregate(ErrPublish, "2 packages failed", []error{e1, e2})

		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrPublish))
		assert.True(t, errors.Is(err, e1))
		assert.True(t, errors.Is(err, e2))
	})
}

func TestSentinelConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"configuration", Configurationf("jobs must be >= 0, got %d", -1), ErrConfiguration},
		{"workspace", Workspacef("dependency cycle: %s", "a -> b -> a"), ErrWorkspace},
		{"analysis", Analysisf("resolving ref %q", "main"), ErrAnalysis},
		{"publish", Publishf("upload failed"), ErrPublish},
		{"record", Recordf("tag exists at different commit"), ErrRecord},
		{"plugin", Pluginf("hook panicked"), ErrPlugin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
		})
	}
}

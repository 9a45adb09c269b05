package registry

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchVersion(t *testing.T) {
	t.Run("reads the dist-tag", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/pkg-1", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":      "pkg-1",
				"dist-tags": map[string]string{"latest": "0.0.1", "next": "0.1.0-rc.2"},
			})
		}))
		defer server.Close()

		reg := NewNPM(server.URL, NewClient())

		version, found, err := reg.FetchVersion(context.Background(), "pkg-1", "latest")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "0.0.1", version)

		version, found, err = reg.FetchVersion(context.Background(), "pkg-1", "next")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "0.1.0-rc.2", version)
	})

	t.Run("unpublished package is not an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		reg := NewNPM(server.URL, NewClient())
		_, found, err := reg.FetchVersion(context.Background(), "never-published", "latest")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("missing dist-tag is not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":      "pkg-1",
				"dist-tags": map[string]string{"latest": "1.0.0"},
			})
		}))
		defer server.Close()

		reg := NewNPM(server.URL, NewClient())
		_, found, err := reg.FetchVersion(context.Background(), "pkg-1", "next")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("scoped names are escaped", func(t *testing.T) {
		var gotPath string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.EscapedPath()
			_ = json.NewEncoder(w).Encode(map[string]any{"dist-tags": map[string]string{"latest": "1.0.0"}})
		}))
		defer server.Close()

		reg := NewNPM(server.URL, NewClient())
		_, _, err := reg.FetchVersion(context.Background(), "@scope/pkg", "latest")
		require.NoError(t, err)
		assert.Equal(t, "/@scope%2Fpkg", gotPath)
	})
}

func TestPublish(t *testing.T) {
	var gotAuth string
	var gotDoc publishDocument
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotDoc))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	reg := NewNPM(server.URL, NewClient(WithToken("npm_secrettoken")))
	err := reg.Publish(context.Background(), Publication{
		Name:     "pkg-1",
		Version:  "0.1.0",
		DistTag:  "latest",
		Access:   "public",
		Manifest: json.RawMessage(`{"name": "pkg-1", "version": "0.1.0"}`),
		Archive:  []byte("tarball-bytes"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer npm_secrettoken", gotAuth)
	assert.Equal(t, "pkg-1", gotDoc.Name)
	assert.Equal(t, "0.1.0", gotDoc.DistTags["latest"])
	require.Contains(t, gotDoc.Versions, "0.1.0")
	assert.Contains(t, gotDoc.Attachments, "pkg-1-0.1.0.tgz")
	assert.Equal(t, len("tarball-bytes"), gotDoc.Attachments["pkg-1-0.1.0.tgz"].Length)
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"dist-tags": map[string]string{"latest": "1.0.0"}})
	}))
	defer server.Close()

	reg := NewNPM(server.URL, NewClient(WithMaxRetries(5)))
	version, found, err := reg.FetchVersion(context.Background(), "pkg-1", "latest")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "1.0.0", version)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	reg := NewNPM(server.URL, NewClient(WithMaxRetries(5)))
	_, _, err := reg.FetchVersion(context.Background(), "pkg-1", "latest")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

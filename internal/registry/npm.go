package registry

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	monoerrors "github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/output"
)

// DefaultURL is the public npm registry.
const DefaultURL = "https://registry.npmjs.org"

// NPM is a Registry backed by an npm-protocol registry.
type NPM struct {
	baseURL string
	client  *Client
}

var _ Registry = (*NPM)(nil)

// NewNPM creates an npm registry adapter. An empty baseURL selects the
// public registry; a nil client gets defaults.
func NewNPM(baseURL string, client *Client) *NPM {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if client == nil {
		client = NewClient()
	}
	return &NPM{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// BaseURL returns the configured registry URL.
func (r *NPM) BaseURL() string {
	return r.baseURL
}

// packumentResponse is the subset of the npm packument the pipeline reads.
type packumentResponse struct {
	Name     string            `json:"name"`
	DistTags map[string]string `json:"dist-tags"`
}

// FetchVersion reads the packument and returns the version under distTag.
func (r *NPM) FetchVersion(ctx context.Context, name, distTag string) (string, bool, error) {
	packumentURL := fmt.Sprintf("%s/%s", r.baseURL, url.PathEscape(name))

	var resp packumentResponse
	if err := r.client.GetJSON(ctx, packumentURL, &resp, false); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return "", false, nil
		}
		return "", false, monoerrors.ForPackage(name, fmt.Errorf("fetching registry version: %w", err))
	}

	version, ok := resp.DistTags[distTag]
	if !ok || version == "" {
		return "", false, nil
	}
	output.Debug("registry version", "package", name, "distTag", distTag, "version", version)
	return version, true, nil
}

// publishDocument is the npm publish PUT body: the new version's manifest,
// a dist-tag pointer, and the tarball as a base64 attachment.
type publishDocument struct {
	ID          string                    `json:"_id"`
	Name        string                    `json:"name"`
	Description string                    `json:"description,omitempty"`
	DistTags    map[string]string         `json:"dist-tags"`
	Versions    map[string]map[string]any `json:"versions"`
	Access      string                    `json:"access,omitempty"`
	Attachments map[string]attachment     `json:"_attachments"`
}

type attachment struct {
	ContentType string `json:"content_type"`
	Data        string `json:"data"`
	Length      int    `json:"length"`
}

// Publish uploads the archive under its dist-tag.
func (r *NPM) Publish(ctx context.Context, pub Publication) error {
	var manifest map[string]any
	if err := json.Unmarshal(pub.Manifest, &manifest); err != nil {
		return monoerrors.ForPackage(pub.Name, fmt.Errorf("encoding publish manifest: %w", err))
	}

	tarballName := fmt.Sprintf("%s-%s.tgz", strings.ReplaceAll(pub.Name, "/", "-"), pub.Version)
	tarballURL := fmt.Sprintf("%s/%s/-/%s", r.baseURL, pub.Name, tarballName)

	shasum := sha1.Sum(pub.Archive)
	manifest["_id"] = fmt.Sprintf("%s@%s", pub.Name, pub.Version)
	manifest["dist"] = map[string]any{
		"tarball": tarballURL,
		"shasum":  hex.EncodeToString(shasum[:]),
	}

	doc := publishDocument{
		ID:       pub.Name,
		Name:     pub.Name,
		DistTags: map[string]string{pub.DistTag: pub.Version},
		Versions: map[string]map[string]any{pub.Version: manifest},
		Access:   pub.Access,
		Attachments: map[string]attachment{
			tarballName: {
				ContentType: "application/octet-stream",
				Data:        base64.StdEncoding.EncodeToString(pub.Archive),
				Length:      len(pub.Archive),
			},
		},
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return monoerrors.ForPackage(pub.Name, fmt.Errorf("encoding publish document: %w", err))
	}

	putURL := fmt.Sprintf("%s/%s", r.baseURL, url.PathEscape(pub.Name))
	if err := r.client.PutJSON(ctx, putURL, body); err != nil {
		return monoerrors.ForPackage(pub.Name, fmt.Errorf("uploading archive: %w", err))
	}

	output.Debug("published", "package", pub.Name, "version", pub.Version, "distTag", pub.DistTag)
	return nil
}

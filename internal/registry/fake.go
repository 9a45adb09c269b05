package registry

import (
	"context"
	"sync"
)

// Fake is an in-memory Registry for tests. Zero value is usable.
type Fake struct {
	mu sync.Mutex

	// Versions maps "name dist-tag" → version for FetchVersion.
	Versions map[string]string

	// FetchErr and PublishErr, when set, fail the respective operation.
	FetchErr   error
	PublishErr error

	// FailPackages fails Publish for the named packages only.
	FailPackages map[string]error

	// Published records successful publications in call order.
	Published []Publication
}

var _ Registry = (*Fake)(nil)

// SetVersion seeds the version advertised for name under distTag.
func (f *Fake) SetVersion(name, distTag, version string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Versions == nil {
		f.Versions = make(map[string]string)
	}
	f.Versions[name+" "+distTag] = version
}

func (f *Fake) FetchVersion(_ context.Context, name, distTag string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return "", false, f.FetchErr
	}
	v, ok := f.Versions[name+" "+distTag]
	return v, ok, nil
}

func (f *Fake) Publish(_ context.Context, pub Publication) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishErr != nil {
		return f.PublishErr
	}
	if err, ok := f.FailPackages[pub.Name]; ok {
		return err
	}
	f.Published = append(f.Published, pub)
	return nil
}

// PublishedNames returns the names of successfully published packages in
// call order.
func (f *Fake) PublishedNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, len(f.Published))
	for i, pub := range f.Published {
		names[i] = pub.Name
	}
	return names
}

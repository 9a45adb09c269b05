package plugin

import (
	"sort"
	"strings"
	"sync"

	"github.com/monodeploy/cli/internal/errors"
)

var (
	namedMu sync.RWMutex
	named   = make(map[string]Plugin)
)

// RegisterNamed makes a plugin resolvable through configuration by name.
// Last registration wins.
func RegisterNamed(p Plugin) {
	namedMu.Lock()
	defer namedMu.Unlock()
	named[p.Name] = p
}

// Lookup resolves a configured plugin name.
func Lookup(name string) (Plugin, error) {
	namedMu.RLock()
	defer namedMu.RUnlock()
	if p, ok := named[name]; ok {
		return p, nil
	}
	known := make([]string, 0, len(named))
	for n := range named {
		known = append(known, n)
	}
	sort.Strings(known)
	if len(known) == 0 {
		return Plugin{}, errors.Configurationf("unknown plugin %q (none registered)", name)
	}
	return Plugin{}, errors.Configurationf("unknown plugin %q (known: %s)", name, strings.Join(known, ", "))
}

// HostFor builds a Host from configured plugin names, in order.
func HostFor(names []string) (*Host, error) {
	host := NewHost()
	for _, name := range names {
		p, err := Lookup(name)
		if err != nil {
			return nil, err
		}
		host.Register(p)
	}
	return host, nil
}

package analyze

import (
	"sort"
	"strings"
	"sync"

	"github.com/monodeploy/cli/internal/errors"
)

// Counts is what a conventional-commits preset reports for one message.
type Counts struct {
	Breaking int
	Features int
	Patches  int
}

// Preset scores a commit message against a conventional-commits
// configuration.
type Preset interface {
	Name() string
	Analyze(message string) Counts
}

var (
	presetMu sync.RWMutex
	presets  = make(map[string]Preset)
)

// RegisterPreset makes a preset available by name. Last registration wins.
func RegisterPreset(p Preset) {
	presetMu.Lock()
	defer presetMu.Unlock()
	presets[p.Name()] = p
}

// LookupPreset resolves a registered preset by name.
func LookupPreset(name string) (Preset, error) {
	presetMu.RLock()
	defer presetMu.RUnlock()
	if p, ok := presets[name]; ok {
		return p, nil
	}
	known := make([]string, 0, len(presets))
	for n := range presets {
		known = append(known, n)
	}
	sort.Strings(known)
	return nil, errors.Configurationf("unknown conventional-changelog config %q (known: %s)", name, strings.Join(known, ", "))
}

// conventionalCommitsPreset implements the standard conventional-commits
// ruleset.
type conventionalCommitsPreset struct{}

func (conventionalCommitsPreset) Name() string {
	return "conventionalcommits"
}

func (conventionalCommitsPreset) Analyze(message string) Counts {
	var counts Counts
	header, _, _ := strings.Cut(message, "\n")

	if strings.Contains(message, "BREAKING CHANGE") || strings.Contains(header, "!:") {
		counts.Breaking++
	}
	switch HeaderType(header) {
	case "feat":
		counts.Features++
	case "fix", "perf":
		counts.Patches++
	}
	return counts
}

func init() {
	RegisterPreset(conventionalCommitsPreset{})
}

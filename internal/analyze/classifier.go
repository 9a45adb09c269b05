// Package analyze maps commits and file diffs to per-package version
// strategies.
package analyze

import (
	"strings"

	"github.com/monodeploy/cli/internal/core"
)

// Classifier maps one commit message to a bump level.
type Classifier interface {
	Classify(message string) core.BumpLevel
}

// DefaultClassifier applies the built-in heuristic: "BREAKING CHANGE"
// anywhere or "!:" in the header is major, a feat header is minor, fix and
// perf headers are patch, anything else is none.
type DefaultClassifier struct{}

var _ Classifier = DefaultClassifier{}

// Classify implements Classifier.
func (DefaultClassifier) Classify(message string) core.BumpLevel {
	header, _, _ := strings.Cut(message, "\n")

	if strings.Contains(message, "BREAKING CHANGE") || strings.Contains(header, "!:") {
		return core.Major
	}
	switch HeaderType(header) {
	case "feat":
		return core.Minor
	case "fix", "perf":
		return core.Patch
	default:
		return core.None
	}
}

// HeaderType extracts the conventional-commit type from a header, stripping
// any scope and breaking marker: "feat(api)!: x" yields "feat". Returns ""
// for headers with no type prefix.
func HeaderType(header string) string {
	typePart, _, ok := strings.Cut(header, ":")
	if !ok {
		return ""
	}
	if i := strings.IndexByte(typePart, '('); i >= 0 {
		typePart = typePart[:i]
	}
	typePart = strings.TrimSuffix(strings.TrimSpace(typePart), "!")
	if typePart == "" || strings.ContainsAny(typePart, " \t") {
		return ""
	}
	return strings.ToLower(typePart)
}

// PresetClassifier scores commits through a named conventional-commits
// preset: any breaking commit is major, else any feature is minor, else any
// patch-type commit is patch.
type PresetClassifier struct {
	preset Preset
}

var _ Classifier = (*PresetClassifier)(nil)

// NewPresetClassifier resolves the named preset from the registry.
func NewPresetClassifier(name string) (*PresetClassifier, error) {
	preset, err := LookupPreset(name)
	if err != nil {
		return nil, err
	}
	return &PresetClassifier{preset: preset}, nil
}

// Classify implements Classifier.
func (c *PresetClassifier) Classify(message string) core.BumpLevel {
	counts := c.preset.Analyze(message)
	switch {
	case counts.Breaking > 0:
		return core.Major
	case counts.Features > 0:
		return core.Minor
	case counts.Patches > 0:
		return core.Patch
	default:
		return core.None
	}
}

// MaxLevel returns the per-commit maximum across a set of messages.
func MaxLevel(c Classifier, messages []string) core.BumpLevel {
	level := core.None
	for _, msg := range messages {
		level = core.MaxLevel(level, c.Classify(msg))
		if level == core.Major {
			break
		}
	}
	return level
}

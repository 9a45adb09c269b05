// Package core provides the shared data model for the release pipeline:
// bump levels, version strategies, and release descriptors.
package core

import (
	"fmt"
	"strings"
)

// BumpLevel is the semantic-version increment a package receives.
// Levels form a total order: None < Patch < Minor < Major.
type BumpLevel int

const (
	// None means the package is unaffected.
	None BumpLevel = iota

	// Patch increments the patch component (x.y.Z).
	Patch

	// Minor increments the minor component (x.Y.0).
	Minor

	// Major increments the major component (X.0.0).
	Major
)

// String returns the lowercase name of the level.
func (l BumpLevel) String() string {
	switch l {
	case None:
		return "none"
	case Patch:
		return "patch"
	case Minor:
		return "minor"
	case Major:
		return "major"
	default:
		return fmt.Sprintf("BumpLevel(%d)", int(l))
	}
}

// MarshalJSON renders the level name.
func (l BumpLevel) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// UnmarshalJSON parses a level name.
func (l *BumpLevel) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseBumpLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// MarshalYAML renders the level name.
func (l BumpLevel) MarshalYAML() (interface{}, error) {
	return l.String(), nil
}

// ParseBumpLevel parses a level name as produced by String.
func ParseBumpLevel(s string) (BumpLevel, error) {
	switch s {
	case "none":
		return None, nil
	case "patch":
		return Patch, nil
	case "minor":
		return Minor, nil
	case "major":
		return Major, nil
	default:
		return None, fmt.Errorf("unknown bump level %q", s)
	}
}

// MaxLevel returns the greater of two levels.
func MaxLevel(a, b BumpLevel) BumpLevel {
	if a > b {
		return a
	}
	return b
}

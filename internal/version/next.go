// Package version computes next versions from registry state and the
// strategy map, and rewrites manifests for disk and for publication.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/monodeploy/cli/internal/core"
)

// Prerelease configures prerelease-aware increments.
type Prerelease struct {
	// Enabled switches Next to prerelease increments.
	Enabled bool

	// ID is the prerelease identifier (e.g. "rc" in 1.2.0-rc.3).
	ID string
}

// Next applies a bump level to a current version. In prerelease mode the
// identifier chain is numeric and monotonic per package: a version already
// on the target release with a matching identifier continues its chain,
// anything else starts a fresh chain at .0.
func Next(current string, level core.BumpLevel, pre Prerelease) (string, error) {
	cur, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", current, err)
	}
	if level == core.None {
		return "", fmt.Errorf("cannot increment %s by level none", current)
	}

	target := incRelease(cur, level)
	if !pre.Enabled {
		return target.String(), nil
	}

	id := pre.ID
	if id == "" {
		id = "rc"
	}
	if sameCore(cur, target) {
		if n, ok := chainIndex(cur.Prerelease(), id); ok {
			return fmt.Sprintf("%s-%s.%d", coreString(target), id, n+1), nil
		}
	}
	return fmt.Sprintf("%s-%s.0", coreString(target), id), nil
}

// incRelease increments the release triple npm-style: a version that is
// itself a prerelease of the target release graduates by dropping the
// prerelease instead of incrementing again.
func incRelease(cur *semver.Version, level core.BumpLevel) semver.Version {
	if cur.Prerelease() != "" {
		stripped, _ := cur.SetPrerelease("")
		switch level {
		case core.Patch:
			return stripped
		case core.Minor:
			if cur.Patch() == 0 {
				return stripped
			}
		case core.Major:
			if cur.Minor() == 0 && cur.Patch() == 0 {
				return stripped
			}
		}
		cur = &stripped
	}

	switch level {
	case core.Major:
		return cur.IncMajor()
	case core.Minor:
		return cur.IncMinor()
	default:
		return cur.IncPatch()
	}
}

func sameCore(a *semver.Version, b semver.Version) bool {
	return a.Major() == b.Major() && a.Minor() == b.Minor() && a.Patch() == b.Patch()
}

func coreString(v semver.Version) string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// chainIndex extracts N from a prerelease string "id.N".
func chainIndex(prerelease, id string) (int, bool) {
	rest, ok := strings.CutPrefix(prerelease, id+".")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Compare returns -1, 0, or 1 comparing two version strings under
// semantic-version ordering.
func Compare(a, b string) (int, error) {
	va, err := semver.NewVersion(a)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", a, err)
	}
	vb, err := semver.NewVersion(b)
	if err != nil {
		return 0, fmt.Errorf("parsing version %q: %w", b, err)
	}
	return va.Compare(vb), nil
}

// Satisfies reports whether version satisfies the declared range.
func Satisfies(version, constraint string) (bool, error) {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false, fmt.Errorf("parsing constraint %q: %w", constraint, err)
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", version, err)
	}
	return c.Check(v), nil
}

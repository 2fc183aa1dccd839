// Package constraint picks versions that satisfy semver ranges.
//
// It is the constraint capability shared by registry resolvers (choosing the
// best version of a packument for a range), the peer dependency check, and
// flat mode (choosing one version among many).
package constraint

import (
	"slices"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Resolver selects the best version from a list for a range.
type Resolver interface {
	// ResolveConstraints returns the highest version in versions that
	// satisfies rng, and false when none does.
	ResolveConstraints(versions []string, rng string) (string, bool)
}

// Semver implements [Resolver] with npm-style ranges (^, ~, x-ranges,
// hyphen ranges, || unions). The empty range, "*" and "latest" match any
// release version.
type Semver struct{}

var _ Resolver = Semver{}

// ResolveConstraints returns the highest satisfying version.
func (Semver) ResolveConstraints(versions []string, rng string) (string, bool) {
	c, err := parse(rng)
	if err != nil {
		// Not a range: an exact tag or version string can still match.
		if slices.Contains(versions, rng) {
			return rng, true
		}
		return "", false
	}

	var best *semver.Version
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil || !c.Check(v) {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best == nil {
		return "", false
	}
	return best.Original(), true
}

// Satisfies reports whether version is within rng.
func Satisfies(version, rng string) bool {
	c, err := parse(rng)
	if err != nil {
		return version == rng
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return c.Check(v)
}

// Highest returns the greatest valid semver in versions, falling back to the
// lexically greatest string when none parse.
func Highest(versions []string) string {
	if len(versions) == 0 {
		return ""
	}
	var best *semver.Version
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
		}
	}
	if best != nil {
		return best.Original()
	}
	return slices.Max(versions)
}

// Compare orders two versions by semver precedence; unparsable versions sort
// before parsable ones and among themselves lexically.
func Compare(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	default:
		return 1
	}
}

func parse(rng string) (*semver.Constraints, error) {
	rng = strings.TrimSpace(rng)
	if rng == "" || rng == "latest" || rng == "x" {
		rng = "*"
	}
	return semver.NewConstraint(rng)
}

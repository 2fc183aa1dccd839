package resolve

import (
	"slices"

	"github.com/matzehuels/hoister/pkg/constraint"
	"github.com/matzehuels/hoister/pkg/errors"
)

// Chooser picks the version a package collapses to in flat mode. versions
// holds at least two entries sorted by semver.
type Chooser func(name string, versions []string) (string, error)

// HighestVersion is the default [Chooser].
func HighestVersion(_ string, versions []string) (string, error) {
	return constraint.Highest(versions), nil
}

// CollapseAllVersionsOfPackage moves every pattern resolved to any version
// of name onto the manifest for version. The surviving reference absorbs the
// other references' patterns, requests and visibility counters; those
// references are pruned. It returns the pattern of the surviving manifest.
func (r *Resolver) CollapseAllVersionsOfPackage(name, version string) (string, error) {
	patterns := r.DedupePatterns(r.patternsByPackage[name])

	var target string
	for _, p := range patterns {
		if r.patterns[p].Version == version {
			target = p
			break
		}
	}
	if target == "" {
		return "", errors.New(errors.ErrCodeNotFound, "couldn't find package manifest for %s@%s", name, version)
	}

	into := r.patterns[target]
	ref := into.Reference
	for _, p := range patterns {
		if p == target {
			continue
		}
		other := r.patterns[p].Reference
		if other == nil {
			return "", errors.New(errors.ErrCodeInternal, "expected package reference for %q", p)
		}

		moved := slices.Clone(other.patterns)
		other.prune()
		for _, mp := range moved {
			ref.addPattern(mp, into)
		}
		for _, req := range other.requests {
			ref.addRequest(req)
			req.ref = ref
		}
		if other.optionalSet {
			ref.addOptional(other.optional)
		}
		for action, n := range other.visibility {
			if n > 0 {
				ref.count(VisibilityAction(action), n)
			}
		}
	}
	return target, nil
}

// Flatten collapses every package resolved to more than one version onto a
// single version picked by choose (nil means [HighestVersion]).
func (r *Resolver) Flatten(choose Chooser) error {
	if choose == nil {
		choose = HighestVersion
	}

	names := make([]string, 0, len(r.patternsByPackage))
	for name := range r.patternsByPackage {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		var versions []string
		for _, p := range r.DedupePatterns(r.patternsByPackage[name]) {
			if v := r.patterns[p].Version; !slices.Contains(versions, v) {
				versions = append(versions, v)
			}
		}
		if len(versions) < 2 {
			continue
		}
		slices.SortFunc(versions, constraint.Compare)

		version, err := choose(name, versions)
		if err != nil {
			return err
		}
		if _, err := r.CollapseAllVersionsOfPackage(name, version); err != nil {
			return err
		}
		r.log.Debug("flattened", "package", name, "versions", versions, "chosen", version)
	}
	return nil
}

package resolve

import (
	"slices"
	"strings"
)

// Why returns every request chain, seed first, that led to a package named
// name. Chains are sorted and unique.
func (r *Resolver) Why(name string) [][]string {
	var chains [][]string
	seen := make(map[string]bool)
	for _, p := range r.DedupePatterns(r.patternsByPackage[name]) {
		ref := r.patterns[p].Reference
		if ref == nil {
			continue
		}
		for _, req := range ref.requests {
			chain := req.Chain()
			key := strings.Join(chain, "\x00")
			if seen[key] {
				continue
			}
			seen[key] = true
			chains = append(chains, chain)
		}
	}
	slices.SortFunc(chains, slices.Compare[[]string])
	return chains
}

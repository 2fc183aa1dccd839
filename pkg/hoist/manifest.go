package hoist

import (
	"fmt"
	"strings"

	"github.com/matzehuels/hoister/pkg/resolve"
)

// KeySeparator joins the segments of a tree key.
const KeySeparator = "#"

// Manifest is the mutable record of one package's position during hoisting.
type Manifest struct {
	Key          string   // current position, e.g. "a#b#c"
	Parts        []string // Key split into segments
	OriginalKey  string   // position at seed time
	PreviousKeys []string // positions occupied before Key
	History      []string // repositioning decisions, oldest first

	Pkg             *resolve.Manifest
	Loc             string // identity of Pkg
	IsDirectRequire bool   // seeded from a top-level pattern
	SatisfiedBy     string // key of the identical package above, for duplicates

	parent *Manifest // requiring manifest at seed time
}

func newManifest(key string, parts []string, pkg *resolve.Manifest, loc string, direct bool) *Manifest {
	m := &Manifest{
		Key:             key,
		Parts:           parts,
		OriginalKey:     key,
		Pkg:             pkg,
		Loc:             loc,
		IsDirectRequire: direct,
	}
	m.addHistory("Start position = %s", key)
	return m
}

// Duplicate reports whether the package was satisfied by an identical copy
// higher in the tree and has no slot of its own.
func (m *Manifest) Duplicate() bool { return m.SatisfiedBy != "" }

// ancestor returns the closest manifest in m's requiring chain, m included,
// whose package is loc.
func (m *Manifest) ancestor(loc string) *Manifest {
	for a := m; a != nil; a = a.parent {
		if a.Loc == loc {
			return a
		}
	}
	return nil
}

func (m *Manifest) addHistory(format string, args ...any) {
	m.History = append(m.History, fmt.Sprintf(format, args...))
}

func implodeKey(parts []string) string {
	return strings.Join(parts, KeySeparator)
}

func explodeKey(key string) []string {
	return strings.Split(key, KeySeparator)
}

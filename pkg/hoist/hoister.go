// Package hoist assigns every resolved package a position in a single-rooted
// module tree.
//
// Packages are placed as high as possible without a name collision. The tree
// is keyed by '#'-joined ancestry paths ("left-pad#lodash"). Positions a
// package passes through while hoisting are tainted so a different package
// with the same name never lands there later. Processing is level by level,
// sorted, so the same resolved graph always produces the same tree.
//
//	h := hoist.New(resolver, hoist.Options{Cwd: dir})
//	if err := h.Seed(resolver.SeedPatterns()); err != nil {
//	    return err
//	}
//	entries, err := h.Init()
package hoist

import (
	"cmp"
	"context"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/observability"
	"github.com/matzehuels/hoister/pkg/resolve"
)

// Options configures a [Hoister].
type Options struct {
	Cwd            string        // Root of the tree (default: ".")
	Folders        ModuleFolders // Module folder naming (default: DefaultFolders)
	IgnoreOptional bool          // Drop packages only reachable through optional dependencies
	Logger         *log.Logger   // Diagnostics (default: log.Default())
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Cwd == "" {
		opts.Cwd = "."
	}
	if opts.Folders == nil {
		opts.Folders = DefaultFolders
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Entry is one placed package.
type Entry struct {
	Path     string
	Manifest *Manifest
}

// Hoister places the resolved graph of a converged [resolve.Resolver].
type Hoister struct {
	resolver *resolve.Resolver
	opts     Options

	tree        map[string]*Manifest
	taintedKeys map[string]*Manifest
	levelQueue  []queued
}

type queued struct {
	pattern string
	parent  *Manifest
}

// New creates a Hoister for r.
func New(r *resolve.Resolver, opts Options) *Hoister {
	return &Hoister{
		resolver:    r,
		opts:        opts.WithDefaults(),
		tree:        make(map[string]*Manifest),
		taintedKeys: make(map[string]*Manifest),
	}
}

// Run seeds the resolver's seed patterns and returns the placed entries.
func Run(ctx context.Context, r *resolve.Resolver, opts Options) ([]Entry, error) {
	start := time.Now()
	h := New(r, opts)

	entries, err := h.run(r.SeedPatterns())
	observability.Resolve().OnHoistComplete(ctx, len(entries), time.Since(start), err)
	return entries, err
}

func (h *Hoister) run(seeds []string) ([]Entry, error) {
	if err := h.Seed(seeds); err != nil {
		return nil, err
	}
	return h.Init()
}

// Seed places the given top-level patterns and then every dependency
// reachable from them, one breadth level at a time.
func (h *Hoister) Seed(patterns []string) error {
	if !h.resolver.Converged() {
		return errors.New(errors.ErrCodeInvalidInput, "cannot hoist an unconverged resolution")
	}

	for _, p := range h.resolver.DedupePatterns(patterns) {
		if _, err := h.seed(p, nil); err != nil {
			return err
		}
	}

	for len(h.levelQueue) > 0 {
		queue := h.levelQueue
		h.levelQueue = nil

		slices.SortStableFunc(queue, func(a, b queued) int {
			return cmp.Or(cmp.Compare(a.pattern, b.pattern), cmp.Compare(a.parent.Key, b.parent.Key))
		})

		var infos []*Manifest
		for _, q := range queue {
			info, err := h.seed(q.pattern, q.parent)
			if err != nil {
				return err
			}
			if info != nil {
				infos = append(infos, info)
			}
		}
		for _, info := range infos {
			h.hoist(info)
		}
	}
	return nil
}

// seed records the un-hoisted position of pattern under parent and queues
// its dependencies for the next level.
func (h *Hoister) seed(p string, parent *Manifest) (*Manifest, error) {
	pkg := h.resolver.GetResolvedPattern(p)
	if pkg == nil {
		// optional dependency that failed to resolve
		return nil, nil
	}
	ref := pkg.Reference
	if ref == nil {
		return nil, errors.New(errors.ErrCodeInternal, "expected reference for %q", p)
	}

	var parentParts []string
	if parent != nil {
		if h.tree[parent.Key] != parent {
			// parent was deduped; its identical copy already queued these
			return nil, nil
		}
		parentParts = parent.Parts
	}

	parts := append(slices.Clone(parentParts), pkg.Name)
	key := implodeKey(parts)
	loc := ref.Location()

	if existing, ok := h.tree[key]; ok {
		if existing.Loc == loc {
			return nil, nil
		}
		code := errors.ErrCodeInternal
		if parent == nil {
			code = errors.ErrCodeInvalidInput
		}
		return nil, errors.New(code, "%s is claimed by both %s and %s", key, existing.Pkg.ID(), pkg.ID())
	}

	info := newManifest(key, parts, pkg, loc, parent == nil)
	info.parent = parent
	h.tree[key] = info
	h.taintKey(key, info)

	// A cycle through other versions never dedupes, so stop expanding here.
	if a := parent.ancestor(loc); a != nil {
		info.addHistory("Dependencies satisfied by ancestor %s", a.Key)
		return info, nil
	}

	var pushed []string
	for _, dep := range ref.Dependencies() {
		if !slices.Contains(pushed, dep) {
			h.levelQueue = append(h.levelQueue, queued{pattern: dep, parent: info})
			pushed = append(pushed, dep)
		}
	}
	return info, nil
}

// taintKey reserves key for info. It fails when a different package already
// holds the reservation.
func (h *Hoister) taintKey(key string, info *Manifest) bool {
	if existing, ok := h.taintedKeys[key]; ok && existing.Loc != info.Loc {
		return false
	}
	h.taintedKeys[key] = info
	return true
}

// hoist moves info to the highest valid position.
func (h *Hoister) hoist(info *Manifest) {
	oldKey, rawParts := info.Key, info.Parts

	if h.tree[oldKey] == info {
		delete(h.tree, oldKey)
	}

	parts, duplicate := h.getNewParts(oldKey, info, rawParts)
	newKey := implodeKey(parts)

	switch {
	case duplicate:
		info.addHistory("Satisfied from above by %s", newKey)
		info.SatisfiedBy = newKey
		h.declareRename(info, rawParts, parts)
	case oldKey == newKey:
		info.addHistory("Didn't hoist - conflicts above")
		h.setKey(info, oldKey, rawParts)
	default:
		h.declareRename(info, rawParts, parts)
		h.setKey(info, newKey, parts)
	}
	h.opts.Logger.Debug("hoisted", "package", info.Pkg.ID(), "from", oldKey, "to", newKey, "duplicate", duplicate)
}

// getNewParts computes the new position for info, whose current segments
// are parts, and reports whether an identical package already sits above.
func (h *Hoister) getNewParts(key string, info *Manifest, parts []string) ([]string, bool) {
	original := parts
	parts = slices.Clone(parts[:len(parts)-1])
	name := original[len(original)-1]
	var stack []string
	stepUp := false

	// Look for an identical package above, stopping at the first collision.
	for i := len(parts) - 1; i >= 0; i-- {
		checkParts := append(slices.Clone(parts[:i]), name)
		checkKey := implodeKey(checkParts)
		info.addHistory("Looked at %s for a match", checkKey)

		if existing, ok := h.tree[checkKey]; ok {
			if existing.Loc == info.Loc {
				info.addHistory("Found existing %s", checkKey)
				return checkParts, true
			}
			info.addHistory("Found a collision at %s", checkKey)
			break
		}
		if t, ok := h.taintedKeys[checkKey]; ok && t.Loc != info.Loc {
			info.addHistory("Broken by %s", checkKey)
			break
		}
	}

	peers := make([]string, 0, len(info.Pkg.PeerDependencies))
	for peer := range info.Pkg.PeerDependencies {
		peers = append(peers, peer)
	}
	slices.Sort(peers)

	// Strip ancestry segments that won't collide.
hoistLoop:
	for len(parts) > 0 {
		// never hoist above a level that provides a peer dependency
		for _, peer := range peers {
			checkKey := implodeKey(append(slices.Clone(parts), peer))
			if _, ok := h.tree[checkKey]; ok {
				info.addHistory("Found a peer dependency requirement at %s", checkKey)
				break hoistLoop
			}
		}

		checkKey := implodeKey(append(slices.Clone(parts), name))
		if _, ok := h.tree[checkKey]; ok {
			stepUp = true
			break
		}
		if _, ok := h.taintedKeys[checkKey]; ok && key != checkKey {
			stepUp = true
			break
		}

		stack = append(stack, parts[len(parts)-1])
		parts = parts[:len(parts)-1]
	}
	parts = append(parts, name)

	if len(parts) == 1 && !h.isValidPosition(info, parts) {
		stepUp = true
	}

	for stepUp && len(stack) > 0 {
		info.addHistory("Stepping up from %s", implodeKey(parts))
		parts = parts[:len(parts)-1]
		parts = append(parts, stack[len(stack)-1], name)
		stack = stack[:len(stack)-1]
		if h.isValidPosition(info, parts) {
			info.addHistory("Found valid position %s", implodeKey(parts))
			stepUp = false
		}
	}

	if stepUp {
		info.addHistory("No valid position above, staying at %s", key)
		return slices.Clone(original), false
	}
	if existing, ok := h.tree[implodeKey(parts)]; ok && existing.Loc == info.Loc {
		return parts, true
	}
	return parts, false
}

// isValidPosition reports whether info may occupy parts: the slot is free of
// different packages and of their taints.
func (h *Hoister) isValidPosition(info *Manifest, parts []string) bool {
	key := implodeKey(parts)
	if existing, ok := h.tree[key]; ok {
		return existing.Loc == info.Loc
	}
	if t, ok := h.taintedKeys[key]; ok && t.Loc != info.Loc {
		return false
	}
	return true
}

// declareRename reserves info's name at every level between its new and
// old positions.
func (h *Hoister) declareRename(info *Manifest, oldParts, newParts []string) {
	h.taintParents(info, oldParts[:len(oldParts)-1], len(newParts)-1)
}

func (h *Hoister) taintParents(info *Manifest, processParts []string, start int) {
	for i := start; i < len(processParts); i++ {
		key := implodeKey(append(slices.Clone(processParts[:i]), info.Pkg.Name))
		if h.taintKey(key, info) {
			info.addHistory("Tainted %s to prevent collisions", key)
		}
	}
}

func (h *Hoister) setKey(info *Manifest, newKey string, parts []string) {
	oldKey := info.Key
	info.Key = newKey
	info.Parts = parts
	h.tree[newKey] = info
	if oldKey == newKey {
		return
	}
	info.PreviousKeys = append(info.PreviousKeys, oldKey)
	info.addHistory("New position = %s", newKey)
}

// Init returns the placed packages sorted by key. Paths join Cwd with the
// module folder and name of every ancestor. Packages whose reference is
// ignored, or optional while IgnoreOptional is set, are left out.
func (h *Hoister) Init() ([]Entry, error) {
	keys := make([]string, 0, len(h.tree))
	for key := range h.tree {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	var entries []Entry
	for _, key := range keys {
		info := h.tree[key]

		segments := explodeKey(key)
		pathParts := []string{h.opts.Cwd}
		for i := range segments {
			prefix := implodeKey(segments[:i+1])
			hoisted, ok := h.tree[prefix]
			if !ok {
				return nil, errors.New(errors.ErrCodeInternal, "expected hoisted manifest at %s", prefix)
			}
			pathParts = append(pathParts, h.opts.Folders.Folder(hoisted.Pkg), hoisted.Pkg.Name)
		}

		ref := info.Pkg.Reference
		if ref.Ignore() || (ref.Optional() && h.opts.IgnoreOptional) {
			info.addHistory("Deleted as this module was ignored")
			continue
		}
		entries = append(entries, Entry{Path: filepath.Join(pathParts...), Manifest: info})
	}
	return entries, nil
}

// Tree returns the current occupant of every key.
func (h *Hoister) Tree() map[string]*Manifest {
	return maps.Clone(h.tree)
}

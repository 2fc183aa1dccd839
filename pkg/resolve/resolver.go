package resolve

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/hoister/pkg/constraint"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/observability"
	"github.com/matzehuels/hoister/pkg/pattern"
)

const (
	DefaultRegistry    = "npm" // Registry used by seeds that name none
	DefaultConcurrency = 16    // Concurrent capability calls
)

// Options configures a [Resolver].
type Options struct {
	Registries  map[string]Registry             // Registry capabilities by name
	Exotic      map[pattern.Kind]ExoticResolver // Capabilities for exotic patterns
	Lockfile    Lockfile                        // Pinned results (optional)
	Constraints constraint.Resolver             // Range matching for peer checks (default: semver)
	Limiter     Limiter                         // Bounds capability calls (default: semaphore of Concurrency)
	Concurrency int                             // Limiter size when Limiter is nil (default: 16)
	Logger      *log.Logger                     // Diagnostics (default: log.Default())
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Limiter == nil {
		opts.Limiter = semaphore.NewWeighted(int64(opts.Concurrency))
	}
	if opts.Constraints == nil {
		opts.Constraints = constraint.Semver{}
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return opts
}

// Seed is a top-level dependency request.
type Seed struct {
	Pattern    string
	Registry   string // default: DefaultRegistry
	Visibility VisibilityAction
	Optional   bool
}

// Resolver coordinates a single resolution run.
type Resolver struct {
	opts  Options
	log   *log.Logger
	runID string

	patterns          map[string]*Manifest
	patternsByPackage map[string][]string
	fetching          map[string]*fetchState
	seeds             []*Request
	seedPatterns      []string

	deferred     []deferredVisibility
	peerWarnings []PeerWarning
	started      bool
	converged    bool

	results  chan result
	inflight int
	wg       sync.WaitGroup
}

// deferredVisibility is a visibility change on a reference that converged
// while its dependencies were possibly still resolving.
type deferredVisibility struct {
	ref    *Reference
	action VisibilityAction
}

// fetchState tracks the single fetch of one registry:pattern key. Requests
// for a key already being fetched wait here and join its reference.
type fetchState struct {
	done    bool
	ref     *Reference
	err     error
	waiters []*Request
}

func fetchKey(req *Request) string { return req.Registry + ":" + req.Pattern }

// New creates a Resolver.
func New(opts Options) *Resolver {
	opts = opts.WithDefaults()
	runID := uuid.NewString()
	return &Resolver{
		opts:              opts,
		log:               opts.Logger.With("run", runID[:8]),
		runID:             runID,
		patterns:          make(map[string]*Manifest),
		patternsByPackage: make(map[string][]string),
		fetching:          make(map[string]*fetchState),
	}
}

// RunID identifies this resolution run in logs and hooks.
func (r *Resolver) RunID() string { return r.runID }

// Converged reports whether Init completed successfully.
func (r *Resolver) Converged() bool { return r.converged }

// SeedPatterns returns the seed patterns in the order given to Init.
func (r *Resolver) SeedPatterns() []string { return slices.Clone(r.seedPatterns) }

// Init resolves seeds and their transitive closure. It returns the first
// fatal error; on error the resolver stays unconverged and must not be
// hoisted.
func (r *Resolver) Init(ctx context.Context, seeds []Seed) error {
	if r.started {
		return errors.New(errors.ErrCodeInvalidInput, "resolver already initialized")
	}
	r.started = true

	start := time.Now()
	observability.Resolve().OnResolveStart(ctx, r.runID, len(seeds))
	r.log.Debug("resolving", "seeds", len(seeds))

	err := r.run(ctx, seeds)

	observability.Resolve().OnResolveComplete(ctx, r.runID, len(r.Manifests()), time.Since(start), err)
	if err != nil {
		return err
	}
	r.log.Debug("resolved graph", "packages", len(r.Manifests()), "patterns", len(r.patterns), "took", time.Since(start))
	return nil
}

func (r *Resolver) run(ctx context.Context, seeds []Seed) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		r.wg.Wait()
	}()

	r.results = make(chan result, r.opts.Concurrency*2)

	for _, s := range seeds {
		registry := cmp.Or(s.Registry, DefaultRegistry)
		req := &Request{
			Pattern:    s.Pattern,
			Registry:   registry,
			Visibility: s.Visibility,
			Optional:   s.Optional,
		}
		r.seedPatterns = append(r.seedPatterns, s.Pattern)
		r.seeds = append(r.seeds, req)
		if _, err := r.find(ctx, req); err != nil {
			return err
		}
	}

	if err := r.collect(ctx); err != nil {
		return err
	}

	for _, d := range r.deferred {
		d.ref.propagate(d.action, map[*Reference]bool{d.ref: true})
	}
	r.deferred = nil
	r.converged = true

	r.checkPeers()
	return nil
}

func (r *Resolver) collect(ctx context.Context) error {
	for r.inflight > 0 {
		select {
		case res := <-r.results:
			r.inflight--
			if err := r.handle(ctx, res); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// find dispatches req unless its registry:pattern key has already been
// dispatched, in which case req joins that fetch's reference. It reports
// whether a new fetch started.
func (r *Resolver) find(ctx context.Context, req *Request) (bool, error) {
	if req.Parent != nil {
		req.Visibility = req.Parent.Visibility
	}

	key := fetchKey(req)
	if f, ok := r.fetching[key]; ok {
		switch {
		case !f.done:
			f.waiters = append(f.waiters, req)
		case f.ref != nil:
			r.join(f.ref, req)
		case !req.Optional:
			return false, f.err
		}
		return false, nil
	}
	r.fetching[key] = &fetchState{}

	r.inflight++
	r.wg.Add(1)
	go r.fetch(ctx, req)
	return true, nil
}

// join attaches req to an already resolved reference and schedules its
// visibility for propagation once the graph has converged.
func (r *Resolver) join(ref *Reference, req *Request) {
	ref.addRequest(req)
	ref.addOptional(req.Optional)
	ref.count(req.Visibility, 1)
	r.deferred = append(r.deferred, deferredVisibility{ref: ref, action: req.Visibility})
	req.ref = ref
}

// AddPattern maps pattern to m and indexes it under the package name.
func (r *Resolver) AddPattern(p string, m *Manifest) {
	r.patterns[p] = m
	byName := r.patternsByPackage[m.Name]
	if !slices.Contains(byName, p) {
		r.patternsByPackage[m.Name] = append(byName, p)
	}
}

// RemovePattern drops pattern from the map and the name index.
func (r *Resolver) RemovePattern(p string) {
	m, ok := r.patterns[p]
	if !ok {
		return
	}
	byName := slices.DeleteFunc(r.patternsByPackage[m.Name], func(s string) bool { return s == p })
	if len(byName) == 0 {
		delete(r.patternsByPackage, m.Name)
	} else {
		r.patternsByPackage[m.Name] = byName
	}
	delete(r.patterns, p)
}

// GetResolvedPattern returns the manifest for pattern, or nil.
func (r *Resolver) GetResolvedPattern(p string) *Manifest {
	return r.patterns[p]
}

// GetStrictResolvedPattern is GetResolvedPattern but fails for unknown
// patterns.
func (r *Resolver) GetStrictResolvedPattern(p string) (*Manifest, error) {
	m, ok := r.patterns[p]
	if !ok {
		return nil, errors.New(errors.ErrCodeInternal, "couldn't find resolved pattern %q", p)
	}
	return m, nil
}

// GetExactVersionMatch returns an already resolved manifest with the same
// name, version and remote, or nil. A nil remote matches any origin.
func (r *Resolver) GetExactVersionMatch(name, version string, remote *Remote) *Manifest {
	for _, p := range r.patternsByPackage[name] {
		m := r.patterns[p]
		if m != nil && m.Version == version && sameRemote(m.Remote, remote) {
			return m
		}
	}
	return nil
}

// PatternsByPackage returns the patterns resolved for name.
func (r *Resolver) PatternsByPackage(name string) []string {
	return slices.Clone(r.patternsByPackage[name])
}

// DedupePatterns keeps the first pattern for each distinct manifest and
// drops patterns that never resolved.
func (r *Resolver) DedupePatterns(patterns []string) []string {
	seen := make(map[*Manifest]bool, len(patterns))
	var out []string
	for _, p := range patterns {
		m := r.patterns[p]
		if m == nil || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, p)
	}
	return out
}

// Manifests returns every distinct resolved manifest sorted by name and
// version.
func (r *Resolver) Manifests() []*Manifest {
	seen := make(map[*Manifest]bool, len(r.patterns))
	var out []*Manifest
	for _, m := range r.patterns {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b *Manifest) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			constraint.Compare(a.Version, b.Version),
			cmp.Compare(a.loc(), b.loc()),
		)
	})
	return out
}

// Remove marks a resolved pattern as removed, hiding it and every package
// only it kept alive.
func (r *Resolver) Remove(p string) error {
	m, err := r.GetStrictResolvedPattern(p)
	if err != nil {
		return err
	}
	m.Reference.AddVisibility(RemovedAncestor, nil)
	return nil
}

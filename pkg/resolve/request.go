package resolve

import (
	"context"
	"slices"
	"time"

	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/observability"
	"github.com/matzehuels/hoister/pkg/pattern"
)

// Request is one resolution attempt for a single pattern.
//
// Parent links form the chain of who required whom; [Resolver.Why] and the
// peer dependency check walk it.
type Request struct {
	Pattern    string
	Registry   string
	Visibility VisibilityAction
	Optional   bool
	Parent     *Request

	ref     *Reference
	created bool     // ref was created by this request
	deps    []string // dependency patterns, recorded on completion
	waiting int      // dispatched children not yet complete
}

// Reference returns the reference this request resolved to, or nil if it
// failed.
func (q *Request) Reference() *Reference { return q.ref }

// Chain returns the patterns from the seed down to this request.
func (q *Request) Chain() []string {
	var chain []string
	for p := q; p != nil; p = p.Parent {
		chain = append(chain, p.Pattern)
	}
	slices.Reverse(chain)
	return chain
}

type result struct {
	req      *Request
	manifest *Manifest
	fresh    bool
	err      error
	elapsed  time.Duration
}

// fetch resolves one request off the collector goroutine.
func (r *Resolver) fetch(ctx context.Context, req *Request) {
	defer r.wg.Done()

	start := time.Now()
	m, fresh, err := r.resolveVersionInfo(ctx, req)
	res := result{req: req, manifest: m, fresh: fresh, err: err, elapsed: time.Since(start)}

	select {
	case r.results <- res:
	case <-ctx.Done():
	}
}

func (r *Resolver) resolveVersionInfo(ctx context.Context, req *Request) (*Manifest, bool, error) {
	if r.opts.Lockfile != nil {
		if locked, ok := r.opts.Lockfile.Locked(req.Pattern); ok {
			return locked.Manifest(req.Registry), false, nil
		}
	}

	p, err := pattern.Parse(req.Pattern)
	if err != nil {
		return nil, false, err
	}

	var resolve func() (*Manifest, error)
	if p.Kind.IsExotic() {
		ex, ok := r.opts.Exotic[p.Kind]
		if !ok {
			return nil, false, errors.New(errors.ErrCodeUnsupported, "no resolver for %s patterns", p.Kind).For(req.Pattern)
		}
		resolve = func() (*Manifest, error) { return ex.Resolve(ctx, p) }
	} else {
		reg, ok := r.opts.Registries[req.Registry]
		if !ok {
			return nil, false, errors.New(errors.ErrCodeUnsupported, "unknown registry %q", req.Registry).For(req.Pattern)
		}
		resolve = func() (*Manifest, error) { return reg.Resolve(ctx, p.Name, p.Range) }
	}

	if err := r.opts.Limiter.Acquire(ctx, 1); err != nil {
		return nil, false, err
	}
	m, err := resolve()
	r.opts.Limiter.Release(1)

	if err != nil || m == nil {
		msg := "couldn't find package on the %q registry"
		args := []any{req.Registry}
		if req.Parent != nil {
			msg += " (required by %q)"
			args = append(args, req.Parent.Pattern)
		}
		return nil, false, errors.Wrap(errors.ErrCodePackageNotFound, err, msg, args...).For(req.Pattern)
	}
	return m, true, nil
}

// handle runs on the collector goroutine and is the only place resolver
// state changes during Init.
func (r *Resolver) handle(ctx context.Context, res result) error {
	req := res.req
	f := r.fetching[fetchKey(req)]
	f.done = true

	err := res.err
	if err == nil {
		err = r.attach(ctx, req, res.manifest, res.fresh)
	}

	waiters := f.waiters
	f.waiters = nil
	if err != nil {
		f.err = err
		if !req.Optional {
			return err
		}
		for _, w := range waiters {
			if !w.Optional {
				return err
			}
		}
		r.log.Warn("optional dependency failed", "pattern", req.Pattern, "err", errors.UserMessage(err))
		r.complete(req)
		return nil
	}

	f.ref = req.ref
	for _, w := range waiters {
		r.join(f.ref, w)
	}

	r.log.Debug("resolved", "pattern", req.Pattern, "to", req.ref.manifest.ID(), "fresh", res.fresh)
	observability.Resolve().OnPatternResolved(ctx, req.Pattern, res.fresh, res.elapsed)
	return nil
}

// attach ties a resolved manifest into the graph: onto an existing
// reference when the same version is already known, otherwise onto a new
// one whose dependencies are then requested.
func (r *Resolver) attach(ctx context.Context, req *Request, m *Manifest, fresh bool) error {
	if m.Remote == nil {
		m.Remote = &Remote{Type: RemoteRegistry}
	}
	if m.Remote.Registry == "" {
		m.Remote.Registry = req.Registry
	}

	if existing := r.GetExactVersionMatch(m.Name, m.Version, m.Remote); existing != nil && existing.Reference != nil {
		existing.Reference.addPattern(req.Pattern, existing)
		r.join(existing.Reference, req)
		r.complete(req)
		return nil
	}

	if err := m.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "invalid manifest").For(req.Pattern)
	}

	ref := newReference(r, req, m, fresh)
	m.Reference = ref
	ref.addPattern(req.Pattern, m)
	ref.addOptional(req.Optional)
	ref.count(req.Visibility, 1)
	req.ref = ref
	req.created = true

	for _, dep := range dependencyRequests(m) {
		req.deps = append(req.deps, dep.pattern)
		child := &Request{
			Pattern:  dep.pattern,
			Registry: m.Remote.Registry,
			Optional: req.Optional || dep.optional,
			Parent:   req,
		}
		started, err := r.find(ctx, child)
		if err != nil {
			return err
		}
		if started {
			req.waiting++
		}
	}
	if req.waiting == 0 {
		r.complete(req)
	}
	return nil
}

// complete records dependencies and notifies the parent once every
// dispatched child has completed.
func (r *Resolver) complete(req *Request) {
	if req.created {
		req.ref.addDependencies(req.deps)
	}
	if p := req.Parent; p != nil {
		p.waiting--
		if p.waiting == 0 {
			r.complete(p)
		}
	}
}

type depRequest struct {
	pattern  string
	optional bool
}

// dependencyRequests lists child patterns sorted by name. An entry in
// optionalDependencies overrides a same-named entry in dependencies.
func dependencyRequests(m *Manifest) []depRequest {
	ranges := make(map[string]depRequest, len(m.Dependencies)+len(m.OptionalDependencies))
	for name, rng := range m.Dependencies {
		ranges[name] = depRequest{pattern: pattern.Join(name, rng)}
	}
	for name, rng := range m.OptionalDependencies {
		ranges[name] = depRequest{pattern: pattern.Join(name, rng), optional: true}
	}

	names := make([]string, 0, len(ranges))
	for name := range ranges {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]depRequest, 0, len(names))
	for _, name := range names {
		out = append(out, ranges[name])
	}
	return out
}

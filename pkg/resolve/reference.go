package resolve

import "slices"

// VisibilityAction is one of the counters that decide whether a reference
// is live.
type VisibilityAction int

const (
	Used VisibilityAction = iota
	EnvironmentIgnore
	RemovedAncestor
)

var visibilityNames = [...]string{"used", "environment-ignore", "removed-ancestor"}

func (a VisibilityAction) String() string {
	if a < 0 || int(a) >= len(visibilityNames) {
		return "unknown"
	}
	return visibilityNames[a]
}

// Reference is the bookkeeping attached to one resolved manifest identity.
type Reference struct {
	resolver *Resolver
	manifest *Manifest

	patterns     []string
	requests     []*Request
	dependencies []string
	visibility   [len(visibilityNames)]int

	optional    bool
	optionalSet bool
	ignore      bool
	fresh       bool
	location    string
}

func newReference(r *Resolver, req *Request, m *Manifest, fresh bool) *Reference {
	ref := &Reference{
		resolver: r,
		manifest: m,
		fresh:    fresh,
		location: m.loc(),
		ignore:   true,
	}
	ref.addRequest(req)
	return ref
}

// Manifest returns the manifest this reference belongs to.
func (r *Reference) Manifest() *Manifest { return r.manifest }

// Patterns returns the patterns that resolved to this reference.
func (r *Reference) Patterns() []string { return slices.Clone(r.patterns) }

// Requests returns the requests that discovered this reference.
func (r *Reference) Requests() []*Request { return slices.Clone(r.requests) }

// Dependencies returns the recorded dependency patterns, sorted.
func (r *Reference) Dependencies() []string { return slices.Clone(r.dependencies) }

// Visibility returns the counter for action.
func (r *Reference) Visibility(action VisibilityAction) int { return r.visibility[action] }

// Optional reports whether every request for this reference was optional.
func (r *Reference) Optional() bool { return r.optionalSet && r.optional }

// Ignore reports whether the reference is not live.
func (r *Reference) Ignore() bool { return r.ignore }

// Fresh reports whether the manifest was resolved rather than read from a
// lockfile.
func (r *Reference) Fresh() bool { return r.fresh }

// Location is the identity string shared by all patterns of the reference.
func (r *Reference) Location() string { return r.location }

func (r *Reference) addRequest(req *Request) {
	r.requests = append(r.requests, req)
}

func (r *Reference) addPattern(p string, m *Manifest) {
	r.resolver.AddPattern(p, m)
	if !slices.Contains(r.patterns, p) {
		r.patterns = append(r.patterns, p)
	}
}

// addOptional keeps the reference optional only while every request is.
func (r *Reference) addOptional(optional bool) {
	if !r.optionalSet {
		r.optional = optional
		r.optionalSet = true
		return
	}
	if !optional {
		r.optional = false
	}
}

func (r *Reference) addDependencies(deps []string) {
	for _, d := range deps {
		if !slices.Contains(r.dependencies, d) {
			r.dependencies = append(r.dependencies, d)
		}
	}
	slices.Sort(r.dependencies)
}

// prune removes every pattern of the reference from the resolver.
func (r *Reference) prune() {
	for _, p := range r.patterns {
		r.resolver.RemovePattern(p)
	}
}

// count increments a visibility counter without propagating it.
func (r *Reference) count(action VisibilityAction, n int) {
	r.visibility[action] += n
	r.calculateVisibility()
}

func (r *Reference) calculateVisibility() {
	used := r.visibility[Used]
	r.ignore = used == 0 || r.visibility[RemovedAncestor] >= used
}

// AddVisibility increments action on r and propagates it to every dependency
// reachable from r. ancestry guards cycles for this call only; pass nil to
// start a new propagation.
func (r *Reference) AddVisibility(action VisibilityAction, ancestry map[*Reference]bool) {
	if ancestry == nil {
		ancestry = make(map[*Reference]bool)
	}
	r.count(action, 1)

	if ancestry[r] {
		return
	}
	ancestry[r] = true
	r.propagate(action, ancestry)
}

func (r *Reference) propagate(action VisibilityAction, ancestry map[*Reference]bool) {
	for _, p := range r.dependencies {
		m := r.resolver.GetResolvedPattern(p)
		if m == nil || m.Reference == nil {
			continue
		}
		m.Reference.AddVisibility(action, ancestry)
	}
}

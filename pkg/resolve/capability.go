package resolve

import (
	"context"
	"maps"

	"github.com/matzehuels/hoister/pkg/pattern"
)

// Registry resolves name@range patterns against one package registry.
//
// Implementations must be safe for concurrent use and must return a manifest
// the resolver may own: the resolver attaches its [Reference] to it.
// Caching is the implementation's concern.
type Registry interface {
	Resolve(ctx context.Context, name, rng string) (*Manifest, error)
}

// ExoticResolver resolves patterns of one exotic [pattern.Kind].
type ExoticResolver interface {
	Resolve(ctx context.Context, p pattern.Pattern) (*Manifest, error)
}

// RegistryFunc adapts a function to [Registry].
type RegistryFunc func(ctx context.Context, name, rng string) (*Manifest, error)

// Resolve calls f.
func (f RegistryFunc) Resolve(ctx context.Context, name, rng string) (*Manifest, error) {
	return f(ctx, name, rng)
}

// ExoticFunc adapts a function to [ExoticResolver].
type ExoticFunc func(ctx context.Context, p pattern.Pattern) (*Manifest, error)

// Resolve calls f.
func (f ExoticFunc) Resolve(ctx context.Context, p pattern.Pattern) (*Manifest, error) {
	return f(ctx, p)
}

// Lockfile returns previously pinned results for a pattern.
type Lockfile interface {
	Locked(pattern string) (*LockedManifest, bool)
}

// LockedManifest is the stub a lockfile records for one pattern.
type LockedManifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	UID                  string            `json:"uid,omitempty"`
	Registry             string            `json:"registry,omitempty"`
	Type                 RemoteType        `json:"type,omitempty"`
	Resolved             string            `json:"resolved,omitempty"`
	Integrity            string            `json:"integrity,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
}

// Manifest builds a fresh manifest from the stub. registry is used when the
// stub does not record one.
func (l *LockedManifest) Manifest(registry string) *Manifest {
	typ := l.Type
	if typ == "" {
		typ = RemoteRegistry
	}
	if l.Registry != "" {
		registry = l.Registry
	}
	return &Manifest{
		Name:                 l.Name,
		Version:              l.Version,
		UID:                  l.UID,
		Dependencies:         maps.Clone(l.Dependencies),
		OptionalDependencies: maps.Clone(l.OptionalDependencies),
		Remote: &Remote{
			Type:      typ,
			Registry:  registry,
			Reference: l.Resolved,
			Hash:      l.Integrity,
		},
	}
}

// Limiter bounds concurrent capability calls. [golang.org/x/sync/semaphore]
// satisfies it.
type Limiter interface {
	Acquire(ctx context.Context, n int64) error
	Release(n int64)
}

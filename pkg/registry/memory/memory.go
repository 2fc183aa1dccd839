// Package memory provides an in-process registry backed by fixtures.
//
// Fixtures are JSON documents:
//
//	{
//	  "packages": [
//	    {"name": "lodash", "version": "4.17.21"},
//	    {"name": "left-pad", "version": "1.3.0", "dependencies": {"lodash": "^3.0.0"}}
//	  ],
//	  "dist-tags": {"lodash": {"latest": "4.17.21"}}
//	}
package memory

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/hoister/pkg/constraint"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/resolve"
)

// Fixture is the on-disk form of a set of packages.
type Fixture struct {
	Packages []*resolve.Manifest          `json:"packages"`
	DistTags map[string]map[string]string `json:"dist-tags,omitempty"`
}

// Registry is safe for concurrent use. Resolve always returns a copy.
type Registry struct {
	name        string
	constraints constraint.Resolver

	mu       sync.RWMutex
	packages map[string]map[string]*resolve.Manifest
	tags     map[string]map[string]string
}

var _ resolve.Registry = (*Registry)(nil)

// New creates an empty registry. Manifests added without a remote are
// recorded as belonging to name.
func New(name string) *Registry {
	return &Registry{
		name:        name,
		constraints: constraint.Semver{},
		packages:    make(map[string]map[string]*resolve.Manifest),
		tags:        make(map[string]map[string]string),
	}
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

// Add registers manifests, replacing any with the same name and version.
func (r *Registry) Add(manifests ...*resolve.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range manifests {
		m = m.Clone()
		if m.UID == "" {
			m.UID = m.Version
		}
		if m.Remote == nil {
			m.Remote = &resolve.Remote{Type: resolve.RemoteRegistry, Registry: r.name}
		}
		if err := m.Validate(); err != nil {
			return err
		}
		versions, ok := r.packages[m.Name]
		if !ok {
			versions = make(map[string]*resolve.Manifest)
			r.packages[m.Name] = versions
		}
		versions[m.Version] = m
	}
	return nil
}

// Tag points a dist-tag of name at version.
func (r *Registry) Tag(name, tag, version string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tags, ok := r.tags[name]
	if !ok {
		tags = make(map[string]string)
		r.tags[name] = tags
	}
	tags[tag] = version
}

// Versions returns the registered versions of name in ascending order.
func (r *Registry) Versions(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := make([]string, 0, len(r.packages[name]))
	for v := range r.packages[name] {
		versions = append(versions, v)
	}
	slices.SortFunc(versions, constraint.Compare)
	return versions
}

// Resolve returns a copy of the manifest rng selects. A dist-tag wins over a
// range match.
func (r *Registry) Resolve(ctx context.Context, name, rng string) (*resolve.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	versions, ok := r.packages[name]
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "%s: package %q not found", r.name, name)
	}
	if v, ok := r.tags[name][rng]; ok {
		if m, ok := versions[v]; ok {
			return m.Clone(), nil
		}
	}

	candidates := make([]string, 0, len(versions))
	for v := range versions {
		candidates = append(candidates, v)
	}
	slices.Sort(candidates)
	v, ok := r.constraints.ResolveConstraints(candidates, rng)
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "%s: no version of %q satisfies %q", r.name, name, rng)
	}
	return versions[v].Clone(), nil
}

// Load decodes a fixture from rd and adds its contents.
func (r *Registry) Load(rd io.Reader) error {
	var f Fixture
	if err := json.NewDecoder(rd).Decode(&f); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode fixture")
	}
	return r.apply(f)
}

func (r *Registry) apply(f Fixture) error {
	if err := r.Add(f.Packages...); err != nil {
		return err
	}
	for name, tags := range f.DistTags {
		for tag, v := range tags {
			r.Tag(name, tag, v)
		}
	}
	return nil
}

// LoadFiles reads fixture files concurrently into a new registry.
func LoadFiles(ctx context.Context, name string, paths ...string) (*Registry, error) {
	fixtures := make([]Fixture, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return errors.Wrap(errors.ErrCodeFileNotFound, err, "read fixture %s", path)
			}
			if err := json.Unmarshal(data, &fixtures[i]); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode fixture %s", path)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Applied in argument order so later files override earlier ones.
	r := New(name)
	for _, f := range fixtures {
		if err := r.apply(f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

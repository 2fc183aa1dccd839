// Package npm resolves registry patterns against an npm-compatible registry.
//
// The packument (GET <base>/<name>) is cached through [registry.Client] and
// so is the manifest chosen for each name@range. A range that names a
// dist-tag selects that tag's version. Otherwise the highest satisfying
// version wins, except that the "latest" tag is preferred whenever it
// satisfies the range.
package npm

import (
	"context"
	"slices"
	"strings"

	"github.com/matzehuels/hoister/pkg/constraint"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/registry"
	"github.com/matzehuels/hoister/pkg/resolve"
)

const (
	DefaultName    = "npm"
	DefaultBaseURL = "https://registry.npmjs.org"
)

// Options configures a [Registry].
type Options struct {
	Name        string              // registry name recorded on manifests (default: "npm")
	BaseURL     string              // default: registry.npmjs.org
	Client      *registry.Client    // default: uncached client
	Constraints constraint.Resolver // default: constraint.Semver
	Refresh     bool                // bypass cached entries
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	opts := o
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Client == nil {
		opts.Client = registry.NewClient(registry.ClientOptions{})
	}
	if opts.Constraints == nil {
		opts.Constraints = constraint.Semver{}
	}
	return opts
}

// Registry is safe for concurrent use.
type Registry struct {
	opts Options
}

var _ resolve.Registry = (*Registry)(nil)

// New creates a Registry.
func New(opts Options) *Registry {
	return &Registry{opts: opts.WithDefaults()}
}

type packument struct {
	Name     string                 `json:"name"`
	DistTags map[string]string      `json:"dist-tags"`
	Versions map[string]versionInfo `json:"versions"`
}

type versionInfo struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	Dist                 dist              `json:"dist"`
}

type dist struct {
	Tarball   string `json:"tarball"`
	Integrity string `json:"integrity,omitempty"`
	Shasum    string `json:"shasum,omitempty"`
}

// Resolve returns the manifest of the version of name that rng selects.
func (r *Registry) Resolve(ctx context.Context, name, rng string) (*resolve.Manifest, error) {
	if err := errors.ValidateNpmPackageName(name); err != nil {
		return nil, err
	}

	c := r.opts.Client
	key := c.Keys().ResolutionKey(r.opts.Name, name, rng)

	var m resolve.Manifest
	if !r.opts.Refresh && c.Lookup(ctx, key, "resolution", &m) {
		return &m, nil
	}

	p, err := r.packument(ctx, name)
	if err != nil {
		return nil, err
	}
	version, ok := r.choose(p, rng)
	if !ok {
		return nil, errors.New(errors.ErrCodePackageNotFound, "no version of %q satisfies %q", name, rng)
	}

	m = *r.manifest(name, version, p.Versions[version])
	c.Store(ctx, key, "resolution", &m)
	return &m, nil
}

func (r *Registry) packument(ctx context.Context, name string) (*packument, error) {
	c := r.opts.Client
	url := r.opts.BaseURL + "/" + escapeName(name)

	var p packument
	err := c.Cached(ctx, c.Keys().HTTPKey(r.opts.Name, name), "http", r.opts.Refresh, &p, func() error {
		return c.Get(ctx, url, &p)
	})
	if err != nil {
		return nil, err
	}
	if len(p.Versions) == 0 {
		return nil, errors.New(errors.ErrCodePackageNotFound, "%q has no published versions", name)
	}
	return &p, nil
}

func (r *Registry) choose(p *packument, rng string) (string, bool) {
	if v, ok := p.DistTags[rng]; ok {
		_, exists := p.Versions[v]
		return v, exists
	}

	if latest, ok := p.DistTags["latest"]; ok {
		if _, exists := p.Versions[latest]; exists && constraint.Satisfies(latest, rng) {
			return latest, true
		}
	}

	versions := make([]string, 0, len(p.Versions))
	for v := range p.Versions {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return r.opts.Constraints.ResolveConstraints(versions, rng)
}

func (r *Registry) manifest(name, version string, info versionInfo) *resolve.Manifest {
	hash := info.Dist.Integrity
	if hash == "" {
		hash = info.Dist.Shasum
	}
	if info.Name != "" {
		name = info.Name
	}
	return &resolve.Manifest{
		Name:                 name,
		Version:              version,
		UID:                  version,
		Dependencies:         info.Dependencies,
		OptionalDependencies: info.OptionalDependencies,
		PeerDependencies:     info.PeerDependencies,
		Remote: &resolve.Remote{
			Type:      resolve.RemoteRegistry,
			Registry:  r.opts.Name,
			Reference: info.Dist.Tarball,
			Hash:      hash,
		},
	}
}

// escapeName encodes the scope separator the way the npm registry expects:
// "@scope/pkg" becomes "@scope%2fpkg".
func escapeName(name string) string {
	if strings.HasPrefix(name, "@") {
		return strings.Replace(name, "/", "%2f", 1)
	}
	return name
}

package resolve

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/hoister/pkg/constraint"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/pattern"
)

// fakeRegistry serves manifests by name and counts Resolve calls per
// name@range.
type fakeRegistry struct {
	mu       sync.Mutex
	versions map[string][]*Manifest
	calls    map[string]int
}

func newFakeRegistry(manifests ...*Manifest) *fakeRegistry {
	f := &fakeRegistry{versions: make(map[string][]*Manifest), calls: make(map[string]int)}
	for _, m := range manifests {
		f.versions[m.Name] = append(f.versions[m.Name], m)
	}
	return f
}

func (f *fakeRegistry) Resolve(_ context.Context, name, rng string) (*Manifest, error) {
	f.mu.Lock()
	f.calls[name+"@"+rng]++
	f.mu.Unlock()

	var versions []string
	for _, m := range f.versions[name] {
		versions = append(versions, m.Version)
	}
	v, ok := constraint.Semver{}.ResolveConstraints(versions, rng)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no version of %s matches %s", name, rng)
	}
	for _, m := range f.versions[name] {
		if m.Version == v {
			return m.Clone(), nil
		}
	}
	return nil, nil
}

func (f *fakeRegistry) callCount(p string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[p]
}

// pkg builds a manifest; deps are "name@range" strings.
func pkg(name, version string, deps ...string) *Manifest {
	m := &Manifest{Name: name, Version: version}
	for _, d := range deps {
		n, rng, _ := pattern.Normalize(d)
		if m.Dependencies == nil {
			m.Dependencies = make(map[string]string)
		}
		m.Dependencies[n] = rng
	}
	return m
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(&strings.Builder{}, log.Options{Level: log.ErrorLevel})
}

func newTestResolver(reg Registry, opts ...func(*Options)) *Resolver {
	o := Options{
		Registries: map[string]Registry{DefaultRegistry: reg},
		Logger:     quietLogger(),
	}
	for _, fn := range opts {
		fn(&o)
	}
	return New(o)
}

func seeds(patterns ...string) []Seed {
	out := make([]Seed, len(patterns))
	for i, p := range patterns {
		out[i] = Seed{Pattern: p}
	}
	return out
}

func lodashGraph() *fakeRegistry {
	return newFakeRegistry(
		pkg("app", "1.0.0", "lodash@^4.0.0", "left-pad@^1.0.0"),
		pkg("left-pad", "1.3.0", "lodash@^3.0.0"),
		pkg("lodash", "3.10.1"),
		pkg("lodash", "4.17.21"),
	)
}

func TestDiamondConvergesToOneReference(t *testing.T) {
	reg := newFakeRegistry(
		pkg("a", "1.0.0", "b@^1.0.0", "c@^1.0.0"),
		pkg("b", "1.0.0", "d@^1.0.0"),
		pkg("c", "1.0.0", "d@^1.0.0"),
		pkg("d", "1.0.0"),
		pkg("d", "1.2.0"),
	)
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("a@1.0.0")))
	require.True(t, r.Converged())

	d := r.GetResolvedPattern("d@^1.0.0")
	require.NotNil(t, d)
	assert.Equal(t, "1.2.0", d.Version)
	assert.Equal(t, []string{"d@^1.0.0"}, d.Reference.Patterns())
	assert.Equal(t, 1, reg.callCount("d@^1.0.0"), "duplicate pattern must be fetched once")

	var ds int
	for _, m := range r.Manifests() {
		if m.Name == "d" {
			ds++
		}
	}
	assert.Equal(t, 1, ds)

	b := r.GetResolvedPattern("b@^1.0.0")
	c := r.GetResolvedPattern("c@^1.0.0")
	assert.Equal(t, []string{"d@^1.0.0"}, b.Reference.Dependencies())
	assert.Equal(t, []string{"d@^1.0.0"}, c.Reference.Dependencies())
}

func TestSeedsShareDependency(t *testing.T) {
	reg := newFakeRegistry(
		pkg("a", "1.0.0", "c@2.0.0"),
		pkg("b", "1.0.0", "c@^2.0.0"),
		pkg("c", "2.0.0"),
	)
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("a@1.0.0", "b@1.0.0")))

	c1 := r.GetResolvedPattern("c@2.0.0")
	c2 := r.GetResolvedPattern("c@^2.0.0")
	require.NotNil(t, c1)
	assert.Same(t, c1, c2)
	assert.ElementsMatch(t, []string{"c@2.0.0", "c@^2.0.0"}, c1.Reference.Patterns())
	assert.Len(t, c1.Reference.Requests(), 2)
	assert.Equal(t, 2, c1.Reference.Visibility(Used))
	assert.Len(t, r.DedupePatterns(r.PatternsByPackage("c")), 1)
}

func TestLodashResolvesTwoVersions(t *testing.T) {
	r := newTestResolver(lodashGraph())
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))

	l4 := r.GetResolvedPattern("lodash@^4.0.0")
	l3 := r.GetResolvedPattern("lodash@^3.0.0")
	require.NotNil(t, l4)
	require.NotNil(t, l3)
	assert.Equal(t, "4.17.21", l4.Version)
	assert.Equal(t, "3.10.1", l3.Version)
	assert.NotSame(t, l4.Reference, l3.Reference)
	assert.Equal(t, []string{"app@1.0.0"}, r.SeedPatterns())
	assert.NotEmpty(t, r.RunID())
	assert.Equal(t, "npm:lodash@4.17.21", l4.Reference.Location())
	assert.True(t, l4.Reference.Fresh())
}

func TestRequiredFailureIsFatal(t *testing.T) {
	reg := newFakeRegistry(pkg("app", "1.0.0", "ghost@^1.0.0"))
	r := newTestResolver(reg)

	err := r.Init(context.Background(), seeds("app@1.0.0"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePackageNotFound))
	assert.Contains(t, errors.UserMessage(err), "ghost@^1.0.0")
	assert.Contains(t, errors.UserMessage(err), `required by "app@1.0.0"`)
	assert.Equal(t, "ghost@^1.0.0", errors.PatternOf(err))
	assert.False(t, r.Converged())
}

func TestOptionalFailureIsNotFatal(t *testing.T) {
	app := pkg("app", "1.0.0", "left-pad@^1.0.0")
	app.OptionalDependencies = map[string]string{"fsevents": "^2.0.0", "ghost": "^1.0.0"}
	reg := newFakeRegistry(app, pkg("left-pad", "1.3.0"), pkg("fsevents", "2.3.3"))
	r := newTestResolver(reg)

	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))
	assert.Nil(t, r.GetResolvedPattern("ghost@^1.0.0"))

	fsevents := r.GetResolvedPattern("fsevents@^2.0.0")
	require.NotNil(t, fsevents)
	assert.True(t, fsevents.Reference.Optional())
	assert.False(t, r.GetResolvedPattern("left-pad@^1.0.0").Reference.Optional())

	deps := r.GetResolvedPattern("app@1.0.0").Reference.Dependencies()
	assert.Equal(t, []string{"fsevents@^2.0.0", "ghost@^1.0.0", "left-pad@^1.0.0"}, deps)
}

func TestOptionalOverridesDependency(t *testing.T) {
	app := pkg("app", "1.0.0", "fsevents@^1.0.0")
	app.OptionalDependencies = map[string]string{"fsevents": "^2.0.0"}
	r := newTestResolver(newFakeRegistry(app, pkg("fsevents", "1.0.0"), pkg("fsevents", "2.0.0")))

	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))
	assert.Nil(t, r.GetResolvedPattern("fsevents@^1.0.0"))
	assert.True(t, r.GetResolvedPattern("fsevents@^2.0.0").Reference.Optional())
}

func TestOptionalBecomesRequired(t *testing.T) {
	app := pkg("app", "1.0.0", "b@^1.0.0", "shared@1.0.0")
	app.OptionalDependencies = map[string]string{"opt": "^1.0.0"}
	reg := newFakeRegistry(app,
		pkg("b", "1.0.0"),
		pkg("opt", "1.0.0", "shared@^1.0.0"),
		pkg("shared", "1.0.0"),
	)
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))

	shared := r.GetResolvedPattern("shared@1.0.0")
	assert.False(t, shared.Reference.Optional(), "a required request makes the reference required")
	assert.True(t, r.GetResolvedPattern("opt@^1.0.0").Reference.Optional())
}

func TestUnsupportedExotic(t *testing.T) {
	reg := newFakeRegistry(pkg("app", "1.0.0", "foo@github:user/foo#v1"))
	r := newTestResolver(reg)

	err := r.Init(context.Background(), seeds("app@1.0.0"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnsupported, errors.GetCode(err))
	assert.Equal(t, "foo@github:user/foo#v1", errors.PatternOf(err))
}

type fakeExotic struct{ calls atomic.Int32 }

func (f *fakeExotic) Resolve(_ context.Context, p pattern.Pattern) (*Manifest, error) {
	f.calls.Add(1)
	return &Manifest{
		Name:    p.NameHint(),
		Version: "0.0.0",
		Remote:  &Remote{Type: RemoteFile, Reference: strings.TrimPrefix(p.Range, "file:")},
	}, nil
}

func TestExoticDispatch(t *testing.T) {
	reg := newFakeRegistry(pkg("app", "1.0.0", "shared@file:../shared", "other@file:../other-shared"))
	ex := &fakeExotic{}
	r := newTestResolver(reg, func(o *Options) {
		o.Exotic = map[pattern.Kind]ExoticResolver{pattern.File: ex}
	})

	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))
	assert.Equal(t, int32(2), ex.calls.Load())

	shared := r.GetResolvedPattern("shared@file:../shared")
	require.NotNil(t, shared)
	assert.Equal(t, "shared", shared.Name)
	assert.Equal(t, "npm", shared.Registry())
	assert.Equal(t, "npm:shared@0.0.0#file:../shared", shared.Reference.Location())
}

func TestExoticSameVersionDifferentRemote(t *testing.T) {
	exotic := ExoticFunc(func(_ context.Context, p pattern.Pattern) (*Manifest, error) {
		return &Manifest{Name: "shared", Version: "1.0.0", Remote: &Remote{Type: RemoteFile, Reference: p.Range}}, nil
	})
	reg := newFakeRegistry(pkg("app", "1.0.0", "a@file:./a", "b@file:./b"))
	r := newTestResolver(reg, func(o *Options) {
		o.Exotic = map[pattern.Kind]ExoticResolver{pattern.File: exotic}
	})

	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))
	a := r.GetResolvedPattern("a@file:./a")
	b := r.GetResolvedPattern("b@file:./b")
	assert.NotSame(t, a, b, "different remotes must not converge")
}

type mapLockfile map[string]*LockedManifest

func (l mapLockfile) Locked(p string) (*LockedManifest, bool) {
	m, ok := l[p]
	return m, ok
}

func TestLockfileShortCircuits(t *testing.T) {
	reg := newFakeRegistry(
		pkg("app", "1.0.0", "lodash@^4.0.0"),
		pkg("lodash", "4.17.21"),
		pkg("lodash", "4.17.20"),
	)
	lock := mapLockfile{
		"lodash@^4.0.0": {Name: "lodash", Version: "4.17.20", Resolved: "https://r/lodash-4.17.20.tgz"},
	}
	r := newTestResolver(reg, func(o *Options) { o.Lockfile = lock })

	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))
	assert.Equal(t, 0, reg.callCount("lodash@^4.0.0"))

	l := r.GetResolvedPattern("lodash@^4.0.0")
	assert.Equal(t, "4.17.20", l.Version)
	assert.False(t, l.Reference.Fresh())
	assert.True(t, r.GetResolvedPattern("app@1.0.0").Reference.Fresh())
}

func TestInvalidManifestIsFatal(t *testing.T) {
	reg := RegistryFunc(func(_ context.Context, name, _ string) (*Manifest, error) {
		return &Manifest{Name: name}, nil
	})
	r := newTestResolver(reg)

	err := r.Init(context.Background(), seeds("app@1.0.0"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidManifest, errors.GetCode(err))
}

func TestVisibilityAlongIndependentPaths(t *testing.T) {
	reg := newFakeRegistry(
		pkg("a", "1.0.0", "b@^1.0.0"),
		pkg("b", "1.0.0", "c@^1.0.0"),
		pkg("d", "1.0.0", "c@1.0.0"),
		pkg("c", "1.0.0"),
	)
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("a@1.0.0", "d@1.0.0")))

	a := r.GetResolvedPattern("a@1.0.0").Reference
	b := r.GetResolvedPattern("b@^1.0.0").Reference
	c := r.GetResolvedPattern("c@^1.0.0").Reference
	assert.Equal(t, 1, b.Visibility(Used))
	assert.Equal(t, 2, c.Visibility(Used))
	assert.False(t, c.Ignore())

	require.NoError(t, r.Remove("a@1.0.0"))
	assert.True(t, a.Ignore())
	assert.True(t, b.Ignore())
	assert.False(t, c.Ignore(), "c is still used through d")
	assert.Equal(t, 1, c.Visibility(RemovedAncestor))

	require.NoError(t, r.Remove("d@1.0.0"))
	assert.True(t, c.Ignore())
}

func TestConvergedVisibilityReachesDependencies(t *testing.T) {
	reg := newFakeRegistry(
		pkg("x", "1.0.0", "y@^1.0.0"),
		pkg("y", "1.0.0", "z@^1.0.0"),
		pkg("z", "1.0.0"),
	)
	for range 5 {
		r := newTestResolver(reg)
		require.NoError(t, r.Init(context.Background(), seeds("x@^1.0.0", "x@1.0.0")))

		assert.Equal(t, 2, r.GetResolvedPattern("x@1.0.0").Reference.Visibility(Used))
		assert.Equal(t, 2, r.GetResolvedPattern("y@^1.0.0").Reference.Visibility(Used))
		assert.Equal(t, 2, r.GetResolvedPattern("z@^1.0.0").Reference.Visibility(Used))
	}
}

func TestEnvironmentIgnoreSeed(t *testing.T) {
	reg := newFakeRegistry(pkg("dev", "1.0.0", "helper@^1.0.0"), pkg("helper", "1.0.0"))
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), []Seed{{Pattern: "dev@1.0.0", Visibility: EnvironmentIgnore}}))

	helper := r.GetResolvedPattern("helper@^1.0.0").Reference
	assert.Equal(t, 0, helper.Visibility(Used))
	assert.Equal(t, 1, helper.Visibility(EnvironmentIgnore))
	assert.True(t, helper.Ignore())
}

func TestSharedDependencyVisibilityIgnoresFetchOrder(t *testing.T) {
	reg := newFakeRegistry(
		pkg("app", "1.0.0", "shared@^1.0.0"),
		pkg("devtool", "1.0.0", "shared@^1.0.0"),
		pkg("shared", "1.0.0", "leaf@^1.0.0"),
		pkg("leaf", "1.0.0"),
	)

	for _, slow := range []string{"app", "devtool", "shared"} {
		t.Run("slow "+slow, func(t *testing.T) {
			delayed := RegistryFunc(func(ctx context.Context, name, rng string) (*Manifest, error) {
				if name == slow {
					time.Sleep(50 * time.Millisecond)
				}
				return reg.Resolve(ctx, name, rng)
			})
			r := newTestResolver(delayed)
			require.NoError(t, r.Init(context.Background(), []Seed{
				{Pattern: "devtool@1.0.0", Visibility: EnvironmentIgnore},
				{Pattern: "app@1.0.0"},
			}))

			for _, p := range []string{"shared@^1.0.0", "leaf@^1.0.0"} {
				ref := r.GetResolvedPattern(p).Reference
				assert.Equal(t, 1, ref.Visibility(Used), p)
				assert.Equal(t, 1, ref.Visibility(EnvironmentIgnore), p)
				assert.False(t, ref.Ignore(), p)
			}
			assert.Len(t, r.Why("shared"), 2)
		})
	}
}

func TestRequiredRequestForFailedOptionalPattern(t *testing.T) {
	r := newTestResolver(newFakeRegistry())
	err := r.Init(context.Background(), []Seed{
		{Pattern: "ghost@^1.0.0", Optional: true},
		{Pattern: "ghost@^1.0.0"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodePackageNotFound))
}

func TestCycleTerminates(t *testing.T) {
	reg := newFakeRegistry(
		pkg("a", "1.0.0", "b@^1.0.0"),
		pkg("b", "1.0.0", "a@^1.0.0"),
	)
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("a@1.0.0")))

	a := r.GetResolvedPattern("a@1.0.0")
	assert.Same(t, a, r.GetResolvedPattern("a@^1.0.0"))
	require.NoError(t, r.Remove("a@1.0.0"))
	assert.Positive(t, a.Reference.Visibility(RemovedAncestor))
}

func TestDedupePatterns(t *testing.T) {
	r := newTestResolver(newFakeRegistry(pkg("c", "2.0.0")))
	require.NoError(t, r.Init(context.Background(), seeds("c@2.0.0", "c@^2.0.0", "c@latest")))

	got := r.DedupePatterns([]string{"c@^2.0.0", "missing@1", "c@2.0.0", "c@latest"})
	assert.Equal(t, []string{"c@^2.0.0"}, got)
}

func TestDuplicateSeedsFetchOnce(t *testing.T) {
	reg := newFakeRegistry(pkg("c", "2.0.0"))
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("c@2.0.0", "c@2.0.0")))
	assert.Equal(t, 1, reg.callCount("c@2.0.0"))
}

func TestFlattenCollapsesVersions(t *testing.T) {
	r := newTestResolver(lodashGraph())
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))
	require.NoError(t, r.Flatten(nil))

	l3 := r.GetResolvedPattern("lodash@^3.0.0")
	l4 := r.GetResolvedPattern("lodash@^4.0.0")
	assert.Same(t, l4, l3)
	assert.Equal(t, "4.17.21", l3.Version)
	assert.ElementsMatch(t, []string{"lodash@^4.0.0", "lodash@^3.0.0"}, l4.Reference.Patterns())
	assert.Equal(t, 2, l4.Reference.Visibility(Used))
	assert.Len(t, r.Why("lodash"), 2)
}

func TestCollapseWithChooser(t *testing.T) {
	r := newTestResolver(lodashGraph())
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))

	var offered []string
	err := r.Flatten(func(name string, versions []string) (string, error) {
		offered = versions
		return "3.10.1", nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"3.10.1", "4.17.21"}, offered)
	assert.Equal(t, "3.10.1", r.GetResolvedPattern("lodash@^4.0.0").Version)
}

func TestCollapseUnknownVersion(t *testing.T) {
	r := newTestResolver(lodashGraph())
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))

	_, err := r.CollapseAllVersionsOfPackage("lodash", "9.9.9")
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestPeerWarnings(t *testing.T) {
	plugin := pkg("plugin", "1.0.0")
	plugin.PeerDependencies = map[string]string{"host": "^2.0.0", "missing": "^1.0.0"}
	ok := pkg("ok-plugin", "1.0.0")
	ok.PeerDependencies = map[string]string{"host": "^1.0.0"}
	reg := newFakeRegistry(
		pkg("app", "1.0.0", "host@1.0.0", "plugin@^1.0.0", "ok-plugin@^1.0.0"),
		pkg("host", "1.0.0"),
		plugin, ok,
	)
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))

	warnings := r.PeerWarnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, PeerWarning{Package: "plugin@1.0.0", Peer: "host", Range: "^2.0.0", Found: "1.0.0"}, warnings[0])
	assert.Equal(t, "missing", warnings[1].Peer)
	assert.True(t, warnings[1].Missing())
}

func TestPeerFromSeeds(t *testing.T) {
	plugin := pkg("plugin", "1.0.0")
	plugin.PeerDependencies = map[string]string{"host": "^1.0.0"}
	reg := newFakeRegistry(plugin, pkg("host", "1.0.0"))
	r := newTestResolver(reg)
	require.NoError(t, r.Init(context.Background(), seeds("host@1.0.0", "plugin@1.0.0")))
	assert.Empty(t, r.PeerWarnings())
}

func TestWhy(t *testing.T) {
	r := newTestResolver(lodashGraph())
	require.NoError(t, r.Init(context.Background(), seeds("app@1.0.0")))

	assert.Equal(t, [][]string{
		{"app@1.0.0", "left-pad@^1.0.0", "lodash@^3.0.0"},
		{"app@1.0.0", "lodash@^4.0.0"},
	}, r.Why("lodash"))
	assert.Empty(t, r.Why("nothing"))
}

func TestInitTwice(t *testing.T) {
	r := newTestResolver(newFakeRegistry(pkg("c", "1.0.0")))
	require.NoError(t, r.Init(context.Background(), seeds("c@1.0.0")))
	err := r.Init(context.Background(), seeds("c@1.0.0"))
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestInitCanceled(t *testing.T) {
	reg := RegistryFunc(func(ctx context.Context, _, _ string) (*Manifest, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	r := newTestResolver(reg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	require.Error(t, r.Init(ctx, seeds("slow@1.0.0")))
	assert.False(t, r.Converged())
}

type countingLimiter struct {
	mu        sync.Mutex
	cur, peak int64
}

func (l *countingLimiter) Acquire(context.Context, int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cur++
	l.peak = max(l.peak, l.cur)
	return nil
}

func (l *countingLimiter) Release(int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cur--
}

func TestLimiterWrapsEveryCapabilityCall(t *testing.T) {
	var deps []string
	manifests := []*Manifest{}
	for _, n := range []string{"p1", "p2", "p3", "p4", "p5", "p6"} {
		deps = append(deps, n+"@^1.0.0")
		manifests = append(manifests, pkg(n, "1.0.0"))
	}
	manifests = append(manifests, pkg("root", "1.0.0", deps...))
	lim := &countingLimiter{}
	r := newTestResolver(newFakeRegistry(manifests...), func(o *Options) { o.Limiter = lim })

	require.NoError(t, r.Init(context.Background(), seeds("root@1.0.0")))
	assert.Equal(t, int64(0), lim.cur, "every acquire is released")
	assert.Positive(t, lim.peak)
}

func TestVisibilityActionString(t *testing.T) {
	assert.Equal(t, "used", Used.String())
	assert.Equal(t, "removed-ancestor", RemovedAncestor.String())
	assert.Equal(t, "unknown", VisibilityAction(7).String())
}

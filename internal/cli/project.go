package cli

import (
	"context"
	"io"
	"maps"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/matzehuels/hoister/pkg/cache"
	"github.com/matzehuels/hoister/pkg/config"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/hoist"
	"github.com/matzehuels/hoister/pkg/lockfile"
	"github.com/matzehuels/hoister/pkg/pattern"
	"github.com/matzehuels/hoister/pkg/registry"
	"github.com/matzehuels/hoister/pkg/registry/local"
	"github.com/matzehuels/hoister/pkg/registry/memory"
	"github.com/matzehuels/hoister/pkg/registry/npm"
	"github.com/matzehuels/hoister/pkg/resolve"
)

// resolveFlags are shared by every command that resolves a project.
type resolveFlags struct {
	flat           bool
	ignoreOptional bool
	production     bool
	fixtures       []string
	lockfile       string
	noLockfile     bool
	registryURL    string
	concurrency    int
}

func (f *resolveFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.flat, "flat", false, "collapse every package onto a single version")
	fs.BoolVar(&f.ignoreOptional, "ignore-optional", false, "leave out packages only reachable through optional dependencies")
	fs.BoolVar(&f.production, "production", false, "skip devDependencies")
	fs.StringSliceVar(&f.fixtures, "registry-fixture", nil, "resolve against JSON fixture files instead of the network")
	fs.StringVar(&f.lockfile, "lockfile", "", "lockfile path (default: <dir>/"+lockfile.FileName+")")
	fs.BoolVar(&f.noLockfile, "no-lockfile", false, "neither read nor write the lockfile")
	fs.StringVar(&f.registryURL, "registry-url", "", "registry base URL")
	fs.IntVar(&f.concurrency, "concurrency", 0, "concurrent registry requests")
}

// overlay applies explicitly set flags on top of cfg.
func (f *resolveFlags) overlay(cmd *cobra.Command, cfg config.Config) config.Config {
	fs := cmd.Flags()
	if fs.Changed("flat") {
		cfg.Flat = f.flat
	}
	if fs.Changed("ignore-optional") {
		cfg.IgnoreOptional = f.ignoreOptional
	}
	if fs.Changed("production") {
		cfg.Production = f.production
	}
	if f.registryURL != "" {
		cfg.RegistryURL = f.registryURL
	}
	if f.concurrency > 0 {
		cfg.Concurrency = f.concurrency
	}
	if f.lockfile != "" {
		cfg.Lockfile = f.lockfile
	}
	return cfg
}

// project is a directory with a package.json being resolved.
type project struct {
	dir      string
	pkg      *local.PackageJSON
	cfg      config.Config
	lockPath string
	lock     *lockfile.Lockfile // nil when absent or disabled
	fixtures []string
}

func (c *CLI) openProject(cmd *cobra.Command, args []string, f *resolveFlags) (*project, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "project directory")
	}

	pkg, err := local.ReadPackageJSON(dir)
	if err != nil {
		return nil, err
	}

	var cfg config.Config
	if c.configPath != "" {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.LoadOptional(filepath.Join(dir, config.FileName))
	}
	if err != nil {
		return nil, err
	}
	cfg = f.overlay(cmd, cfg)

	p := &project{dir: dir, pkg: pkg, cfg: cfg, fixtures: f.fixtures}
	p.lockPath = cfg.Lockfile
	if p.lockPath == "" {
		p.lockPath = filepath.Join(dir, lockfile.FileName)
	} else if !filepath.IsAbs(p.lockPath) {
		p.lockPath = filepath.Join(dir, p.lockPath)
	}

	if !f.noLockfile {
		lock, err := lockfile.Load(p.lockPath)
		switch {
		case err == nil:
			p.lock = lock
			c.Logger.Debug("using lockfile", "path", p.lockPath, "patterns", len(lock.Packages))
		case !errors.Is(err, errors.ErrCodeFileNotFound):
			return nil, err
		}
	}
	return p, nil
}

// seeds lists the top-level patterns: dependencies, then optional
// dependencies, then devDependencies unless producing a production layout.
// An optional entry replaces a same-named regular one.
func (p *project) seeds() []resolve.Seed {
	registryName := p.cfg.Registry
	var seeds []resolve.Seed
	add := func(deps map[string]string, optional bool, skip func(string) bool) {
		for _, name := range slices.Sorted(maps.Keys(deps)) {
			if skip(name) {
				continue
			}
			seeds = append(seeds, resolve.Seed{
				Pattern:  pattern.Join(name, deps[name]),
				Registry: registryName,
				Optional: optional,
			})
		}
	}

	add(p.pkg.Dependencies, false, func(name string) bool {
		_, ok := p.pkg.OptionalDependencies[name]
		return ok
	})
	add(p.pkg.OptionalDependencies, true, func(string) bool { return false })
	if !p.cfg.Production {
		add(p.pkg.DevDependencies, false, func(name string) bool {
			_, dep := p.pkg.Dependencies[name]
			_, opt := p.pkg.OptionalDependencies[name]
			return dep || opt
		})
	}
	return seeds
}

// registry builds the registry capability: fixtures when given, otherwise
// the HTTP registry behind the configured cache. The returned close func
// releases the cache.
func (c *CLI) registry(ctx context.Context, p *project) (resolve.Registry, func() error, error) {
	if len(p.fixtures) > 0 {
		reg, err := memory.LoadFiles(ctx, p.cfg.Registry, p.fixtures...)
		if err != nil {
			return nil, nil, err
		}
		return reg, func() error { return nil }, nil
	}

	store, err := c.openCache(ctx, p.cfg)
	if err != nil {
		return nil, nil, err
	}
	client := registry.NewClient(registry.ClientOptions{
		Cache: store,
		Keyer: cache.NewScopedKeyer(nil, p.cfg.RegistryURL+"|"),
		TTL:   p.cfg.Cache.TTL.Duration,
	})
	reg := npm.New(npm.Options{
		Name:    p.cfg.Registry,
		BaseURL: p.cfg.RegistryURL,
		Client:  client,
		Refresh: c.refresh,
	})
	return reg, store.Close, nil
}

func (c *CLI) openCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		return cache.DialRedis(ctx, cfg.Cache.RedisAddr, appName+":")
	}

	dir := cfg.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.NewFileCache(dir)
}

// resolve runs the resolver over the project's seeds and applies flat mode.
func (c *CLI) resolve(ctx context.Context, w io.Writer, p *project) (*resolve.Resolver, error) {
	reg, closeRegistry, err := c.registry(ctx, p)
	if err != nil {
		return nil, err
	}
	defer closeRegistry()

	opts := resolve.Options{
		Registries: map[string]resolve.Registry{p.cfg.Registry: reg},
		Exotic: map[pattern.Kind]resolve.ExoticResolver{
			pattern.File: local.New(p.dir),
			pattern.Link: local.New(p.dir),
		},
		Concurrency: p.cfg.Concurrency,
		Logger:      c.Logger,
	}
	if p.lock != nil {
		opts.Lockfile = p.lock
	}

	prog := newProgress(c.Logger)
	r := resolve.New(opts)
	if err := r.Init(ctx, p.seeds()); err != nil {
		return nil, err
	}
	prog.done("resolved " + p.pkg.Name)

	for _, pw := range r.PeerWarnings() {
		if pw.Missing() {
			printWarning(w, "%s requires peer %s@%s, which is not installed", pw.Package, pw.Peer, pw.Range)
		} else {
			printWarning(w, "%s requires peer %s@%s, found %s", pw.Package, pw.Peer, pw.Range, pw.Found)
		}
	}

	if p.cfg.Flat {
		choose := resolve.HighestVersion
		if p.lock != nil {
			choose = p.lock.Chooser()
		}
		if err := r.Flatten(choose); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// hoist places a resolved project.
func (c *CLI) hoist(ctx context.Context, p *project, r *resolve.Resolver) ([]hoist.Entry, error) {
	folders := maps.Clone(hoist.DefaultFolders)
	maps.Copy(folders, p.cfg.Folders)
	return hoist.Run(ctx, r, hoist.Options{
		Cwd:            p.dir,
		Folders:        folders,
		IgnoreOptional: p.cfg.IgnoreOptional,
		Logger:         c.Logger,
	})
}

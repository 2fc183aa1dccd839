// Package resolve turns a seed set of dependency patterns into a fully
// resolved graph of manifests.
//
// # Overview
//
// A [Resolver] owns the global resolution state: the pattern to manifest map,
// the package name index, and the set of fetch keys already dispatched. Each
// seed [Seed] becomes a [Request]; every request resolves its pattern through
// an injected capability ([Registry] for name@range patterns, [ExoticResolver]
// for git, tarball, file and link references) and then spawns one child
// request per dependency.
//
// Patterns that resolve to the same (name, version, remote) triple converge
// onto a single [Reference], so a diamond in the graph is walked only once:
//
//	r := resolve.New(resolve.Options{
//	    Registries: map[string]resolve.Registry{"npm": npmClient},
//	})
//	if err := r.Init(ctx, []resolve.Seed{{Pattern: "app@1.0.0"}}); err != nil {
//	    return err
//	}
//	m := r.GetResolvedPattern("lodash@^4.0.0")
//
// # Concurrency
//
// Capability calls run concurrently (bounded by [Options.Limiter]) but all
// state is owned by a single collector loop inside [Resolver.Init]. Workers
// only send results back over a channel, which makes the registry:pattern
// de-duplication gate atomic without locks.
//
// # Visibility
//
// Every reference counts how it is seen via [Used], [EnvironmentIgnore] and
// [RemovedAncestor] actions. A reference is ignored when nothing uses it or
// when removals reach the use count; changes propagate to dependencies with a
// per-call ancestry set so cycles terminate.
package resolve

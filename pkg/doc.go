// Package pkg provides the libraries behind the hoister command.
//
// # Overview
//
// hoister takes the dependencies of a package.json, resolves every pattern
// against a registry, and computes the node_modules tree a package manager
// would install. The pkg directory is organized into:
//
//  1. [pattern], [constraint] - Dependency pattern parsing and range matching
//  2. [resolve] - Concurrent resolution of patterns into a package graph
//  3. [hoist] - Placement of the resolved graph into a single module tree
//  4. [registry] - Registry capabilities (npm over HTTP, fixtures, local paths)
//  5. [cache], [httputil] - Response caching and retries for registry clients
//  6. [lockfile], [config] - Persisted results and project configuration
//  7. [render/nodelink] - Graphviz export of graphs and trees
//
// # Architecture
//
// The typical data flow:
//
//	package.json
//	     ↓
//	[resolve] package (patterns → manifests, via [registry])
//	     ↓
//	[hoist] package (manifests → tree positions)
//	     ↓
//	[lockfile] layout JSON, or [render/nodelink] DOT/SVG
//
// # Quick Start
//
//	reg := npm.New(npm.Options{})
//	r := resolve.New(resolve.Options{
//	    Registries: map[string]resolve.Registry{"npm": reg},
//	})
//	if err := r.Init(ctx, []resolve.Seed{{Pattern: "lodash@^4.17.0"}}); err != nil {
//	    return err
//	}
//	entries, err := hoist.Run(ctx, r, hoist.Options{Cwd: dir})
//
// Observability events are reported through [observability] hooks.
package pkg

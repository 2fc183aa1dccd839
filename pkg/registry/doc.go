// Package registry holds the registry capabilities the resolver consults.
//
// Subpackages implement [resolve.Registry] and [resolve.ExoticResolver]:
//
//   - memory: an in-process registry loaded from fixtures
//   - npm: the npm registry HTTP API, cached and retried through [Client]
//   - local: file: and link: references read from package.json on disk
//
// [Client] is the shared HTTP layer. It caches decoded responses in a
// [cache.Cache], retries transient failures with [httputil.Retry], and
// reports requests and cache traffic to the observability hooks.
package registry

package resolve

import "slices"

// PeerWarning reports a peer dependency that no ancestor satisfies.
type PeerWarning struct {
	Package string // name@version declaring the peer
	Peer    string // peer package name
	Range   string // declared range
	Found   string // version found among ancestors, empty when missing
}

// Missing reports whether no version of the peer was found at all.
func (w PeerWarning) Missing() bool { return w.Found == "" }

// PeerWarnings returns the unmet peer dependencies found after Init.
func (r *Resolver) PeerWarnings() []PeerWarning { return slices.Clone(r.peerWarnings) }

// checkPeers looks for each declared peer among the dependency sets of the
// requesting ancestors and, at the top, among the seeds.
func (r *Resolver) checkPeers() {
	r.peerWarnings = nil
	for _, m := range r.Manifests() {
		if len(m.PeerDependencies) == 0 || m.Reference == nil {
			continue
		}
		names := make([]string, 0, len(m.PeerDependencies))
		for name := range m.PeerDependencies {
			names = append(names, name)
		}
		slices.Sort(names)

		for _, peer := range names {
			rng := m.PeerDependencies[peer]
			found := r.findPeer(m.Reference, peer)
			if slices.ContainsFunc(found, func(v string) bool { return r.satisfies(v, rng) }) {
				continue
			}
			w := PeerWarning{Package: m.ID(), Peer: peer, Range: rng}
			if len(found) > 0 {
				w.Found = found[0]
				r.log.Warn("incorrect peer dependency", "package", w.Package, "peer", peer, "range", rng, "found", w.Found)
			} else {
				r.log.Warn("unmet peer dependency", "package", w.Package, "peer", peer, "range", rng)
			}
			r.peerWarnings = append(r.peerWarnings, w)
		}
	}
}

// findPeer returns the sorted versions of name visible to any request of
// ref: the nearest ancestor level declaring it wins per request.
func (r *Resolver) findPeer(ref *Reference, name string) []string {
	var found []string
	for _, req := range ref.requests {
		if v, ok := r.peerFromAncestors(req, name); ok && !slices.Contains(found, v) {
			found = append(found, v)
		}
	}
	slices.Sort(found)
	return found
}

func (r *Resolver) peerFromAncestors(req *Request, name string) (string, bool) {
	for p := req.Parent; p != nil; p = p.Parent {
		if p.ref == nil {
			continue
		}
		if v, ok := r.versionIn(p.ref.dependencies, name); ok {
			return v, true
		}
	}
	return r.versionIn(r.seedPatterns, name)
}

func (r *Resolver) versionIn(patterns []string, name string) (string, bool) {
	for _, p := range patterns {
		if m := r.patterns[p]; m != nil && m.Name == name {
			return m.Version, true
		}
	}
	return "", false
}

func (r *Resolver) satisfies(version, rng string) bool {
	_, ok := r.opts.Constraints.ResolveConstraints([]string{version}, rng)
	return ok
}

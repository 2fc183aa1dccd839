package resolve

import (
	"maps"

	"github.com/matzehuels/hoister/pkg/errors"
)

// RemoteType identifies where a manifest's contents come from.
type RemoteType string

const (
	RemoteRegistry RemoteType = "registry"
	RemoteTarball  RemoteType = "tarball"
	RemoteGit      RemoteType = "git"
	RemoteFile     RemoteType = "file"
	RemoteLink     RemoteType = "link"
)

// Remote describes the origin of a resolved manifest.
type Remote struct {
	Type      RemoteType `json:"type"`
	Registry  string     `json:"registry,omitempty"`  // registry name, e.g. "npm"
	Reference string     `json:"reference,omitempty"` // tarball URL, git commit, or path
	Hash      string     `json:"hash,omitempty"`      // content hash
}

// Manifest is a resolved package description.
//
// A manifest is not modified after resolution except for Reference, which the
// resolver attaches in place.
type Manifest struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version,omitempty"`
	UID                  string            `json:"uid,omitempty"`
	Dependencies         map[string]string `json:"dependencies,omitempty"`
	OptionalDependencies map[string]string `json:"optionalDependencies,omitempty"`
	PeerDependencies     map[string]string `json:"peerDependencies,omitempty"`
	Remote               *Remote           `json:"remote,omitempty"`

	Reference *Reference `json:"-"`
}

// Validate checks the keys every resolved manifest must carry.
func (m *Manifest) Validate() error {
	if err := errors.ValidatePackageName(m.Name); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidManifest, err, "manifest has no usable name")
	}
	if m.Version == "" && m.UID == "" {
		return errors.New(errors.ErrCodeInvalidManifest, "manifest for %q has neither version nor uid", m.Name)
	}
	return nil
}

// Clone returns a copy without the attached reference.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Dependencies = maps.Clone(m.Dependencies)
	c.OptionalDependencies = maps.Clone(m.OptionalDependencies)
	c.PeerDependencies = maps.Clone(m.PeerDependencies)
	if m.Remote != nil {
		r := *m.Remote
		c.Remote = &r
	}
	c.Reference = nil
	return &c
}

// ID returns name@version, or name@uid for manifests without a version.
func (m *Manifest) ID() string {
	if m.Version != "" {
		return m.Name + "@" + m.Version
	}
	return m.Name + "@" + m.UID
}

// Registry returns the registry the manifest belongs to.
func (m *Manifest) Registry() string {
	if m.Remote == nil {
		return ""
	}
	return m.Remote.Registry
}

// loc is the identity string of a manifest: two manifests with the same loc
// are the same package on disk.
func (m *Manifest) loc() string {
	s := m.Registry() + ":" + m.ID()
	if m.Remote != nil && m.Remote.Type != RemoteRegistry && m.Remote.Type != "" {
		s += "#" + string(m.Remote.Type) + ":" + m.Remote.Reference
	}
	return s
}

// sameRemote reports whether two remotes describe the same origin. A nil
// remote matches any other.
func sameRemote(a, b *Remote) bool {
	if a == nil || b == nil {
		return true
	}
	ta, tb := a.Type, b.Type
	if ta == "" {
		ta = RemoteRegistry
	}
	if tb == "" {
		tb = RemoteRegistry
	}
	if ta != tb {
		return false
	}
	if ta == RemoteRegistry {
		return a.Registry == "" || b.Registry == "" || a.Registry == b.Registry
	}
	return a.Reference == b.Reference
}

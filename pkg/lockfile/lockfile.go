// Package lockfile reads and writes hoister.lock.
//
// The lockfile maps every resolved pattern to the manifest stub it resolved
// to. Loaded, it implements [resolve.Lockfile]: a pattern it pins is
// answered without consulting a registry.
//
//	{
//	  "lockfileVersion": 1,
//	  "packages": {
//	    "lodash@^4.0.0": {"name": "lodash", "version": "4.17.21", "resolved": "https://..."}
//	  }
//	}
package lockfile

import (
	"encoding/json"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/matzehuels/hoister/pkg/constraint"
	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/resolve"
)

// FileName is the lockfile written next to package.json.
const FileName = "hoister.lock"

// Version is the format written by this package.
const Version = 1

// Lockfile is safe for concurrent reads.
type Lockfile struct {
	Version  int                                `json:"lockfileVersion"`
	Packages map[string]*resolve.LockedManifest `json:"packages"`
}

var _ resolve.Lockfile = (*Lockfile)(nil)

// New returns an empty lockfile.
func New() *Lockfile {
	return &Lockfile{Version: Version, Packages: make(map[string]*resolve.LockedManifest)}
}

// FromResolver records every pattern of a converged resolver.
func FromResolver(r *resolve.Resolver) (*Lockfile, error) {
	if !r.Converged() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "cannot lock an unconverged resolution")
	}
	lf := New()
	for _, m := range r.Manifests() {
		if m.Reference == nil {
			continue
		}
		entry := stub(m)
		for _, p := range m.Reference.Patterns() {
			lf.Packages[p] = entry
		}
	}
	return lf, nil
}

func stub(m *resolve.Manifest) *resolve.LockedManifest {
	l := &resolve.LockedManifest{
		Name:                 m.Name,
		Version:              m.Version,
		Dependencies:         maps.Clone(m.Dependencies),
		OptionalDependencies: maps.Clone(m.OptionalDependencies),
	}
	if m.UID != m.Version {
		l.UID = m.UID
	}
	if r := m.Remote; r != nil {
		l.Registry = r.Registry
		l.Resolved = r.Reference
		l.Integrity = r.Hash
		if r.Type != resolve.RemoteRegistry {
			l.Type = r.Type
		}
	}
	return l
}

// Locked returns the pinned stub for pattern.
func (l *Lockfile) Locked(pattern string) (*resolve.LockedManifest, bool) {
	m, ok := l.Packages[pattern]
	return m, ok
}

// Patterns returns the pinned patterns in sorted order.
func (l *Lockfile) Patterns() []string {
	return slices.Sorted(maps.Keys(l.Packages))
}

// PinnedVersions returns the distinct versions pinned for name, ascending.
func (l *Lockfile) PinnedVersions(name string) []string {
	var versions []string
	for _, m := range l.Packages {
		if m.Name == name && !slices.Contains(versions, m.Version) {
			versions = append(versions, m.Version)
		}
	}
	slices.SortFunc(versions, constraint.Compare)
	return versions
}

// Chooser prefers the highest pinned version among the candidates and falls
// back to [resolve.HighestVersion].
func (l *Lockfile) Chooser() resolve.Chooser {
	return func(name string, versions []string) (string, error) {
		pinned := l.PinnedVersions(name)
		for i := len(pinned) - 1; i >= 0; i-- {
			if slices.Contains(versions, pinned[i]) {
				return pinned[i], nil
			}
		}
		return resolve.HighestVersion(name, versions)
	}
}

// Read decodes a lockfile. Entries without a name or version are rejected.
func Read(rd io.Reader) (*Lockfile, error) {
	var l Lockfile
	if err := json.NewDecoder(rd).Decode(&l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode lockfile")
	}
	if l.Version > Version {
		return nil, errors.New(errors.ErrCodeUnsupported, "lockfile version %d is newer than %d", l.Version, Version)
	}
	if l.Packages == nil {
		l.Packages = make(map[string]*resolve.LockedManifest)
	}
	for p, m := range l.Packages {
		if m == nil || m.Name == "" || m.Version == "" {
			return nil, errors.New(errors.ErrCodeInvalidManifest, "lockfile entry %q needs a name and version", p)
		}
	}
	l.Version = Version
	return &l, nil
}

// Load reads the lockfile at path.
func Load(path string) (*Lockfile, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "lockfile %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "open lockfile %s", path)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes l as indented JSON with sorted keys.
func (l *Lockfile) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(l)
}

// Save writes l to path through a temporary file in the same directory.
func (l *Lockfile) Save(path string) error {
	return writeAtomic(path, l.Write)
}

func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "create %s", path)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

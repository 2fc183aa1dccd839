// Package local resolves file: and link: references from package.json files
// on disk.
//
// A reference is a directory, absolute or relative to [Resolver]'s base
// directory, with an optional "file:" or "link:" prefix. "~/" expands to the
// user's home directory.
package local

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/hoister/pkg/errors"
	"github.com/matzehuels/hoister/pkg/pattern"
	"github.com/matzehuels/hoister/pkg/resolve"
)

// DefaultVersion is used for packages whose package.json has no version.
const DefaultVersion = "0.0.0"

// PackageJSON is the subset of package.json the resolver reads.
type PackageJSON struct {
	Name                 string            `json:"name"`
	Version              string            `json:"version"`
	Dependencies         map[string]string `json:"dependencies"`
	OptionalDependencies map[string]string `json:"optionalDependencies"`
	PeerDependencies     map[string]string `json:"peerDependencies"`
	DevDependencies      map[string]string `json:"devDependencies"`
}

// ReadPackageJSON decodes dir/package.json.
func ReadPackageJSON(dir string) (*PackageJSON, error) {
	path := filepath.Join(dir, "package.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "no package.json in %s", dir)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "read %s", path)
	}

	var pkg PackageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidManifest, err, "parse %s", path)
	}
	return &pkg, nil
}

// Resolver implements [resolve.ExoticResolver] for [pattern.File] and
// [pattern.Link].
type Resolver struct {
	dir string
}

var _ resolve.ExoticResolver = (*Resolver)(nil)

// New resolves relative references against dir.
func New(dir string) *Resolver {
	return &Resolver{dir: dir}
}

// Resolve reads the package a file: or link: pattern points at. The
// manifest's remote records the absolute directory. Link manifests carry no
// dependencies: a linked package manages its own.
func (r *Resolver) Resolve(ctx context.Context, p pattern.Pattern) (*resolve.Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var typ resolve.RemoteType
	switch p.Kind {
	case pattern.File:
		typ = resolve.RemoteFile
	case pattern.Link:
		typ = resolve.RemoteLink
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "%s patterns are not local", p.Kind)
	}

	dir, err := r.path(p.Range)
	if err != nil {
		return nil, err
	}
	pkg, err := ReadPackageJSON(dir)
	if err != nil {
		return nil, err
	}

	m := &resolve.Manifest{
		Name:    pkg.Name,
		Version: pkg.Version,
		Remote:  &resolve.Remote{Type: typ, Reference: dir},
	}
	if p.Name != "" {
		m.Name = p.Name
	}
	if m.Name == "" {
		m.Name = p.NameHint()
	}
	if m.Version == "" {
		m.Version = DefaultVersion
	}
	m.UID = m.Version
	if typ == resolve.RemoteFile {
		m.Dependencies = pkg.Dependencies
		m.OptionalDependencies = pkg.OptionalDependencies
		m.PeerDependencies = pkg.PeerDependencies
	}
	return m, nil
}

func (r *Resolver) path(ref string) (string, error) {
	ref = strings.TrimPrefix(strings.TrimPrefix(ref, "link:"), "file:")
	if ref == "" {
		return "", errors.New(errors.ErrCodeInvalidPattern, "empty local reference")
	}
	if err := errors.ValidatePath(ref); err != nil {
		return "", err
	}

	if rest, ok := strings.CutPrefix(ref, "~/"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "expand %s", ref)
		}
		ref = filepath.Join(home, rest)
	}
	if !filepath.IsAbs(ref) {
		ref = filepath.Join(r.dir, ref)
	}
	abs, err := filepath.Abs(ref)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", ref)
	}
	return abs, nil
}

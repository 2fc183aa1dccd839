// Package pattern parses dependency request strings.
//
// A pattern is what a manifest writes on the right-hand side of a
// dependency, joined with the dependency name: "lodash@^4.0.0",
// "@babel/core@7.24.0", "left-pad" (range defaults to "latest") or an exotic
// reference such as "foo@github:user/foo#v1.2.0" or "file:../shared".
//
// Exotic references are classified into a closed set of [Kind] values by a
// fixed, prioritized list of predicates, so the same string always lands on
// the same kind.
package pattern

import (
	"path"
	"regexp"
	"slices"
	"strings"

	"github.com/matzehuels/hoister/pkg/errors"
)

// DefaultRange is used when a pattern carries no range.
const DefaultRange = "latest"

// Kind identifies which resolver capability handles a pattern.
type Kind int

const (
	Registry Kind = iota
	Link
	File
	Tarball
	GitHub
	GitLab
	Bitbucket
	Git
)

var kindNames = map[Kind]string{
	Registry:  "registry",
	Link:      "link",
	File:      "file",
	Tarball:   "tarball",
	GitHub:    "github",
	GitLab:    "gitlab",
	Bitbucket: "bitbucket",
	Git:       "git",
}

// String returns the lowercase kind name.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// IsExotic reports whether the kind is resolved outside of a package registry.
func (k Kind) IsExotic() bool { return k != Registry }

// Kinds returns every exotic kind in predicate priority order.
func Kinds() []Kind {
	var out []Kind
	for _, p := range predicates {
		if !slices.Contains(out, p.kind) {
			out = append(out, p.kind)
		}
	}
	return out
}

// Pattern is a parsed dependency request.
type Pattern struct {
	Raw   string // original string, used as the resolver's map key
	Name  string // package name; empty for unnamed exotic references
	Range string // semver range, dist-tag, or exotic reference
	Kind  Kind
}

// String returns the raw pattern.
func (p Pattern) String() string { return p.Raw }

// NameHint returns Name, or for unnamed exotic references a best guess
// derived from the last path segment of the reference.
func (p Pattern) NameHint() string {
	if p.Name != "" {
		return p.Name
	}
	ref := p.Range
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}
	ref = strings.TrimRight(ref, "/")
	base := path.Base(strings.ReplaceAll(ref, ":", "/"))
	for _, ext := range []string{".git", ".tgz", ".tar.gz", ".tar"} {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

var (
	hostedShorthandRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+(#.+)?$`)
	tarballExtRe      = regexp.MustCompile(`\.(tgz|tar\.gz|tar)(\?.*)?$`)
)

type predicate struct {
	kind  Kind
	match func(ref string) bool
}

// predicates are evaluated in order; the first match wins.
var predicates = []predicate{
	{Link, func(s string) bool { return strings.HasPrefix(s, "link:") }},
	{File, isFileRef},
	{Tarball, func(s string) bool { return isHTTP(s) && tarballExtRe.MatchString(s) }},
	{GitHub, func(s string) bool {
		return strings.HasPrefix(s, "github:") || hostedShorthandRe.MatchString(s) || hostedURL(s, "github.com")
	}},
	{GitLab, func(s string) bool { return strings.HasPrefix(s, "gitlab:") || hostedURL(s, "gitlab.com") }},
	{Bitbucket, func(s string) bool { return strings.HasPrefix(s, "bitbucket:") || hostedURL(s, "bitbucket.org") }},
	{Git, isGitRef},
	{Tarball, isHTTP},
}

// Classify returns the kind of an exotic reference, or Registry when no
// predicate matches.
func Classify(ref string) Kind {
	for _, p := range predicates {
		if p.match(ref) {
			return p.kind
		}
	}
	return Registry
}

// Parse splits raw into name and range and classifies it.
//
// References that can only be exotic ("git+ssh://...", "file:../x",
// "https://host/x.tgz") keep an empty Name. Named references ("foo@file:../x")
// keep the name. Everything else is a registry pattern whose name must pass
// [errors.ValidatePackageName].
func Parse(raw string) (Pattern, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Pattern{}, errors.New(errors.ErrCodeInvalidPattern, "pattern cannot be empty")
	}

	if hasExoticPrefix(raw) {
		return Pattern{Raw: raw, Range: raw, Kind: Classify(raw)}, nil
	}

	name, rng, _ := Normalize(raw)
	if k := Classify(rng); k.IsExotic() {
		return Pattern{Raw: raw, Name: name, Range: rng, Kind: k}, nil
	}
	if k := Classify(raw); k.IsExotic() {
		return Pattern{Raw: raw, Range: raw, Kind: k}, nil
	}

	if err := errors.ValidatePackageName(name); err != nil {
		return Pattern{}, errors.Wrap(errors.ErrCodeInvalidPattern, err, "invalid pattern %q", raw)
	}
	return Pattern{Raw: raw, Name: name, Range: rng, Kind: Registry}, nil
}

// Normalize splits "name@range" into its parts. A leading '@' (scoped
// package) is stripped before splitting and restored afterwards, and a
// missing range defaults to [DefaultRange].
func Normalize(raw string) (name, rng string, hasVersion bool) {
	scoped := strings.HasPrefix(raw, "@")
	if scoped {
		raw = raw[1:]
	}

	name, rng, hasVersion = strings.Cut(raw, "@")
	if scoped {
		name = "@" + name
	}
	if rng == "" {
		rng = DefaultRange
		hasVersion = false
	}
	return name, rng, hasVersion
}

// Join builds the pattern for a dependency entry.
func Join(name, rng string) string {
	if rng == "" {
		rng = DefaultRange
	}
	return name + "@" + rng
}

var exoticPrefixes = []string{
	"link:", "file:", "./", "../", "/", "~/",
	"http://", "https://", "git+", "git://", "git@", "ssh://",
	"github:", "gitlab:", "bitbucket:",
}

func hasExoticPrefix(s string) bool {
	for _, p := range exoticPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isFileRef(s string) bool {
	for _, p := range []string{"file:", "./", "../", "/", "~/"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func isGitRef(s string) bool {
	for _, p := range []string{"git+", "git://", "git@", "ssh://"} {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	ref, _, _ := strings.Cut(s, "#")
	return strings.HasSuffix(ref, ".git")
}

func hostedURL(s, host string) bool {
	s = strings.TrimPrefix(s, "git+")
	for _, p := range []string{"https://", "http://", "ssh://git@", "git://", "git@"} {
		if rest, ok := strings.CutPrefix(s, p); ok {
			return strings.HasPrefix(rest, host+"/") || strings.HasPrefix(rest, host+":")
		}
	}
	return false
}

package errors

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	maxNameLength = 214 // npm's limit
	maxPathLength = 500
)

// forbidden substrings in package names, which become directory names in the
// hoisted tree and segments of its '#'-joined keys.
var nameHazards = []struct{ seq, what string }{
	{"..", "a parent directory reference"},
	{"//", "an empty path segment"},
	{"\\", "a backslash"},
	{"#", "the hoist key separator"},
}

var npmNameRe = regexp.MustCompile(`^(@[a-z0-9-~][a-z0-9-._~]*/)?[a-z0-9-~][a-z0-9-._~]*$`)

func hasControl(s string) bool {
	return strings.IndexFunc(s, unicode.IsControl) >= 0
}

// ValidatePackageName rejects names that could not be installed safely as a
// directory under a module folder. It accepts any registry's naming
// otherwise.
func ValidatePackageName(name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	case len(name) > maxNameLength:
		return New(ErrCodeInvalidPackage, "package name longer than %d characters", maxNameLength)
	case hasControl(name):
		return New(ErrCodeInvalidPackage, "package name %q contains control characters", name)
	}
	for _, h := range nameHazards {
		if strings.Contains(name, h.seq) {
			return New(ErrCodeInvalidPackage, "package name %q contains %s", name, h.what)
		}
	}
	return nil
}

// ValidateNpmPackageName additionally applies npm's rules: lowercase, and an
// optional @scope/ prefix.
func ValidateNpmPackageName(name string) error {
	if err := ValidatePackageName(name); err != nil {
		return err
	}
	if strings.ToLower(name) != name {
		return New(ErrCodeInvalidPackage, "npm package name %q must be lowercase", name)
	}
	if !npmNameRe.MatchString(name) {
		return New(ErrCodeInvalidPackage, "invalid npm package name %q", name)
	}
	return nil
}

// ValidatePath checks the target of a file: or link: dependency.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "path longer than %d characters", maxPathLength)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "path %q contains control characters", path)
	case strings.Contains(path, "\\"):
		return New(ErrCodeInvalidPath, "path %q contains backslashes", path)
	}
	return nil
}

package pattern

import (
	"testing"

	"github.com/matzehuels/hoister/pkg/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw        string
		name       string
		rng        string
		hasVersion bool
	}{
		{"lodash@^4.0.0", "lodash", "^4.0.0", true},
		{"lodash", "lodash", "latest", false},
		{"lodash@", "lodash", "latest", false},
		{"@babel/core", "@babel/core", "latest", false},
		{"@babel/core@7.24.0", "@babel/core", "7.24.0", true},
		{"foo@>=1.0.0 <2.0.0", "foo", ">=1.0.0 <2.0.0", true},
	}

	for _, tt := range tests {
		name, rng, hasVersion := Normalize(tt.raw)
		if name != tt.name || rng != tt.rng || hasVersion != tt.hasVersion {
			t.Errorf("Normalize(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.raw, name, rng, hasVersion, tt.name, tt.rng, tt.hasVersion)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		ref  string
		want Kind
	}{
		{"^1.0.0", Registry},
		{"latest", Registry},
		{"1.x", Registry},
		{"link:../shared", Link},
		{"file:../shared", File},
		{"./vendor/foo", File},
		{"/abs/path/foo", File},
		{"https://example.com/foo-1.0.0.tgz", Tarball},
		{"https://github.com/user/repo/archive/v1.0.0.tar.gz", Tarball},
		{"github:user/repo", GitHub},
		{"user/repo", GitHub},
		{"user/repo#v1.2.0", GitHub},
		{"git@github.com:user/repo.git", GitHub},
		{"git+https://github.com/user/repo.git", GitHub},
		{"gitlab:user/repo", GitLab},
		{"https://gitlab.com/user/repo", GitLab},
		{"bitbucket:user/repo", Bitbucket},
		{"git+ssh://git@example.com/repo.git", Git},
		{"git://example.com/repo", Git},
		{"https://example.com/repo.git#main", Git},
		{"https://example.com/download/foo", Tarball},
	}

	for _, tt := range tests {
		if got := Classify(tt.ref); got != tt.want {
			t.Errorf("Classify(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		name string
		rng  string
		kind Kind
	}{
		{"lodash@^4.0.0", "lodash", "^4.0.0", Registry},
		{"left-pad", "left-pad", "latest", Registry},
		{"@types/node@^20", "@types/node", "^20", Registry},
		{"foo@file:../foo", "foo", "file:../foo", File},
		{"foo@github:user/foo#v1", "foo", "github:user/foo#v1", GitHub},
		{"shared@link:../shared", "shared", "link:../shared", Link},
		{"file:../foo", "", "file:../foo", File},
		{"git@github.com:user/repo.git", "", "git@github.com:user/repo.git", GitHub},
		{"user/repo", "", "user/repo", GitHub},
	}

	for _, tt := range tests {
		p, err := Parse(tt.raw)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.raw, err)
			continue
		}
		if p.Name != tt.name || p.Range != tt.rng || p.Kind != tt.kind {
			t.Errorf("Parse(%q) = {%q %q %v}, want {%q %q %v}",
				tt.raw, p.Name, p.Range, p.Kind, tt.name, tt.rng, tt.kind)
		}
		if p.String() != tt.raw {
			t.Errorf("Parse(%q).String() = %q", tt.raw, p.String())
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "foo#bar@1.0.0", "a..b@1"} {
		_, err := Parse(raw)
		if err == nil {
			t.Errorf("Parse(%q) should fail", raw)
			continue
		}
		if !errors.Is(err, errors.ErrCodeInvalidPattern) {
			t.Errorf("Parse(%q) error code = %v", raw, errors.GetCode(err))
		}
	}
}

func TestNameHint(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"lodash@^4.0.0", "lodash"},
		{"file:../shared", "shared"},
		{"git@github.com:user/repo.git", "repo"},
		{"https://example.com/foo-1.0.0.tgz", "foo-1.0.0"},
		{"user/repo#v1", "repo"},
	}

	for _, tt := range tests {
		p, err := Parse(tt.raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.raw, err)
		}
		if got := p.NameHint(); got != tt.want {
			t.Errorf("NameHint(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestJoin(t *testing.T) {
	if got := Join("lodash", "^4.0.0"); got != "lodash@^4.0.0" {
		t.Errorf("Join() = %q", got)
	}
	if got := Join("lodash", ""); got != "lodash@latest" {
		t.Errorf("Join() with empty range = %q", got)
	}
}

func TestKindString(t *testing.T) {
	if Registry.String() != "registry" || Bitbucket.String() != "bitbucket" {
		t.Error("unexpected kind names")
	}
	if Kind(99).String() != "unknown" {
		t.Error("unknown kind should stringify as unknown")
	}
	if Registry.IsExotic() || !Git.IsExotic() {
		t.Error("IsExotic mismatch")
	}
}

func TestKindsUnique(t *testing.T) {
	kinds := Kinds()
	if len(kinds) != 7 {
		t.Fatalf("Kinds() returned %d kinds, want 7", len(kinds))
	}
	if kinds[0] != Link || kinds[len(kinds)-1] != Git {
		t.Errorf("Kinds() order = %v", kinds)
	}
}

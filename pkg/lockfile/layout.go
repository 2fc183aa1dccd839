package lockfile

import (
	"encoding/json"
	"io"

	"github.com/matzehuels/hoister/pkg/hoist"
)

// LayoutEntry is one placed package in a written layout.
type LayoutEntry struct {
	Path     string   `json:"path"`
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	Location string   `json:"location"`
	Direct   bool     `json:"direct,omitempty"`
	Optional bool     `json:"optional,omitempty"`
	History  []string `json:"history,omitempty"`
}

// Layout is the install plan produced by the hoister.
type Layout struct {
	Packages []LayoutEntry `json:"packages"`
}

// NewLayout converts hoisted entries, keeping their order. history includes
// each package's repositioning log.
func NewLayout(entries []hoist.Entry, history bool) *Layout {
	l := &Layout{Packages: make([]LayoutEntry, 0, len(entries))}
	for _, e := range entries {
		m := e.Manifest
		le := LayoutEntry{
			Path:     e.Path,
			Key:      m.Key,
			Name:     m.Pkg.Name,
			Version:  m.Pkg.Version,
			Location: m.Loc,
			Direct:   m.IsDirectRequire,
		}
		if ref := m.Pkg.Reference; ref != nil {
			le.Optional = ref.Optional()
		}
		if history {
			le.History = m.History
		}
		l.Packages = append(l.Packages, le)
	}
	return l
}

// Write encodes l as indented JSON.
func (l *Layout) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(l)
}

// Save writes l to path through a temporary file.
func (l *Layout) Save(path string) error {
	return writeAtomic(path, l.Write)
}

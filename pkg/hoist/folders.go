package hoist

import "github.com/matzehuels/hoister/pkg/resolve"

// DefaultFolder is used for registries with no folder mapping.
const DefaultFolder = "node_modules"

// ModuleFolders names the on-disk folder a manifest's registry installs into.
type ModuleFolders interface {
	Folder(m *resolve.Manifest) string
}

// FolderMap maps registry names to module folder names.
type FolderMap map[string]string

// DefaultFolders covers the registries hoister knows about.
var DefaultFolders = FolderMap{
	"npm":   "node_modules",
	"yarn":  "node_modules",
	"bower": "bower_components",
}

// Folder returns the folder for m's registry, or [DefaultFolder].
func (f FolderMap) Folder(m *resolve.Manifest) string {
	if name, ok := f[m.Registry()]; ok && name != "" {
		return name
	}
	return DefaultFolder
}

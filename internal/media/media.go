package media

import (
	"path/filepath"
	"strings"
)

// AudioFileRef identifies one discovered input file. Instances are created
// by discovery and treated as immutable afterwards.
type AudioFileRef struct {
	// Path is the absolute path to the source file.
	Path string
	// RelPath is the path relative to the input root, used to mirror the
	// directory structure under the output root. It never escapes the root.
	RelPath string
}

// ExtensionSet is a normalized lookup of supported audio extensions.
type ExtensionSet map[string]struct{}

// NewExtensionSet normalizes extensions (lowercased, no leading dot) into a
// lookup set.
func NewExtensionSet(extensions []string) ExtensionSet {
	set := make(ExtensionSet, len(extensions))
	for _, ext := range extensions {
		trimmed := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(ext, ".")))
		if trimmed != "" {
			set[trimmed] = struct{}{}
		}
	}
	return set
}

// Contains reports whether the file name carries a supported extension,
// matched case-insensitively.
func (s ExtensionSet) Contains(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	_, ok := s[ext]
	return ok
}

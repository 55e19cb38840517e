package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoveryFailure records a subtree that could not be traversed. The run
// continues without it.
type DiscoveryFailure struct {
	RelPath string
	Err     error
}

// Discover recursively enumerates supported audio files under root. The
// returned refs are sorted by relative path so repeated runs over an
// unchanged tree yield identical output. Unreadable subdirectories are
// reported as DiscoveryFailures and skipped; only a missing or unreadable
// root fails the whole call.
func Discover(root string, exts ExtensionSet) ([]AudioFileRef, []DiscoveryFailure, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve input root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("input root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("input root %q is not a directory", root)
	}

	var refs []AudioFileRef
	var failures []DiscoveryFailure

	walkErr := filepath.WalkDir(absRoot, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			rel := relOrPath(absRoot, path)
			if path == absRoot {
				return fmt.Errorf("read input root: %w", err)
			}
			failures = append(failures, DiscoveryFailure{RelPath: rel, Err: err})
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if entry.IsDir() {
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		if !exts.Contains(entry.Name()) {
			return nil
		}
		rel, relErr := filepath.Rel(absRoot, path)
		if relErr != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			// A ref escaping the root violates the mirroring invariant.
			failures = append(failures, DiscoveryFailure{RelPath: path, Err: errors.New("path escapes input root")})
			return nil
		}
		refs = append(refs, AudioFileRef{Path: path, RelPath: filepath.ToSlash(rel)})
		return nil
	})
	if walkErr != nil {
		return nil, nil, walkErr
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].RelPath < refs[j].RelPath })
	return refs, failures, nil
}

func relOrPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

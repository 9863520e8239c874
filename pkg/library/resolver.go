package library

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SymbolicPrefix marks a source path addressing an installed library.
const SymbolicPrefix = "@"

// includeProbeDirs are the conventional include directories probed under a
// library's install root, in order.
var includeProbeDirs = []string{"include", "inc", "rtl", "src"}

// PathResolver maps symbolic @name/path source references to concrete
// paths under the library install root, and plain paths relative to the
// repository root.
type PathResolver struct {
	repoRoot   string
	installDir string
	known      map[string]bool
}

// NewPathResolver creates a resolver for the given repository root and
// library install root. Known lists the resolved library names; symbolic
// references outside this set fail.
func NewPathResolver(repoRoot, installDir string, known []string) *PathResolver {
	set := make(map[string]bool, len(known))
	for _, name := range known {
		set[name] = true
	}
	return &PathResolver{repoRoot: repoRoot, installDir: installDir, known: set}
}

// IsSymbolic reports whether the path is a @name/... library reference.
func IsSymbolic(path string) bool {
	return strings.HasPrefix(path, SymbolicPrefix)
}

// LibraryName extracts the library name from a symbolic path, or "" for a
// plain path.
func LibraryName(path string) string {
	if !IsSymbolic(path) {
		return ""
	}
	rest := strings.TrimPrefix(path, SymbolicPrefix)
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[:i]
	}
	return rest
}

// Resolve maps one source path to an absolute path. Symbolic @name/rest
// paths become <install-root>/name/rest; anything else resolves relative
// to the repository root.
func (r *PathResolver) Resolve(path string) (string, error) {
	if !IsSymbolic(path) {
		if filepath.IsAbs(path) {
			return path, nil
		}
		return filepath.Join(r.repoRoot, path), nil
	}

	name := LibraryName(path)
	if !r.known[name] {
		return "", &UnknownLibraryError{Name: name, Available: sortedNames(r.known)}
	}
	rest := strings.TrimPrefix(path, SymbolicPrefix+name)
	rest = strings.TrimPrefix(rest, "/")
	return filepath.Join(r.installDir, name, filepath.FromSlash(rest)), nil
}

// IncludeDirs probes the conventional include subdirectories of every
// named library and returns those that exist, once each, in first-seen
// order.
func (r *PathResolver) IncludeDirs(libraries []string) ([]string, error) {
	var dirs []string
	seen := make(map[string]bool)
	for _, name := range libraries {
		if !r.known[name] {
			return nil, &UnknownLibraryError{Name: name, Available: sortedNames(r.known)}
		}
		for _, probe := range includeProbeDirs {
			dir := filepath.Join(r.installDir, name, probe)
			if seen[dir] {
				continue
			}
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				seen[dir] = true
				dirs = append(dirs, dir)
			}
		}
	}
	return dirs, nil
}

func sortedNames(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

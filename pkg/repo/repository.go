// Package repo locates the repository root and derives the well-known
// paths under it. The root is discovered once per command invocation and
// passed down explicitly, either as a *Repository value or through a
// context, never via process-global state.
package repo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// MarkerFile marks the repository root directory.
const MarkerFile = ".forge-root"

// EnvRoot overrides root discovery when set.
const EnvRoot = "FORGE_ROOT"

// ErrNoRoot is returned when no repository root can be found.
var ErrNoRoot = errors.New("no repository root found: create a " + MarkerFile + " file or set " + EnvRoot)

// Repository is a discovered repository root.
type Repository struct {
	// Root is the absolute repository root path.
	Root string
}

// Discover locates the repository root. Precedence: the explicit argument
// when non-empty, the FORGE_ROOT environment variable, then an upward
// walk from the working directory looking for the marker file.
func Discover(explicit string) (*Repository, error) {
	if explicit != "" {
		return fromPath(explicit)
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return fromPath(env)
	}

	dir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, MarkerFile)); err == nil {
			return &Repository{Root: dir}, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, ErrNoRoot
		}
		dir = parent
	}
}

func fromPath(path string) (*Repository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("root %q: %w", path, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %q is not a directory", path)
	}
	return &Repository{Root: abs}, nil
}

// Init creates the marker file at the given directory, making it a
// repository root. Creating an already-initialized root is an error.
func Init(dir string) (*Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %q: %w", dir, err)
	}
	marker := filepath.Join(abs, MarkerFile)
	if _, err := os.Stat(marker); err == nil {
		return nil, fmt.Errorf("%s already exists in %s", MarkerFile, abs)
	}
	if err := os.WriteFile(marker, nil, 0o644); err != nil {
		return nil, fmt.Errorf("creating %s: %w", MarkerFile, err)
	}
	return &Repository{Root: abs}, nil
}

// ForgeDir is the hidden state directory under the root.
func (r *Repository) ForgeDir() string {
	return filepath.Join(r.Root, ".forge")
}

// LibsDir is the install root for external libraries.
func (r *Repository) LibsDir() string {
	return filepath.Join(r.ForgeDir(), "libs")
}

// ManifestPath is the location of the library manifest document.
func (r *Repository) ManifestPath() string {
	return filepath.Join(r.Root, ".forge", "libraries.toml")
}

// BuildDir is the build output directory for the named tool variant,
// for example build/verilator.
func (r *Repository) BuildDir(variant string) string {
	return filepath.Join(r.Root, "build", variant)
}

// ResolvePath resolves a repository-relative path to an absolute path.
// Absolute inputs pass through unchanged.
func (r *Repository) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(r.Root, path)
}

// RelativePath rewrites an absolute path relative to the root when it lies
// under it, for display.
func (r *Repository) RelativePath(path string) string {
	rel, err := filepath.Rel(r.Root, path)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == "../" {
		return path
	}
	return rel
}

type contextKey struct{}

// NewContext returns a context carrying the repository.
func NewContext(ctx context.Context, r *Repository) context.Context {
	return context.WithValue(ctx, contextKey{}, r)
}

// FromContext extracts the repository stored by NewContext.
func FromContext(ctx context.Context) (*Repository, bool) {
	r, ok := ctx.Value(contextKey{}).(*Repository)
	return r, ok
}

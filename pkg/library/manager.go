package library

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Manager performs manifest edits and installs libraries per resolved
// plan. Install and update serialize per library name; distinct libraries
// occupy disjoint directories and need no shared lock.
type Manager struct {
	manifestPath string
	installDir   string
	vcs          VCSClient
	logger       zerolog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager creates a manager for the manifest at manifestPath installing
// into installDir.
func NewManager(manifestPath, installDir string, vcs VCSClient, logger zerolog.Logger) *Manager {
	return &Manager{
		manifestPath: manifestPath,
		installDir:   installDir,
		vcs:          vcs,
		logger:       logger,
		locks:        make(map[string]*sync.Mutex),
	}
}

func (m *Manager) lockFor(name string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[name]
	if !ok {
		l = &sync.Mutex{}
		m.locks[name] = l
	}
	return l
}

// Manifest loads the top-level manifest.
func (m *Manager) Manifest() (*Manifest, error) {
	return LoadManifest(m.manifestPath)
}

// Add records a new library in the manifest. The name defaults to the last
// path segment of the git URL. Re-adding an existing name is an error.
func (m *Manager) Add(name string, spec *Spec) error {
	manifest, err := m.Manifest()
	if err != nil {
		return err
	}
	if name == "" {
		name = DeriveName(spec.Git)
	}
	if name == "" {
		return fmt.Errorf("cannot derive a library name from %q", spec.Git)
	}
	if _, exists := manifest.Libraries[name]; exists {
		return fmt.Errorf("library %q is already declared", name)
	}
	if spec.selectorCount() != 1 {
		return fmt.Errorf("library %q: exactly one of tag, branch or commit is required", name)
	}
	spec.Name = name
	manifest.Libraries[name] = spec
	return manifest.Save(m.manifestPath)
}

// Remove drops a library from the manifest and deletes its installed
// checkout.
func (m *Manager) Remove(name string) error {
	manifest, err := m.Manifest()
	if err != nil {
		return err
	}
	if _, exists := manifest.Libraries[name]; !exists {
		return &UnknownLibraryError{Name: name, Available: manifest.Names()}
	}
	delete(manifest.Libraries, name)
	if err := manifest.Save(m.manifestPath); err != nil {
		return err
	}
	dir := filepath.Join(m.installDir, name)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing %s: %w", dir, err)
	}
	return nil
}

// InstallAll resolves the dependency graph and installs every plan entry.
// Installing a library can surface a manifest of its own, so resolution
// repeats until the plan stops growing. Returns the final plan.
func (m *Manager) InstallAll(ctx context.Context, update bool) ([]PlanEntry, error) {
	top, err := m.Manifest()
	if err != nil {
		return nil, err
	}
	resolver := NewGraphResolver(DirManifestSource{Root: m.installDir}, m.logger)

	installed := make(map[string]bool)
	var plan []PlanEntry
	for {
		plan, err = resolver.Resolve(top)
		if err != nil {
			return nil, err
		}
		progressed := false
		for _, entry := range plan {
			if installed[entry.Spec.Name] {
				continue
			}
			if err := m.install(ctx, entry.Spec, update); err != nil {
				return nil, err
			}
			installed[entry.Spec.Name] = true
			progressed = true
		}
		if !progressed {
			return plan, nil
		}
	}
}

// install clones or refreshes one library and checks out its selected
// version.
func (m *Manager) install(ctx context.Context, spec *Spec, update bool) error {
	l := m.lockFor(spec.Name)
	l.Lock()
	defer l.Unlock()

	dir := filepath.Join(m.installDir, spec.Name)
	_, statErr := os.Stat(filepath.Join(dir, ".git"))
	switch {
	case os.IsNotExist(statErr):
		m.logger.Info().Str("library", spec.Name).Str("url", spec.Git).
			Str("version", spec.SelectorString()).Msg("installing")
		if err := os.MkdirAll(m.installDir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", m.installDir, err)
		}
		if err := m.vcs.Clone(ctx, spec.Git, dir); err != nil {
			return err
		}
	case statErr != nil:
		return fmt.Errorf("inspecting %s: %w", dir, statErr)
	case update:
		m.logger.Info().Str("library", spec.Name).
			Str("version", spec.SelectorString()).Msg("updating")
		if err := m.vcs.Fetch(ctx, dir); err != nil {
			return err
		}
	default:
		m.logger.Debug().Str("library", spec.Name).Msg("already installed")
	}
	return m.vcs.Checkout(ctx, dir, spec)
}

// Status describes one declared library and whether it is installed.
type Status struct {
	Spec      *Spec
	Installed bool
	Dir       string
}

// List reports every declared library with its install status, in name
// order.
func (m *Manager) List() ([]Status, error) {
	manifest, err := m.Manifest()
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(manifest.Libraries))
	for _, name := range manifest.Names() {
		dir := filepath.Join(m.installDir, name)
		_, statErr := os.Stat(dir)
		out = append(out, Status{
			Spec:      manifest.Libraries[name],
			Installed: statErr == nil,
			Dir:       dir,
		})
	}
	return out, nil
}

// InstalledLibraries returns the names in the resolved dependency set.
// Used to seed the path resolver.
func (m *Manager) InstalledLibraries() ([]string, error) {
	top, err := m.Manifest()
	if err != nil {
		return nil, err
	}
	resolver := NewGraphResolver(DirManifestSource{Root: m.installDir}, m.logger)
	plan, err := resolver.Resolve(top)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(plan))
	for _, entry := range plan {
		names = append(names, entry.Spec.Name)
	}
	return names, nil
}

package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/library"
	"github.com/hdlforge/hdlforge/pkg/repo"
	"github.com/hdlforge/hdlforge/pkg/sources"
)

// openRepo discovers the repository root per the global flags.
func openRepo() (*repo.Repository, error) {
	return repo.Discover(rootPath)
}

// loadProject loads the project document addressed by the global flags.
func loadProject(r *repo.Repository) (*config.ModuleConfig, error) {
	return config.NewLoader().Load(r.ResolvePath(projectFile))
}

// newManager builds the library manager for a repository.
func newManager(r *repo.Repository) *library.Manager {
	return library.NewManager(r.ManifestPath(), r.LibsDir(), library.NewGitClient(), log.Logger)
}

// prepareSources resolves the project's source lists against the installed
// libraries.
func prepareSources(r *repo.Repository, cfg *config.ModuleConfig) (*sources.FileSet, error) {
	mgr := newManager(r)
	names, err := mgr.InstalledLibraries()
	if err != nil {
		return nil, err
	}
	resolver := library.NewPathResolver(r.Root, r.LibsDir(), names)
	return sources.Prepare(cfg, resolver)
}

// parseParams parses repeated KEY=VALUE flags with type inference.
func parseParams(assignments []string) (map[string]any, error) {
	if len(assignments) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(assignments))
	for _, a := range assignments {
		key, value, found := strings.Cut(a, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid parameter assignment %q, expected KEY=VALUE", a)
		}
		out[key] = config.ParseValue(value)
	}
	return out, nil
}

func sortedStrings(s []string) []string {
	sort.Strings(s)
	return s
}

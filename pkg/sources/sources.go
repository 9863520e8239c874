// Package sources turns the declared source lists of a project document
// into concrete file paths: symbolic @lib/ references are rewritten
// against the library install root and conventional library include
// directories are discovered.
package sources

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/library"
)

// FileSet is the fully resolved source layout for one build.
type FileSet struct {
	Packages  []string
	Modules   []string
	Includes  []string
	Resources []string

	// IncludeDirs holds the -I search directories: declared include
	// entries plus discovered library include directories.
	IncludeDirs []string
}

// All returns packages followed by modules.
func (f *FileSet) All() []string {
	out := make([]string, 0, len(f.Packages)+len(f.Modules))
	out = append(out, f.Packages...)
	out = append(out, f.Modules...)
	return out
}

// LibraryNames returns the distinct libraries referenced by the source
// lists, in first-seen order.
func LibraryNames(src config.Sources) []string {
	var names []string
	seen := make(map[string]bool)
	for _, list := range [][]string{src.Packages, src.Modules, src.Includes, src.Resources} {
		for _, path := range list {
			name := library.LibraryName(path)
			if name != "" && !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names
}

// Prepare resolves every source entry of the module and assembles the
// include search path. Each resolved file must exist; a missing file is
// an error naming the original entry.
func Prepare(cfg *config.ModuleConfig, resolver *library.PathResolver) (*FileSet, error) {
	fs := &FileSet{}

	resolveList := func(entries []string, out *[]string) error {
		for _, entry := range entries {
			path, err := resolver.Resolve(entry)
			if err != nil {
				return err
			}
			if _, statErr := os.Stat(path); statErr != nil {
				return fmt.Errorf("source %q: %w", entry, statErr)
			}
			*out = append(*out, path)
		}
		return nil
	}

	if err := resolveList(cfg.Sources.Packages, &fs.Packages); err != nil {
		return nil, err
	}
	if err := resolveList(cfg.Sources.Modules, &fs.Modules); err != nil {
		return nil, err
	}
	if err := resolveList(cfg.Sources.Includes, &fs.Includes); err != nil {
		return nil, err
	}
	if err := resolveList(cfg.Sources.Resources, &fs.Resources); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, inc := range fs.Includes {
		dir := inc
		if info, statErr := os.Stat(inc); statErr == nil && !info.IsDir() {
			// Header files are listed directly; the compiler wants the
			// directory holding them.
			dir = filepath.Dir(inc)
		}
		if !seen[dir] {
			seen[dir] = true
			fs.IncludeDirs = append(fs.IncludeDirs, dir)
		}
	}
	libDirs, err := resolver.IncludeDirs(LibraryNames(cfg.Sources))
	if err != nil {
		return nil, err
	}
	for _, dir := range libDirs {
		if !seen[dir] {
			seen[dir] = true
			fs.IncludeDirs = append(fs.IncludeDirs, dir)
		}
	}
	return fs, nil
}

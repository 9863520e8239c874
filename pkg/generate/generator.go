// Package generate builds a project document from parsed HDL sources:
// the auto command's engine. It parses the top module, walks instantiated
// submodules across conventional source directories, and emits a TOML
// document ready for hand editing.
package generate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/hdl"
	"github.com/hdlforge/hdlforge/pkg/repo"
)

// sourceExtensions are probed, in order, when locating an instantiated
// module's file.
var sourceExtensions = []string{".sv", ".v", ".svh", ".vh"}

// Generator derives project documents from HDL sources.
type Generator struct {
	repo   *repo.Repository
	logger zerolog.Logger
}

// NewGenerator creates a generator rooted at the repository.
func NewGenerator(r *repo.Repository, logger zerolog.Logger) *Generator {
	return &Generator{repo: r, logger: logger}
}

// Result holds a generated document and the discovery detail behind it.
type Result struct {
	Module     *hdl.Module
	Sources    []string
	Includes   []string
	Parameters map[string]*config.Parameter
}

// FromTop parses the given top-level HDL file and, when scanDeps is set,
// recursively locates every instantiated submodule under the conventional
// source directories.
func (g *Generator) FromTop(topFile string, scanDeps bool) (*Result, error) {
	topPath := g.repo.ResolvePath(topFile)
	module, err := hdl.ParseFile(topPath)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Module:     module,
		Sources:    []string{topPath},
		Includes:   module.Includes,
		Parameters: make(map[string]*config.Parameter),
	}
	for _, p := range module.Parameters {
		v := hdl.ParseDefault(p.Default)
		res.Parameters[p.Name] = &config.Parameter{
			Default: v,
			Type:    config.ValueType(p.Type),
		}
	}

	if scanDeps {
		if err := g.scanDependencies(topPath, module, res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// scanDependencies breadth-first walks instantiated modules, resolving
// each name to a file under the search directories and collecting further
// instances from every file found. Unresolvable names are skipped; they
// may be vendor primitives or macros.
func (g *Generator) scanDependencies(topPath string, module *hdl.Module, res *Result) error {
	searchDirs := []string{
		filepath.Dir(topPath),
		filepath.Join(filepath.Dir(topPath), "..", "rtl"),
		filepath.Join(filepath.Dir(topPath), "..", "src"),
		filepath.Join(g.repo.Root, "src"),
		filepath.Join(g.repo.Root, "rtl"),
	}

	inPlan := make(map[string]bool, len(res.Sources))
	for _, s := range res.Sources {
		inPlan[s] = true
	}

	visited := make(map[string]bool)
	queue := append([]string(nil), module.Instances...)
	if len(queue) > 0 {
		g.logger.Debug().Int("count", len(queue)).Msg("scanning dependencies")
	}

	for len(queue) > 0 {
		inst := queue[0]
		queue = queue[1:]
		if visited[inst] {
			continue
		}
		visited[inst] = true

		path, ok := findModuleFile(searchDirs, inst)
		if !ok {
			g.logger.Debug().Str("module", inst).Msg("no source file found, skipping")
			continue
		}
		if inPlan[path] {
			continue
		}
		inPlan[path] = true
		res.Sources = append(res.Sources, path)

		sub, err := hdl.ParseFile(path)
		if err != nil {
			// Headers and packages parse differently; their presence in
			// the source list is still what matters.
			continue
		}
		queue = append(queue, sub.Instances...)
		res.Includes = append(res.Includes, sub.Includes...)
	}
	return nil
}

func findModuleFile(dirs []string, name string) (string, bool) {
	for _, dir := range dirs {
		for _, ext := range sourceExtensions {
			path := filepath.Join(dir, name+ext)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}
	}
	return "", false
}

// WriteTOML renders the result as a project document at output. The
// document declares the parsed parameters, a default configuration, and
// sim/lint tool sections accepting it.
func (g *Generator) WriteTOML(res *Result, output string) error {
	doc := map[string]any{
		"forge": map[string]any{
			"generated": true,
		},
		"module": g.moduleSection(res),
	}

	if len(res.Parameters) > 0 {
		params := make(map[string]any, len(res.Parameters))
		for name, p := range res.Parameters {
			entry := map[string]any{"default": p.Default}
			if p.Type != "" && p.Type != config.TypeInteger {
				entry["type"] = string(p.Type)
			}
			params[name] = entry
		}
		doc["parameters"] = params
	}

	doc["configurations"] = map[string]any{
		config.ConfigurationDefault: map[string]any{},
	}
	doc["tools"] = map[string]any{
		"sim":  map[string]any{"configurations": []string{config.ConfigurationDefault}},
		"lint": map[string]any{"configurations": []string{config.ConfigurationDefault}},
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding project document: %w", err)
	}
	outPath := g.repo.ResolvePath(output)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	g.logger.Info().Str("path", g.repo.RelativePath(outPath)).
		Int("sources", len(res.Sources)).Msg("project document generated")
	return nil
}

func (g *Generator) moduleSection(res *Result) map[string]any {
	modules := make([]string, 0, len(res.Sources))
	for _, s := range res.Sources {
		modules = append(modules, g.repo.RelativePath(s))
	}
	section := map[string]any{
		"name": res.Module.Name,
		"top":  res.Module.Name,
		"type": string(config.ModuleRTL),
	}
	src := map[string]any{"modules": modules}
	if len(res.Includes) > 0 {
		includes := make([]string, 0, len(res.Includes))
		seen := make(map[string]bool)
		for _, inc := range res.Includes {
			if !seen[inc] {
				seen[inc] = true
				includes = append(includes, inc)
			}
		}
		src["includes"] = includes
	}
	section["sources"] = src
	return section
}

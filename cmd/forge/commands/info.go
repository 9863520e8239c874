package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hdlforge/hdlforge/pkg/config"
)

// projectSummary is the serializable view of a project document shown by
// the info command.
type projectSummary struct {
	Module         moduleSummary             `json:"module" yaml:"module"`
	Parameters     map[string]paramSummary   `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Defines        map[string]defineSummary  `json:"defines,omitempty" yaml:"defines,omitempty"`
	Configurations map[string]configSummary  `json:"configurations" yaml:"configurations"`
	Tools          map[string][]string       `json:"tools,omitempty" yaml:"tools,omitempty"`
}

type moduleSummary struct {
	Name        string `json:"name" yaml:"name"`
	Top         string `json:"top" yaml:"top"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type paramSummary struct {
	Default     any    `json:"default,omitempty" yaml:"default,omitempty"`
	Expr        string `json:"expr,omitempty" yaml:"expr,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Range       []any  `json:"range,omitempty" yaml:"range,omitempty"`
	Values      []any  `json:"values,omitempty" yaml:"values,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type defineSummary struct {
	Default     any    `json:"default" yaml:"default"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type configSummary struct {
	Inherit     string `json:"inherit,omitempty" yaml:"inherit,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Auto        bool   `json:"auto,omitempty" yaml:"auto,omitempty"`
}

func newInfoCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the parsed project document",
		Long: `Show the project document after parsing and enrichment: declared
parameters and defines, every configuration including auto-generated ones,
and the tool sections.`,
		Example: `  # Tabular overview
  forge info

  # Machine-readable output
  forge info --format json
  forge info --format yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			cfg, err := loadProject(r)
			if err != nil {
				return err
			}
			summary := summarize(cfg)

			switch format {
			case "table":
				printTable(cfg, summary)
				return nil
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				defer enc.Close()
				return enc.Encode(summary)
			}
			return fmt.Errorf("unknown format %q, expected table, json or yaml", format)
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "output format: table, json or yaml")
	return cmd
}

func summarize(cfg *config.ModuleConfig) *projectSummary {
	s := &projectSummary{
		Module: moduleSummary{
			Name:        cfg.Module.Name,
			Top:         cfg.Module.Top,
			Type:        string(cfg.Module.Type),
			Description: cfg.Module.Description,
		},
		Parameters:     make(map[string]paramSummary, len(cfg.Parameters)),
		Defines:        make(map[string]defineSummary, len(cfg.Defines)),
		Configurations: make(map[string]configSummary, len(cfg.Configurations)),
		Tools:          make(map[string][]string, len(cfg.Tools)),
	}
	for name, p := range cfg.Parameters {
		ps := paramSummary{
			Default:     p.Default,
			Expr:        p.Expr,
			Type:        string(p.Type),
			Values:      p.Values,
			Description: p.Description,
		}
		if p.Range != nil {
			ps.Range = []any{p.Range.Min, p.Range.Max}
		}
		s.Parameters[name] = ps
	}
	for name, d := range cfg.Defines {
		s.Defines[name] = defineSummary{
			Default:     d.Default,
			Type:        string(d.Type),
			Description: d.Description,
		}
	}
	for name, c := range cfg.Configurations {
		s.Configurations[name] = configSummary{
			Inherit:     c.Inherit,
			Description: c.Description,
			Auto:        c.Auto,
		}
	}
	for name, t := range cfg.Tools {
		if t.AllowsAll() {
			s.Tools[name] = []string{config.ConfigurationAll}
			continue
		}
		s.Tools[name] = t.Configurations
	}
	return s
}

func printTable(cfg *config.ModuleConfig, s *projectSummary) {
	fmt.Printf("Module: %s (top: %s, type: %s)\n", s.Module.Name, s.Module.Top, s.Module.Type)
	if s.Module.Description != "" {
		fmt.Printf("  %s\n", s.Module.Description)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	if len(cfg.Parameters) > 0 {
		fmt.Fprintln(w, "\nPARAMETER\tDEFAULT\tTYPE\tCONSTRAINT")
		for _, name := range sortedStrings(mapKeysParam(cfg)) {
			p := cfg.Parameters[name]
			def := fmt.Sprintf("%v", p.Default)
			if p.HasExpr() {
				def = "= " + p.Expr
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, def, p.Type, constraint(p))
		}
	}
	if len(cfg.Defines) > 0 {
		fmt.Fprintln(w, "\nDEFINE\tDEFAULT\tTYPE")
		for _, name := range sortedStrings(mapKeysDefine(cfg)) {
			d := cfg.Defines[name]
			fmt.Fprintf(w, "%s\t%v\t%s\n", name, d.Default, d.Type)
		}
	}
	fmt.Fprintln(w, "\nCONFIGURATION\tINHERIT\tORIGIN")
	for _, name := range cfg.ConfigurationNames() {
		c := cfg.Configurations[name]
		origin := "declared"
		if c.Auto {
			origin = "auto"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, c.Inherit, origin)
	}
	if len(s.Tools) > 0 {
		fmt.Fprintln(w, "\nTOOL\tCONFIGURATIONS")
		for _, name := range sortedStrings(mapKeysTools(s)) {
			fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(s.Tools[name], ", "))
		}
	}
	w.Flush()
}

func constraint(p *config.Parameter) string {
	if len(p.Values) > 0 {
		parts := make([]string, len(p.Values))
		for i, v := range p.Values {
			parts[i] = fmt.Sprintf("%v", v)
		}
		return "in {" + strings.Join(parts, ", ") + "}"
	}
	if p.Range != nil {
		return fmt.Sprintf("[%v, %v]", p.Range.Min, p.Range.Max)
	}
	return ""
}

func mapKeysParam(cfg *config.ModuleConfig) []string {
	keys := make([]string, 0, len(cfg.Parameters))
	for k := range cfg.Parameters {
		keys = append(keys, k)
	}
	return keys
}

func mapKeysDefine(cfg *config.ModuleConfig) []string {
	keys := make([]string, 0, len(cfg.Defines))
	for k := range cfg.Defines {
		keys = append(keys, k)
	}
	return keys
}

func mapKeysTools(s *projectSummary) []string {
	keys := make([]string, 0, len(s.Tools))
	for k := range s.Tools {
		keys = append(keys, k)
	}
	return keys
}

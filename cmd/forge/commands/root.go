package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	rootPath    string
	projectFile string
	verbose     bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "forge",
		Short: "HDLForge - HDL project configuration and library manager",
		Long: `HDLForge manages parameterized HDL projects from a single TOML document.

Features:
  - Named configurations with inheritance and inline parameter values
  - Computed parameters via expressions (log2, min, max, ...)
  - Layered overrides: defaults, configurations, tools, CLI
  - Versioned external libraries with transitive dependency resolution
  - Simulation (verilator, icarus) and lint runs per configuration
  - Project file generation from existing HDL sources`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&rootPath, "root", "", "repository root (default: discover via .forge-root)")
	rootCmd.PersistentFlags().StringVarP(&projectFile, "file", "f", "forge.toml", "project file path, relative to the root")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newInfoCommand())
	rootCmd.AddCommand(newSimCommand())
	rootCmd.AddCommand(newLintCommand())
	rootCmd.AddCommand(newCleanCommand())
	rootCmd.AddCommand(newAutoCommand())
	rootCmd.AddCommand(newLibCommand())

	return rootCmd
}

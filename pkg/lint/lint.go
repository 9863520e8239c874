// Package lint runs lint checks on HDL sources with composed configuration
// values, optionally re-running on source changes.
package lint

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/repo"
	"github.com/hdlforge/hdlforge/pkg/sim"
	"github.com/hdlforge/hdlforge/pkg/sources"
)

// Linter runs lint-only checks through a simulator's lint mode.
type Linter struct {
	repo   *repo.Repository
	logger zerolog.Logger

	execCommand func(ctx context.Context, dir string, bin string, args []string) error
}

// NewLinter creates a linter rooted at the repository.
func NewLinter(r *repo.Repository, logger zerolog.Logger) *Linter {
	return &Linter{repo: r, logger: logger, execCommand: runProcess}
}

func runProcess(ctx context.Context, dir string, bin string, args []string) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s is not available on this system", bin)
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Options controls one lint pass.
type Options struct {
	Tool      string
	ExtraArgs []string
}

// Lint checks the resolved sources against the composed values. Returns
// the run ID; a non-nil error means issues were found or the tool failed.
func (l *Linter) Lint(ctx context.Context, cfg *config.ModuleConfig, resolved *config.Resolved, fs *sources.FileSet, opts Options) (string, error) {
	tool := opts.Tool
	if tool == "" {
		tool = "verilator"
	}
	simulator, err := sim.ForSimulator(tool)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	logger := l.logger.With().
		Str("run_id", runID).
		Str("tool", tool).
		Str("configuration", resolved.Configuration).
		Logger()

	toolCfg := cfg.Tools[resolved.Tool]
	var extra []string
	if toolCfg != nil {
		extra = toolCfg.SimulatorSettings(simulator.Name()).CompileArgs
	}
	extra = append(extra, opts.ExtraArgs...)

	inv := &sim.Invocation{
		Top:         cfg.Module.Top,
		Sources:     fs.All(),
		IncludeDirs: fs.IncludeDirs,
		Parameters:  resolved.Parameters,
		Defines:     resolved.Defines,
		ExtraArgs:   extra,
	}
	args := simulator.LintArgs(inv)
	if args == nil {
		return "", fmt.Errorf("%s does not support lint-only mode", tool)
	}

	logger.Info().Int("sources", len(inv.Sources)).Msg("linting")
	if err := l.execCommand(ctx, l.repo.Root, simulator.Binary(), args); err != nil {
		return runID, fmt.Errorf("lint failed: %w", err)
	}
	logger.Info().Msg("lint clean")
	return runID, nil
}

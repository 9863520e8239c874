package sim

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/repo"
	"github.com/hdlforge/hdlforge/pkg/sources"
)

// Runner executes simulations for composed configurations.
type Runner struct {
	repo   *repo.Repository
	logger zerolog.Logger

	// execCommand runs one external process; tests replace it.
	execCommand func(ctx context.Context, dir string, env []string, bin string, args []string) error
}

// NewRunner creates a runner rooted at the repository.
func NewRunner(r *repo.Repository, logger zerolog.Logger) *Runner {
	return &Runner{
		repo:        r,
		logger:      logger,
		execCommand: runProcess,
	}
}

func runProcess(ctx context.Context, dir string, env []string, bin string, args []string) error {
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%s is not available on this system", bin)
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Options controls one simulation run.
type Options struct {
	Simulator string
	Test      string
	ExtraArgs []string
}

// Run builds and executes a simulation of the composed configuration.
// Returns the run ID.
func (r *Runner) Run(ctx context.Context, cfg *config.ModuleConfig, resolved *config.Resolved, fs *sources.FileSet, opts Options) (string, error) {
	simulator, err := ForSimulator(opts.Simulator)
	if err != nil {
		return "", err
	}

	runID := uuid.NewString()
	logger := r.logger.With().
		Str("run_id", runID).
		Str("simulator", simulator.Name()).
		Str("configuration", resolved.Configuration).
		Logger()

	buildDir := filepath.Join(r.repo.BuildDir(simulator.Name()), resolved.Configuration)
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", buildDir, err)
	}

	tool := cfg.Tools[resolved.Tool]
	var extra []string
	if tool != nil {
		extra = tool.SimulatorSettings(simulator.Name()).CompileArgs
	}
	extra = append(extra, opts.ExtraArgs...)

	inv := &Invocation{
		Top:         cfg.Module.Top,
		Sources:     fs.All(),
		IncludeDirs: fs.IncludeDirs,
		Parameters:  resolved.Parameters,
		Defines:     resolved.Defines,
		BuildDir:    buildDir,
		ExtraArgs:   extra,
	}

	var timeout time.Duration
	env := []string{"FORGE_RUN_ID=" + runID}
	if opts.Test != "" {
		test, testEnv, err := r.testEnvironment(tool, resolved, opts.Test)
		if err != nil {
			return "", err
		}
		env = append(env, testEnv...)
		timeout = time.Duration(test.Timeout) * time.Second
		if len(test.Parameters) > 0 {
			merged := make(map[string]any, len(resolved.Parameters)+len(test.Parameters))
			for name, v := range resolved.Parameters {
				merged[name] = v
			}
			for name, v := range test.Parameters {
				merged[name] = v
			}
			inv.Parameters = merged
		}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger.Info().Str("top", inv.Top).Int("sources", len(inv.Sources)).Msg("compiling")
	if err := r.execCommand(ctx, r.repo.Root, env, simulator.Binary(), simulator.CompileArgs(inv)); err != nil {
		return runID, fmt.Errorf("compilation failed: %w", err)
	}

	bin, args := executable(simulator, inv, tool)
	if bin == "" {
		logger.Info().Msg("build complete")
		return runID, nil
	}
	logger.Info().Msg("simulating")
	if err := r.execCommand(ctx, buildDir, env, bin, args); err != nil {
		return runID, fmt.Errorf("simulation failed: %w", err)
	}
	logger.Info().Msg("simulation passed")
	return runID, nil
}

// executable returns the post-build simulation command, if the simulator
// separates build from run.
func executable(s Simulator, inv *Invocation, tool *config.ToolConfig) (string, []string) {
	var simArgs []string
	if tool != nil {
		simArgs = tool.SimulatorSettings(s.Name()).SimArgs
	}
	switch s.Name() {
	case "verilator":
		return filepath.Join(inv.BuildDir, "V"+inv.Top), append([]string{"+trace"}, simArgs...)
	case "icarus":
		return "vvp", append([]string{filepath.Join(inv.BuildDir, "sim.vvp")}, simArgs...)
	}
	return "", nil
}

// testEnvironment resolves the named test and encodes the composed values
// for the test process.
func (r *Runner) testEnvironment(tool *config.ToolConfig, resolved *config.Resolved, testName string) (config.TestConfig, []string, error) {
	var test config.TestConfig
	if tool == nil {
		return test, nil, fmt.Errorf("no tests declared for tool %q", resolved.Tool)
	}
	test, ok := tool.Tests[testName]
	if !ok {
		names := make([]string, 0, len(tool.Tests))
		for name := range tool.Tests {
			names = append(names, name)
		}
		return test, nil, fmt.Errorf("unknown test %q, declared: %v", testName, names)
	}

	params, err := json.Marshal(resolved.Parameters)
	if err != nil {
		return test, nil, err
	}
	defines, err := json.Marshal(resolved.Defines)
	if err != nil {
		return test, nil, err
	}
	env := []string{
		"FORGE_TEST_MODULE=" + test.TestModule,
		"FORGE_TEST_PARAMETERS=" + string(params),
		"FORGE_TEST_DEFINES=" + string(defines),
		"FORGE_TEST_CONFIGURATION=" + resolved.Configuration,
	}
	for k, v := range test.Env {
		env = append(env, k+"="+v)
	}
	return test, env, nil
}

// ListTests returns the declared test names for a tool, sorted.
func ListTests(tool *config.ToolConfig) []string {
	if tool == nil {
		return nil
	}
	return sortedKeys(toAny(tool.Tests))
}

func toAny(tests map[string]config.TestConfig) map[string]any {
	out := make(map[string]any, len(tests))
	for k, v := range tests {
		out[k] = v
	}
	return out
}

// Clean removes build artifacts. An empty simulator cleans every build
// directory.
func Clean(r *repo.Repository, simulator string) error {
	if simulator != "" {
		return os.RemoveAll(r.BuildDir(simulator))
	}
	return os.RemoveAll(filepath.Join(r.Root, "build"))
}

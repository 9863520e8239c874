package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/lint"
)

func newLintCommand() *cobra.Command {
	var (
		configs   []string
		params    []string
		tool      string
		watch     bool
		extraArgs []string
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Run lint checks on HDL sources",
		Long: `Run lint-only checks against the composed values of the requested
configurations. With --watch the sources are re-linted on every change
until interrupted.`,
		Example: `  # Lint the default configuration
  forge lint

  # Lint one configuration with an override
  forge lint -c wide --param WIDTH=64

  # Re-lint on every source change
  forge lint --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			cfg, err := loadProject(r)
			if err != nil {
				return err
			}
			names, err := config.ExpandConfigurations(cfg, "lint", configs)
			if err != nil {
				return err
			}
			overrides, err := parseParams(params)
			if err != nil {
				return err
			}
			fs, err := prepareSources(r, cfg)
			if err != nil {
				return err
			}

			composer := config.NewComposer()
			linter := lint.NewLinter(r, log.Logger)
			pass := func() error {
				for _, name := range names {
					resolved, err := composer.Compose(cfg, "lint", name, overrides)
					if err != nil {
						return err
					}
					runID, err := linter.Lint(cmd.Context(), cfg, resolved, fs, lint.Options{
						Tool:      tool,
						ExtraArgs: extraArgs,
					})
					if err != nil {
						return fmt.Errorf("configuration %q (run %s): %w", name, runID, err)
					}
				}
				return nil
			}

			if !watch {
				return pass()
			}
			if err := pass(); err != nil {
				log.Error().Err(err).Msg("lint failed")
			}
			watcher := lint.NewWatcher(log.Logger)
			return watcher.Watch(cmd.Context(), fs.All(), pass)
		},
	}

	cmd.Flags().StringArrayVarP(&configs, "config", "c", nil, "configuration name (repeatable, or \"all\")")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter override KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&tool, "tool", "verilator", "lint tool")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-lint on source changes")
	cmd.Flags().StringArrayVar(&extraArgs, "extra-arg", nil, "extra lint argument (repeatable)")

	return cmd
}

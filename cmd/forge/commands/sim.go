package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hdlforge/hdlforge/pkg/config"
	"github.com/hdlforge/hdlforge/pkg/sim"
)

func newSimCommand() *cobra.Command {
	var (
		configs   []string
		params    []string
		simulator string
		test      string
		listTests bool
		extraArgs []string
	)

	cmd := &cobra.Command{
		Use:   "sim",
		Short: "Build and run simulations",
		Long: `Compose parameter and define values for the requested configurations
and run the simulator once per configuration.

The sim tool section of the project document controls which configurations
are accepted and contributes tool-level overrides.`,
		Example: `  # Simulate the default configuration
  forge sim

  # Simulate specific configurations with overrides
  forge sim -c wide -c narrow --param WIDTH=64

  # Every configuration the sim tool accepts
  forge sim -c all

  # Run a declared test with icarus
  forge sim --simulator icarus --test smoke`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			cfg, err := loadProject(r)
			if err != nil {
				return err
			}

			tool := cfg.Tools["sim"]
			if listTests {
				for _, name := range sim.ListTests(tool) {
					fmt.Println(name)
				}
				return nil
			}

			names, err := config.ExpandConfigurations(cfg, "sim", configs)
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
			runner := sim.NewRunner(r, log.Logger)
			for _, name := range names {
				resolved, err := composer.Compose(cfg, "sim", name, overrides)
				if err != nil {
					return err
				}
				runID, err := runner.Run(cmd.Context(), cfg, resolved, fs, sim.Options{
					Simulator: simulator,
					Test:      test,
					ExtraArgs: extraArgs,
				})
				if err != nil {
					return fmt.Errorf("configuration %q (run %s): %w", name, runID, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&configs, "config", "c", nil, "configuration name (repeatable, or \"all\")")
	cmd.Flags().StringArrayVar(&params, "param", nil, "parameter override KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&simulator, "simulator", "verilator", "simulator: verilator or icarus")
	cmd.Flags().StringVar(&test, "test", "", "declared test to run")
	cmd.Flags().BoolVar(&listTests, "list-tests", false, "list declared tests and exit")
	cmd.Flags().StringArrayVar(&extraArgs, "extra-arg", nil, "extra compile argument (repeatable)")

	return cmd
}

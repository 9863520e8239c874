package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hdlforge/hdlforge/pkg/generate"
)

func newAutoCommand() *cobra.Command {
	var (
		output string
		noDeps bool
	)

	cmd := &cobra.Command{
		Use:   "auto TOP_FILE",
		Short: "Generate a project document from HDL sources",
		Long: `Parse the given top module, discover its instantiated submodules under
the conventional source directories, and write a project TOML declaring
the found sources and parameters.`,
		Example: `  # Generate forge.toml from a top module
  forge auto rtl/fifo.sv

  # Generate without dependency scanning
  forge auto rtl/fifo.sv --no-deps --output fifo.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			gen := generate.NewGenerator(r, log.Logger)
			res, err := gen.FromTop(args[0], !noDeps)
			if err != nil {
				return err
			}
			out := output
			if out == "" {
				out = projectFile
			}
			return gen.WriteTOML(res, out)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: the project file)")
	cmd.Flags().BoolVar(&noDeps, "no-deps", false, "skip dependency scanning")
	return cmd
}

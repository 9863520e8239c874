package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hdlforge/hdlforge/pkg/repo"
)

func newInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Initialize a repository root",
		Long: `Initialize a repository root by creating the ` + repo.MarkerFile + ` marker file.

All forge commands resolve paths relative to the nearest marker above the
working directory, or to FORGE_ROOT when set.`,
		Example: `  # Initialize the current directory
  forge init

  # Initialize another directory
  forge init ./my-project`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r, err := repo.Init(dir)
			if err != nil {
				return err
			}
			log.Info().Str("root", r.Root).Msg("repository initialized")
			fmt.Printf("Initialized repository root at %s\n", r.Root)
			return nil
		},
	}
	return cmd
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hdlforge/hdlforge/pkg/sim"
)

func newCleanCommand() *cobra.Command {
	var simulator string

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove build artifacts",
		Example: `  # Remove every build directory
  forge clean

  # Remove only verilator output
  forge clean --simulator verilator`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			if err := sim.Clean(r, simulator); err != nil {
				return err
			}
			if simulator != "" {
				fmt.Printf("Cleaned build/%s\n", simulator)
			} else {
				fmt.Println("Cleaned build directories")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&simulator, "simulator", "", "clean a single simulator's build directory")
	return cmd
}

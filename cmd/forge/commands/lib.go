package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hdlforge/hdlforge/pkg/library"
)

func newLibCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lib",
		Short: "Manage external dependency libraries",
		Long: `Manage the library manifest (.forge/libraries.toml) and the installed
checkouts under .forge/libs/. Dependencies are resolved transitively:
an installed library may carry its own manifest.`,
	}

	cmd.AddCommand(newLibAddCommand())
	cmd.AddCommand(newLibInstallCommand())
	cmd.AddCommand(newLibUpdateCommand())
	cmd.AddCommand(newLibListCommand())
	cmd.AddCommand(newLibRemoveCommand())
	return cmd
}

func newLibAddCommand() *cobra.Command {
	var (
		name   string
		tag    string
		branch string
		commit string
	)

	cmd := &cobra.Command{
		Use:   "add GIT_URL",
		Short: "Declare a new library",
		Long: `Declare a library in the manifest. Exactly one of --tag, --branch or
--commit selects the version. The name defaults to the last path segment
of the URL.`,
		Example: `  forge lib add https://github.com/corp/axi-utils.git --tag v1.2.0
  forge lib add git@github.com:corp/fifo-lib.git --branch main --name fifo`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			spec := &library.Spec{Git: args[0], Tag: tag, Branch: branch, Commit: commit}
			if err := newManager(r).Add(name, spec); err != nil {
				return err
			}
			resolved := name
			if resolved == "" {
				resolved = library.DeriveName(args[0])
			}
			fmt.Printf("Added library %s (%s)\n", resolved, spec.SelectorString())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "library name (default: derived from the URL)")
	cmd.Flags().StringVar(&tag, "tag", "", "version tag")
	cmd.Flags().StringVar(&branch, "branch", "", "branch name")
	cmd.Flags().StringVar(&commit, "commit", "", "commit hash")
	return cmd
}

func newLibInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install all declared libraries",
		Long: `Resolve the transitive dependency graph and install every library in
dependency order. Already-installed libraries are checked out at their
selected version without refetching.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			plan, err := newManager(r).InstallAll(cmd.Context(), false)
			if err != nil {
				return err
			}
			log.Info().Int("libraries", len(plan)).Msg("install complete")
			return nil
		},
	}
}

func newLibUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update installed libraries",
		Long:  `Fetch every declared library and check out its selected version again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			plan, err := newManager(r).InstallAll(cmd.Context(), true)
			if err != nil {
				return err
			}
			log.Info().Int("libraries", len(plan)).Msg("update complete")
			return nil
		},
	}
}

func newLibListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List declared libraries and their install status",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			statuses, err := newManager(r).List()
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println("No libraries declared")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tVERSION\tURL\tSTATUS")
			for _, s := range statuses {
				status := "not installed"
				if s.Installed {
					status = "installed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", s.Spec.Name, s.Spec.SelectorString(), s.Spec.Git, status)
			}
			return w.Flush()
		},
	}
}

func newLibRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove a library and its checkout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo()
			if err != nil {
				return err
			}
			if err := newManager(r).Remove(args[0]); err != nil {
				return err
			}
			fmt.Printf("Removed library %s\n", args[0])
			return nil
		},
	}
}

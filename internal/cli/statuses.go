package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// NewStatusesCommand creates the statuses command group.
func NewStatusesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statuses",
		Short: "Manage the status catalog",
		Long: `The status catalog is the ordered list of labels offered when editing an
application. Editing it never changes stored applications; use migrate
(or remove --migrate-to) to relabel data.`,
	}

	cmd.AddCommand(newStatusesListCommand(rootOpts))
	cmd.AddCommand(newStatusesAddCommand(rootOpts))
	cmd.AddCommand(newStatusesRemoveCommand(rootOpts))
	cmd.AddCommand(newStatusesResetCommand(rootOpts))
	cmd.AddCommand(newStatusesMigrateCommand(rootOpts))

	return cmd
}

func printLabels(rootOpts *RootOptions, w io.Writer, labels []string) error {
	out := &OutputFormatter{Format: rootOpts.Format, Writer: w}
	return out.Emit(map[string]any{"statuses": labels}, func(w io.Writer) error {
		for _, l := range labels {
			fmt.Fprintln(w, l)
		}
		return nil
	})
}

func newStatusesListCommand(rootOpts *RootOptions) *cobra.Command {
	var usage bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog labels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if !usage {
				labels, err := a.catalog.List(cmd.Context())
				if err != nil {
					return err
				}
				return printLabels(rootOpts, cmd.OutOrStdout(), labels)
			}

			rows, err := a.catalog.Usage(cmd.Context())
			if err != nil {
				return err
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Emit(map[string]any{"usage": rows}, func(w io.Writer) error {
				fmt.Fprintln(w, "STATUS\tCOUNT\tIN CATALOG")
				for _, u := range rows {
					fmt.Fprintf(w, "%s\t%d\t%t\n", u.Status, u.Count, u.InCatalog)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&usage, "usage", false, "include application counts and orphaned labels")

	return cmd
}

func newStatusesAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <label>",
		Short: "Append a label to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			labels, err := a.catalog.Add(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printLabels(rootOpts, cmd.OutOrStdout(), labels)
		},
	}
}

func newStatusesRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	var migrateTo string

	cmd := &cobra.Command{
		Use:   "remove <label>",
		Short: "Remove a label from the catalog",
		Long: `Remove drops a label from the catalog. Applications already at the label
keep it unless --migrate-to moves them first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			labels, moved, err := a.catalog.Retire(cmd.Context(), args[0], migrateTo)
			if err != nil {
				return err
			}
			if migrateTo != "" && rootOpts.Format != "json" {
				fmt.Fprintf(cmd.OutOrStdout(), "Moved %d application(s) to %s\n", moved, migrateTo)
			}
			return printLabels(rootOpts, cmd.OutOrStdout(), labels)
		},
	}

	cmd.Flags().StringVar(&migrateTo, "migrate-to", "", "move applications at the label to this status first")

	return cmd
}

func newStatusesResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore the default catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			labels, err := a.catalog.Reset(cmd.Context())
			if err != nil {
				return err
			}
			return printLabels(rootOpts, cmd.OutOrStdout(), labels)
		},
	}
}

func newStatusesMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <from> <to>",
		Short: "Relabel every application at one status",
		Long: `Migrate moves every application whose current status is <from> to <to>
and records one history event per moved application, in one transaction.
The catalog is left unchanged.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			moved, err := a.catalog.BulkMigrate(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Emit(map[string]any{"migrated": moved}, func(w io.Writer) error {
				fmt.Fprintf(w, "Moved %d application(s) from %s to %s\n", moved, args[0], args[1])
				return nil
			})
		},
	}
}

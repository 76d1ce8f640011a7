package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the catalog and report problems",
		Long: `Load the dish and spice tables with the configured malformed-row policy.
Prints the counts on success, or the first failing resource and row.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := e.load(cmd.Context()); err != nil {
				fmt.Fprintln(out, err)
				return fmt.Errorf("catalog %s is invalid", e.loader.Source().Describe())
			}

			c := e.loader.Catalog()
			fmt.Fprintf(out, "catalog %s ok: %d spices, %d dishes\n",
				e.loader.Source().Describe(), c.SpiceCount(), c.DishCount())
			for _, name := range c.UnknownSpices() {
				fmt.Fprintf(out, "warning: %q is used by a dish but not on the shelf\n", name)
			}
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/spiceshelf/shelf/internal/application/shelf"
	"github.com/spiceshelf/shelf/internal/infrastructure/http/apiserver"
	"github.com/spiceshelf/shelf/internal/infrastructure/persistence/memory"
)

func newMatchCmd(opts *rootOptions) *cobra.Command {
	var (
		spices []string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "List dishes that use every given spice",
		Example: `  shelfctl match --spice Cumin --spice Turmeric
  shelfctl match -s Cardamom --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := opts.env()
			if err != nil {
				return err
			}
			if err := e.load(cmd.Context()); err != nil {
				return err
			}

			service := shelf.NewService(e.loader, memory.NewBasketRepository(0), nil, e.logger)
			dishes, err := service.Match(cmd.Context(), spices)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(apiserver.NewDishResponses(dishes))
			}

			if len(dishes) == 0 {
				fmt.Fprintln(out, "No dishes use all of those spices.")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DISH\tREGION\tCATEGORY\tHEAT\tSPICES")
			for _, d := range dishes {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					d.Name, d.Region, d.Category, d.Heat, strings.Join(d.Spices, ", "))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringArrayVarP(&spices, "spice", "s", nil, "spice in the basket (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

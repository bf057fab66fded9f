package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"interiorquote/config"
	"interiorquote/services"
)

// newCatalogCommand returns the "catalog" command group for inspecting and
// extending the catalog file without starting the server.
func newCatalogCommand(cfg *config.Config, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or extend the priced catalog",
	}

	var process string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat := services.NewCatalogStore(cfg.CatalogPath, logger).Load()
			entries := cat.Entries
			if process != "" {
				entries = cat.ItemsFor(process)
			}
			return printCatalog(cmd.OutOrStdout(), entries)
		},
	}
	listCmd.Flags().StringVar(&process, "process", "", "only list items of this process")

	var entry services.CatalogEntry
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Append one entry to the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := services.NewCatalogStore(cfg.CatalogPath, logger).Append(entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s / %s (%s) at %s\n",
				stored.Process, stored.ItemName, stored.Unit, services.FormatWon(services.RoundWon(stored.BasePrice)))
			return nil
		},
	}
	addCmd.Flags().StringVar(&entry.Process, "process", "", "process name")
	addCmd.Flags().StringVar(&entry.ItemName, "item", "", "item name")
	addCmd.Flags().StringVar(&entry.Unit, "unit", "", "unit of measure")
	addCmd.Flags().Float64Var(&entry.BasePrice, "price", 0, "base price in won")

	cmd.AddCommand(listCmd, addCmd)
	return cmd
}

func printCatalog(w io.Writer, entries []services.CatalogEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PROCESS\tITEM\tUNIT\tBASE PRICE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Process, e.ItemName, e.Unit, services.FormatWon(services.RoundWon(e.BasePrice)))
	}
	return tw.Flush()
}

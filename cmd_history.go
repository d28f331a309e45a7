package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/akinalp/pricelist/models"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved price list copies",
	}
	cmd.AddCommand(historyListCmd())
	return cmd
}

func historyListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List history copies, newest first",
		Args:  cobra.NoArgs,
		RunE: withCLI(func(cmd *cobra.Command, _ []string, env *cliEnv) error {
			entries, err := env.services.PriceList.ListHistory(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(entries) > limit {
				entries = entries[:limit]
			}
			return printHistory(cmd.OutOrStdout(), entries)
		}),
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most n entries (0 = all)")
	return cmd
}

func printHistory(w io.Writer, entries []models.HistoryEntry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSAVED (UTC)\tSIZE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Name, e.SavedAt.UTC().Format(time.DateTime), e.Size)
	}
	return tw.Flush()
}

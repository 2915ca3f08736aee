package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/finance-docs/internal/domain"
	infraBQ "github.com/dvloznov/finance-docs/internal/infra/bigquery"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently issued documents from the BigQuery ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, stop, err := setup(cmd)
		if err != nil {
			return err
		}
		defer stop()

		if a.Ledger == nil {
			return errors.New("history needs BIGQUERY_PROJECT to be set")
		}
		docs, err := a.Ledger.ListRecent(ctx, historyLimit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), docs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", infraBQ.DefaultListLimit, "number of documents to show")
}

func printHistory(w io.Writer, docs []domain.IssuedDocument) {
	fmt.Fprintf(w, "=== Issued documents (%d) ===\n", len(docs))
	for i, d := range docs {
		fmt.Fprintf(w, "\n%d. %s %s\n", i+1, d.DocumentType.Label(), d.Description)
		fmt.Fprintf(w, "   Date:   %s\n", d.Date)
		fmt.Fprintf(w, "   Client: %s\n", d.Client)
		fmt.Fprintf(w, "   Amount: %s\n", d.Amount.StringFixed(2))
		fmt.Fprintf(w, "   Stage:  %s\n", d.Stage)
		if d.Link != "" {
			fmt.Fprintf(w, "   Link:   %s\n", d.Link)
		}
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/dvloznov/finance-docs/internal/clientcache"
	"github.com/spf13/cobra"
)

var clientsFilter string

var clientsCmd = &cobra.Command{
	Use:   "clients",
	Short: "List known client names",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, a, stop, err := setup(cmd)
		if err != nil {
			return err
		}
		defer stop()

		printClients(cmd.OutOrStdout(), a.Clients.Names(ctx), clientsFilter)
		return nil
	},
}

func init() {
	clientsCmd.Flags().StringVarP(&clientsFilter, "filter", "f", "", "only show names containing this text")
}

func printClients(w io.Writer, snap clientcache.Snapshot, filter string) {
	if snap.Notice != "" {
		fmt.Fprintln(w, snap.Notice)
	}
	for _, name := range clientcache.Filter(snap.Names, filter) {
		fmt.Fprintln(w, name)
	}
}

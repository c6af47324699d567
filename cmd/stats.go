package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/nconklindev/warrantor/internal/types"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			counts, err := a.dashboard.Counts()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Customer Records:     %d\n", counts.Customers)
			fmt.Fprintf(out, "Warranties Activated: %d\n", counts.Warranties)
			fmt.Fprintf(out, "Claims Submitted:     %d\n", counts.Claims)
			return nil
		})
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Dump every stored collection as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			snap, err := a.dashboard.Snapshot()
			if err != nil {
				return err
			}

			dump := make(map[string][]types.Record, len(snap))
			for c, records := range snap {
				dump[c.Key()] = records
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dump)
		})
	},
}

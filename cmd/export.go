package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/nconklindev/warrantor/internal/dashboard"
	"github.com/nconklindev/warrantor/internal/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:       "export <warranty|claims|all>",
	Short:     "Download warranty or claim data as Excel files",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(types.KindWarranty), string(types.KindClaims), "all"},
	RunE:      runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	return withApp(func(a *app) error {
		if args[0] == "all" {
			results, err := a.dashboard.ExportAll()
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "No data to download")
			}
			for _, res := range results {
				printExport(out, res)
			}
			return nil
		}

		res, err := a.dashboard.Export(types.Kind(args[0]))
		if errors.Is(err, dashboard.ErrNothingToDownload) {
			fmt.Fprintln(out, capitalize(err.Error()))
			return nil
		}
		if err != nil {
			return err
		}
		printExport(out, res)
		return nil
	})
}

func printExport(out io.Writer, res *types.ExportResult) {
	fmt.Fprintf(out, "Saved %s (%d records, %s)\n", res.OutputFile, res.Records, humanize.Bytes(uint64(res.Bytes)))
}

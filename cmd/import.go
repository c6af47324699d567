package cmd

import (
	"fmt"

	"github.com/nconklindev/warrantor/internal/types"
	"github.com/nconklindev/warrantor/internal/upload"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Upload customer data from an Excel file",
	Long:  "Parse the first sheet of an .xlsx/.xls file, check it carries the expected customer columns and replace the stored customer data.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app) error {
		c := upload.NewController(a.store, types.CollectionCustomer, a.cfg.CustomerColumns,
			upload.WithLogger(a.logger))

		result, err := c.UploadFile(args[0])
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully uploaded %d customer records from %s\n",
			len(result.Records), result.InputFile)
		return nil
	})
}

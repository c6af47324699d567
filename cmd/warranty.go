package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/nconklindev/warrantor/internal/warranty"

	"github.com/spf13/cobra"
)

var (
	onDate  string
	problem string
)

var activateCmd = &cobra.Command{
	Use:   "activate <order-id>",
	Short: "Activate the warranty for a customer order",
	Long:  "Look the order up in the uploaded customer data and issue a warranty valid for six months from the activation date.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseDate(onDate)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			w, err := a.warranty.Activate(args[0], at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Warranty %s activated for order %s, valid until %s\n",
				w["Warranty ID"], w["Order ID"], w["Expiry Date"])
			return nil
		})
	},
}

var claimCmd = &cobra.Command{
	Use:   "claim <order-id>",
	Short: "Submit a warranty claim for a customer order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := parseDate(onDate)
		if err != nil {
			return err
		}
		return withApp(func(a *app) error {
			c, err := a.warranty.SubmitClaim(args[0], problem, at)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Claim %s submitted for order %s (%s)\n",
				c["Claim ID"], c["Order ID"], c["Status"])
			return nil
		})
	},
}

func init() {
	activateCmd.Flags().StringVar(&onDate, "date", "", "activation date, YYYY-MM-DD (default today)")

	claimCmd.Flags().StringVar(&onDate, "date", "", "claim date, YYYY-MM-DD (default today)")
	claimCmd.Flags().StringVar(&problem, "problem", "", "description of the problem (required)")
	claimCmd.MarkFlagRequired("problem")
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(warranty.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

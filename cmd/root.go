package cmd

import (
	"fmt"
	"os"

	"github.com/nconklindev/warrantor/internal/config"
	"github.com/nconklindev/warrantor/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	password string
)

var rootCmd = &cobra.Command{
	Use:   "warrantor",
	Short: "Admin console for the product warranty system",
	Long: `Warrantor lets an operator upload a spreadsheet of customer orders,
activate warranties and file claims against them, and download warranty
and claim records as Excel files.

Run without a subcommand to open the interactive dashboard.`,
	SilenceUsage: true,
	RunE:         runTUI,
}

// Execute runs the root command and exits non-zero on failure.
func Execute(version string) {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", config.DefaultPath, "config file")
	rootCmd.PersistentFlags().StringVarP(&password, "password", "p", "", "admin password (defaults to $WARRANTOR_PASSWORD)")

	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(debugCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(hashPasswordCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	m := ui.InitialModel(ui.Deps{
		Session:   a.session,
		Store:     a.store,
		Dashboard: a.dashboard,
		Expected:  a.cfg.CustomerColumns,
		LogPath:   a.cfg.LogPath(),
		Logger:    a.logger,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

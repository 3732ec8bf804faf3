package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/healthmarket_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/healthmarket_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "healthmarket",
	Short: "Healthmarket connects patients with doctors and hospitals.",
	Long: `Healthmarket is a healthcare marketplace backend. Patients discover doctors and
hospitals, book appointments at their establishments and leave feedback; doctors and
hospitals onboard, publish weekly timings and manage their bookings.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}

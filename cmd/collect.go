package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var collectOutput string

// collectCmd prints the local inventory without contacting the remote service.
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and print the local inventory",
	Long: `Runs every enabled tool and prints the merged device together with the
status of each tool. The remote inventory is never contacted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, logg, err := setup()
		if err != nil {
			return err
		}
		defer logg.Sync()

		// Sinks are never used here.
		cfg.Agent.ArchiveReports = false
		cfg.Agent.UploadReports = false

		driver, err := newDriver(ctx, cfg, logg)
		if err != nil {
			return err
		}

		inv, invErr := driver.Inventory(ctx)
		if err := writeOutput(os.Stdout, collectOutput, inv); err != nil {
			return err
		}
		return invErr
	},
}

func init() {
	collectCmd.Flags().StringVarP(&collectOutput, "output", "o", "json", "Output format (json or yaml)")
	RootCmd.AddCommand(collectCmd)
}

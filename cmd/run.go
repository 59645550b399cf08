package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inventory-agent/feature/agent"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the run command
	runOutput          string
	runDryRun          bool
	runAuthoritative   bool
	runNoAuthoritative bool
)

// runCmd performs a single reconciliation run.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one reconciliation pass and print the report",
	Long: `Collects facts from every enabled tool, merges them, compares the result
with the remote inventory and applies the difference.

The report is printed to stdout. The command exits non-zero only when the
run failed; a partially applied changeset is reported but exits zero.

Examples:
  # Show what would change without touching the remote inventory
  inventory-agent run --dry-run

  # Also delete remote components that are no longer present locally
  inventory-agent run --authoritative-removals --output yaml`,
	RunE: runReconcile,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "json", "Report format (json or yaml)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "Compute the changeset without applying it")
	runCmd.Flags().BoolVar(&runAuthoritative, "authoritative-removals", false, "Remove remote components missing locally")
	runCmd.Flags().BoolVar(&runNoAuthoritative, "no-authoritative-removals", false, "Never remove remote components")
	runCmd.MarkFlagsMutuallyExclusive("authoritative-removals", "no-authoritative-removals")

	RootCmd.AddCommand(runCmd)
}

func runReconcile(cmd *cobra.Command, args []string) error {
	// An interrupt skips the remaining operations; the report is still printed.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logg, err := setup()
	if err != nil {
		return err
	}
	defer logg.Sync()

	if runDryRun {
		cfg.Agent.DryRun = true
	}
	if runAuthoritative {
		cfg.Agent.AuthoritativeRemovals = true
	}
	if runNoAuthoritative {
		cfg.Agent.AuthoritativeRemovals = false
	}

	driver, err := newDriver(ctx, cfg, logg)
	if err != nil {
		return err
	}

	report, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	if err := writeOutput(os.Stdout, runOutput, report); err != nil {
		return err
	}

	if report.Status == agent.StatusFailed {
		return fmt.Errorf("reconciliation run %s failed", report.RunID)
	}
	if report.Status == agent.StatusPartiallyFailed {
		logg.Warn("Reconciliation run partially failed", zap.String("run_id", report.RunID))
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel [base-url]",
	Short: "Cancel a running scrape job",
	Long: `Requests cancellation of the scrape job for a base URL. The job
finishes its current page, checkpoints, and terminates; partial results
stay indexed and the job can be continued by running 'quarry scrape'
again for the same base URL.`,
	Args: cobra.ExactArgs(1),
	RunE: runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	if crawlService == nil {
		return errors.New("crawl service not configured")
	}

	if err := crawlService.Cancel(context.Background(), args[0]); err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}

	cmd.Printf("Cancellation requested for %s.\n", args[0])
	return nil
}

package cli

import (
	"context"
	"errors"
	"sync"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Push on a schedule until interrupted",
	Long: `Runs the adaptor as a daemon. A full push runs at startup when
adaptor.pushDocIdsOnStartup is set and then every
adaptor.fullListingInterval. Incremental polls run every
adaptor.incrementalPollPeriodSecs.

The configuration file is reloaded when it changes. Interrupting the
process cancels any push in progress.`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if svc.Scheduler == nil {
		return errors.New("scheduler not configured")
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range svc.Watchers {
		wg.Add(1)
		go func(w Watcher) {
			defer wg.Done()
			// A failed watcher does not stop the schedule.
			if err := w(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("watcher stopped: %v", err)
			}
		}(w)
	}

	cmd.Println("Adaptor running. Press Ctrl+C to stop.")
	err := svc.Scheduler.Start(ctx)

	cancel()
	if stopErr := svc.Scheduler.Stop(); stopErr != nil {
		logger.Warn("stopping scheduler: %v", stopErr)
	}
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	cmd.Println("Adaptor stopped.")
	return nil
}

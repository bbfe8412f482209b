package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-adaptor/internal/core/services"
)

var pushRetries int

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Push document ids to the appliance",
	Long: `Runs a single push against the appliance and returns when it completes.
Use "push full" to list every document, "push incremental" to send
documents changed since the last poll, or "push docids" to send
specific ids.`,
}

var pushFullCmd = &cobra.Command{
	Use:   "full",
	Short: "Push every document in the repository",
	Args:  cobra.NoArgs,
	RunE:  runPushFull,
}

var pushIncrementalCmd = &cobra.Command{
	Use:   "incremental",
	Short: "Push documents modified since the last poll",
	Args:  cobra.NoArgs,
	RunE:  runPushIncremental,
}

var pushDocIDsCmd = &cobra.Command{
	Use:   "docids <id>...",
	Short: "Push the given document ids",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPushDocIDs,
}

func init() {
	pushCmd.PersistentFlags().IntVar(&pushRetries, "retries", -1,
		"retries per feed before giving up (-1 uses exponential backoff)")
	pushCmd.AddCommand(pushFullCmd, pushIncrementalCmd, pushDocIDsCmd)
	rootCmd.AddCommand(pushCmd)
}

// exceptionHandler maps --retries onto a handler.
func exceptionHandler(retries int) driven.ExceptionHandler {
	switch {
	case retries < 0:
		return services.NewBackoffHandler(services.DefaultBackoffPolicy())
	case retries == 0:
		return services.NeverRetry()
	default:
		return services.RetryUpTo(retries + 1)
	}
}

func runPushFull(cmd *cobra.Command, _ []string) error {
	if svc.Pusher == nil {
		return errors.New("push service not configured")
	}

	cmd.Println("Running full push...")
	if err := svc.Pusher.PushFullDocIDsFromAdaptor(cmd.Context(), exceptionHandler(pushRetries)); err != nil {
		return fmt.Errorf("full push failed: %w", err)
	}
	cmd.Println("Full push completed.")
	return nil
}

func runPushIncremental(cmd *cobra.Command, _ []string) error {
	if svc.Pusher == nil {
		return errors.New("push service not configured")
	}
	if svc.Incremental == nil {
		return errors.New("incremental lister not configured")
	}

	cmd.Println("Running incremental push...")
	err := svc.Pusher.PushIncrementalDocIDsFromAdaptor(cmd.Context(), svc.Incremental, exceptionHandler(pushRetries))
	if err != nil {
		return fmt.Errorf("incremental push failed: %w", err)
	}
	cmd.Println("Incremental push completed.")
	return nil
}

func runPushDocIDs(cmd *cobra.Command, args []string) error {
	if svc.Pusher == nil {
		return errors.New("push service not configured")
	}

	ids := domain.NewDocIDs(args...)
	failed, err := svc.Pusher.PushDocIDs(cmd.Context(), ids, exceptionHandler(pushRetries))
	if failed != nil {
		if err != nil {
			return fmt.Errorf("push stopped at %s: %w", failed.UniqueID(), err)
		}
		return fmt.Errorf("push stopped at %s", failed.UniqueID())
	}
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	cmd.Printf("Pushed %d document ids.\n", len(ids))
	return nil
}

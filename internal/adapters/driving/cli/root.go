// Package cli implements the sercha-adaptor command line using cobra.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

// version is set at build time with -ldflags "-X ...cli.version=...".
var version = "dev"

var (
	verbose   bool
	configDir string
)

// svc holds everything the commands talk to. It is wired from the
// config directory on first use unless SetServices was called.
var svc *Services

var rootCmd = &cobra.Command{
	Use:   "sercha-adaptor",
	Short: "Publish a document repository to a search appliance",
	Long: `sercha-adaptor lists the documents of a repository and pushes them to a
search appliance as metadata-and-url feeds.

It can run a single full push or incremental poll, push individual
document ids, inspect the push journal and feed archive, or run as a
daemon that pushes on a schedule.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if svc != nil {
			return nil
		}
		s, err := NewServices(configDir)
		if err != nil {
			return err
		}
		svc = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "configuration directory (default ~/.sercha-adaptor)")
}

// SetServices replaces the services used by the commands.
func SetServices(s *Services) {
	svc = s
}

// Execute runs the root command. An interrupt cancels the running push.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer func() {
		if svc != nil {
			if err := svc.Close(); err != nil {
				logger.Warn("closing services: %v", err)
			}
		}
	}()
	return rootCmd.ExecuteContext(ctx)
}

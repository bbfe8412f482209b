package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/logger"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	// Printing the version needs no configuration.
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("sercha-adaptor version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

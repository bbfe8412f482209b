package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Read and change the adaptor configuration",
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a configuration value",
	Long: `Stores a configuration value. Numbers and booleans are stored as
native TOML values. The change is rejected if the resulting
configuration is invalid.`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configGetCmd, configSetCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	if svc.Config == nil {
		return errors.New("config service not configured")
	}

	val, ok := svc.Config.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s is not set", domain.ErrNotFound, args[0])
	}
	cmd.Println(val)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	if svc.Config == nil {
		return errors.New("config service not configured")
	}

	if err := svc.Config.Set(args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("%s = %s\n", args[0], args[1])
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if svc.Config == nil {
		return errors.New("config service not configured")
	}

	cfg := svc.Config.FeedConfig()
	cmd.Printf("%s = %d\n", domain.KeyFeedMaxURLs, cfg.MaxURLs)
	cmd.Printf("%s = %s\n", domain.KeyFeedName, cfg.Name)
	cmd.Printf("%s = %t\n", domain.KeyFeedUseCompression, cfg.UseCompression)
	cmd.Printf("%s = %s\n", domain.KeyFeedArchiveDir, cfg.ArchiveDir)
	cmd.Printf("%s = %t\n", domain.KeyMarkAllDocsAsPublic, cfg.MarkAllDocsAsPublic)
	cmd.Printf("%s = %s\n", domain.KeyFullListingInterval, cfg.FullListingInterval)
	cmd.Printf("%s = %d\n", domain.KeyIncrementalPollPeriodSecs, int(cfg.IncrementalPollPeriod.Seconds()))
	cmd.Printf("%s = %t\n", domain.KeyPushDocIDsOnStartup, cfg.PushDocIDsOnStartup)
	cmd.Printf("%s = %s\n", domain.KeyRootPath, cfg.RootPath)
	cmd.Printf("%s = %s\n", domain.KeyGSAHostname, cfg.GSAHostname)
	cmd.Printf("%s = %d\n", domain.KeyGSAPort, cfg.GSAPort)
	cmd.Printf("%s = %g\n", domain.KeyGSAMaxSendsPerSecond, cfg.GSAMaxSendsPerSecond)
	cmd.Printf("%s = %d\n", domain.KeyGSATimeoutSecs, int(cfg.GSATimeout.Seconds()))
	cmd.Printf("%s = %s\n", domain.KeyServerHostname, cfg.ServerHostname)
	cmd.Printf("%s = %d\n", domain.KeyServerPort, cfg.ServerPort)
	cmd.Printf("%s = %s\n", domain.KeyServerDocIDPath, cfg.DocIDPath)
	return nil
}

package cli

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/connectors/filesystem"
	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

var docIDResolve bool

var docIDCmd = &cobra.Command{
	Use:   "docid",
	Short: "Convert between document ids and URLs",
}

var docIDEncodeCmd = &cobra.Command{
	Use:   "encode <id>",
	Short: "Print the URL the appliance crawls for a document id",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocIDEncode,
}

var docIDDecodeCmd = &cobra.Command{
	Use:   "decode <url>",
	Short: "Print the document id embedded in a URL",
	Long: `Decodes a document URL back to its id. With --resolve the id is also
resolved to a file under the configured root path.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocIDDecode,
}

func init() {
	docIDDecodeCmd.Flags().BoolVar(&docIDResolve, "resolve", false, "also print the file the id refers to")
	docIDCmd.AddCommand(docIDEncodeCmd, docIDDecodeCmd)
	rootCmd.AddCommand(docIDCmd)
}

func runDocIDEncode(cmd *cobra.Command, args []string) error {
	if svc.Codec == nil {
		return errors.New("docid codec not configured")
	}

	cmd.Println(svc.Codec.EncodeDocID(domain.NewDocID(args[0])).String())
	return nil
}

func runDocIDDecode(cmd *cobra.Command, args []string) error {
	if svc.Codec == nil {
		return errors.New("docid codec not configured")
	}

	u, err := url.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	id, err := svc.Codec.DecodeDocID(u)
	if err != nil {
		return err
	}
	cmd.Println(id.UniqueID())

	if docIDResolve {
		if svc.RootPath == "" {
			return errors.New("root path not configured")
		}
		path, err := filesystem.ResolvePath(svc.RootPath, id)
		if err != nil {
			return err
		}
		cmd.Println(path)
	}
	return nil
}

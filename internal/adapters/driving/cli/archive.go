package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	archiveLimit int
	archiveJSON  bool
	archiveShow  bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect archived feeds",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent feeds sent to the appliance",
	Args:  cobra.NoArgs,
	RunE:  runArchiveList,
}

func init() {
	archiveListCmd.Flags().IntVarP(&archiveLimit, "limit", "n", 20, "maximum number of feeds to list (0 for all)")
	archiveListCmd.Flags().BoolVar(&archiveJSON, "json", false, "output feeds as JSON")
	archiveListCmd.Flags().BoolVar(&archiveShow, "xml", false, "print the feed documents")
	archiveCmd.AddCommand(archiveListCmd)
	rootCmd.AddCommand(archiveCmd)
}

type archivedFeedView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Failed    bool      `json:"failed"`
	CreatedAt time.Time `json:"created_at"`
	XML       string    `json:"xml,omitempty"`
}

func runArchiveList(cmd *cobra.Command, _ []string) error {
	if svc.Archive == nil {
		return errors.New("feed archive not configured")
	}

	feeds, err := svc.Archive.ListFeeds(cmd.Context(), archiveLimit)
	if err != nil {
		return fmt.Errorf("list feeds: %w", err)
	}

	if archiveJSON {
		views := make([]archivedFeedView, len(feeds))
		for i, f := range feeds {
			views[i] = archivedFeedView{ID: f.ID, Name: f.Name, Failed: f.Failed, CreatedAt: f.CreatedAt}
			if archiveShow {
				views[i].XML = f.XML
			}
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(feeds) == 0 {
		cmd.Println("No archived feeds.")
		return nil
	}
	for _, f := range feeds {
		status := "sent"
		if f.Failed {
			status = "FAILED"
		}
		cmd.Printf("%s  %-20s  %-6s  %s\n", f.CreatedAt.Format(time.RFC3339), f.Name, status, f.ID)
		if archiveShow {
			cmd.Println(f.XML)
		}
	}
	return nil
}

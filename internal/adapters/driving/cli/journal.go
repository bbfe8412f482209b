package cli

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

var journalJSON bool

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show push statistics",
	Long: `Prints the outcome of the last full and incremental pushes together
with the number of ids, groups and feeds sent.`,
	Args: cobra.NoArgs,
	RunE: runJournal,
}

func init() {
	journalCmd.Flags().BoolVar(&journalJSON, "json", false, "output the journal as JSON")
	rootCmd.AddCommand(journalCmd)
}

// pushStateView is the printable form of domain.PushState.
type pushStateView struct {
	LastStatus   string     `json:"last_status"`
	InProgress   bool       `json:"in_progress"`
	LastStarted  *time.Time `json:"last_started,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`
}

type journalView struct {
	Full         pushStateView `json:"full"`
	Incremental  pushStateView `json:"incremental"`
	DocIDsPushed int64         `json:"docids_pushed"`
	GroupsPushed int64         `json:"groups_pushed"`
	FeedsSent    int64         `json:"feeds_sent"`
	FeedsFailed  int64         `json:"feeds_failed"`
}

func newPushStateView(s domain.PushState) pushStateView {
	v := pushStateView{LastStatus: s.LastStatus.String(), InProgress: s.InProgress}
	if !s.LastStarted.IsZero() {
		t := s.LastStarted
		v.LastStarted = &t
	}
	if !s.LastFinished.IsZero() {
		t := s.LastFinished
		v.LastFinished = &t
	}
	return v
}

func runJournal(cmd *cobra.Command, _ []string) error {
	if svc.Journal == nil {
		return errors.New("journal not configured")
	}

	snap := svc.Journal.Snapshot()
	view := journalView{
		Full:         newPushStateView(snap.Full),
		Incremental:  newPushStateView(snap.Incremental),
		DocIDsPushed: snap.DocIDsPushed,
		GroupsPushed: snap.GroupsPushed,
		FeedsSent:    snap.FeedsSent,
		FeedsFailed:  snap.FeedsFailed,
	}

	if journalJSON {
		data, err := json.MarshalIndent(view, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	printPushState(cmd, "Full push", view.Full)
	printPushState(cmd, "Incremental push", view.Incremental)
	cmd.Printf("Doc ids pushed:   %d\n", view.DocIDsPushed)
	cmd.Printf("Groups pushed:    %d\n", view.GroupsPushed)
	cmd.Printf("Feeds sent:       %d\n", view.FeedsSent)
	cmd.Printf("Feeds failed:     %d\n", view.FeedsFailed)
	return nil
}

func printPushState(cmd *cobra.Command, label string, v pushStateView) {
	status := v.LastStatus
	if v.InProgress {
		status += " (running)"
	}
	cmd.Printf("%s: %s\n", label, status)
	if v.LastFinished != nil {
		cmd.Printf("  last finished: %s\n", v.LastFinished.Format(time.RFC3339))
	}
}

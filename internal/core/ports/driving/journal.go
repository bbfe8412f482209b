package driving

import "github.com/custodia-labs/sercha-adaptor/internal/core/domain"

// JournalReader exposes push statistics.
type JournalReader interface {
	// LastFullPushStatus returns the outcome of the last full push.
	// SUCCESS before any push has run.
	LastFullPushStatus() domain.CompletionStatus

	// LastIncrementalPushStatus returns the outcome of the last incremental push.
	LastIncrementalPushStatus() domain.CompletionStatus

	// Snapshot returns a copy of every counter.
	Snapshot() domain.JournalSnapshot
}

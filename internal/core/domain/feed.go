package domain

import "time"

// FeedType is the value of a feed document's <feedtype> header.
type FeedType string

const (
	// FeedTypeFull replaces every document of the datasource.
	FeedTypeFull FeedType = "full"

	// FeedTypeIncremental adds to or updates the datasource.
	FeedTypeIncremental FeedType = "incremental"

	// FeedTypeMetadataAndURL lists URLs for the appliance to crawl.
	FeedTypeMetadataAndURL FeedType = "metadata-and-url"
)

// CompletionStatus is the outcome of the most recent push of one kind.
type CompletionStatus int

const (
	// StatusSuccess means every batch of the push was delivered.
	// It is also the initial status before any push has run.
	StatusSuccess CompletionStatus = iota

	// StatusFailure means the push was abandoned or aborted.
	StatusFailure
)

// String implements fmt.Stringer.
func (s CompletionStatus) String() string {
	if s == StatusFailure {
		return "FAILURE"
	}
	return "SUCCESS"
}

// PushKind distinguishes full listings from incremental polls.
type PushKind string

const (
	// PushFull is a listing of every document in the repository.
	PushFull PushKind = "full"

	// PushIncremental is a listing of documents modified since the last poll.
	PushIncremental PushKind = "incremental"
)

// PushState is the journal's view of one push kind.
type PushState struct {
	// LastStatus is the outcome of the most recent completed push.
	LastStatus CompletionStatus

	// InProgress is true between start and finish.
	InProgress bool

	// LastStarted is when the most recent push began.
	LastStarted time.Time

	// LastFinished is when the most recent push ended.
	LastFinished time.Time
}

// JournalSnapshot is a point-in-time copy of the journal counters.
type JournalSnapshot struct {
	Full        PushState
	Incremental PushState

	// DocIDsPushed counts records and named resources delivered.
	DocIDsPushed int64

	// GroupsPushed counts group definitions delivered.
	GroupsPushed int64

	// FeedsSent counts feed documents the transport accepted.
	FeedsSent int64

	// FeedsFailed counts feed documents abandoned after retries.
	FeedsFailed int64
}

// ArchivedFeed is a feed document kept for audit.
type ArchivedFeed struct {
	// ID uniquely identifies the archive entry.
	ID string

	// Name is the datasource or groupsource the feed was sent to.
	Name string

	// XML is the complete feed document.
	XML string

	// Failed is true when delivery was abandoned.
	Failed bool

	// CreatedAt is when the feed was archived.
	CreatedAt time.Time
}

package driven

import (
	"context"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

// FeedMaker serialises batches into the appliance's feed XML.
// Output must be identical for identical input.
type FeedMaker interface {
	// MakeMetadataAndURLXML renders records and ACL items as a
	// metadata-and-url feed for datasource.
	MakeMetadataAndURLXML(datasource string, items []domain.Item) (string, error)

	// MakeGroupDefinitionsXML renders group memberships as a groups feed.
	MakeGroupDefinitionsXML(entries []domain.GroupEntry, caseSensitiveMembers bool) (string, error)
}

// FeedTransport physically delivers feed XML to the appliance.
// Every send is synchronous. Failures should be tagged with
// domain.Fatal when retrying cannot help; untagged failures are retried
// according to the caller's ExceptionHandler.
type FeedTransport interface {
	// SendMetadataAndURL submits a metadata-and-url feed.
	SendMetadataAndURL(ctx context.Context, datasource, xml string, useCompression bool) error

	// SendGroups submits a group definitions feed.
	SendGroups(ctx context.Context, groupsource, xml string, useCompression bool) error
}

// FeedArchiver keeps a copy of every feed for audit.
// Archiving is best-effort: errors are logged and never change the
// outcome of a push.
type FeedArchiver interface {
	// SaveFeed records a feed that the appliance accepted.
	SaveFeed(ctx context.Context, name, xml string) error

	// SaveFailedFeed records a feed that was abandoned.
	SaveFailedFeed(ctx context.Context, name, xml string) error
}

// FeedArchiveStore is a FeedArchiver that can also be queried.
type FeedArchiveStore interface {
	FeedArchiver

	// ListFeeds returns the most recent archived feeds, newest first.
	// A non-positive limit returns every feed.
	ListFeeds(ctx context.Context, limit int) ([]domain.ArchivedFeed, error)
}

// FeedConfigProvider supplies the feed configuration.
// The engine calls it once at the start of every push operation.
type FeedConfigProvider interface {
	FeedConfig() domain.FeedConfig
}

// FeedConfigFunc adapts a function to FeedConfigProvider.
type FeedConfigFunc func() domain.FeedConfig

// FeedConfig implements FeedConfigProvider.
func (f FeedConfigFunc) FeedConfig() domain.FeedConfig {
	return f()
}

// StaticFeedConfig returns a provider that always yields cfg.
func StaticFeedConfig(cfg domain.FeedConfig) FeedConfigProvider {
	return FeedConfigFunc(func() domain.FeedConfig { return cfg })
}

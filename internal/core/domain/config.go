package domain

import (
	"fmt"
	"regexp"
	"time"
)

// Configuration keys read by the adaptor.
const (
	KeyFeedMaxURLs               = "feed.maxUrls"
	KeyFeedName                  = "feed.name"
	KeyFeedUseCompression        = "feed.useCompression"
	KeyFeedArchiveDir            = "feed.archiveDir"
	KeyMarkAllDocsAsPublic       = "adaptor.markAllDocsAsPublic"
	KeyFullListingInterval       = "adaptor.fullListingInterval"
	KeyIncrementalPollPeriodSecs = "adaptor.incrementalPollPeriodSecs"
	KeyPushDocIDsOnStartup       = "adaptor.pushDocIdsOnStartup"
	KeyRootPath                  = "adaptor.rootPath"
	KeyGSAHostname               = "gsa.hostname"
	KeyGSAPort                   = "gsa.port"
	KeyGSAMaxSendsPerSecond      = "gsa.maxSendsPerSecond"
	KeyGSATimeoutSecs            = "gsa.timeoutSecs"
	KeyServerHostname            = "server.hostname"
	KeyServerPort                = "server.port"
	KeyServerDocIDPath           = "server.docIdPath"
)

// datasourcePattern is what the appliance accepts as a datasource name.
var datasourcePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// ValidDatasource reports whether name can be used as a datasource or
// groupsource.
func ValidDatasource(name string) bool {
	return datasourcePattern.MatchString(name)
}

// FeedConfig is the configuration subset consumed by the feed engine and
// its adapters.
type FeedConfig struct {
	// MaxURLs caps the number of items in one feed document.
	MaxURLs int

	// Name is the datasource the feeds are submitted under.
	Name string

	// MarkAllDocsAsPublic skips ACL and group pushes entirely.
	MarkAllDocsAsPublic bool

	// UseCompression gzips feed uploads.
	UseCompression bool

	// ArchiveDir is where the feed archive database lives.
	// Empty selects the default data directory.
	ArchiveDir string

	// FullListingInterval is the period between scheduled full pushes.
	FullListingInterval time.Duration

	// IncrementalPollPeriod is the period between incremental polls.
	IncrementalPollPeriod time.Duration

	// PushDocIDsOnStartup runs a full push as soon as the scheduler starts.
	PushDocIDsOnStartup bool

	// RootPath is the directory the filesystem lister publishes.
	RootPath string

	// GSAHostname and GSAPort locate the appliance's feeder gate.
	GSAHostname string
	GSAPort     int

	// GSAMaxSendsPerSecond limits feed submissions. Zero means unlimited.
	GSAMaxSendsPerSecond float64

	// GSATimeout bounds a single feed submission.
	GSATimeout time.Duration

	// ServerHostname, ServerPort and DocIDPath build the base URL
	// documents are served under.
	ServerHostname string
	ServerPort     int
	DocIDPath      string
}

// DefaultFeedConfig returns the defaults applied to unset keys.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		MaxURLs:               5000,
		Name:                  "adaptor",
		FullListingInterval:   24 * time.Hour,
		IncrementalPollPeriod: 900 * time.Second,
		PushDocIDsOnStartup:   true,
		RootPath:              ".",
		GSAHostname:           "localhost",
		GSAPort:               19900,
		GSATimeout:            30 * time.Second,
		ServerHostname:        "localhost",
		ServerPort:            5678,
		DocIDPath:             "/doc/",
	}
}

// Validate checks the values the feed engine relies on.
func (c FeedConfig) Validate() error {
	if c.MaxURLs <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidInput, KeyFeedMaxURLs, c.MaxURLs)
	}
	if !ValidDatasource(c.Name) {
		return fmt.Errorf("%w: %s %q must match %s", ErrInvalidInput, KeyFeedName, c.Name, datasourcePattern)
	}
	if c.GSAMaxSendsPerSecond < 0 {
		return fmt.Errorf("%w: %s must not be negative", ErrInvalidInput, KeyGSAMaxSendsPerSecond)
	}
	return nil
}

package driving

import (
	"context"

	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
)

// DocIDPusher sends identifiers, records, named resources and group
// definitions to the appliance. Listers receive the same interface.
type DocIDPusher = driven.DocIDPusher

// FeedPusher runs complete pushes driven by the adaptor's listers.
type FeedPusher interface {
	DocIDPusher

	// PushFullDocIDsFromAdaptor runs the adaptor's full listing.
	// handler must not be nil.
	PushFullDocIDsFromAdaptor(ctx context.Context, handler driven.ExceptionHandler) error

	// PushIncrementalDocIDsFromAdaptor runs one poll of lister.
	// handler must not be nil.
	PushIncrementalDocIDsFromAdaptor(ctx context.Context, lister driven.IncrementalLister,
		handler driven.ExceptionHandler) error
}

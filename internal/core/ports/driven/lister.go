package driven

import (
	"context"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

// DocIDPusher is handed to listers so they can push what they discover.
// Each method sends its input in bounded batches and returns the first item
// that could not be sent, or nil when everything was delivered.
// A nil handler selects the pusher's default handler.
type DocIDPusher interface {
	// PushDocIDs sends bare identifiers as add records.
	PushDocIDs(ctx context.Context, ids []domain.DocID, handler ExceptionHandler) (*domain.DocID, error)

	// PushRecords sends records.
	PushRecords(ctx context.Context, records []domain.Record, handler ExceptionHandler) (*domain.Record, error)

	// PushNamedResources sends ACLs for named resources.
	// Every ACL must be non-nil.
	PushNamedResources(ctx context.Context, resources map[domain.DocID]*domain.Acl,
		handler ExceptionHandler) (*domain.DocID, error)

	// PushGroupDefinitions sends group memberships.
	// Every key must be a group principal.
	PushGroupDefinitions(ctx context.Context, groups map[domain.Principal][]domain.Principal,
		caseSensitive bool, handler ExceptionHandler) (*domain.Principal, error)
}

// Lister produces the complete listing of a repository.
// Implementations call pusher as often as they like; the error they return
// decides how the push ends. Tag failures with domain.Fatal when retrying
// cannot help, and return ctx.Err() when cancelled.
type Lister interface {
	GetDocIDs(ctx context.Context, pusher DocIDPusher) error
}

// IncrementalLister produces the documents modified since its last call.
type IncrementalLister interface {
	GetModifiedDocIDs(ctx context.Context, pusher DocIDPusher) error
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context, pusher DocIDPusher) error

// GetDocIDs implements Lister.
func (f ListerFunc) GetDocIDs(ctx context.Context, pusher DocIDPusher) error {
	return f(ctx, pusher)
}

// IncrementalListerFunc adapts a function to IncrementalLister.
type IncrementalListerFunc func(ctx context.Context, pusher DocIDPusher) error

// GetModifiedDocIDs implements IncrementalLister.
func (f IncrementalListerFunc) GetModifiedDocIDs(ctx context.Context, pusher DocIDPusher) error {
	return f(ctx, pusher)
}

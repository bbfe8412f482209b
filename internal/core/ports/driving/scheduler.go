package driving

import "context"

// Scheduler periodically runs full pushes and incremental polls.
type Scheduler interface {
	// Start begins running scheduled tasks.
	// Blocks until context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels running pushes and waits for them to return.
	Stop() error
}

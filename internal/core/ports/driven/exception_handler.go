package driven

import "context"

// ExceptionHandler decides whether a failed operation is tried again.
// ntries is 1 for the first failure and grows by one per retry.
// Any delay before the retry happens inside HandleException and should end
// early when ctx is cancelled.
type ExceptionHandler interface {
	HandleException(ctx context.Context, err error, ntries int) bool
}

// ExceptionHandlerFunc adapts a function to ExceptionHandler.
type ExceptionHandlerFunc func(ctx context.Context, err error, ntries int) bool

// HandleException implements ExceptionHandler.
func (f ExceptionHandlerFunc) HandleException(ctx context.Context, err error, ntries int) bool {
	return f(ctx, err, ntries)
}

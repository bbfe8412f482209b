package driven

import (
	"context"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

// SchedulerStore persists when the full push and incremental poll last ran
// and when they are next due, so a restarted adaptor keeps its schedule
// instead of pushing everything again at once.
type SchedulerStore interface {
	// GetTask returns the task with taskID (domain.TaskIDFullPush or
	// domain.TaskIDIncrementalPush), or nil and no error if it was never saved.
	GetTask(ctx context.Context, taskID string) (*domain.ScheduledTask, error)

	// ListTasks returns every saved push task.
	ListTasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// SaveTask creates or replaces the task with the same ID.
	SaveTask(ctx context.Context, task *domain.ScheduledTask) error

	// DeleteTask forgets a task, e.g. when incremental polling is turned off.
	DeleteTask(ctx context.Context, taskID string) error

	// RecordResult appends the outcome of one scheduled push.
	RecordResult(ctx context.Context, result *domain.TaskResult) error

	// GetTaskHistory returns up to limit push outcomes for taskID,
	// most recent first.
	GetTaskHistory(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)

	// PruneHistory keeps only the newest keep outcomes of each task.
	PruneHistory(ctx context.Context, keep int) error
}

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
)

func TestSchedulerStore_SaveAndGetTask(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	task := &domain.ScheduledTask{ID: domain.TaskIDFullPush, Name: "Full Push", Interval: time.Hour, Enabled: true}
	require.NoError(t, store.SaveTask(ctx, task))

	got, err := store.GetTask(ctx, domain.TaskIDFullPush)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *task, *got)

	// Returned value is a copy.
	got.Name = "changed"
	again, _ := store.GetTask(ctx, domain.TaskIDFullPush)
	assert.Equal(t, "Full Push", again.Name)
}

func TestSchedulerStore_GetTask_NotFound(t *testing.T) {
	got, err := NewSchedulerStore().GetTask(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSchedulerStore_SaveTask_Nil(t *testing.T) {
	err := NewSchedulerStore().SaveTask(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSchedulerStore_ListAndDelete(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDIncrementalPush}))
	require.NoError(t, store.SaveTask(ctx, &domain.ScheduledTask{ID: domain.TaskIDFullPush}))

	tasks, err := store.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, domain.TaskIDFullPush, tasks[0].ID)

	require.NoError(t, store.DeleteTask(ctx, domain.TaskIDFullPush))
	tasks, err = store.ListTasks(ctx)
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestSchedulerStore_HistoryAndPrune(t *testing.T) {
	store := NewSchedulerStore()
	ctx := context.Background()

	base := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.RecordResult(ctx, &domain.TaskResult{
			TaskID:         domain.TaskIDFullPush,
			StartedAt:      base.Add(time.Duration(i) * time.Minute),
			ItemsProcessed: i,
		}))
	}

	history, err := store.GetTaskHistory(ctx, domain.TaskIDFullPush, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 4, history[0].ItemsProcessed)
	assert.Equal(t, 3, history[1].ItemsProcessed)

	require.NoError(t, store.PruneHistory(ctx, 3))
	history, err = store.GetTaskHistory(ctx, domain.TaskIDFullPush, 10)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 2, history[2].ItemsProcessed)

	assert.ErrorIs(t, store.RecordResult(ctx, nil), domain.ErrInvalidInput)
}

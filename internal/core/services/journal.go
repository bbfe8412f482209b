package services

import (
	"sync"
	"time"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driving"
)

// Journal records push outcomes and counters.
// It is safe for concurrent use.
type Journal struct {
	clock func() time.Time

	mu       sync.Mutex
	snapshot domain.JournalSnapshot
}

// NewJournal creates a journal. A nil clock uses time.Now.
func NewJournal(clock func() time.Time) *Journal {
	if clock == nil {
		clock = time.Now
	}
	return &Journal{clock: clock}
}

// RecordFullPushStarted marks a full push as running.
func (j *Journal) RecordFullPushStarted() {
	j.started(&j.snapshot.Full)
}

// RecordFullPushFinished records the outcome of a full push.
func (j *Journal) RecordFullPushFinished(success bool) {
	j.finished(&j.snapshot.Full, success)
}

// RecordIncrementalPushStarted marks an incremental push as running.
func (j *Journal) RecordIncrementalPushStarted() {
	j.started(&j.snapshot.Incremental)
}

// RecordIncrementalPushFinished records the outcome of an incremental push.
func (j *Journal) RecordIncrementalPushFinished(success bool) {
	j.finished(&j.snapshot.Incremental, success)
}

// LastFullPushStatus implements driving.JournalReader.
func (j *Journal) LastFullPushStatus() domain.CompletionStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot.Full.LastStatus
}

// LastIncrementalPushStatus implements driving.JournalReader.
func (j *Journal) LastIncrementalPushStatus() domain.CompletionStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot.Incremental.LastStatus
}

// RecordDocIDsPushed adds n delivered records or named resources.
func (j *Journal) RecordDocIDsPushed(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snapshot.DocIDsPushed += int64(n)
}

// RecordGroupsPushed adds n delivered group definitions.
func (j *Journal) RecordGroupsPushed(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snapshot.GroupsPushed += int64(n)
}

// RecordFeedSent counts an accepted feed document.
func (j *Journal) RecordFeedSent() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snapshot.FeedsSent++
}

// RecordFeedFailed counts an abandoned feed document.
func (j *Journal) RecordFeedFailed() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.snapshot.FeedsFailed++
}

// Snapshot implements driving.JournalReader.
func (j *Journal) Snapshot() domain.JournalSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshot
}

func (j *Journal) started(state *domain.PushState) {
	now := j.clock()
	j.mu.Lock()
	defer j.mu.Unlock()
	state.InProgress = true
	state.LastStarted = now
}

func (j *Journal) finished(state *domain.PushState, success bool) {
	now := j.clock()
	j.mu.Lock()
	defer j.mu.Unlock()
	state.InProgress = false
	state.LastFinished = now
	if success {
		state.LastStatus = domain.StatusSuccess
	} else {
		state.LastStatus = domain.StatusFailure
	}
}

var _ driving.JournalReader = (*Journal)(nil)

package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
)

// Ensure ArchiveStore implements the interface.
var _ driven.FeedArchiveStore = (*ArchiveStore)(nil)

// ArchiveStore is an in-memory implementation of driven.FeedArchiveStore.
// It keeps at most capacity feeds, dropping the oldest first.
type ArchiveStore struct {
	mu       sync.RWMutex
	feeds    []domain.ArchivedFeed
	capacity int
}

// NewArchiveStore creates an archive holding at most capacity feeds.
// A non-positive capacity keeps every feed.
func NewArchiveStore(capacity int) *ArchiveStore {
	return &ArchiveStore{capacity: capacity}
}

// SaveFeed archives a delivered feed.
func (s *ArchiveStore) SaveFeed(_ context.Context, name, xml string) error {
	s.add(name, xml, false)
	return nil
}

// SaveFailedFeed archives an abandoned feed.
func (s *ArchiveStore) SaveFailedFeed(_ context.Context, name, xml string) error {
	s.add(name, xml, true)
	return nil
}

func (s *ArchiveStore) add(name, xml string, failed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feeds = append(s.feeds, domain.ArchivedFeed{
		ID:        uuid.New().String(),
		Name:      name,
		XML:       xml,
		Failed:    failed,
		CreatedAt: time.Now(),
	})
	if s.capacity > 0 && len(s.feeds) > s.capacity {
		s.feeds = append([]domain.ArchivedFeed(nil), s.feeds[len(s.feeds)-s.capacity:]...)
	}
}

// ListFeeds returns archived feeds, newest first.
func (s *ArchiveStore) ListFeeds(_ context.Context, limit int) ([]domain.ArchivedFeed, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.feeds)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]domain.ArchivedFeed, 0, n)
	for i := len(s.feeds) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.feeds[i])
	}
	return out, nil
}

// Len returns the number of archived feeds.
func (s *ArchiveStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.feeds)
}

package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-adaptor/internal/core/domain"
	"github.com/custodia-labs/sercha-adaptor/internal/core/ports/driven"
)

// archiveStore implements driven.FeedArchiveStore.
type archiveStore struct {
	store *Store
}

var _ driven.FeedArchiveStore = (*archiveStore)(nil)

// SaveFeed archives a delivered feed.
func (s *archiveStore) SaveFeed(ctx context.Context, name, xml string) error {
	return s.insert(ctx, name, xml, false)
}

// SaveFailedFeed archives an abandoned feed.
func (s *archiveStore) SaveFailedFeed(ctx context.Context, name, xml string) error {
	return s.insert(ctx, name, xml, true)
}

func (s *archiveStore) insert(ctx context.Context, name, xml string, failed bool) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO feed_archive (id, seq, name, xml, failed, created_at)
		VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM feed_archive), ?, ?, ?, ?)
	`, uuid.New().String(), name, xml, boolToInt(failed),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("archiving feed: %w", err)
	}
	return nil
}

// ListFeeds returns archived feeds, newest first.
// A non-positive limit returns every feed.
func (s *archiveStore) ListFeeds(ctx context.Context, limit int) ([]domain.ArchivedFeed, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, xml, failed, created_at
		FROM feed_archive
		ORDER BY seq DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feed archive: %w", err)
	}
	defer rows.Close()

	var feeds []domain.ArchivedFeed //nolint:prealloc // size unknown from query
	for rows.Next() {
		var feed domain.ArchivedFeed
		var failed int
		var createdAt string
		if err := rows.Scan(&feed.ID, &feed.Name, &feed.XML, &failed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning archived feed: %w", err)
		}
		feed.Failed = failed == 1
		if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			feed.CreatedAt = t
		}
		feeds = append(feeds, feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating feed archive: %w", err)
	}

	return feeds, nil
}

package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcelomvrocha/translation-system/internal/ingest"
)

// SegmentStore persists extracted segments. The (project_id, segment_key)
// unique constraint plus ON CONFLICT DO NOTHING makes inserts
// compare-and-insert: two concurrent parses that both pass the extractor's
// in-memory key filter still cannot double-insert a segment. It implements
// ingest.SegmentStore.
type SegmentStore struct {
	pool *pgxpool.Pool
}

// NewSegmentStore creates a segment store on the pool.
func NewSegmentStore(pool *pgxpool.Pool) *SegmentStore {
	return &SegmentStore{pool: pool}
}

// ExistingKeys returns the set of segment keys already persisted for the
// project.
func (s *SegmentStore) ExistingKeys(ctx context.Context, projectID string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT segment_key FROM segments WHERE project_id = $1`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("query segment keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan segment key: %w", err)
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// InsertMany batch-inserts segments and returns how many rows the store
// accepted. Conflicting keys are dropped by the database, not reported as
// errors - first write wins, later writers see a lower count.
func (s *SegmentStore) InsertMany(ctx context.Context, projectID string, segments []ingest.ParsedSegment) (int, error) {
	if len(segments) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, seg := range segments {
		batch.Queue(
			`INSERT INTO segments
				(id, project_id, segment_key, source_text, target_text, context, notes, status)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8)
			 ON CONFLICT (project_id, segment_key) DO NOTHING`,
			uuid.New().String(), projectID, seg.SegmentKey, seg.SourceText,
			seg.TargetText, seg.Context, seg.Notes, string(seg.Status),
		)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range segments {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("insert segment: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}

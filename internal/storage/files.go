package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcelomvrocha/translation-system/internal/ingest"
)

// FileStore keeps attachment metadata in Postgres and payloads on disk under
// a single uploads directory, one file per attachment ID. It implements
// ingest.FileStore.
type FileStore struct {
	db         DBTX
	uploadsDir string
}

// NewFileStore creates a file store rooted at uploadsDir. The directory is
// created on first use.
func NewFileStore(pool *pgxpool.Pool, uploadsDir string) *FileStore {
	return &FileStore{db: pool, uploadsDir: uploadsDir}
}

// ProjectExists reports whether the project row exists.
func (s *FileStore) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, projectID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query project %s: %w", projectID, err)
	}
	return exists, nil
}

// Metadata returns the stored attachment metadata for fileID.
func (s *FileStore) Metadata(ctx context.Context, fileID string) (ingest.FileInfo, error) {
	var info ingest.FileInfo
	err := s.db.QueryRow(ctx,
		`SELECT id, project_id, original_name, mime_type, size_bytes, created_at
		 FROM attachments WHERE id = $1`, fileID,
	).Scan(&info.ID, &info.ProjectID, &info.OriginalName, &info.MimeType, &info.SizeBytes, &info.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ingest.FileInfo{}, ingest.NotFoundf("file %s", fileID)
	}
	if err != nil {
		return ingest.FileInfo{}, fmt.Errorf("query attachment %s: %w", fileID, err)
	}
	return info, nil
}

// Open reads the payload bytes for fileID from disk.
func (s *FileStore) Open(ctx context.Context, fileID string) ([]byte, error) {
	var diskPath string
	err := s.db.QueryRow(ctx,
		`SELECT disk_path FROM attachments WHERE id = $1`, fileID,
	).Scan(&diskPath)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ingest.NotFoundf("file %s", fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("query attachment %s: %w", fileID, err)
	}

	data, err := os.ReadFile(diskPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ingest.NotFoundf("file %s payload missing on disk", fileID)
		}
		return nil, fmt.Errorf("read payload for %s: %w", fileID, err)
	}
	return data, nil
}

// SaveUpload stores an uploaded payload on disk and records its metadata.
// The attachment ID doubles as the on-disk filename so payloads never
// collide regardless of the original name.
func (s *FileStore) SaveUpload(ctx context.Context, projectID, originalName, mimeType string, data []byte) (ingest.FileInfo, error) {
	ok, err := s.ProjectExists(ctx, projectID)
	if err != nil {
		return ingest.FileInfo{}, err
	}
	if !ok {
		return ingest.FileInfo{}, ingest.NotFoundf("project %s", projectID)
	}

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return ingest.FileInfo{}, fmt.Errorf("create uploads dir: %w", err)
	}

	id := uuid.New().String()
	diskPath := filepath.Join(s.uploadsDir, id)
	if err := os.WriteFile(diskPath, data, 0o644); err != nil {
		return ingest.FileInfo{}, fmt.Errorf("write payload: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(ctx,
		`INSERT INTO attachments (id, project_id, original_name, mime_type, size_bytes, disk_path, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, projectID, originalName, mimeType, int64(len(data)), diskPath, now,
	)
	if err != nil {
		// Best effort: do not leave an orphaned payload behind.
		_ = os.Remove(diskPath)
		return ingest.FileInfo{}, fmt.Errorf("insert attachment: %w", err)
	}

	return ingest.FileInfo{
		ID:           id,
		ProjectID:    projectID,
		OriginalName: originalName,
		MimeType:     mimeType,
		SizeBytes:    int64(len(data)),
		CreatedAt:    now,
	}, nil
}

// ListByProject returns a project's attachments, newest first.
func (s *FileStore) ListByProject(ctx context.Context, projectID string) ([]ingest.FileInfo, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, project_id, original_name, mime_type, size_bytes, created_at
		 FROM attachments WHERE project_id = $1 ORDER BY created_at DESC`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}
	defer rows.Close()

	var files []ingest.FileInfo
	for rows.Next() {
		var info ingest.FileInfo
		if err := rows.Scan(&info.ID, &info.ProjectID, &info.OriginalName, &info.MimeType, &info.SizeBytes, &info.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		files = append(files, info)
	}
	return files, rows.Err()
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marcelomvrocha/translation-system/internal/ingest"
)

// ConfigurationStore persists column configurations with single-slot upsert
// semantics per (project, file) pair. It implements
// ingest.ConfigurationStore.
type ConfigurationStore struct {
	pool *pgxpool.Pool
}

// NewConfigurationStore creates a configuration store on the pool.
func NewConfigurationStore(pool *pgxpool.Pool) *ConfigurationStore {
	return &ConfigurationStore{pool: pool}
}

// Save upserts the configuration for its (project, file) pair. The mapping
// list is replaced wholesale - delete-all-then-insert, not a merge - inside
// one transaction so readers never observe a half-written configuration.
func (s *ConfigurationStore) Save(ctx context.Context, cfg ingest.Configuration) (ingest.Configuration, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return ingest.Configuration{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	newID := uuid.New().String()

	var id string
	var createdAt time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO column_configurations
			(id, project_id, file_id, name, description, sheet_name, is_default, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (project_id, file_id) DO UPDATE SET
			name        = EXCLUDED.name,
			description = EXCLUDED.description,
			sheet_name  = EXCLUDED.sheet_name,
			is_default  = EXCLUDED.is_default,
			updated_at  = EXCLUDED.updated_at
		 RETURNING id, created_at`,
		newID, cfg.ProjectID, cfg.FileID, cfg.Name, cfg.Description, cfg.SheetName, cfg.IsDefault, now,
	).Scan(&id, &createdAt)
	if err != nil {
		return ingest.Configuration{}, fmt.Errorf("upsert configuration: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`DELETE FROM column_mappings WHERE configuration_id = $1`, id,
	); err != nil {
		return ingest.Configuration{}, fmt.Errorf("clear mappings: %w", err)
	}

	for pos, m := range cfg.Mappings {
		if _, err := tx.Exec(ctx,
			`INSERT INTO column_mappings
				(id, configuration_id, position, column_index, column_name, role, language_code, is_required, custom_settings)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New().String(), id, pos, m.ColumnIndex, m.ColumnName, string(m.Role), m.LanguageCode, m.IsRequired, m.CustomSettings,
		); err != nil {
			return ingest.Configuration{}, fmt.Errorf("insert mapping %d: %w", pos, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return ingest.Configuration{}, fmt.Errorf("commit: %w", err)
	}

	saved := cfg
	saved.ID = id
	saved.CreatedAt = createdAt
	saved.UpdatedAt = now
	return saved, nil
}

// Get returns the pair's current configuration, or nil when none is saved.
func (s *ConfigurationStore) Get(ctx context.Context, projectID, fileID string) (*ingest.Configuration, error) {
	return s.fetch(ctx,
		`SELECT id, project_id, file_id, name, description, sheet_name, is_default, created_at, updated_at
		 FROM column_configurations WHERE project_id = $1 AND file_id = $2`,
		projectID, fileID)
}

// GetByID returns a configuration by its identifier, or nil when absent.
func (s *ConfigurationStore) GetByID(ctx context.Context, configurationID string) (*ingest.Configuration, error) {
	return s.fetch(ctx,
		`SELECT id, project_id, file_id, name, description, sheet_name, is_default, created_at, updated_at
		 FROM column_configurations WHERE id = $1`,
		configurationID)
}

func (s *ConfigurationStore) fetch(ctx context.Context, query string, args ...any) (*ingest.Configuration, error) {
	var cfg ingest.Configuration
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&cfg.ID, &cfg.ProjectID, &cfg.FileID, &cfg.Name, &cfg.Description,
		&cfg.SheetName, &cfg.IsDefault, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query configuration: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT column_index, column_name, role, language_code, is_required, custom_settings
		 FROM column_mappings WHERE configuration_id = $1 ORDER BY position`,
		cfg.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("query mappings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m ingest.ColumnMapping
		var role string
		if err := rows.Scan(&m.ColumnIndex, &m.ColumnName, &role, &m.LanguageCode, &m.IsRequired, &m.CustomSettings); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		m.Role = ingest.Role(role)
		cfg.Mappings = append(cfg.Mappings, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Delete removes a configuration owned by the project. A configuration that
// does not exist, or belongs to another project, fails with not found -
// deleting twice fails the second time.
func (s *ConfigurationStore) Delete(ctx context.Context, projectID, configurationID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM column_configurations WHERE id = $1 AND project_id = $2`,
		configurationID, projectID,
	)
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ingest.NotFoundf("configuration %s in project %s", configurationID, projectID)
	}
	return nil
}

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcelomvrocha/translation-system/internal/decoder"
)

// previewRowCount is how many decoded rows detection returns for display.
const previewRowCount = 5

// Service is the ingestion orchestrator. It sequences decode -> profile ->
// classify for the detection phase and decode -> extract -> dedup-insert for
// the parse phase. Each call is one synchronous pipeline over one file; no
// state is shared between calls.
type Service struct {
	files    FileStore
	configs  ConfigurationStore
	segments SegmentStore
	limiter  *Limiter
}

// NewService wires the orchestrator to its collaborators. limiter may be nil
// when callers manage concurrency themselves (tests do).
func NewService(files FileStore, configs ConfigurationStore, segments SegmentStore, limiter *Limiter) *Service {
	return &Service{
		files:    files,
		configs:  configs,
		segments: segments,
		limiter:  limiter,
	}
}

// Detect decodes a bounded sample of the file and returns per-column
// profiles with role suggestions plus a short preview. sheetName selects a
// workbook sheet; empty means the first sheet. maxSampleRows <= 0 uses the
// default.
func (s *Service) Detect(ctx context.Context, fileID, sheetName string, maxSampleRows int) (*DetectResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	grid, resolvedSheet, err := s.decodeFile(ctx, fileID, sheetName)
	if err != nil {
		return nil, err
	}

	if maxSampleRows <= 0 {
		maxSampleRows = DefaultSampleRows
	}

	profiles := Profile(grid, maxSampleRows)

	columns := make([]DetectedColumn, 0, len(profiles))
	analysis := make([]ColumnAnalysis, 0, len(profiles))
	for _, p := range profiles {
		suggestions := Classify(p, grid.Cell(0, p.Index))
		top := suggestions[0]
		columns = append(columns, DetectedColumn{
			ColumnProfile: p,
			SuggestedRole: top.Role,
			Confidence:    top.Confidence,
			LanguageCode:  top.LanguageCode,
		})
		analysis = append(analysis, ColumnAnalysis{
			ColumnIndex: p.Index,
			ColumnName:  p.Name,
			Profile:     p,
			Suggestions: suggestions,
		})
	}

	preview := make([][]string, 0, previewRowCount)
	for i := 0; i < len(grid) && i < previewRowCount; i++ {
		preview = append(preview, grid[i])
	}

	return &DetectResult{
		Columns:     columns,
		Analysis:    analysis,
		PreviewRows: preview,
		TotalRows:   len(grid),
		SheetName:   resolvedSheet,
	}, nil
}

// SaveConfiguration validates and persists a column configuration for the
// (project, file) pair, replacing any previous one.
func (s *Service) SaveConfiguration(ctx context.Context, projectID, fileID string, cfg Configuration) (Configuration, error) {
	if err := ValidateConfiguration(cfg); err != nil {
		return Configuration{}, err
	}

	ok, err := s.files.ProjectExists(ctx, projectID)
	if err != nil {
		return Configuration{}, fmt.Errorf("check project: %w", err)
	}
	if !ok {
		return Configuration{}, NotFoundf("project %s", projectID)
	}
	if _, err := s.files.Metadata(ctx, fileID); err != nil {
		return Configuration{}, err
	}

	cfg.ProjectID = projectID
	cfg.FileID = fileID
	saved, err := s.configs.Save(ctx, cfg)
	if err != nil {
		return Configuration{}, fmt.Errorf("save configuration: %w", err)
	}

	slog.InfoContext(ctx, "column configuration saved",
		"project_id", projectID,
		"file_id", fileID,
		"configuration_id", saved.ID,
		"mappings", len(saved.Mappings),
	)
	return saved, nil
}

// GetConfiguration returns the current configuration for the pair, or nil
// when none has been saved.
func (s *Service) GetConfiguration(ctx context.Context, projectID, fileID string) (*Configuration, error) {
	return s.configs.Get(ctx, projectID, fileID)
}

// DeleteConfiguration removes a configuration owned by the project. Deleting
// an already-deleted configuration fails with not found.
func (s *Service) DeleteConfiguration(ctx context.Context, projectID, configurationID string) error {
	return s.configs.Delete(ctx, projectID, configurationID)
}

// ListPresets returns the built-in mapping presets.
func (s *Service) ListPresets() []Preset {
	return Presets()
}

// ParseWithConfiguration re-decodes the file in full (parse must see every
// row, unlike detection's bounded sample) and extracts segments using the
// stored configuration. Parsed counts inserted segments; Skipped counts
// candidates dropped because their key already existed - running the same
// parse twice therefore reports everything skipped the second time.
func (s *Service) ParseWithConfiguration(ctx context.Context, projectID, fileID, configurationID string) (*ParseResult, error) {
	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	start := time.Now()

	cfg, err := s.configs.GetByID(ctx, configurationID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, NotFoundf("configuration %s", configurationID)
	}
	if cfg.ProjectID != projectID {
		return nil, NotFoundf("configuration %s does not belong to project %s", configurationID, projectID)
	}
	if cfg.FileID != fileID {
		return nil, NotFoundf("configuration %s was not saved for file %s", configurationID, fileID)
	}

	grid, _, err := s.decodeFile(ctx, fileID, cfg.SheetName)
	if err != nil {
		return nil, err
	}

	candidates := BuildSegments(grid, cfg.Mappings)

	existing, err := s.segments.ExistingKeys(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("fetch existing segment keys: %w", err)
	}

	fresh, skipped := dedupeSegments(candidates, existing)

	inserted := 0
	if len(fresh) > 0 {
		inserted, err = s.segments.InsertMany(ctx, projectID, fresh)
		if err != nil {
			return nil, fmt.Errorf("insert segments: %w", err)
		}
		// Rows the store refused under its unique constraint were raced in
		// by a concurrent parse; count them as skipped too.
		skipped += len(fresh) - inserted
	}

	slog.InfoContext(ctx, "file parsed with configuration",
		"project_id", projectID,
		"file_id", fileID,
		"configuration_id", configurationID,
		"candidates", len(candidates),
		"parsed", inserted,
		"skipped", skipped,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &ParseResult{
		Parsed:   inserted,
		Skipped:  skipped,
		Segments: candidates,
	}, nil
}

// decodeFile loads a file's bytes and decodes them by declared format.
func (s *Service) decodeFile(ctx context.Context, fileID, sheetName string) (decoder.Grid, string, error) {
	info, err := s.files.Metadata(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	format, err := decoder.DetectFormat(info.MimeType, info.OriginalName)
	if err != nil {
		return nil, "", err
	}

	data, err := s.files.Open(ctx, fileID)
	if err != nil {
		return nil, "", err
	}

	return decoder.Decode(data, format, sheetName)
}

func (s *Service) acquire(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Acquire(ctx)
}

func (s *Service) release() {
	if s.limiter != nil {
		s.limiter.Release()
	}
}

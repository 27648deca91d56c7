// Package ingest implements the column identification and segment ingestion
// pipeline: profiling a decoded grid, classifying each column's semantic
// role, persisting column-to-role configurations, and replaying a confirmed
// configuration against a file to produce translation segments.
//
// This package has no HTTP dependencies. Storage and file access are injected
// through the store interfaces below so the pipeline can be exercised without
// a database.
package ingest

import (
	"context"
	"time"
)

// Role is the semantic purpose assigned to a column.
type Role string

const (
	RoleSource  Role = "source"
	RoleTarget  Role = "target"
	RoleContext Role = "context"
	RoleNotes   Role = "notes"
	RoleStatus  Role = "status"
	RoleKey     Role = "key"
	RoleSkip    Role = "skip"
)

// ValidRole reports whether r is one of the known roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleSource, RoleTarget, RoleContext, RoleNotes, RoleStatus, RoleKey, RoleSkip:
		return true
	}
	return false
}

// DataType is the inferred content type of a column.
type DataType string

const (
	TypeText    DataType = "text"
	TypeNumber  DataType = "number"
	TypeDate    DataType = "date"
	TypeBoolean DataType = "boolean"
	TypeEmpty   DataType = "empty"
)

// ColumnProfile describes one column of a sampled grid. Profiles are derived
// fresh on every detect call and never persisted.
type ColumnProfile struct {
	Index         int      `json:"index"`
	Name          string   `json:"name"`
	DataType      DataType `json:"dataType"`
	IsEmpty       bool     `json:"isEmpty"`
	DistinctCount int      `json:"uniqueValues"`
	TotalCount    int      `json:"totalValues"`
	SampleValues  []string `json:"sampleValues"`
	Patterns      []string `json:"patterns,omitempty"`
}

// RoleSuggestion is one classifier suggestion for a column, ordered within a
// list by descending confidence. LanguageCode is advisory and only set for
// source/target roles.
type RoleSuggestion struct {
	Role         Role    `json:"role"`
	Confidence   float64 `json:"confidence"`
	Reason       string  `json:"reason"`
	LanguageCode string  `json:"languageCode,omitempty"`
}

// ColumnAnalysis pairs a column's profile with its full suggestion list.
type ColumnAnalysis struct {
	ColumnIndex int              `json:"columnIndex"`
	ColumnName  string           `json:"columnName"`
	Profile     ColumnProfile    `json:"profile"`
	Suggestions []RoleSuggestion `json:"suggestions"`
}

// DetectedColumn is a profile enriched with the classifier's top suggestion,
// the shape the column-mapping UI consumes directly.
type DetectedColumn struct {
	ColumnProfile
	SuggestedRole Role    `json:"suggestedRole"`
	Confidence    float64 `json:"confidence"`
	LanguageCode  string  `json:"languageCode,omitempty"`
}

// DetectResult is the outcome of the detection phase for one file.
type DetectResult struct {
	Columns     []DetectedColumn `json:"columns"`
	Analysis    []ColumnAnalysis `json:"analysis"`
	PreviewRows [][]string       `json:"previewData"`
	TotalRows   int              `json:"totalRows"`
	SheetName   string           `json:"sheetName"`
}

// ColumnMapping binds one column index to a role within a configuration.
type ColumnMapping struct {
	ColumnIndex    int               `json:"columnIndex"`
	ColumnName     string            `json:"columnName"`
	Role           Role              `json:"columnType"`
	LanguageCode   string            `json:"languageCode,omitempty"`
	IsRequired     bool              `json:"isRequired"`
	CustomSettings map[string]string `json:"customSettings,omitempty"`
}

// Configuration is a saved, named set of column mappings scoped to exactly
// one (project, file) pair. Mapping order is insertion order, not column
// order. At most one configuration exists per pair; saving again replaces it.
type Configuration struct {
	ID          string          `json:"id,omitempty"`
	ProjectID   string          `json:"projectId,omitempty"`
	FileID      string          `json:"fileId,omitempty"`
	Name        string          `json:"name,omitempty"`
	Description string          `json:"description,omitempty"`
	SheetName   string          `json:"sheetName,omitempty"`
	Mappings    []ColumnMapping `json:"mappings"`
	IsDefault   bool            `json:"isDefault"`
	CreatedAt   time.Time       `json:"createdAt,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt,omitempty"`
}

// Preset is a built-in, file-independent mapping template. Column indices are
// assigned positionally when the preset is applied to a concrete grid.
type Preset struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	IsBuiltIn   bool            `json:"isBuiltIn"`
	Mappings    []ColumnMapping `json:"mappings"`
}

// SegmentStatus mirrors the segment store's workflow status values that
// ingestion assigns on creation.
type SegmentStatus string

const (
	SegmentNew        SegmentStatus = "new"
	SegmentTranslated SegmentStatus = "translated"
)

// ParsedSegment is one translatable unit produced by extraction. Segments are
// transient here; the segment store owns them once inserted.
type ParsedSegment struct {
	SegmentKey string        `json:"segmentKey"`
	SourceText string        `json:"sourceText"`
	TargetText string        `json:"targetText,omitempty"`
	Context    string        `json:"context,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	Status     SegmentStatus `json:"status"`
}

// ParseResult reports what a configured parse did: Parsed counts inserted
// segments, Skipped counts candidates dropped as duplicates of already
// persisted keys. Malformed rows are excluded before counting.
type ParseResult struct {
	Parsed   int             `json:"parsed"`
	Skipped  int             `json:"skipped"`
	Segments []ParsedSegment `json:"segments"`
}

// FileInfo is the blob-store metadata for an uploaded file.
type FileInfo struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	SizeBytes    int64     `json:"sizeBytes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// FileStore is the byte-addressable blob store collaborator: metadata plus
// payload access keyed by file ID.
type FileStore interface {
	Metadata(ctx context.Context, fileID string) (FileInfo, error)
	Open(ctx context.Context, fileID string) ([]byte, error)
	ProjectExists(ctx context.Context, projectID string) (bool, error)
}

// ConfigurationStore persists column configurations keyed by the
// (project, file) pair with replace-on-write semantics.
type ConfigurationStore interface {
	Save(ctx context.Context, cfg Configuration) (Configuration, error)
	Get(ctx context.Context, projectID, fileID string) (*Configuration, error)
	GetByID(ctx context.Context, configurationID string) (*Configuration, error)
	Delete(ctx context.Context, projectID, configurationID string) error
}

// SegmentStore is the external segment collaborator. InsertMany must enforce
// a uniqueness constraint on (projectID, segmentKey) and silently ignore
// conflicting rows - the extractor's pre-filter against ExistingKeys is an
// optimization, not the correctness boundary for concurrent parses.
type SegmentStore interface {
	ExistingKeys(ctx context.Context, projectID string) (map[string]bool, error)
	InsertMany(ctx context.Context, projectID string, segments []ParsedSegment) (int, error)
}

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcelomvrocha/translation-system/internal/decoder"
)

// In-memory store fakes so the pipeline runs without a database.

type fakeFileStore struct {
	files    map[string]FileInfo
	payloads map[string][]byte
	projects map[string]bool
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{
		files:    make(map[string]FileInfo),
		payloads: make(map[string][]byte),
		projects: make(map[string]bool),
	}
}

func (f *fakeFileStore) addFile(id, projectID, name, mimeType string, data []byte) {
	f.files[id] = FileInfo{
		ID:           id,
		ProjectID:    projectID,
		OriginalName: name,
		MimeType:     mimeType,
		SizeBytes:    int64(len(data)),
		CreatedAt:    time.Now(),
	}
	f.payloads[id] = data
	f.projects[projectID] = true
}

func (f *fakeFileStore) Metadata(ctx context.Context, fileID string) (FileInfo, error) {
	info, ok := f.files[fileID]
	if !ok {
		return FileInfo{}, NotFoundf("file %s", fileID)
	}
	return info, nil
}

func (f *fakeFileStore) Open(ctx context.Context, fileID string) ([]byte, error) {
	data, ok := f.payloads[fileID]
	if !ok {
		return nil, NotFoundf("file %s", fileID)
	}
	return data, nil
}

func (f *fakeFileStore) ProjectExists(ctx context.Context, projectID string) (bool, error) {
	return f.projects[projectID], nil
}

type fakeConfigStore struct {
	configs map[string]*Configuration
	nextID  int
}

func newFakeConfigStore() *fakeConfigStore {
	return &fakeConfigStore{configs: make(map[string]*Configuration)}
}

func (f *fakeConfigStore) Save(ctx context.Context, cfg Configuration) (Configuration, error) {
	// Replace-on-write per (project, file) pair.
	for id, existing := range f.configs {
		if existing.ProjectID == cfg.ProjectID && existing.FileID == cfg.FileID {
			cfg.ID = id
			cfg.CreatedAt = existing.CreatedAt
			cfg.UpdatedAt = time.Now()
			f.configs[id] = &cfg
			return cfg, nil
		}
	}
	f.nextID++
	cfg.ID = string(rune('a' + f.nextID))
	cfg.CreatedAt = time.Now()
	cfg.UpdatedAt = cfg.CreatedAt
	f.configs[cfg.ID] = &cfg
	return cfg, nil
}

func (f *fakeConfigStore) Get(ctx context.Context, projectID, fileID string) (*Configuration, error) {
	for _, cfg := range f.configs {
		if cfg.ProjectID == projectID && cfg.FileID == fileID {
			cp := *cfg
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeConfigStore) GetByID(ctx context.Context, configurationID string) (*Configuration, error) {
	cfg, ok := f.configs[configurationID]
	if !ok {
		return nil, nil
	}
	cp := *cfg
	return &cp, nil
}

func (f *fakeConfigStore) Delete(ctx context.Context, projectID, configurationID string) error {
	cfg, ok := f.configs[configurationID]
	if !ok || cfg.ProjectID != projectID {
		return NotFoundf("configuration %s in project %s", configurationID, projectID)
	}
	delete(f.configs, configurationID)
	return nil
}

type fakeSegmentStore struct {
	// stored enforces the (project, key) uniqueness the real table does.
	stored map[string]map[string]ParsedSegment
}

func newFakeSegmentStore() *fakeSegmentStore {
	return &fakeSegmentStore{stored: make(map[string]map[string]ParsedSegment)}
}

func (f *fakeSegmentStore) ExistingKeys(ctx context.Context, projectID string) (map[string]bool, error) {
	keys := make(map[string]bool)
	for key := range f.stored[projectID] {
		keys[key] = true
	}
	return keys, nil
}

func (f *fakeSegmentStore) InsertMany(ctx context.Context, projectID string, segments []ParsedSegment) (int, error) {
	if f.stored[projectID] == nil {
		f.stored[projectID] = make(map[string]ParsedSegment)
	}
	inserted := 0
	for _, seg := range segments {
		if _, exists := f.stored[projectID][seg.SegmentKey]; exists {
			continue
		}
		f.stored[projectID][seg.SegmentKey] = seg
		inserted++
	}
	return inserted, nil
}

func newTestService() (*Service, *fakeFileStore, *fakeConfigStore, *fakeSegmentStore) {
	files := newFakeFileStore()
	configs := newFakeConfigStore()
	segments := newFakeSegmentStore()
	return NewService(files, configs, segments, nil), files, configs, segments
}

func TestServiceDetect(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv",
		[]byte("Source,Target\nHello,Hola\nGoodbye,Adios\n"))

	result, err := svc.Detect(context.Background(), "f1", "", 0)
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if len(result.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(result.Columns))
	}
	if result.Columns[0].SuggestedRole != RoleSource {
		t.Errorf("column 0 role = %q, want source", result.Columns[0].SuggestedRole)
	}
	if result.Columns[1].SuggestedRole != RoleTarget {
		t.Errorf("column 1 role = %q, want target", result.Columns[1].SuggestedRole)
	}
	if result.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", result.TotalRows)
	}
	if len(result.PreviewRows) != 3 {
		t.Errorf("got %d preview rows, want all 3", len(result.PreviewRows))
	}
	if result.SheetName == "" {
		t.Error("SheetName should be resolved")
	}
	if len(result.Analysis) != 2 {
		t.Errorf("got %d analysis entries, want 2", len(result.Analysis))
	}
}

func TestServiceDetectFileNotFound(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.Detect(context.Background(), "missing", "", 0)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Detect() error = %v, want ErrNotFound", err)
	}
}

func TestServiceDetectUnsupportedFormat(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "report.pdf", "application/pdf", []byte("%PDF"))

	_, err := svc.Detect(context.Background(), "f1", "", 0)
	if !errors.Is(err, decoder.ErrUnsupportedFormat) {
		t.Errorf("Detect() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestServiceSaveConfiguration(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv", []byte("a,b\n"))

	cfg := Configuration{
		Name: "my mapping",
		Mappings: []ColumnMapping{
			{ColumnIndex: 0, Role: RoleSource},
			{ColumnIndex: 1, Role: RoleTarget},
		},
	}

	saved, err := svc.SaveConfiguration(context.Background(), "p1", "f1", cfg)
	if err != nil {
		t.Fatalf("SaveConfiguration() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("saved configuration has no ID")
	}
	if saved.ProjectID != "p1" || saved.FileID != "f1" {
		t.Errorf("ownership = %s/%s, want p1/f1", saved.ProjectID, saved.FileID)
	}

	got, err := svc.GetConfiguration(context.Background(), "p1", "f1")
	if err != nil {
		t.Fatalf("GetConfiguration() error = %v", err)
	}
	if got == nil || got.ID != saved.ID {
		t.Errorf("GetConfiguration() = %v, want the saved configuration", got)
	}
}

func TestServiceSaveConfigurationReplaces(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv", []byte("a,b\n"))

	first, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{
		Name:     "v1",
		Mappings: []ColumnMapping{{ColumnIndex: 0, Role: RoleSource}},
	})
	if err != nil {
		t.Fatalf("first save error = %v", err)
	}

	second, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{
		Name:     "v2",
		Mappings: []ColumnMapping{{ColumnIndex: 1, Role: RoleSource}},
	})
	if err != nil {
		t.Fatalf("second save error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("replacement changed ID from %s to %s", first.ID, second.ID)
	}
	got, _ := svc.GetConfiguration(context.Background(), "p1", "f1")
	if got.Name != "v2" {
		t.Errorf("current config name = %q, want v2", got.Name)
	}
}

func TestServiceSaveConfigurationErrors(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv", []byte("a,b\n"))

	valid := Configuration{
		Mappings: []ColumnMapping{{ColumnIndex: 0, Role: RoleSource}},
	}

	t.Run("invalid configuration", func(t *testing.T) {
		_, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{})
		if !errors.Is(err, ErrValidation) {
			t.Errorf("error = %v, want ErrValidation", err)
		}
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.SaveConfiguration(context.Background(), "ghost", "f1", valid)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown file", func(t *testing.T) {
		_, err := svc.SaveConfiguration(context.Background(), "p1", "ghost", valid)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestServiceDeleteConfiguration(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv", []byte("a,b\n"))

	saved, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{
		Mappings: []ColumnMapping{{ColumnIndex: 0, Role: RoleSource}},
	})
	if err != nil {
		t.Fatalf("save error = %v", err)
	}

	if err := svc.DeleteConfiguration(context.Background(), "p1", saved.ID); err != nil {
		t.Fatalf("DeleteConfiguration() error = %v", err)
	}

	// Deleting twice fails the second time.
	err = svc.DeleteConfiguration(context.Background(), "p1", saved.ID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestServiceParseWithConfiguration(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv",
		[]byte("Source,Target\nHello,Hola\n,Bonjour\n"))

	saved, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{
		Mappings: []ColumnMapping{
			{ColumnIndex: 0, Role: RoleSource},
			{ColumnIndex: 1, Role: RoleTarget},
		},
	})
	if err != nil {
		t.Fatalf("save error = %v", err)
	}

	result, err := svc.ParseWithConfiguration(context.Background(), "p1", "f1", saved.ID)
	if err != nil {
		t.Fatalf("ParseWithConfiguration() error = %v", err)
	}

	// The row without source text is malformed input: not parsed, not skipped.
	if result.Parsed != 1 {
		t.Errorf("Parsed = %d, want 1", result.Parsed)
	}
	if result.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", result.Skipped)
	}
	if len(result.Segments) != 1 {
		t.Fatalf("got %d segments, want 1", len(result.Segments))
	}
	seg := result.Segments[0]
	if seg.SegmentKey != "row_1_source_0" || seg.SourceText != "Hello" ||
		seg.TargetText != "Hola" || seg.Status != SegmentTranslated {
		t.Errorf("unexpected segment: %+v", seg)
	}
}

func TestServiceParseIdempotence(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv",
		[]byte("Source,Target\nHello,Hola\nGoodbye,Adios\n"))

	saved, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{
		Mappings: []ColumnMapping{
			{ColumnIndex: 0, Role: RoleSource},
			{ColumnIndex: 1, Role: RoleTarget},
		},
	})
	if err != nil {
		t.Fatalf("save error = %v", err)
	}

	first, err := svc.ParseWithConfiguration(context.Background(), "p1", "f1", saved.ID)
	if err != nil {
		t.Fatalf("first parse error = %v", err)
	}
	if first.Parsed != 2 || first.Skipped != 0 {
		t.Errorf("first parse = %d/%d, want 2 parsed, 0 skipped", first.Parsed, first.Skipped)
	}

	second, err := svc.ParseWithConfiguration(context.Background(), "p1", "f1", saved.ID)
	if err != nil {
		t.Fatalf("second parse error = %v", err)
	}
	if second.Parsed != 0 || second.Skipped != 2 {
		t.Errorf("second parse = %d/%d, want 0 parsed, 2 skipped", second.Parsed, second.Skipped)
	}
}

// racingSegmentStore simulates a concurrent parse landing between the key
// snapshot and the batch insert: ExistingKeys reports nothing, but the
// underlying store already holds the key when InsertMany runs.
type racingSegmentStore struct {
	*fakeSegmentStore
}

func (r *racingSegmentStore) ExistingKeys(ctx context.Context, projectID string) (map[string]bool, error) {
	return map[string]bool{}, nil
}

func TestServiceParseCountsStoreRefusedRows(t *testing.T) {
	files := newFakeFileStore()
	files.addFile("f1", "p1", "strings.csv", "text/csv",
		[]byte("Source\nHello\n"))

	configs := newFakeConfigStore()
	segments := &racingSegmentStore{newFakeSegmentStore()}
	segments.stored["p1"] = map[string]ParsedSegment{
		"row_1_source_0": {SegmentKey: "row_1_source_0"},
	}

	svc := NewService(files, configs, segments, nil)

	saved, err := configs.Save(context.Background(), Configuration{
		ProjectID: "p1",
		FileID:    "f1",
		Mappings:  []ColumnMapping{{ColumnIndex: 0, Role: RoleSource}},
	})
	if err != nil {
		t.Fatalf("save error = %v", err)
	}

	result, err := svc.ParseWithConfiguration(context.Background(), "p1", "f1", saved.ID)
	if err != nil {
		t.Fatalf("ParseWithConfiguration() error = %v", err)
	}
	if result.Parsed != 0 {
		t.Errorf("Parsed = %d, want 0 (store refused the row)", result.Parsed)
	}
	if result.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", result.Skipped)
	}
}

func TestServiceParseOwnershipChecks(t *testing.T) {
	svc, files, _, _ := newTestService()
	files.addFile("f1", "p1", "strings.csv", "text/csv", []byte("Source\nHello\n"))
	files.addFile("f2", "p1", "other.csv", "text/csv", []byte("Source\nWorld\n"))

	saved, err := svc.SaveConfiguration(context.Background(), "p1", "f1", Configuration{
		Mappings: []ColumnMapping{{ColumnIndex: 0, Role: RoleSource}},
	})
	if err != nil {
		t.Fatalf("save error = %v", err)
	}

	t.Run("unknown configuration", func(t *testing.T) {
		_, err := svc.ParseWithConfiguration(context.Background(), "p1", "f1", "ghost")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("wrong project", func(t *testing.T) {
		_, err := svc.ParseWithConfiguration(context.Background(), "p2", "f1", saved.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})

	t.Run("wrong file", func(t *testing.T) {
		_, err := svc.ParseWithConfiguration(context.Background(), "p1", "f2", saved.ID)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("error = %v, want ErrNotFound", err)
		}
	})
}

func TestServiceWithLimiter(t *testing.T) {
	files := newFakeFileStore()
	files.addFile("f1", "p1", "strings.csv", "text/csv", []byte("Source\nHello\n"))

	limiter := NewLimiter(1, 30*time.Millisecond)
	svc := NewService(files, newFakeConfigStore(), newFakeSegmentStore(), limiter)

	// Hold the only slot so the detect call cannot get one.
	if err := limiter.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer limiter.Release()

	_, err := svc.Detect(context.Background(), "f1", "", 0)
	if !errors.Is(err, ErrTooManyRequests) {
		t.Errorf("Detect() error = %v, want ErrTooManyRequests", err)
	}
}

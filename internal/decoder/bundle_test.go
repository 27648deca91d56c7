package decoder

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

// buildBundle assembles an in-memory zip archive from entry name/content
// pairs.
func buildBundle(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeBundleTaggedText(t *testing.T) {
	data := buildBundle(t, map[string]string{
		"index.xml": `<root><t>Hello world</t><t>Hola mundo</t><t>42</t><t>ROWDATA</t></root>`,
	})

	grid, err := decodeBundle(data)
	if err != nil {
		t.Fatalf("decodeBundle() error = %v", err)
	}

	// Bare numbers and ALL_CAPS identifiers are filtered out.
	want := []string{"Hello world", "Hola mundo"}
	if len(grid) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(grid), len(want), grid)
	}
	for i, text := range want {
		if grid.Cell(i, 0) != text {
			t.Errorf("row %d = %q, want %q", i, grid.Cell(i, 0), text)
		}
	}
}

func TestDecodeBundleQuotedFallback(t *testing.T) {
	// No <t> tags at all; the quoted-string strategy should kick in.
	data := buildBundle(t, map[string]string{
		"data.iwa": `record{"Welcome back","Bienvenido"}`,
	})

	grid, err := decodeBundle(data)
	if err != nil {
		t.Fatalf("decodeBundle() error = %v", err)
	}
	if len(grid) != 2 {
		t.Fatalf("got %d rows, want 2: %v", len(grid), grid)
	}
	if grid.Cell(0, 0) != "Welcome back" || grid.Cell(1, 0) != "Bienvenido" {
		t.Errorf("unexpected cells: %v", grid)
	}
}

func TestDecodeBundleStrategyPriority(t *testing.T) {
	// Tagged text present: quoted strings in the same payload must be ignored.
	data := buildBundle(t, map[string]string{
		"index.xml": `<t>Tagged cell</t> and "quoted noise"`,
	})

	grid, err := decodeBundle(data)
	if err != nil {
		t.Fatalf("decodeBundle() error = %v", err)
	}
	if len(grid) != 1 || grid.Cell(0, 0) != "Tagged cell" {
		t.Errorf("got %v, want single row [Tagged cell]", grid)
	}
}

func TestDecodeBundleIgnoresOtherEntries(t *testing.T) {
	data := buildBundle(t, map[string]string{
		"preview.png": `<t>not a spreadsheet entry</t>`,
		"index.xml":   `<t>Actual cell text</t>`,
	})

	grid, err := decodeBundle(data)
	if err != nil {
		t.Fatalf("decodeBundle() error = %v", err)
	}
	if len(grid) != 1 || grid.Cell(0, 0) != "Actual cell text" {
		t.Errorf("got %v, want single row from the xml entry", grid)
	}
}

func TestDecodeBundleEmptyYieldsEmptyGrid(t *testing.T) {
	data := buildBundle(t, map[string]string{
		"index.xml": `<root><meta/></root>`,
	})

	grid, err := decodeBundle(data)
	if err != nil {
		t.Fatalf("decodeBundle() error = %v", err)
	}
	if len(grid) != 0 {
		t.Errorf("got %d rows, want empty grid", len(grid))
	}
}

func TestDecodeBundleCorruptArchive(t *testing.T) {
	_, err := decodeBundle([]byte("this is not a zip archive"))
	if !errors.Is(err, ErrCorruptInput) {
		t.Errorf("decodeBundle() error = %v, want ErrCorruptInput", err)
	}
}

func TestKeepBundleCell(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Hello world", true},
		{"ab", false},
		{"12345", false},
		{"ROWHEADER", false},
		{"Mixed CASE ok", true},
	}
	for _, tt := range tests {
		if got := keepBundleCell(tt.text); got != tt.want {
			t.Errorf("keepBundleCell(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

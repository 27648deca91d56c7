package decoder

import (
	"errors"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		filename string
		want     Format
		wantErr  bool
	}{
		{
			name:     "csv mime",
			mimeType: "text/csv",
			filename: "strings.csv",
			want:     FormatDelimited,
		},
		{
			name:     "plain text mime",
			mimeType: "text/plain",
			filename: "strings.txt",
			want:     FormatDelimited,
		},
		{
			name:     "xlsx mime",
			mimeType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			filename: "catalog.xlsx",
			want:     FormatWorkbook,
		},
		{
			name:     "numbers mime",
			mimeType: "application/vnd.apple.numbers",
			filename: "catalog.numbers",
			want:     FormatBundle,
		},
		{
			name:     "zip container with numbers extension",
			mimeType: "application/zip",
			filename: "catalog.numbers",
			want:     FormatBundle,
		},
		{
			name:     "octet-stream with xlsx extension",
			mimeType: "application/octet-stream",
			filename: "catalog.xlsx",
			want:     FormatWorkbook,
		},
		{
			name:     "unknown mime falls back to extension",
			mimeType: "application/x-who-knows",
			filename: "data.csv",
			want:     FormatDelimited,
		},
		{
			name:     "extension is case insensitive",
			mimeType: "",
			filename: "DATA.CSV",
			want:     FormatDelimited,
		},
		{
			name:     "unsupported",
			mimeType: "application/pdf",
			filename: "report.pdf",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectFormat(tt.mimeType, tt.filename)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFormat) {
					t.Fatalf("DetectFormat() error = %v, want ErrUnsupportedFormat", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DetectFormat() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("DetectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, _, err := Decode([]byte("a,b"), Format(99), "")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Decode() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestGridCell(t *testing.T) {
	grid := Grid{
		{"a", "b", "c"},
		{"d"},
	}

	tests := []struct {
		name     string
		row, col int
		want     string
	}{
		{"in range", 0, 2, "c"},
		{"ragged row reads empty", 1, 2, ""},
		{"row out of range", 5, 0, ""},
		{"negative col", 0, -1, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := grid.Cell(tt.row, tt.col); got != tt.want {
				t.Errorf("Cell(%d, %d) = %q, want %q", tt.row, tt.col, got, tt.want)
			}
		})
	}
}

func TestGridMaxColumns(t *testing.T) {
	grid := Grid{
		{"a", "b", "c"},
		{"d", "e"},
		{"f", "g", "h", "i"},
	}
	if got := grid.MaxColumns(); got != 4 {
		t.Errorf("MaxColumns() = %d, want 4", got)
	}
}

func TestFormatString(t *testing.T) {
	if FormatDelimited.String() != "delimited" {
		t.Errorf("FormatDelimited.String() = %q", FormatDelimited.String())
	}
	if FormatWorkbook.String() != "workbook" {
		t.Errorf("FormatWorkbook.String() = %q", FormatWorkbook.String())
	}
	if FormatBundle.String() != "bundle" {
		t.Errorf("FormatBundle.String() = %q", FormatBundle.String())
	}
}

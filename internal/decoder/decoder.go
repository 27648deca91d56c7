// Package decoder converts uploaded tabular files into a uniform in-memory
// grid of string cells. Each supported format family has one decoder; all of
// them converge on the same Grid representation so the profiling and
// extraction layers never see format-specific detail.
package decoder

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Grid is the uniform rectangular representation of a tabular file.
// Rows may be ragged; consumers must treat missing trailing cells as empty.
// Row 0 is a candidate header row but is never dropped here - whether it is
// data or metadata is decided by classification, not decoding.
type Grid [][]string

// Rows returns the number of rows in the grid.
func (g Grid) Rows() int { return len(g) }

// Cell returns the cell at (row, col), or "" when the row is shorter than
// col+1. Ragged rows are expected and never an error.
func (g Grid) Cell(row, col int) string {
	if row < 0 || row >= len(g) {
		return ""
	}
	if col < 0 || col >= len(g[row]) {
		return ""
	}
	return g[row][col]
}

// MaxColumns returns the widest row length in the grid.
func (g Grid) MaxColumns() int {
	max := 0
	for _, row := range g {
		if len(row) > max {
			max = len(row)
		}
	}
	return max
}

// Format identifies a decoder family. Keeping this a closed enum (instead of
// dispatching on raw MIME strings) makes unsupported formats an explicit
// decision point rather than a fallthrough branch.
type Format int

const (
	// FormatDelimited is comma-delimited text (CSV and friends).
	FormatDelimited Format = iota
	// FormatWorkbook is an xlsx spreadsheet workbook.
	FormatWorkbook
	// FormatBundle is a legacy zip-based spreadsheet bundle (.numbers-style).
	FormatBundle
)

// String returns the family name for logging.
func (f Format) String() string {
	switch f {
	case FormatDelimited:
		return "delimited"
	case FormatWorkbook:
		return "workbook"
	case FormatBundle:
		return "bundle"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ErrUnsupportedFormat is returned when a declared MIME type or extension
// matches no decoder family.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrCorruptInput is returned when bytes matched a family but could not be
// parsed by it.
var ErrCorruptInput = errors.New("corrupt input")

// ErrSheetNotFound is returned when an explicitly requested workbook sheet
// does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// DetectFormat maps a declared MIME type and original filename to a decoder
// family. The filename extension is consulted for ambiguous container types
// (zip / octet-stream), matching how bundle uploads arrive in practice.
func DetectFormat(mimeType, filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch strings.ToLower(mimeType) {
	case "text/csv", "text/plain", "application/csv":
		return FormatDelimited, nil
	case "application/vnd.ms-excel",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return FormatWorkbook, nil
	case "application/vnd.apple.numbers", "application/x-iwork-numbers":
		return FormatBundle, nil
	case "application/zip", "application/octet-stream":
		// Ambiguous container; trust the extension.
		switch ext {
		case ".numbers":
			return FormatBundle, nil
		case ".xlsx":
			return FormatWorkbook, nil
		case ".csv", ".txt":
			return FormatDelimited, nil
		}
	}

	// Last resort: extension alone.
	switch ext {
	case ".csv", ".txt":
		return FormatDelimited, nil
	case ".xlsx", ".xls":
		return FormatWorkbook, nil
	case ".numbers":
		return FormatBundle, nil
	}

	return 0, fmt.Errorf("%w: %s (%s)", ErrUnsupportedFormat, mimeType, filename)
}

// Decode parses data with the decoder for the given family. sheetName is only
// meaningful for FormatWorkbook; other families ignore it. The returned string
// is the sheet actually decoded ("Sheet 1" for single-sheet families), so
// callers can echo the resolved name back to the client.
func Decode(data []byte, format Format, sheetName string) (Grid, string, error) {
	switch format {
	case FormatDelimited:
		grid, err := decodeDelimited(data)
		return grid, defaultSheetName, err
	case FormatWorkbook:
		return decodeWorkbook(data, sheetName)
	case FormatBundle:
		grid, err := decodeBundle(data)
		return grid, defaultSheetName, err
	default:
		return nil, "", fmt.Errorf("%w: unknown format %d", ErrUnsupportedFormat, int(format))
	}
}

const defaultSheetName = "Sheet 1"

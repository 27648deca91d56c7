package ingest

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/marcelomvrocha/translation-system/internal/decoder"
)

// DefaultSampleRows bounds how many data rows the profiler inspects per
// column. Sampling trades accuracy for cost on large files; parse-phase
// extraction always sees every row regardless.
const DefaultSampleRows = 10

const maxSampleValues = 5

// Profile computes per-column statistics over the first maxSampleRows+1 rows
// of the grid (row 0 plus up to maxSampleRows data rows). The column count is
// the widest row observed in the sample; missing trailing cells on ragged
// rows count as empty rather than failing.
func Profile(grid decoder.Grid, maxSampleRows int) []ColumnProfile {
	if len(grid) == 0 {
		return nil
	}
	if maxSampleRows <= 0 {
		maxSampleRows = DefaultSampleRows
	}

	sampleRows := len(grid)
	if sampleRows > maxSampleRows+1 {
		sampleRows = maxSampleRows + 1
	}
	sample := grid[:sampleRows]

	columnCount := 0
	for _, row := range sample {
		if len(row) > columnCount {
			columnCount = len(row)
		}
	}

	profiles := make([]ColumnProfile, 0, columnCount)
	for col := 0; col < columnCount; col++ {
		var values []string
		for _, row := range sample {
			if col < len(row) {
				values = append(values, row[col])
			}
		}
		profiles = append(profiles, profileColumn(col, sample.Cell(0, col), values))
	}

	return profiles
}

func profileColumn(index int, headerCell string, values []string) ColumnProfile {
	var nonEmpty []string
	distinct := make(map[string]bool)
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		nonEmpty = append(nonEmpty, v)
		distinct[v] = true
	}

	samples := nonEmpty
	if len(samples) > maxSampleValues {
		samples = samples[:maxSampleValues]
	}

	p := ColumnProfile{
		Index:         index,
		Name:          inferColumnName(index, headerCell),
		DistinctCount: len(distinct),
		TotalCount:    len(nonEmpty),
		SampleValues:  append([]string(nil), samples...),
	}

	if len(nonEmpty) == 0 {
		p.DataType = TypeEmpty
		p.IsEmpty = true
		return p
	}

	p.DataType = inferDataType(nonEmpty)
	p.Patterns = extractPatterns(samples)
	return p
}

// inferColumnName uses the header cell when present, otherwise synthesizes a
// positional name ("Column 1" for index 0).
func inferColumnName(index int, headerCell string) string {
	if header := strings.TrimSpace(headerCell); header != "" {
		return header
	}
	return fmt.Sprintf("Column %d", index+1)
}

// inferDataType classifies non-empty values. Checks run in fixed order
// number, boolean, date, text and the first rule that matches every value
// wins: a column of "1"/"0" is number, never boolean.
func inferDataType(values []string) DataType {
	if allMatch(values, isNumber) {
		return TypeNumber
	}
	if allMatch(values, isBooleanToken) {
		return TypeBoolean
	}
	if allMatch(values, isDate) {
		return TypeDate
	}
	return TypeText
}

func allMatch(values []string, pred func(string) bool) bool {
	for _, v := range values {
		if !pred(v) {
			return false
		}
	}
	return true
}

func isNumber(v string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return err == nil
}

var booleanTokens = map[string]bool{
	"true": true, "false": true,
	"yes": true, "no": true,
	"1": true, "0": true,
}

func isBooleanToken(v string) bool {
	return booleanTokens[strings.ToLower(strings.TrimSpace(v))]
}

// dateLayouts are the formats the profiler recognizes. The set is fixed so
// type inference stays deterministic across runs.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02.01.2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

func isDate(v string) bool {
	v = strings.TrimSpace(v)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, v); err == nil {
			return true
		}
	}
	return false
}

var (
	numericRun   = regexp.MustCompile(`^\d+$`)
	uppercaseRun = regexp.MustCompile(`^[A-Z_]+$`)
	lowercaseRun = regexp.MustCompile(`^[a-z_]+$`)
)

// extractPatterns tags shape properties shared by every sample value. Tags
// feed classification hints and the mapping UI; they carry no contract beyond
// "all sampled values looked like this".
func extractPatterns(samples []string) []string {
	if len(samples) == 0 {
		return nil
	}

	var patterns []string
	if allMatch(samples, numericRun.MatchString) {
		patterns = append(patterns, "numeric")
	}
	if allMatch(samples, uppercaseRun.MatchString) {
		patterns = append(patterns, "uppercase")
	}
	if allMatch(samples, lowercaseRun.MatchString) {
		patterns = append(patterns, "lowercase")
	}
	if allMatch(samples, func(s string) bool { return len(s) > 10 }) {
		patterns = append(patterns, "long_text")
	}
	if allMatch(samples, func(s string) bool { return len(s) < 5 }) {
		patterns = append(patterns, "short_text")
	}
	return patterns
}

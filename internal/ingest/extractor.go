package ingest

import (
	"fmt"
	"strings"

	"github.com/marcelomvrocha/translation-system/internal/decoder"
)

// contextSeparator joins multiple context (or notes) cells into one field.
const contextSeparator = " | "

// roleGroups partitions a configuration's mappings by role. Status mappings
// are informational only and never gate extraction, so they have no group.
type roleGroups struct {
	source  []ColumnMapping
	target  []ColumnMapping
	context []ColumnMapping
	notes   []ColumnMapping
	key     []ColumnMapping
}

func groupByRole(mappings []ColumnMapping) roleGroups {
	var g roleGroups
	for _, m := range mappings {
		switch m.Role {
		case RoleSource:
			g.source = append(g.source, m)
		case RoleTarget:
			g.target = append(g.target, m)
		case RoleContext:
			g.context = append(g.context, m)
		case RoleNotes:
			g.notes = append(g.notes, m)
		case RoleKey:
			g.key = append(g.key, m)
		}
	}
	return g
}

// BuildSegments replays a confirmed mapping against a full grid and returns
// candidate segments in row order. It is pure: deduplication against
// persisted keys happens in the orchestrator, not here.
//
// Row 0 is always treated as the header during mapping-driven extraction
// (unlike decoding, which makes no such assumption). Rows whose mapped
// source cells are all empty produce nothing and are not counted anywhere -
// they are malformed input, not duplicates.
func BuildSegments(grid decoder.Grid, mappings []ColumnMapping) []ParsedSegment {
	groups := groupByRole(mappings)
	if len(groups.source) == 0 {
		return nil
	}

	var segments []ParsedSegment

	for rowIndex := 1; rowIndex < len(grid); rowIndex++ {
		row := grid[rowIndex]
		if len(row) == 0 {
			continue
		}

		sourceTexts := collectCells(grid, rowIndex, groups.source)
		targetTexts := collectCells(grid, rowIndex, groups.target)
		contexts := collectCells(grid, rowIndex, groups.context)
		notes := collectCells(grid, rowIndex, groups.notes)
		keys := collectCells(grid, rowIndex, groups.key)

		for sourceOrdinal, sourceText := range sourceTexts {
			key := ""
			if len(keys) > 0 {
				key = keys[0]
			}
			if key == "" {
				key = fmt.Sprintf("row_%d_source_%d", rowIndex, sourceOrdinal)
			}

			target := ""
			if sourceOrdinal < len(targetTexts) {
				target = targetTexts[sourceOrdinal]
			}

			status := SegmentNew
			if target != "" {
				status = SegmentTranslated
			}

			segments = append(segments, ParsedSegment{
				SegmentKey: key,
				SourceText: sourceText,
				TargetText: target,
				Context:    strings.Join(contexts, contextSeparator),
				Notes:      strings.Join(notes, contextSeparator),
				Status:     status,
			})
		}
	}

	return segments
}

// collectCells reads each mapped column's cell in the given row, trimmed,
// dropping empties. The returned order follows mapping insertion order, which
// is what pairs source and target cells by ordinal.
func collectCells(grid decoder.Grid, rowIndex int, mappings []ColumnMapping) []string {
	var out []string
	for _, m := range mappings {
		cell := strings.TrimSpace(grid.Cell(rowIndex, m.ColumnIndex))
		if cell == "" {
			continue
		}
		out = append(out, cell)
	}
	return out
}

// dedupeSegments drops candidates whose key already exists for the project.
// Collisions are the idempotence mechanism for repeated parses, not errors.
// The segment store's unique constraint remains the final safety net for
// concurrent parses that race past this filter.
func dedupeSegments(candidates []ParsedSegment, existing map[string]bool) (fresh []ParsedSegment, skipped int) {
	seen := make(map[string]bool, len(candidates))
	for _, seg := range candidates {
		if existing[seg.SegmentKey] || seen[seg.SegmentKey] {
			skipped++
			continue
		}
		seen[seg.SegmentKey] = true
		fresh = append(fresh, seg)
	}
	return fresh, skipped
}

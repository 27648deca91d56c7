package decoder

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Bundle extraction is best-effort by nature: the legacy format stores cell
// text inside XML (and opaque binary record) entries of a zip archive, and we
// only promise that every returned cell is a non-empty, non-purely-numeric
// printable run. Three strategies run in priority order; a later strategy is
// consulted only when every earlier one produced zero cells. The chain is
// deterministic - the same bytes always yield the same grid.
var (
	// Strategy 1: strict tagged text, the markup the format uses for cell
	// string payloads.
	taggedTextPattern = regexp.MustCompile(`<t[^>]*>([^<]+)</t>`)

	// Strategy 2: double-quoted string literals embedded in entry payloads.
	quotedTextPattern = regexp.MustCompile(`"([^"\x00-\x1f]{3,})"`)

	// Strategy 3: generic printable runs between markup delimiters.
	printableRunPattern = regexp.MustCompile(`>([^<>{}\[\]\x00-\x1f]{3,})<`)

	pureNumberPattern = regexp.MustCompile(`^\d+$`)
	identifierPattern = regexp.MustCompile(`^[A-Z_]+$`)
)

// maxBundleEntryBytes caps how much of a single archive entry is scanned.
const maxBundleEntryBytes = 8 << 20

// decodeBundle extracts text cells from a legacy zip-bundle spreadsheet.
// Each extracted run becomes a single-cell row; column mapping against such
// grids is positional. An archive that yields no text produces an empty grid
// rather than an error - extraction here is best-effort by contract.
func decodeBundle(data []byte) (Grid, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: open bundle archive: %v", ErrCorruptInput, err)
	}

	var payloads []string
	for _, entry := range zr.File {
		name := strings.ToLower(entry.Name)
		if !strings.HasSuffix(name, ".xml") && !strings.HasSuffix(name, ".iwa") {
			continue
		}

		rc, err := entry.Open()
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			continue
		}
		content, err := io.ReadAll(io.LimitReader(rc, maxBundleEntryBytes))
		rc.Close()
		if err != nil {
			continue
		}
		payloads = append(payloads, string(content))
	}

	strategies := []*regexp.Regexp{taggedTextPattern, quotedTextPattern, printableRunPattern}

	for _, pattern := range strategies {
		cells := extractRuns(payloads, pattern)
		if len(cells) > 0 {
			grid := make(Grid, len(cells))
			for i, cell := range cells {
				grid[i] = []string{cell}
			}
			return grid, nil
		}
	}

	return Grid{}, nil
}

// extractRuns applies one strategy pattern across all entry payloads,
// keeping candidate order stable (entry order, then match order).
func extractRuns(payloads []string, pattern *regexp.Regexp) []string {
	var cells []string
	for _, payload := range payloads {
		for _, match := range pattern.FindAllStringSubmatch(payload, -1) {
			text := strings.TrimSpace(match[1])
			if !keepBundleCell(text) {
				continue
			}
			cells = append(cells, text)
		}
	}
	return cells
}

// keepBundleCell filters extraction noise: empty runs, bare numbers, short
// fragments, and ALL_CAPS identifier tokens from the format's own markup.
func keepBundleCell(text string) bool {
	if len(text) < 3 {
		return false
	}
	if pureNumberPattern.MatchString(text) {
		return false
	}
	if identifierPattern.MatchString(text) {
		return false
	}
	return true
}

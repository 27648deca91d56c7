package decoder

import (
	"strings"
)

// decodeDelimited parses comma-delimited text into a grid.
//
// The dialect is deliberately simple: lines split on newlines, blank lines
// dropped, cells split on a single comma, one layer of enclosing double
// quotes stripped per cell. Escaped delimiters inside quoted cells are NOT
// handled - a cell like "a,b" splits in two. That limitation is documented
// here rather than silently corrupting data elsewhere: uploads needing full
// RFC 4180 quoting should arrive as workbook files instead.
func decodeDelimited(data []byte) (Grid, error) {
	content := string(data)
	lines := strings.Split(content, "\n")

	grid := make(Grid, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		raw := strings.Split(line, ",")
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = cleanCell(cell)
		}
		grid = append(grid, row)
	}

	return grid, nil
}

// cleanCell trims whitespace and strips one layer of enclosing double quotes.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

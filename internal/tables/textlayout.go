package tables

import (
	"regexp"
	"strings"
)

var reSpaceRun = regexp.MustCompile(`\s{2,}`)

// TextLayoutBackend recovers tables from whitespace-aligned columns. A line
// qualifies as a candidate row when it has at least two wide gaps, two tabs
// or two explicit separators; column boundaries come from the first
// qualifying line and are applied to the rest.
type TextLayoutBackend struct{}

func NewTextLayoutBackend() *TextLayoutBackend {
	return &TextLayoutBackend{}
}

func (b *TextLayoutBackend) Name() string { return "text_layout" }

func (b *TextLayoutBackend) Available() bool { return true }

func (b *TextLayoutBackend) ExtractFromText(pageNum int, text string) []Table {
	lines := nonEmptyLines(text)
	if len(lines) < 3 {
		return nil
	}

	var candidates []string
	for _, line := range lines {
		if isColumnCandidate(line) {
			candidates = append(candidates, line)
		}
	}
	if len(candidates) < 3 {
		return nil
	}

	rows := parseAlignedRows(candidates)
	if len(rows) < 2 {
		return nil
	}
	return []Table{newTable(pageNum, b.Name(), rows, 0)}
}

func isColumnCandidate(line string) bool {
	spaces := len(reSpaceRun.FindAllString(line, -1))
	tabs := strings.Count(line, "\t")
	return spaces >= 2 || tabs >= 2 || reSeparator.MatchString(line)
}

// parseAlignedRows derives split positions from the first row's gap
// boundaries and slices every row at those offsets.
func parseAlignedRows(rows []string) [][]string {
	first := rows[0]
	gaps := reSpaceRun.FindAllStringIndex(first, -1)
	if len(gaps) == 0 {
		if strings.Contains(first, "\t") {
			var out [][]string
			for _, row := range rows {
				out = append(out, strings.Split(row, "\t"))
			}
			return out
		}
		return nil
	}

	positions := []int{0}
	for _, gap := range gaps {
		positions = append(positions, gap[1])
	}
	positions = append(positions, len(first))

	var out [][]string
	for _, row := range rows {
		var cells []string
		blank := true
		for i := 0; i < len(positions)-1; i++ {
			start, end := positions[i], positions[i+1]
			if start > len(row) {
				start = len(row)
			}
			if i+1 == len(positions)-1 || end > len(row) {
				end = len(row)
			}
			cell := strings.TrimSpace(row[start:end])
			if cell != "" {
				blank = false
			}
			cells = append(cells, cell)
		}
		if !blank {
			out = append(out, cells)
		}
	}
	return out
}

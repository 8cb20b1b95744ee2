package tables

import (
	"regexp"
	"strings"
)

var (
	reNumToken  = regexp.MustCompile(`\d+[\.\s]*\d*`)
	reCellSplit = regexp.MustCompile(`\s{2,}`)
)

// ColumnRulingBackend is the opportunistic fallback for numeric tables that
// lack clear column alignment. A line qualifies with two numeric tokens or
// one explicit separator character.
type ColumnRulingBackend struct{}

func NewColumnRulingBackend() *ColumnRulingBackend {
	return &ColumnRulingBackend{}
}

func (b *ColumnRulingBackend) Name() string { return "column_ruling" }

func (b *ColumnRulingBackend) Available() bool { return true }

func (b *ColumnRulingBackend) ExtractFromText(pageNum int, text string) []Table {
	lines := nonEmptyLines(text)
	if len(lines) < 2 {
		return nil
	}

	var candidates []string
	for _, line := range lines {
		numbers := len(reNumToken.FindAllString(line, -1))
		separators := strings.Count(line, "|") + strings.Count(line, "[") + strings.Count(line, "]")
		if numbers >= 2 || separators >= 1 {
			candidates = append(candidates, line)
		}
	}
	if len(candidates) < 2 {
		return nil
	}

	var rows [][]string
	for _, line := range candidates {
		cells := splitNumericRow(line)
		if len(cells) >= 2 {
			rows = append(rows, cells)
		}
	}
	if len(rows) < 2 {
		return nil
	}
	return []Table{newTable(pageNum, b.Name(), rows, 0)}
}

func splitNumericRow(line string) []string {
	var cells []string
	switch {
	case strings.Contains(line, "|"):
		for _, cell := range strings.Split(line, "|") {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
	case strings.ContainsAny(line, "[]"):
		for _, cell := range reBrackets.Split(line, -1) {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
	default:
		for _, cell := range reCellSplit.Split(line, -1) {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
		// Numeric rows often use single spaces; fall back to word splits.
		if len(cells) < 2 {
			cells = strings.Fields(line)
		}
	}
	return cells
}

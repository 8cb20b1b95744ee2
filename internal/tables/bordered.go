package tables

import (
	"regexp"
	"strings"
)

var (
	reRuleLine  = regexp.MustCompile(`[-|]{3,}`)
	reSeparator = regexp.MustCompile(`[|\[\]]{2,}|[|\[\]]\s*[|\[\]]`)
	reBrackets  = regexp.MustCompile(`[\[\]]+`)
)

// BorderedBackend recovers tables whose rows sit between horizontal-rule
// lines (runs of dashes/pipes) and are delimited by pipe or bracket
// characters. These ruled blocks parse most reliably, so this backend also
// scores its output.
type BorderedBackend struct{}

func NewBorderedBackend() *BorderedBackend {
	return &BorderedBackend{}
}

func (b *BorderedBackend) Name() string { return "bordered" }

func (b *BorderedBackend) Available() bool { return true }

func (b *BorderedBackend) ExtractFromText(pageNum int, text string) []Table {
	lines := nonEmptyLines(text)
	if len(lines) < 3 {
		return nil
	}

	ruleCount := 0
	for _, line := range lines {
		if reRuleLine.MatchString(line) {
			ruleCount++
		}
	}
	if ruleCount < 2 {
		return nil
	}

	rows := parseRuledBlock(lines)
	if len(rows) < 2 {
		return nil
	}
	return []Table{newTable(pageNum, b.Name(), rows, scoreRows(rows))}
}

// parseRuledBlock collects delimited rows between the first rule line and
// the first undelimited line after the block starts.
func parseRuledBlock(lines []string) [][]string {
	var rows [][]string
	inTable := false

	for _, line := range lines {
		if reRuleLine.MatchString(line) {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if strings.ContainsAny(line, "|[]") {
			cells := splitDelimited(line)
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		} else if len(rows) > 0 {
			break
		}
	}
	return rows
}

func splitDelimited(line string) []string {
	var cells []string
	if strings.Contains(line, "|") {
		for _, cell := range strings.Split(line, "|") {
			cells = append(cells, strings.TrimSpace(cell))
		}
	} else {
		for _, cell := range reBrackets.Split(line, -1) {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
	}
	// Delimiters at the line edges produce empty edge cells.
	for len(cells) > 0 && cells[0] == "" {
		cells = cells[1:]
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

// scoreRows grades a parsed table by cell fill and column-count agreement.
func scoreRows(rows [][]string) float64 {
	if len(rows) == 0 {
		return 0
	}
	var cells, filled int
	widths := map[int]int{}
	for _, row := range rows {
		widths[len(row)]++
		for _, cell := range row {
			cells++
			if strings.TrimSpace(cell) != "" {
				filled++
			}
		}
	}
	if cells == 0 {
		return 0
	}
	mode := 0
	for _, count := range widths {
		if count > mode {
			mode = count
		}
	}
	fill := float64(filled) / float64(cells)
	consistency := float64(mode) / float64(len(rows))
	return (fill + consistency) / 2
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

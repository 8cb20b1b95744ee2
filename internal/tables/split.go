package tables

import (
	"regexp"
	"strconv"
	"strings"
)

// PageMarker formats the boundary line inserted between recognized pages.
const PageMarker = "--- Page %d ---"

var rePageMarker = regexp.MustCompile(`---\s*Page\s+(\d+)\s*---`)

// PageText is one page's worth of recognized text.
type PageText struct {
	Number int
	Text   string
}

// SplitPages locates page-boundary markers in recognized text and returns
// per-page chunks. Text without markers is treated as a single page with
// the given default number.
func SplitPages(text string, defaultPage int) []PageText {
	matches := rePageMarker.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []PageText{{Number: defaultPage, Text: text}}
	}

	var out []PageText
	for i, m := range matches {
		num, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}
		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		chunk := strings.TrimSpace(text[start:end])
		if chunk != "" {
			out = append(out, PageText{Number: num, Text: chunk})
		}
	}
	return out
}

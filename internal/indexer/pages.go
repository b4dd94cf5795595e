package indexer

import (
	"regexp"
	"sort"
	"unicode/utf8"
)

// pageMarker matches the "\n--- Page N ---" separator written by the upstream
// extractor. A header at the very start of the text opens page 1 and is not a
// break, so the newline is required.
var pageMarker = regexp.MustCompile(`\n--- Page \d+ ---`)

// PageBreaks holds the sorted rune offsets of page-break markers in a text.
type PageBreaks []int

// FindPageBreaks scans text once for form feeds and "\n--- Page N ---"
// markers and returns their rune offsets in ascending order. A marker's offset
// is that of its leading newline.
func FindPageBreaks(text string) PageBreaks {
	var byteOffsets []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\f' {
			byteOffsets = append(byteOffsets, i)
		}
	}
	for _, loc := range pageMarker.FindAllStringIndex(text, -1) {
		byteOffsets = append(byteOffsets, loc[0])
	}
	if len(byteOffsets) == 0 {
		return nil
	}
	sort.Ints(byteOffsets)

	breaks := make(PageBreaks, len(byteOffsets))
	prevByte, prevRune := 0, 0
	for i, b := range byteOffsets {
		prevRune += utf8.RuneCountInString(text[prevByte:b])
		prevByte = b
		breaks[i] = prevRune
	}
	return breaks
}

// PageAt returns the 1-based page containing the rune offset, or nil when the
// text has no page markers at all.
func (p PageBreaks) PageAt(offset int) *int {
	if len(p) == 0 {
		return nil
	}
	page := 1 + sort.SearchInts(p, offset)
	return &page
}

// Package citation turns retrieval results into numbered citations and
// resolves [n] markers in model output back to them.
package citation

import (
	"regexp"
	"strconv"

	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/pkg/utils"
)

// UnknownDocumentName labels citations whose chunk carried no document name.
const UnknownDocumentName = "Unknown"

// PreviewLength is the number of runes shown in a citation preview.
const PreviewLength = 200

var markerPattern = regexp.MustCompile(`\[(\d+)\]`)

// MapToCitations numbers results 1..n in the order given.
func MapToCitations(results []*models.SearchResult) []models.Citation {
	citations := make([]models.Citation, 0, len(results))
	for i, r := range results {
		name := r.DocumentName
		if name == "" {
			name = UnknownDocumentName
		}
		citations = append(citations, models.Citation{
			ID:           i + 1,
			DocumentID:   r.DocumentID,
			DocumentName: name,
			Content:      r.Content,
			StartChar:    r.StartChar,
			EndChar:      r.EndChar,
			PageNumber:   r.PageNumber,
			Score:        r.Score,
		})
	}
	return citations
}

// Lookup returns the citation numbered n.
func Lookup(citations []models.Citation, n int) (*models.Citation, bool) {
	for i := range citations {
		if citations[i].ID == n {
			return &citations[i], true
		}
	}
	return nil, false
}

// Segment is a run of model output. Plain text has Marker 0; a [n] marker has
// Marker n and the resolved Citation, or a nil Citation when n does not exist.
type Segment struct {
	Text     string           `json:"text"`
	Marker   int              `json:"marker,omitempty"`
	Citation *models.Citation `json:"citation,omitempty"`
}

// IsMarker reports whether the segment is a [n] marker.
func (s Segment) IsMarker() bool {
	return s.Marker > 0
}

// Segments splits text on [n] markers. Concatenating the Text of every segment
// reproduces the input.
func Segments(text string, citations []models.Citation) []Segment {
	var segments []Segment
	last := 0
	for _, m := range markerPattern.FindAllStringSubmatchIndex(text, -1) {
		n, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil || n <= 0 {
			// Out of range for int or [0]; leave it as text.
			continue
		}
		if m[0] > last {
			segments = append(segments, Segment{Text: text[last:m[0]]})
		}
		seg := Segment{Text: text[m[0]:m[1]], Marker: n}
		if c, ok := Lookup(citations, n); ok {
			seg.Citation = c
		}
		segments = append(segments, seg)
		last = m[1]
	}
	if last < len(text) {
		segments = append(segments, Segment{Text: text[last:]})
	}
	return segments
}

// Markers returns the distinct marker numbers in text in order of first appearance.
func Markers(text string) []int {
	seen := make(map[int]bool)
	var out []int
	for _, m := range markerPattern.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// Preview returns the chunk content shortened for a tooltip.
func Preview(content string) string {
	return utils.Truncate(content, PreviewLength)
}

// Highlighted splits a document around a cited span.
type Highlighted struct {
	Before    string `json:"before"`
	Highlight string `json:"highlight"`
	After     string `json:"after"`
}

// Highlight locates the citation's rune span in documentText. Offsets outside
// the text are clamped, so a stale citation still renders.
func Highlight(documentText string, c models.Citation) Highlighted {
	runes := []rune(documentText)
	n := len(runes)
	start := clamp(c.StartChar, 0, n)
	end := clamp(c.EndChar, start, n)
	return Highlighted{
		Before:    string(runes[:start]),
		Highlight: string(runes[start:end]),
		After:     string(runes[end:]),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package citation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/docsy/internal/models"
)

func intPtr(v int) *int { return &v }

func TestMapToCitations(t *testing.T) {
	results := []*models.SearchResult{
		{ID: "c1", DocumentID: "A", DocumentName: "Alpha", Content: "first", Score: 0.91, StartChar: 0, EndChar: 5, PageNumber: intPtr(2)},
		{ID: "c2", DocumentID: "B", Content: "second", Score: 0.83, StartChar: 10, EndChar: 16},
		{ID: "c3", DocumentID: "A", DocumentName: "Alpha", Content: "third", Score: 0.7},
	}

	citations := MapToCitations(results)
	require.Len(t, citations, 3)
	for i, c := range citations {
		assert.Equal(t, i+1, c.ID)
		assert.Equal(t, results[i].DocumentID, c.DocumentID)
		assert.Equal(t, results[i].Score, c.Score)
	}
	assert.Equal(t, "Alpha", citations[0].DocumentName)
	assert.Equal(t, UnknownDocumentName, citations[1].DocumentName)
	require.NotNil(t, citations[0].PageNumber)
	assert.Equal(t, 2, *citations[0].PageNumber)
	assert.Nil(t, citations[1].PageNumber)
	assert.Equal(t, 10, citations[1].StartChar)
	assert.Equal(t, 16, citations[1].EndChar)
}

func TestMapToCitations_Empty(t *testing.T) {
	assert.Empty(t, MapToCitations(nil))
}

func TestSegments(t *testing.T) {
	citations := MapToCitations([]*models.SearchResult{
		{DocumentID: "A", DocumentName: "Alpha"},
		{DocumentID: "B", DocumentName: "Beta"},
	})
	text := "Cats purr [1]. Dogs bark [2][7], see [x] and [0]."

	segments := Segments(text, citations)

	var rebuilt strings.Builder
	var markers []int
	for _, s := range segments {
		rebuilt.WriteString(s.Text)
		if s.IsMarker() {
			markers = append(markers, s.Marker)
		}
	}
	assert.Equal(t, text, rebuilt.String())
	assert.Equal(t, []int{1, 2, 7}, markers)

	for _, s := range segments {
		switch s.Marker {
		case 1:
			require.NotNil(t, s.Citation)
			assert.Equal(t, "Alpha", s.Citation.DocumentName)
		case 2:
			require.NotNil(t, s.Citation)
			assert.Equal(t, "B", s.Citation.DocumentID)
		case 7:
			assert.Nil(t, s.Citation, "unknown marker renders as a plain badge")
		}
	}
}

func TestSegments_NoMarkers(t *testing.T) {
	segments := Segments("plain answer", nil)
	require.Len(t, segments, 1)
	assert.False(t, segments[0].IsMarker())
	assert.Empty(t, Segments("", nil))
}

func TestMarkers(t *testing.T) {
	assert.Equal(t, []int{3, 1}, Markers("a [3] b [1] c [3] [0]"))
	assert.Nil(t, Markers("none"))
}

func TestLookup(t *testing.T) {
	citations := MapToCitations([]*models.SearchResult{{DocumentID: "A"}})
	c, ok := Lookup(citations, 1)
	require.True(t, ok)
	assert.Equal(t, "A", c.DocumentID)
	_, ok = Lookup(citations, 2)
	assert.False(t, ok)
}

func TestPreview(t *testing.T) {
	short := strings.Repeat("a", PreviewLength)
	assert.Equal(t, short, Preview(short))

	long := strings.Repeat("b", 199) + " " + strings.Repeat("c", 50)
	got := Preview(long)
	assert.Equal(t, strings.Repeat("b", 199)+"...", got)

	runes := strings.Repeat("é", 250)
	assert.Equal(t, PreviewLength+3, len([]rune(Preview(runes))))
}

func TestHighlight(t *testing.T) {
	doc := "héllo brave new world"
	h := Highlight(doc, models.Citation{StartChar: 6, EndChar: 11})
	assert.Equal(t, "héllo ", h.Before)
	assert.Equal(t, "brave", h.Highlight)
	assert.Equal(t, " new world", h.After)

	h = Highlight(doc, models.Citation{StartChar: 16, EndChar: 500})
	assert.Equal(t, "world", h.Highlight)
	assert.Equal(t, "", h.After)

	h = Highlight(doc, models.Citation{StartChar: -3, EndChar: -1})
	assert.Equal(t, "", h.Highlight)
	assert.Equal(t, doc, h.After)

	h = Highlight("", models.Citation{StartChar: 1, EndChar: 2})
	assert.Equal(t, Highlighted{}, h)
}

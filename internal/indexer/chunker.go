// Package indexer provides document chunking and the indexing pipeline that
// writes chunk embeddings into the vector index.
package indexer

import (
	"fmt"
	"unicode"

	"github.com/hyperjump/docsy/internal/models"
)

// Default chunking parameters, in characters.
const (
	DefaultChunkSize     = 1000
	DefaultChunkOverlap  = 200
	DefaultMinChunkChars = 50
)

// Chunker splits text into overlapping, position-tagged chunks. Sizes are
// counted in runes. A Chunker is immutable and safe for concurrent use.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	minChars     int
}

// NewChunker creates a chunker with the given size, overlap and minimum
// trimmed chunk length. It returns models.ErrInvalidInput unless
// 0 < overlap < size.
func NewChunker(chunkSize, chunkOverlap, minChars int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", models.ErrInvalidInput, chunkSize)
	}
	if chunkOverlap <= 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap must be in (0, %d), got %d",
			models.ErrInvalidInput, chunkSize, chunkOverlap)
	}
	if minChars < 0 {
		minChars = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		minChars:     minChars,
	}, nil
}

// ChunkText splits text with the default minimum chunk length.
func ChunkText(text string, chunkSize, chunkOverlap int) ([]models.Chunk, error) {
	c, err := NewChunker(chunkSize, chunkOverlap, DefaultMinChunkChars)
	if err != nil {
		return nil, err
	}
	return c.Chunk(text), nil
}

// Chunk splits text into chunks. Each window ends at the last '.' or '\n'
// past its midpoint when one exists, and the next window starts overlap runes
// before the previous (unclamped) end, until the start passes the end of the
// text. Chunks whose trimmed length is not greater than the minimum are
// dropped. Offsets bound the trimmed text exactly.
func (c *Chunker) Chunk(text string) []models.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	pages := FindPageBreaks(text)

	var chunks []models.Chunk
	start := 0
	for start < n {
		end := start + c.chunkSize
		if end < n {
			if bp := lastBreak(runes, start, end, start+c.chunkSize/2); bp >= 0 {
				end = bp + 1
			}
		}

		s, e := trimSpan(runes, start, min(end, n))
		if e-s > c.minChars {
			chunks = append(chunks, models.Chunk{
				Text:       string(runes[s:e]),
				StartChar:  s,
				EndChar:    e,
				PageNumber: pages.PageAt(s),
			})
		}

		next := end - c.chunkOverlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// lastBreak returns the index of the last '.' or '\n' in runes[start:end]
// inclusive of end, provided it lies beyond mid. It returns -1 otherwise.
func lastBreak(runes []rune, start, end, mid int) int {
	if end >= len(runes) {
		end = len(runes) - 1
	}
	for i := end; i > mid && i >= start; i-- {
		if runes[i] == '.' || runes[i] == '\n' {
			return i
		}
	}
	return -1
}

func trimSpan(runes []rune, start, end int) (int, int) {
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return start, end
}

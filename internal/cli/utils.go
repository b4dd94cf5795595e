// Package cli formats docsy command output.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/hyperjump/docsy/internal/citation"
	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" or "json" (case-insensitive).
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q (use text or json)", models.ErrInvalidInput, s)
	}
}

// WriteSearchResults writes search results to w in the given format. Text
// output numbers results the way citations are numbered in a chat turn.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d results for %q in %dms\n\n", len(response.Results), response.Query, response.QueryTime)
	for _, c := range citation.MapToCitations(response.Results) {
		writeCitation(w, c)
	}
	return nil
}

func writeCitation(w io.Writer, c models.Citation) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "[%d] %s", c.ID, c.DocumentName)
	if c.PageNumber != nil {
		fmt.Fprintf(w, " (Page %d)", *c.PageNumber)
	}
	fmt.Fprintf(w, " | Score: %.4f\n", c.Score)
	fmt.Fprintf(w, "Document: %s | Chars %d-%d\n", c.DocumentID, c.StartChar, c.EndChar)
	fmt.Fprintf(w, "\n%s\n\n", citation.Preview(c.Content))
}

// WriteStatuses writes document index statuses to w.
func WriteStatuses(w io.Writer, statuses []*models.IndexStatus, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, statuses)
	}
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No documents recorded.")
		return nil
	}
	for _, st := range statuses {
		fmt.Fprintf(w, "%-9s %4d chunks  %s  %s\n", st.State, st.Chunks, st.DocumentID, Truncate(st.DocumentName, 40))
		if st.Error != "" {
			fmt.Fprintf(w, "          error: %s\n", TruncateWords(st.Error, 20))
		}
	}
	return nil
}

// WriteSummary writes the counts reported by `docsy status`.
func WriteSummary(w io.Writer, summary map[string]any, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, summary)
	}
	writeSummaryText(w, summary, "")
	return nil
}

func writeSummaryText(w io.Writer, m map[string]any, indent string) {
	for _, k := range slices.Sorted(maps.Keys(m)) {
		switch v := m[k].(type) {
		case map[string]any:
			fmt.Fprintf(w, "%s%s:\n", indent, k)
			writeSummaryText(w, v, indent+"  ")
		default:
			fmt.Fprintf(w, "%s%-22s %v\n", indent, k+":", v)
		}
	}
}

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintSearchResults prints search results to stdout in text format.
func PrintSearchResults(response *models.SearchResponse) {
	_ = WriteSearchResults(os.Stdout, response, OutputText)
}

// Truncate shortens s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	return utils.Truncate(s, maxLen)
}

// TruncateWords returns up to maxWords from the space-separated string.
func TruncateWords(s string, maxWords int) string {
	words := strings.Fields(s)
	if len(words) <= maxWords {
		return s
	}
	return strings.Join(words[:maxWords], " ") + "..."
}

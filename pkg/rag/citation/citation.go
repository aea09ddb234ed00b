// Package citation extracts inline document references from generated text.
// A marker looks like "[Doc ID: doc123]" and may appear anywhere in the
// analysis draft or the final answer.
package citation

import (
	"regexp"
	"strings"

	"multilingual-rag-be/pkg/rag/schema"
)

// markerPattern matches "[Doc ID: <token>]" where token is any run of
// non-']' characters. The id group is trimmed after matching.
var markerPattern = regexp.MustCompile(`\[Doc ID:\s*([^\]]+)\]`)

// Extract finds every citation marker in text, preserving the byte offset
// of each match and the literal marker text.
func Extract(text string) []schema.Citation {
	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	citations := make([]schema.Citation, 0, len(matches))
	for _, m := range matches {
		// m[0]:m[1] is the whole marker, m[2]:m[3] the id group
		citations = append(citations, schema.Citation{
			DocID:    strings.TrimSpace(text[m[2]:m[3]]),
			Position: m[0],
			Text:     text[m[0]:m[1]],
		})
	}
	return citations
}

// DistinctIDs returns the deduplicated doc ids cited in text, in first-seen
// order.
func DistinctIDs(text string) []string {
	var ids []string
	seen := make(map[string]bool)
	for _, c := range Extract(text) {
		if !seen[c.DocID] {
			seen[c.DocID] = true
			ids = append(ids, c.DocID)
		}
	}
	return ids
}

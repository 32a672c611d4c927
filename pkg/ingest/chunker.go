// Package ingest turns a markdown resume into embedded chunks in the vector
// store. It runs once per resume revision, outside the query path.
package ingest

import (
	"regexp"
	"strings"
)

// minChunkLen rejects fragments too short to carry meaning.
const minChunkLen = 20

// headerSplit splits before every markdown heading so each section and
// sub-section becomes its own chunk.
var headerSplit = regexp.MustCompile(`\n(#+ )`)

var hasContent = regexp.MustCompile(`[a-zA-Z0-9]`)

// ChunkMarkdown splits resume markdown on headings of any level and drops
// trivial fragments. Chunks keep their heading line.
func ChunkMarkdown(text string) []string {
	indices := headerSplit.FindAllStringSubmatchIndex(text, -1)

	var raw []string
	start := 0
	for _, idx := range indices {
		raw = append(raw, text[start:idx[0]])
		// idx[2] is where the heading marker itself begins.
		start = idx[2]
	}
	raw = append(raw, text[start:])

	chunks := make([]string, 0, len(raw))
	for _, c := range raw {
		trimmed := strings.TrimSpace(c)
		if len(trimmed) > 5 {
			chunks = append(chunks, trimmed)
		}
	}
	return chunks
}

// ValidateChunk reports whether a chunk carries enough information to be
// worth embedding, with a human-readable reason when it does not.
func ValidateChunk(chunk string) (bool, string) {
	trimmed := strings.TrimSpace(chunk)

	if len(trimmed) < minChunkLen {
		return false, "chunk too short"
	}
	if !hasContent.MatchString(trimmed) {
		return false, "no meaningful content"
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) == 1 && strings.HasPrefix(lines[0], "#") {
		return false, "header only"
	}

	return true, ""
}

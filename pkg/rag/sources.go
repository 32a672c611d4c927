package rag

import (
	"fmt"
	"strings"
)

const (
	// genericSection is used when no short heading prefix can be derived.
	genericSection = "Resume Section"

	// sectionLabelBound caps how long a pre-colon prefix may be to count as
	// a heading.
	sectionLabelBound = 50

	// previewLen is the character budget for a source's content preview.
	previewLen = 120
)

// buildSources derives the display metadata for the context window, in
// context order.
func buildSources(contextCandidates []Candidate) []Source {
	sources := make([]Source, 0, len(contextCandidates))
	for _, c := range contextCandidates {
		sources = append(sources, Source{
			Section:   sectionLabel(c.Content),
			Relevance: relevanceLabel(c),
			Preview:   preview(c.Content),
		})
	}
	return sources
}

// sectionLabel takes the text before the first colon as the section heading
// when that prefix is short enough; otherwise a generic label.
func sectionLabel(content string) string {
	prefix, _, found := strings.Cut(content, ":")
	if found && len(prefix) < sectionLabelBound {
		return prefix
	}
	return genericSection
}

func relevanceLabel(c Candidate) string {
	if c.Origin == OriginKeyword {
		return "100%"
	}
	return fmt.Sprintf("%d%%", int(c.Score*100))
}

// preview truncates by rune so multibyte characters on the boundary stay
// intact and the JSON encoding never carries replacement characters.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) > previewLen {
		runes = runes[:previewLen]
	}
	return strings.TrimSpace(string(runes)) + "..."
}

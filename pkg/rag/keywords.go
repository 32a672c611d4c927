package rag

import (
	"regexp"
	"strings"
)

// stopwords are filler words removed during keyword extraction.
var stopwords = map[string]struct{}{
	"what": {}, "is": {}, "the": {}, "tell": {}, "me": {}, "about": {},
	"your": {}, "my": {}, "a": {}, "an": {}, "are": {}, "how": {},
	"which": {}, "where": {}, "when": {}, "can": {}, "you": {},
	"of": {}, "for": {}, "with": {}, "and": {}, "was": {}, "were": {},
	"had": {}, "has": {}, "have": {},
}

// wordPattern tokenizes on word boundaries, keeping dots so terms like
// version numbers and "node.js" survive intact.
var wordPattern = regexp.MustCompile(`[\w.]+`)

// ExtractKeywords lower-cases the question, tokenizes it and drops stopwords
// and short tokens. Exact technical terms, grades and proper nouns are often
// down-weighted by embedding similarity; these keywords feed the substring
// search path that guarantees recall for them. Order follows first
// appearance in the question; duplicates are removed.
func ExtractKeywords(question string) []string {
	words := wordPattern.FindAllString(strings.ToLower(question), -1)

	seen := make(map[string]struct{}, len(words))
	keywords := make([]string, 0, len(words))
	for _, word := range words {
		// Sentence punctuation like "the..." sticks to the token; trailing
		// dots are trimmed so stopword and length checks see the bare word,
		// while interior dots ("node.js", "3.11") survive.
		word = strings.TrimRight(word, ".")
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopwords[word]; stop {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}

	return keywords
}

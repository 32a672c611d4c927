// Package rag implements the question-answering pipeline over the resume
// corpus: hybrid retrieval, relevance filtering, confidence estimation,
// prompt construction and streaming answer assembly.
package rag

// Origin tags which search path produced a retrieval candidate.
type Origin string

const (
	// OriginVector marks candidates from embedding similarity search.
	OriginVector Origin = "vector"

	// OriginKeyword marks candidates from exact substring search.
	OriginKeyword Origin = "keyword"
)

// Candidate is a passage proposed by retrieval for one question. It lives
// only for the duration of the request. For vector origin, Score is cosine
// similarity; for keyword origin it is a fixed 1.0 marking exact-term
// authority rather than a comparable quality score.
type Candidate struct {
	Content string
	Score   float64
	Origin  Origin
}

// Confidence is a coarse label describing how well-grounded an answer is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Source is the display metadata for one context passage.
type Source struct {
	Section   string `json:"section"`
	Relevance string `json:"relevance"`
	Preview   string `json:"preview"`
}

// Metadata is the terminal record emitted once per answered question.
type Metadata struct {
	Sources     []Source   `json:"sources"`
	Confidence  Confidence `json:"confidence"`
	Mode        Tone       `json:"mode"`
	TotalChunks int        `json:"total_chunks"`
}

// Event is one element of the answer sequence: a text fragment, or the
// single terminal metadata record.
type Event struct {
	AnswerChunk string    `json:"answer_chunk"`
	Metadata    *Metadata `json:"metadata"`
}

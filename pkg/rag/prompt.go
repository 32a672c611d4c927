package rag

import (
	"fmt"
	"strings"
)

// Tone selects the answer's register.
type Tone string

const (
	// ToneAuto asks the pipeline to detect the tone from the question.
	ToneAuto Tone = "auto"

	// ToneRecruiter produces dense, scannable answers for hiring screens.
	ToneRecruiter Tone = "recruiter"

	// ToneCasual produces conversational answers.
	ToneCasual Tone = "casual"
)

// contextSeparator joins context passages inside the prompt.
const contextSeparator = "\n---\n"

// greetings are questions treated as pure conversation openers.
var greetings = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "hiya": {},
	"hi there": {}, "hello there": {}, "hey there": {},
	"good morning": {}, "good afternoon": {}, "good evening": {},
	"how are you": {}, "whats up": {}, "what's up": {}, "sup": {},
}

// domainKeywords force a question out of the casual-greeting class even when
// it opens like one ("hi, tell me about his projects").
var domainKeywords = []string{
	"resume", "project", "projects", "skill", "skills", "experience",
	"education", "work", "job", "cgpa", "grade", "degree", "certification",
	"internship", "achievement", "technology", "technologies",
}

// recruiterKeywords signal hiring intent when the caller leaves the tone on
// auto.
var recruiterKeywords = []string{
	"candidate", "hire", "hiring", "role", "position", "fit",
	"qualification", "qualifications", "experience", "strengths",
	"weaknesses", "salary", "notice period", "relocate", "interview",
}

// IsCasualGreeting reports whether the question is purely conversational and
// should bypass retrieval and generation entirely. Any substantive domain
// keyword overrides the greeting match.
func IsCasualGreeting(question string) bool {
	normalized := strings.ToLower(strings.TrimSpace(question))
	normalized = strings.Trim(normalized, "!.?, ")

	for _, kw := range domainKeywords {
		if strings.Contains(normalized, kw) {
			return false
		}
	}

	_, ok := greetings[normalized]
	return ok
}

// CasualGreetingResponse is the canned reply for greeting-only questions.
func CasualGreetingResponse(owner string) string {
	return fmt.Sprintf(
		"Hi! I'm %s's assistant. Ask me anything about %s's projects, skills, education or experience.",
		owner, owner,
	)
}

// ResolveTone maps the caller-supplied mode to a concrete tone. An explicit
// mode wins; auto classifies from recruiter-intent keywords.
func ResolveTone(question string, mode Tone) Tone {
	switch mode {
	case ToneRecruiter, ToneCasual:
		return mode
	}

	lowered := strings.ToLower(question)
	for _, kw := range recruiterKeywords {
		if strings.Contains(lowered, kw) {
			return ToneRecruiter
		}
	}
	return ToneCasual
}

// BuildPrompt assembles the grounded prompt: hard rules, concatenated
// context passages, the question and a tone directive.
func BuildPrompt(owner, question string, contextCandidates []Candidate, tone Tone) string {
	passages := make([]string, 0, len(contextCandidates))
	for _, c := range contextCandidates {
		passages = append(passages, c.Content)
	}
	contextText := strings.Join(passages, contextSeparator)

	var style string
	switch tone {
	case ToneRecruiter:
		style = "Answer in a dense, scannable style: short bullet points, **bold** key terms, concrete numbers first."
	default:
		style = "Answer conversationally, use **bold** for key terms, keep it under 150 words."
	}

	return fmt.Sprintf(`You are %[1]s's professional assistant. Answer using only the resume context below.

Rules:
- Use only facts from the context. Never invent details.
- Never tell the user to read the resume themselves.
- If a detail is absent, say so explicitly and pivot to related facts you do have.
- %[2]s

Resume Context:
%[3]s

Question: %[4]s

Answer:`, owner, style, contextText, question)
}

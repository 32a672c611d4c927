package ingest

import (
	"fmt"
	"strings"
)

// Section classifies a chunk by resume section, improving recall for
// section-specific questions.
type Section string

const (
	SectionEducation      Section = "Education"
	SectionProjects       Section = "Projects"
	SectionSkills         Section = "Technical Skills"
	SectionCertifications Section = "Certifications"
	SectionAchievements   Section = "Achievements"
	SectionGeneral        Section = "General"
)

// sectionMarkers are checked in order; the first section with a matching
// marker wins.
var sectionMarkers = []struct {
	section Section
	terms   []string
}{
	{SectionEducation, []string{"education", "academic", "cgpa", "percentage", "10th", "12th"}},
	{SectionProjects, []string{"project", "developed", "implemented", "built"}},
	{SectionSkills, []string{"skill", "language", "framework", "tool", "python", "tensorflow"}},
	{SectionCertifications, []string{"certification", "nptel", "course", "certificate"}},
	{SectionAchievements, []string{"achievement", "award", "hackathon", "competition"}},
}

// DetectSection classifies a chunk by marker terms in its text.
func DetectSection(chunk string) Section {
	lowered := strings.ToLower(chunk)
	for _, marker := range sectionMarkers {
		for _, term := range marker.terms {
			if strings.Contains(lowered, term) {
				return marker.section
			}
		}
	}
	return SectionGeneral
}

// ContextualChunk prefixes a chunk with the owner's name and section so it
// is never orphaned from its subject when retrieved alone.
func ContextualChunk(owner, chunk string, section Section) string {
	var prefix string
	switch section {
	case SectionEducation:
		prefix = fmt.Sprintf("%s's Educational Background", owner)
	case SectionProjects:
		prefix = fmt.Sprintf("%s's Project Experience", owner)
	case SectionSkills:
		prefix = fmt.Sprintf("%s's Technical Skills", owner)
	case SectionCertifications:
		prefix = fmt.Sprintf("%s's Certifications", owner)
	case SectionAchievements:
		prefix = fmt.Sprintf("%s's Achievements", owner)
	default:
		prefix = fmt.Sprintf("%s's Resume", owner)
	}

	return prefix + ":\n" + chunk
}

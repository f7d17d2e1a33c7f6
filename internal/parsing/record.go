// Package parsing turns decoded resume text into a structured ResumeRecord using
// deterministic heuristics: section headings, contact patterns and date ranges.
package parsing

import (
	"strings"

	"github.com/jonathan/resume-importer/internal/types"
)

// Parse builds a ResumeRecord from raw document text. Fields that cannot be
// identified are left empty; sparse or empty text yields a sparse record, never
// an error. The same text always yields the same record.
func Parse(text string) *types.ResumeRecord {
	record := types.NewResumeRecord()

	clean := CleanText(text)
	if clean == "" {
		return record
	}

	segments := Segment(clean)

	record.Personal = parseContact(segments[SectionHeader], clean)
	if summary := segments[SectionSummary]; len(summary) > 0 {
		parts := make([]string, 0, len(summary))
		for _, line := range summary {
			parts = append(parts, stripBullet(line))
		}
		record.Personal.Summary = strings.Join(parts, " ")
	}

	record.Skills = parseSkills(segments[SectionSkills])
	record.WorkExperience = parseExperience(segments[SectionExperience])
	record.Education = parseEducation(segments[SectionEducation])

	if projects := parseProjects(segments[SectionProjects]); len(projects) > 0 {
		record.Projects = projects
	}
	if certs := parseCertifications(segments[SectionCertifications]); len(certs) > 0 {
		record.Certifications = certs
	}
	if langs := parseLanguages(segments[SectionLanguages]); len(langs) > 0 {
		record.Languages = langs
	}

	return record.Normalize()
}

package parsing

import (
	"regexp"
	"strings"
)

// Section identifies a block of a resume
type Section string

const (
	SectionHeader         Section = "header"
	SectionSummary        Section = "summary"
	SectionExperience     Section = "experience"
	SectionEducation      Section = "education"
	SectionSkills         Section = "skills"
	SectionProjects       Section = "projects"
	SectionCertifications Section = "certifications"
	SectionLanguages      Section = "languages"
	SectionOther          Section = "other"
)

// sectionHeadings maps normalized heading text to the section it opens
var sectionHeadings = map[string]Section{
	"summary":                     SectionSummary,
	"professional summary":        SectionSummary,
	"career summary":              SectionSummary,
	"profile":                     SectionSummary,
	"professional profile":        SectionSummary,
	"about":                       SectionSummary,
	"about me":                    SectionSummary,
	"objective":                   SectionSummary,
	"career objective":            SectionSummary,
	"experience":                  SectionExperience,
	"work experience":             SectionExperience,
	"professional experience":     SectionExperience,
	"relevant experience":         SectionExperience,
	"employment":                  SectionExperience,
	"employment history":          SectionExperience,
	"work history":                SectionExperience,
	"career history":              SectionExperience,
	"education":                   SectionEducation,
	"academic background":         SectionEducation,
	"education and training":      SectionEducation,
	"skills":                      SectionSkills,
	"technical skills":            SectionSkills,
	"key skills":                  SectionSkills,
	"core skills":                 SectionSkills,
	"core competencies":           SectionSkills,
	"competencies":                SectionSkills,
	"technologies":                SectionSkills,
	"tech stack":                  SectionSkills,
	"skills and tools":            SectionSkills,
	"tools and technologies":      SectionSkills,
	"programming languages":       SectionSkills,
	"projects":                    SectionProjects,
	"personal projects":           SectionProjects,
	"selected projects":           SectionProjects,
	"key projects":                SectionProjects,
	"side projects":               SectionProjects,
	"certifications":              SectionCertifications,
	"certificates":                SectionCertifications,
	"licenses and certifications": SectionCertifications,
	"certifications and licenses": SectionCertifications,
	"languages":                   SectionLanguages,
	"spoken languages":            SectionLanguages,
	"interests":                   SectionOther,
	"hobbies":                     SectionOther,
	"references":                  SectionOther,
	"awards":                      SectionOther,
	"honors and awards":           SectionOther,
	"publications":                SectionOther,
	"volunteer experience":        SectionOther,
	"volunteering":                SectionOther,
	"additional information":      SectionOther,
}

var headingCleanRe = regexp.MustCompile(`[^a-z ]+`)

// detectHeading reports the section a line opens, if it is a heading
func detectHeading(line string) (Section, bool) {
	if len(line) > 40 {
		return "", false
	}
	key := strings.ToLower(line)
	key = strings.ReplaceAll(key, "&", " and ")
	key = headingCleanRe.ReplaceAllString(key, " ")
	key = strings.Join(strings.Fields(key), " ")
	if key == "" {
		return "", false
	}
	s, ok := sectionHeadings[key]
	return s, ok
}

// Segments holds the lines of each section in document order
type Segments map[Section][]string

// Segment partitions cleaned text into sections. Lines before the first heading
// belong to the header block. Repeated headings append to the same section.
func Segment(text string) Segments {
	segments := make(Segments)
	current := SectionHeader
	for _, line := range splitLines(text) {
		if s, ok := detectHeading(line); ok {
			current = s
			continue
		}
		segments[current] = append(segments[current], line)
	}
	return segments
}

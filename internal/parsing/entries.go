package parsing

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-importer/internal/types"
)

var titleKeywords = map[string]bool{
	"engineer": true, "developer": true, "programmer": true, "manager": true,
	"director": true, "lead": true, "analyst": true, "designer": true,
	"consultant": true, "intern": true, "architect": true, "scientist": true,
	"specialist": true, "administrator": true, "coordinator": true, "officer": true,
	"head": true, "vp": true, "president": true, "founder": true, "co-founder": true,
	"cto": true, "ceo": true, "cfo": true, "coo": true, "researcher": true,
	"associate": true, "assistant": true, "technician": true, "principal": true,
	"staff": true, "senior": true, "junior": true, "sre": true, "accountant": true,
	"teacher": true, "professor": true, "representative": true, "executive": true,
	"advisor": true, "strategist": true, "owner": true, "contractor": true,
	"freelancer": true, "instructor": true, "editor": true, "writer": true,
}

var institutionKeywords = []string{
	"university", "college", "institute", "school", "academy", "polytechnic",
	"universidad", "université", "universität", "bootcamp",
}

var (
	headerSepRe    = regexp.MustCompile(`\s+(?:at|@)\s+|\s*\|\s*|\s+[-–—]\s+`)
	commaSepRe     = regexp.MustCompile(`\s*,\s*`)
	gpaRe          = regexp.MustCompile(`(?i)\bgpa\b[:\s]*([0-4](?:\.\d{1,2})?)(?:\s*/\s*\d(?:\.\d{1,2})?)?`)
	eduPartSepRe   = regexp.MustCompile(`\s*[,|]\s*|\s+[-–—]\s+`)
	degreeRe       = regexp.MustCompile(`(?i)^(ph\.?\s?d\.?|mba|m\.?b\.?a\.?|doctor(?:ate)? of [a-z]+|master(?:'s)?(?: of [a-z]+)?|bachelor(?:'s)?(?: of [a-z]+)?|associate(?:'s)? of [a-z]+|b\.?\s?sc?\.?|m\.?\s?sc?\.?|b\.?a\.?|m\.?a\.?|b\.?\s?eng\.?|m\.?\s?eng\.?|b\.?\s?tech\.?|m\.?\s?tech\.?|diploma|high school diploma)(?:\s+(?:in|of)\s+(.+))?$`)
	titleWordSepRe = regexp.MustCompile(`[^\p{L}\-]+`)
)

// hasTitleKeyword reports whether text contains a job-title word
func hasTitleKeyword(text string) bool {
	for _, w := range titleWordSepRe.Split(strings.ToLower(text), -1) {
		if titleKeywords[w] {
			return true
		}
	}
	return false
}

func hasInstitutionKeyword(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range institutionKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// parseExperience groups experience lines into entries. Lines carrying a date
// range, or a header line following bullets, open a new entry. Bullets become
// achievements and free text after a complete header becomes the description.
func parseExperience(lines []string) []types.WorkExperience {
	entries := []types.WorkExperience{}
	var cur *types.WorkExperience

	open := func() {
		entries = append(entries, types.WorkExperience{})
		cur = &entries[len(entries)-1]
	}

	for _, line := range lines {
		if isBulletLine(line) {
			if cur == nil {
				open()
			}
			if text := stripBullet(line); text != "" {
				cur.Achievements = append(cur.Achievements, text)
			}
			continue
		}

		if dr, rest, ok := FindDateRange(line); ok {
			if cur == nil || cur.StartDate != "" || len(cur.Achievements) > 0 {
				open()
			}
			cur.StartDate = dr.Start
			cur.EndDate = dr.End
			cur.Current = dr.Current
			if dr.Current {
				cur.EndDate = ""
			}
			if rest != "" {
				assignExperienceHeader(cur, rest)
			}
			continue
		}

		switch {
		case cur == nil, len(cur.Achievements) > 0:
			open()
			assignExperienceHeader(cur, line)
		case cur.Company != "" && cur.Position != "":
			cur.Description = joinSentence(cur.Description, line)
		default:
			assignExperienceHeader(cur, line)
		}
	}

	result := make([]types.WorkExperience, 0, len(entries))
	for _, e := range entries {
		if e.Company == "" && e.Position == "" && e.StartDate == "" && len(e.Achievements) == 0 && e.Description == "" {
			continue
		}
		result = append(result, e)
	}
	return result
}

// assignExperienceHeader splits a header line into position and company. Title
// keywords decide which part is the position; location parts are skipped.
func assignExperienceHeader(e *types.WorkExperience, text string) {
	parts := headerSepRe.Split(text, -1)
	commaMode := false
	if len(parts) == 1 && strings.Contains(text, ",") {
		parts = commaSepRe.Split(text, -1)
		commaMode = true
	}

	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), ",;()")
		if p == "" || looksLikeLocation(p) {
			continue
		}
		isTitle := hasTitleKeyword(p)
		switch {
		case isTitle && e.Position == "":
			e.Position = p
		case !isTitle && e.Company == "":
			e.Company = p
		case commaMode:
			continue
		case e.Position == "":
			e.Position = p
		case e.Company == "":
			e.Company = p
		default:
			e.Description = joinSentence(e.Description, p)
		}
	}
}

// parseEducation groups education lines into entries. A second institution,
// degree or date range opens a new entry.
func parseEducation(lines []string) []types.Education {
	entries := []types.Education{}
	var cur *types.Education

	open := func() {
		entries = append(entries, types.Education{})
		cur = &entries[len(entries)-1]
	}
	hasDates := func() bool { return cur.StartDate != "" || cur.EndDate != "" || cur.Current }

	for _, raw := range lines {
		line := stripBullet(raw)

		if m := gpaRe.FindStringSubmatchIndex(line); m != nil {
			if cur == nil {
				open()
			}
			if gpa, err := strconv.ParseFloat(line[m[2]:m[3]], 64); err == nil {
				cur.GPA = &gpa
			}
			line = tidyRemainder(line[:m[0]] + " " + line[m[1]:])
		}

		if dr, rest, ok := FindDateRange(line); ok {
			if cur == nil || hasDates() {
				open()
			}
			if dr.End == "" && !dr.Current {
				// A lone year on an education line is the completion date
				cur.EndDate = dr.Start
			} else {
				cur.StartDate = dr.Start
				cur.EndDate = dr.End
				cur.Current = dr.Current
			}
			line = rest
		}

		for _, part := range eduPartSepRe.Split(line, -1) {
			part = strings.Trim(strings.TrimSpace(part), "()")
			if part == "" || looksLikeLocation(part) {
				continue
			}
			if cur == nil {
				open()
			}
			if hasInstitutionKeyword(part) {
				if cur.Institution != "" {
					open()
				}
				cur.Institution = part
				continue
			}
			if m := degreeRe.FindStringSubmatch(part); m != nil {
				if cur.Degree != "" {
					open()
				}
				cur.Degree = strings.TrimSpace(m[1])
				if m[2] != "" {
					cur.Field = strings.TrimSpace(m[2])
				}
				continue
			}
			switch {
			case cur.Degree != "" && cur.Field == "":
				cur.Field = part
			case cur.Institution == "":
				cur.Institution = part
			}
		}
	}

	result := make([]types.Education, 0, len(entries))
	for _, e := range entries {
		if e.Institution == "" && e.Degree == "" && e.Field == "" {
			continue
		}
		result = append(result, e)
	}
	return result
}

func joinSentence(existing, addition string) string {
	if existing == "" {
		return addition
	}
	return existing + " " + addition
}

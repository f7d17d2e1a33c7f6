package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-importer/internal/types"
)

var (
	skillSepRe    = regexp.MustCompile(`\s*[,;|•·▪●]\s*|\s+[-–—]\s+`)
	labelPrefixRe = regexp.MustCompile(`^[\p{L}&/ ]{2,30}:\s*`)
	projectSepRe  = regexp.MustCompile(`\s+[-–—]\s+|:\s+|\s*\|\s*`)
	techLineRe    = regexp.MustCompile(`(?i)^(?:tech(?:nologies|nology| stack)?|stack|built with|tools)\s*[:\-]\s*(.+)$`)
	certSepRe     = regexp.MustCompile(`\s+[-–—]\s+|\s*[,|]\s*|\s+(?:by|from)\s+`)
	langEntryRe   = regexp.MustCompile(`^([\p{L}][\p{L} ]*?)\s*(?:\(([^)]+)\)|[-–—:]\s*(.+))?$`)
	langSepRe     = regexp.MustCompile(`\s*[,;|•·]\s*`)
)

// parseSkills splits skill lines on list separators, drops category labels
// ("Languages: Go, Python") and canonicalizes the result.
func parseSkills(lines []string) []string {
	var raw []string
	for _, line := range lines {
		line = stripBullet(line)
		line = labelPrefixRe.ReplaceAllString(line, "")
		line = strings.NewReplacer("(", ",", ")", ",").Replace(line)
		for _, s := range skillSepRe.Split(line, -1) {
			s = strings.TrimSpace(s)
			if s == "" || len(s) > 50 || len(strings.Fields(s)) > 5 {
				continue
			}
			raw = append(raw, s)
		}
	}
	return NormalizeSkills(raw)
}

// parseProjects reads "Name - description" header lines followed by optional
// bullets and a technologies line.
func parseProjects(lines []string) []types.Project {
	projects := []types.Project{}
	var cur *types.Project

	for _, line := range lines {
		if m := techLineRe.FindStringSubmatch(stripBullet(line)); m != nil && cur != nil {
			cur.Technologies = append(cur.Technologies, parseSkills([]string{m[1]})...)
			continue
		}
		if isBulletLine(line) && cur != nil {
			cur.Description = joinSentence(cur.Description, stripBullet(line))
			continue
		}

		projects = append(projects, types.Project{Technologies: []string{}})
		cur = &projects[len(projects)-1]

		parts := projectSepRe.Split(stripBullet(line), 2)
		cur.Name = strings.TrimSpace(parts[0])
		if len(parts) == 2 {
			rest := strings.TrimSpace(parts[1])
			if strings.Contains(line, "|") && strings.Contains(rest, ",") {
				cur.Technologies = parseSkills([]string{rest})
			} else {
				cur.Description = rest
			}
		}
	}
	return projects
}

// parseCertifications reads one certification per line: name, issuer and an
// optional date or verification URL.
func parseCertifications(lines []string) []types.Certification {
	certs := []types.Certification{}
	for _, line := range lines {
		line = stripBullet(line)
		var cert types.Certification

		if u := urlRe.FindString(line); u != "" {
			cert.URL = withScheme(strings.TrimRight(u, "./"))
			line = tidyRemainder(strings.Replace(line, u, " ", 1))
		}
		if dr, rest, ok := FindDateRange(line); ok {
			cert.Date = dr.Start
			line = rest
		}

		parts := certSepRe.Split(line, -1)
		for _, p := range parts {
			p = strings.Trim(strings.TrimSpace(p), "()")
			if p == "" {
				continue
			}
			if cert.Name == "" {
				cert.Name = p
			} else if cert.Issuer == "" {
				cert.Issuer = p
			}
		}
		if cert.Name != "" {
			certs = append(certs, cert)
		}
	}
	return certs
}

// parseLanguages accepts "English (Native)", "Spanish - Professional" and
// comma-separated lists of either.
func parseLanguages(lines []string) []types.Language {
	langs := []types.Language{}
	for _, line := range lines {
		line = stripBullet(line)
		for _, entry := range langSepRe.Split(line, -1) {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			m := langEntryRe.FindStringSubmatch(entry)
			if m == nil {
				continue
			}
			lang := types.Language{Language: strings.TrimSpace(m[1])}
			switch {
			case m[2] != "":
				lang.Proficiency = strings.TrimSpace(m[2])
			case m[3] != "":
				lang.Proficiency = strings.TrimSpace(m[3])
			}
			langs = append(langs, lang)
		}
	}
	return langs
}

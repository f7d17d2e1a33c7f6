package parsing

import (
	"strings"
	"unicode"
)

// skillNormalizations maps common skill name variants to canonical names
var skillNormalizations = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"node":       "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"mysql":      "MySQL",
	"mongodb":    "MongoDB",
	"mongo":      "MongoDB",
	"aws":        "AWS",
	"gcp":        "GCP",
	"sql":        "SQL",
	"html":       "HTML",
	"css":        "CSS",
	"c++":        "C++",
	"c#":         "C#",
	"graphql":    "GraphQL",
	"ci/cd":      "CI/CD",
	"github":     "GitHub",
}

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	normalized := strings.TrimSpace(skillName)
	normalized = strings.Trim(normalized, ".,;:-•·*")
	normalized = strings.TrimSpace(normalized)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillNormalizations[lower]; ok {
		return canonical
	}

	// Mixed case is taken as intentional (e.g. "PyTorch", "iOS")
	if normalized != strings.ToUpper(normalized) && normalized != strings.ToLower(normalized) {
		return normalized
	}

	// Short all-caps tokens are acronyms; keep them
	if normalized == strings.ToUpper(normalized) && len(normalized) <= 4 {
		return normalized
	}

	// Single lowercase or all-caps word: capitalize first letter only
	if !strings.Contains(normalized, " ") {
		runes := []rune(strings.ToLower(normalized))
		runes[0] = unicode.ToUpper(runes[0])
		return string(runes)
	}

	return normalized
}

// NormalizeSkills canonicalizes skill names and removes case-insensitive duplicates,
// keeping the first occurrence in its original position.
func NormalizeSkills(skills []string) []string {
	result := make([]string, 0, len(skills))
	seen := make(map[string]bool)
	for _, s := range skills {
		n := NormalizeSkillName(s)
		if n == "" {
			continue
		}
		key := strings.ToLower(n)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, n)
	}
	return result
}

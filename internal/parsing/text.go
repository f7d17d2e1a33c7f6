package parsing

import (
	"regexp"
	"strings"
)

var (
	inlineSpaceRe  = regexp.MustCompile(`[ \t\f\v\x{00A0}\x{2007}\x{202F}]+`)
	blankRunRe     = regexp.MustCompile(`\n\n\n+`)
	bulletPrefixRe = regexp.MustCompile(`^\s*([-*•·▪●◦‣–]|\d{1,2}[.)])\s+`)
)

// CleanText cleans and normalizes extracted document text while preserving line structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	// Normalize line endings (CRLF → LF)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u2028", "\n")
	content = strings.ReplaceAll(content, "\u2029", "\n")
	content = strings.ReplaceAll(content, "\x00", "")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")

	// Max 2 consecutive newlines
	result = blankRunRe.ReplaceAllString(result, "\n\n")

	return strings.TrimSpace(result)
}

// cleanLine collapses inline whitespace and drops indentation
func cleanLine(line string) string {
	line = inlineSpaceRe.ReplaceAllString(line, " ")
	return strings.TrimSpace(line)
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	return bulletPrefixRe.MatchString(line)
}

// stripBullet removes a leading bullet marker
func stripBullet(line string) string {
	return strings.TrimSpace(bulletPrefixRe.ReplaceAllString(line, ""))
}

// splitLines returns the non-empty lines of cleaned text
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

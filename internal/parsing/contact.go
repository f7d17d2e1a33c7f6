package parsing

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jonathan/resume-importer/internal/types"
)

var (
	emailRe    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	phoneRe    = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)|\d{2,4})[\s.\-]?\d{3,4}(?:[\s.\-]?\d{3,4})?`)
	linkedInRe = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.|www\.)?linkedin\.com/in/[A-Za-z0-9\-_%]+/?`)
	urlRe      = regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s,;|()<>]+|\b[a-z0-9\-]+(?:\.[a-z0-9\-]+)*\.(?:com|io|dev|me|org|net|co|app|page|site|tech)(?:/[^\s,;|()<>]*)?`)
	locationRe = regexp.MustCompile(`^[A-Z][A-Za-z.\-' ]+,\s*[A-Z][A-Za-z.\- ]+$`)
	nameWordRe = regexp.MustCompile(`^[\p{Lu}][\p{L}'.\-]*$`)
)

// contactSeparators splits header lines like "jane@x.com | 555-0100 | Austin, TX"
var contactSeparators = regexp.MustCompile(`\s*[|•·]\s*|\s{2,}`)

// parseContact fills personal fields from the header block, falling back to the
// whole text for e-mail, phone and LinkedIn when the header lacks them.
func parseContact(header []string, fullText string) types.PersonalInfo {
	var info types.PersonalInfo

	headerText := strings.Join(header, "\n")
	info.Email = findEmail(headerText)
	if info.Email == "" {
		info.Email = findEmail(fullText)
	}
	info.LinkedIn = findLinkedIn(headerText)
	if info.LinkedIn == "" {
		info.LinkedIn = findLinkedIn(fullText)
	}
	info.Phone = findPhone(headerText)
	info.Website = findWebsite(headerText)

	for _, line := range header {
		for _, part := range splitContactLine(line) {
			if info.Name == "" && looksLikeName(part) {
				info.Name = part
				continue
			}
			if info.Location == "" && looksLikeLocation(part) {
				info.Location = part
			}
		}
	}
	return info
}

func splitContactLine(line string) []string {
	parts := contactSeparators.Split(line, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func findEmail(text string) string {
	return strings.ToLower(emailRe.FindString(text))
}

func findPhone(text string) string {
	// Strip e-mails and URLs so their digits are never read as a number
	text = emailRe.ReplaceAllString(text, " ")
	text = urlRe.ReplaceAllString(text, " ")
	for _, candidate := range phoneRe.FindAllString(text, -1) {
		digits := 0
		for _, r := range candidate {
			if unicode.IsDigit(r) {
				digits++
			}
		}
		if digits >= 7 && digits <= 15 && !looksLikeYearRange(candidate) {
			return strings.TrimSpace(candidate)
		}
	}
	return ""
}

// looksLikeYearRange rejects "2018 2020 2021"-style matches
func looksLikeYearRange(s string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if len(fields) < 2 {
		return false
	}
	for _, f := range fields {
		if len(f) != 4 || (f[0] != '1' && f[0] != '2') {
			return false
		}
	}
	return true
}

func findLinkedIn(text string) string {
	match := linkedInRe.FindString(text)
	if match == "" {
		return ""
	}
	return withScheme(strings.TrimSuffix(match, "/"))
}

func findWebsite(text string) string {
	text = emailRe.ReplaceAllString(text, " ")
	for _, match := range urlRe.FindAllString(text, -1) {
		if strings.Contains(strings.ToLower(match), "linkedin.com") {
			continue
		}
		return withScheme(strings.TrimRight(match, "./"))
	}
	return ""
}

func withScheme(u string) string {
	lower := strings.ToLower(u)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return u
	}
	return "https://" + u
}

// looksLikeName accepts 2–4 capitalized words with no digits or contact markers
func looksLikeName(s string) bool {
	if strings.ContainsAny(s, "@/:,0123456789") {
		return false
	}
	words := strings.Fields(s)
	if len(words) < 2 || len(words) > 4 {
		return false
	}
	for _, w := range words {
		if !nameWordRe.MatchString(w) {
			return false
		}
	}
	if _, ok := detectHeading(s); ok {
		return false
	}
	return !hasTitleKeyword(s)
}

func looksLikeLocation(s string) bool {
	if strings.ContainsAny(s, "@0123456789") || len(s) > 60 {
		return false
	}
	return locationRe.MatchString(s)
}

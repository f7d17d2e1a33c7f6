package parsing

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
)

const monthPattern = `(?:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?`

const dateTokenPattern = `(?:\b` + monthPattern + `\s+\d{1,2},?\s+\d{4}` +
	`|\b` + monthPattern + `\s*'?\d{4}` +
	`|\b\d{4}-\d{2}-\d{2}\b` +
	`|\b\d{4}[-/]\d{1,2}\b` +
	`|\b\d{1,2}/\d{4}\b` +
	`|\b(?:19|20)\d{2}\b` +
	`|\bpresent\b|\bcurrent(?:ly)?\b|\bnow\b|\btoday\b|\bongoing\b)`

var (
	dateRangeRe = regexp.MustCompile(`(?i)(` + dateTokenPattern + `)\s*(?:-|–|—|to|until|till|through)\s*(` + dateTokenPattern + `)`)
	dateTokenRe = regexp.MustCompile(`(?i)` + dateTokenPattern)
	monthYearRe = regexp.MustCompile(`(?i)^(` + monthPattern + `)\s*'?(\d{4})$`)
	slashDateRe = regexp.MustCompile(`^(\d{1,2})/(\d{4})$`)
	isoMonthRe  = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})$`)
	yearOnlyRe  = regexp.MustCompile(`^(?:19|20)\d{2}$`)
)

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// DateRange is a parsed start/end pair
type DateRange struct {
	Start   string
	End     string
	Current bool
}

// NormalizeDate converts a single date token to YYYY-MM or YYYY. Tokens meaning
// "present" return current=true and an empty value. ok is false when the token
// is not a recognizable date.
func NormalizeDate(token string) (value string, current bool, ok bool) {
	t := strings.TrimSpace(strings.ToLower(token))
	switch t {
	case "present", "current", "currently", "now", "today", "ongoing":
		return "", true, true
	}

	if m := monthYearRe.FindStringSubmatch(t); m != nil {
		month := monthNumbers[m[1][:3]]
		return fmt.Sprintf("%s-%02d", m[2], month), false, true
	}
	if m := slashDateRe.FindStringSubmatch(t); m != nil {
		if v, ok := monthValue(m[2], m[1]); ok {
			return v, false, true
		}
		return "", false, false
	}
	if m := isoMonthRe.FindStringSubmatch(t); m != nil {
		if v, ok := monthValue(m[1], m[2]); ok {
			return v, false, true
		}
		return "", false, false
	}
	if yearOnlyRe.MatchString(t) {
		return t, false, true
	}

	parsed, err := dateparse.ParseAny(strings.TrimSpace(token))
	if err != nil {
		return "", false, false
	}
	return parsed.Format("2006-01"), false, true
}

func monthValue(year, month string) (string, bool) {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	return fmt.Sprintf("%s-%02d", year, m), true
}

// FindDateRange locates the first date range in a line. A lone date is treated
// as a start date with no end. The returned remainder is the line with the
// dates removed.
func FindDateRange(line string) (DateRange, string, bool) {
	if loc := dateRangeRe.FindStringSubmatchIndex(line); loc != nil {
		startTok := line[loc[2]:loc[3]]
		endTok := line[loc[4]:loc[5]]
		start, startCurrent, ok1 := NormalizeDate(startTok)
		end, endCurrent, ok2 := NormalizeDate(endTok)
		if ok1 && ok2 && !startCurrent {
			rest := line[:loc[0]] + " " + line[loc[1]:]
			dr := DateRange{Start: start, End: end, Current: endCurrent}
			return dr, tidyRemainder(rest), true
		}
	}

	if loc := dateTokenRe.FindStringIndex(line); loc != nil {
		value, current, ok := NormalizeDate(line[loc[0]:loc[1]])
		if ok && !current {
			rest := line[:loc[0]] + " " + line[loc[1]:]
			return DateRange{Start: value}, tidyRemainder(rest), true
		}
	}
	return DateRange{}, line, false
}

// tidyRemainder drops separators left behind once dates are cut out of a line
func tidyRemainder(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.Trim(s, " ,|-–—()[]:")
	return strings.TrimSpace(s)
}

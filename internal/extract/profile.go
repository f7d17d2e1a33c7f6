package extract

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jonathan/resume-importer/internal/parsing"
	"github.com/jonathan/resume-importer/internal/types"
)

// ProfileURLPattern matches public LinkedIn profile URLs. Query strings and
// fragments are allowed and the scheme and host are case-insensitive; the
// second group is the profile slug.
var ProfileURLPattern = regexp.MustCompile(`^(?i:https?://([a-z]{2,3}\.|www\.)?linkedin\.com)/in/([^/?#\s]+)/?(?:[?#].*)?$`)

// IsProfileURL reports whether u is a recognizable profile reference.
func IsProfileURL(u string) bool {
	return ProfileURLPattern.MatchString(strings.TrimSpace(u))
}

// ProfileSlug returns the slug segment of a profile URL.
func ProfileSlug(u string) (string, bool) {
	m := ProfileURLPattern.FindStringSubmatch(strings.TrimSpace(u))
	if m == nil {
		return "", false
	}
	return m[2], true
}

// MonthYear is a provider date; Month is 0 when only the year is known.
type MonthYear struct {
	Month int `json:"month,omitempty"`
	Year  int `json:"year"`
}

// String renders YYYY-MM, or YYYY when the month is unknown.
func (m *MonthYear) String() string {
	if m == nil || m.Year == 0 {
		return ""
	}
	if m.Month < 1 || m.Month > 12 {
		return strconv.Itoa(m.Year)
	}
	return fmt.Sprintf("%04d-%02d", m.Year, m.Month)
}

// ParseMonthYear converts a date string into a MonthYear.
func ParseMonthYear(s string) *MonthYear {
	value, _, ok := parsing.NormalizeDate(s)
	if !ok || value == "" {
		return nil
	}
	parts := strings.SplitN(value, "-", 2)
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	my := &MonthYear{Year: year}
	if len(parts) == 2 {
		my.Month, _ = strconv.Atoi(parts[1])
	}
	return my
}

// ProviderRecord is the profile shape returned by a ProfileProvider.
type ProviderRecord struct {
	FirstName      string                  `json:"firstName"`
	LastName       string                  `json:"lastName"`
	Headline       string                  `json:"headline"`
	Summary        string                  `json:"summary"`
	Location       string                  `json:"location"`
	Email          string                  `json:"email"`
	ProfileURL     string                  `json:"profileUrl"`
	Websites       []string                `json:"websites"`
	Positions      []ProviderPosition      `json:"positions"`
	Educations     []ProviderEducation     `json:"educations"`
	Skills         []string                `json:"skills"`
	Certifications []ProviderCertification `json:"certifications"`
	Languages      []ProviderLanguage      `json:"languages"`
}

// ProviderPosition is a position as reported by the provider.
type ProviderPosition struct {
	Title       string     `json:"title"`
	CompanyName string     `json:"companyName"`
	Description string     `json:"description"`
	StartDate   *MonthYear `json:"startDate"`
	EndDate     *MonthYear `json:"endDate"`
	Current     bool       `json:"current"`
}

// ProviderEducation is an education entry as reported by the provider.
type ProviderEducation struct {
	SchoolName   string     `json:"schoolName"`
	DegreeName   string     `json:"degreeName"`
	FieldOfStudy string     `json:"fieldOfStudy"`
	Grade        string     `json:"grade"`
	StartDate    *MonthYear `json:"startDate"`
	EndDate      *MonthYear `json:"endDate"`
}

// ProviderCertification is a certification as reported by the provider.
type ProviderCertification struct {
	Name      string     `json:"name"`
	Authority string     `json:"authority"`
	URL       string     `json:"url"`
	Date      *MonthYear `json:"date"`
}

// ProviderLanguage is a language as reported by the provider.
type ProviderLanguage struct {
	Name        string `json:"name"`
	Proficiency string `json:"proficiency"`
}

// ProfileProvider resolves a profile URL into provider data.
type ProfileProvider interface {
	ResolveProfile(ctx context.Context, profileURL string) (*ProviderRecord, error)
}

// MapProviderRecord converts provider data into a ResumeRecord. A position with
// a start date and no end date is treated as current.
func MapProviderRecord(p *ProviderRecord) *types.ResumeRecord {
	record := types.NewResumeRecord()
	if p == nil {
		return record
	}

	record.Personal = types.PersonalInfo{
		Name:     strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName)),
		Email:    strings.TrimSpace(p.Email),
		Location: strings.TrimSpace(p.Location),
		Summary:  strings.TrimSpace(p.Summary),
		LinkedIn: strings.TrimSpace(p.ProfileURL),
	}
	if record.Personal.Summary == "" {
		record.Personal.Summary = strings.TrimSpace(p.Headline)
	}
	if len(p.Websites) > 0 {
		record.Personal.Website = p.Websites[0]
	}

	for _, pos := range p.Positions {
		w := types.WorkExperience{
			Company:     pos.CompanyName,
			Position:    pos.Title,
			StartDate:   pos.StartDate.String(),
			Description: pos.Description,
			Current:     pos.Current || (pos.EndDate == nil && pos.StartDate != nil),
		}
		if !w.Current {
			w.EndDate = pos.EndDate.String()
		}
		record.WorkExperience = append(record.WorkExperience, w)
	}

	for _, edu := range p.Educations {
		e := types.Education{
			Institution: edu.SchoolName,
			Degree:      edu.DegreeName,
			Field:       edu.FieldOfStudy,
			StartDate:   edu.StartDate.String(),
			EndDate:     edu.EndDate.String(),
		}
		if gpa, err := strconv.ParseFloat(strings.TrimSpace(edu.Grade), 64); err == nil {
			e.GPA = &gpa
		}
		record.Education = append(record.Education, e)
	}

	record.Skills = parsing.NormalizeSkills(p.Skills)

	for _, c := range p.Certifications {
		record.Certifications = append(record.Certifications, types.Certification{
			Name:   c.Name,
			Issuer: c.Authority,
			Date:   c.Date.String(),
			URL:    c.URL,
		})
	}
	for _, l := range p.Languages {
		record.Languages = append(record.Languages, types.Language{Language: l.Name, Proficiency: l.Proficiency})
	}

	return record.Normalize()
}

// ProfileExtractor resolves profile URLs through a ProfileProvider.
type ProfileExtractor struct {
	Provider ProfileProvider
}

// NewProfileExtractor creates a profile extractor backed by provider.
func NewProfileExtractor(provider ProfileProvider) *ProfileExtractor {
	return &ProfileExtractor{Provider: provider}
}

// Name returns the capability name.
func (p *ProfileExtractor) Name() string {
	return CapabilityProfile
}

// Extract validates the URL shape before resolving it. Context expiry is
// returned unchanged; any other provider error is a ProviderFailure.
func (p *ProfileExtractor) Extract(ctx context.Context, in Input) (*types.ResumeRecord, error) {
	profileURL := strings.TrimSpace(in.URL)
	if !IsProfileURL(profileURL) {
		return nil, &ExtractionError{Reason: ReasonInvalidReference, Message: fmt.Sprintf("not a profile URL: %q", profileURL)}
	}
	if p.Provider == nil {
		return nil, &ExtractionError{Reason: ReasonProviderFailure, Message: "no profile provider configured"}
	}

	rec, err := p.Provider.ResolveProfile(ctx, profileURL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ExtractionError{Reason: ReasonProviderFailure, Message: "profile provider failed", Cause: err}
	}
	if rec == nil {
		return nil, &ExtractionError{Reason: ReasonProviderFailure, Message: "profile provider returned no data"}
	}

	record := MapProviderRecord(rec)
	if record.Personal.LinkedIn == "" {
		record.Personal.LinkedIn = profileURL
	}
	return record, nil
}

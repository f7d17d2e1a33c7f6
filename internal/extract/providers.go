package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/jonathan/resume-importer/internal/fetch"
)

// SlugProvider derives a profile deterministically from the URL slug without
// any network access: "jane-doe-4b2a1c9" becomes Jane Doe.
type SlugProvider struct{}

// ResolveProfile implements ProfileProvider.
func (SlugProvider) ResolveProfile(ctx context.Context, profileURL string) (*ProviderRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slug, ok := ProfileSlug(profileURL)
	if !ok {
		return nil, fmt.Errorf("no profile slug in %q", profileURL)
	}
	if unescaped, err := url.PathUnescape(slug); err == nil {
		slug = unescaped
	}

	words := nameWordsFromSlug(slug)
	rec := &ProviderRecord{ProfileURL: strings.TrimSpace(profileURL)}
	if len(words) > 0 {
		rec.FirstName = words[0]
		rec.LastName = strings.Join(words[1:], " ")
	}
	return rec, nil
}

// nameWordsFromSlug drops the trailing hex or numeric suffix the site appends
// to disambiguate slugs and title-cases the rest. Digits inside a word are kept
// ("jsmith1" becomes Jsmith1), and a suffix is only dropped when a word remains.
func nameWordsFromSlug(slug string) []string {
	parts := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	if n := len(parts); n > 1 && isDisambiguator(parts[n-1]) {
		parts = parts[:n-1]
	}
	words := make([]string, 0, len(parts))
	for _, part := range parts {
		runes := []rune(strings.ToLower(part))
		runes[0] = unicode.ToUpper(runes[0])
		words = append(words, string(runes))
	}
	return words
}

// isDisambiguator reports whether part is all hex digits with at least one decimal digit.
func isDisambiguator(part string) bool {
	hasDigit := false
	for _, r := range part {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F'):
		default:
			return false
		}
	}
	return hasDigit
}

// PageProvider fetches the public profile page and reads its structured data.
// Pages that render client-side can be loaded in a headless browser.
type PageProvider struct {
	Options        *fetch.Options
	UseBrowser     bool
	BrowserTimeout time.Duration
	Verbose        bool
}

// ResolveProfile implements ProfileProvider.
func (p *PageProvider) ResolveProfile(ctx context.Context, profileURL string) (*ProviderRecord, error) {
	result, err := fetch.URL(ctx, profileURL, p.Options)
	if err != nil {
		return nil, err
	}
	html := result.HTML

	if p.UseBrowser {
		text, _ := fetch.ExtractMainText(html, fetch.ProfileSelectors())
		if fetch.NeedsRender(html, text) {
			rendered, err := fetch.Render(ctx, profileURL, fetch.RenderOptions{
				Timeout: p.BrowserTimeout,
				Settle:  time.Second,
				Verbose: p.Verbose,
			})
			switch {
			case err == nil:
				html = rendered
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				log.Printf("[extract] browser rendering failed, using fetched HTML: %v", err)
			}
		}
	}

	page, err := fetch.ParseProfilePage(html)
	if err != nil {
		return nil, err
	}
	if page.Name == "" && len(page.Positions) == 0 {
		return nil, errors.New("profile page has no readable profile data")
	}
	return providerRecordFromPage(page, profileURL), nil
}

func providerRecordFromPage(page *fetch.ProfilePage, profileURL string) *ProviderRecord {
	rec := &ProviderRecord{
		Headline:   page.Headline,
		Summary:    page.About,
		Location:   page.Location,
		ProfileURL: profileURL,
		Skills:     page.Skills,
		Websites:   page.Links,
	}

	if fields := strings.Fields(page.Name); len(fields) > 0 {
		rec.FirstName = fields[0]
		rec.LastName = strings.Join(fields[1:], " ")
	}

	for _, pos := range page.Positions {
		rec.Positions = append(rec.Positions, ProviderPosition{
			Title:       pos.Title,
			CompanyName: pos.Company,
			Description: pos.Summary,
			StartDate:   ParseMonthYear(pos.StartDate),
			EndDate:     ParseMonthYear(pos.EndDate),
		})
	}
	for _, school := range page.Schools {
		rec.Educations = append(rec.Educations, ProviderEducation{
			SchoolName:   school.Name,
			DegreeName:   school.Degree,
			FieldOfStudy: school.Field,
			StartDate:    ParseMonthYear(school.StartDate),
			EndDate:      ParseMonthYear(school.EndDate),
		})
	}
	for _, lang := range page.Languages {
		rec.Languages = append(rec.Languages, ProviderLanguage{Name: lang})
	}
	return rec
}

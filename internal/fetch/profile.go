package fetch

import (
	"encoding/json"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// ProfilePage is the structured content read from a public profile page.
type ProfilePage struct {
	Name      string
	Headline  string
	Location  string
	About     string
	Positions []PagePosition
	Schools   []PageSchool
	Skills    []string
	Languages []string
	Links     []string
}

// PagePosition is one entry of the page's work history.
type PagePosition struct {
	Title     string
	Company   string
	StartDate string
	EndDate   string
	Summary   string
}

// PageSchool is one entry of the page's education history.
type PageSchool struct {
	Name      string
	Degree    string
	Field     string
	StartDate string
	EndDate   string
}

// ProfileSelectors returns selectors for the about section of a profile page.
func ProfileSelectors() []string {
	return []string{
		"section.summary",
		"[data-section='summary']",
		"section.about",
		".core-section-container__content",
	}
}

// ParseProfilePage reads the JSON-LD Person block, OpenGraph tags and the about
// section of a profile page. JSON-LD wins over meta tags when both are present.
func ParseProfilePage(html string) (*ProfilePage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	page := &ProfilePage{}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if person := findPerson(s.Text()); person != nil {
			applyPerson(page, person)
			return false
		}
		return true
	})

	if page.Name == "" || page.Headline == "" {
		applyOpenGraph(page, doc)
	}

	if page.About == "" {
		for _, selector := range ProfileSelectors() {
			sel := doc.Find(selector).First()
			if sel.Length() == 0 {
				continue
			}
			inner, err := sel.Html()
			if err != nil {
				continue
			}
			if md, err := htmltomarkdown.ConvertString(inner); err == nil {
				page.About = strings.TrimSpace(md)
			}
			if page.About != "" {
				break
			}
		}
	} else if strings.Contains(page.About, "<") {
		if md, err := htmltomarkdown.ConvertString(page.About); err == nil {
			page.About = strings.TrimSpace(md)
		}
	}

	return page, nil
}

// ldPerson is the subset of schema.org/Person read from profile pages
type ldPerson struct {
	Type        any    `json:"@type"`
	Name        string `json:"name"`
	JobTitle    any    `json:"jobTitle"`
	Description string `json:"description"`
	Address     struct {
		Locality string `json:"addressLocality"`
		Country  string `json:"addressCountry"`
	} `json:"address"`
	WorksFor      []ldOrganization `json:"worksFor"`
	AlumniOf      []ldOrganization `json:"alumniOf"`
	KnowsLanguage any              `json:"knowsLanguage"`
	Skills        any              `json:"skills"`
	SameAs        any              `json:"sameAs"`
}

type ldOrganization struct {
	Type   any    `json:"@type"`
	Name   string `json:"name"`
	Member struct {
		StartDate   any    `json:"startDate"`
		EndDate     any    `json:"endDate"`
		Description string `json:"description"`
		RoleName    string `json:"roleName"`
	} `json:"member"`
}

// findPerson locates a Person node in a JSON-LD document, which may be a bare
// object, an array, or an object with an @graph array.
func findPerson(raw string) *ldPerson {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var nodes []json.RawMessage
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
			return nil
		}
	} else {
		var wrapper struct {
			Graph []json.RawMessage `json:"@graph"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapper); err != nil {
			return nil
		}
		nodes = append(wrapper.Graph, json.RawMessage(raw))
	}

	for _, node := range nodes {
		var person ldPerson
		if err := json.Unmarshal(node, &person); err != nil {
			continue
		}
		if hasType(person.Type, "Person") {
			return &person
		}
	}
	return nil
}

func hasType(v any, want string) bool {
	for _, t := range stringsOf(v) {
		if t == want {
			return true
		}
	}
	return false
}

// stringsOf flattens a JSON-LD value that may be a string, an object with a
// name, or an array of either.
func stringsOf(v any) []string {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
	case map[string]any:
		if name, ok := val["name"].(string); ok && strings.TrimSpace(name) != "" {
			return []string{strings.TrimSpace(name)}
		}
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, stringsOf(item)...)
		}
		return out
	case float64:
		return []string{fmt.Sprintf("%.0f", val)}
	}
	return nil
}

func firstString(v any) string {
	if s := stringsOf(v); len(s) > 0 {
		return s[0]
	}
	return ""
}

func applyPerson(page *ProfilePage, p *ldPerson) {
	page.Name = strings.TrimSpace(p.Name)
	page.Headline = firstString(p.JobTitle)
	page.About = strings.TrimSpace(p.Description)

	var loc []string
	if p.Address.Locality != "" {
		loc = append(loc, p.Address.Locality)
	}
	if p.Address.Country != "" {
		loc = append(loc, p.Address.Country)
	}
	page.Location = strings.Join(loc, ", ")

	for _, org := range p.WorksFor {
		if org.Name == "" {
			continue
		}
		page.Positions = append(page.Positions, PagePosition{
			Title:     org.Member.RoleName,
			Company:   org.Name,
			StartDate: firstString(org.Member.StartDate),
			EndDate:   firstString(org.Member.EndDate),
			Summary:   org.Member.Description,
		})
	}
	for _, org := range p.AlumniOf {
		if org.Name == "" {
			continue
		}
		page.Schools = append(page.Schools, PageSchool{
			Name:      org.Name,
			StartDate: firstString(org.Member.StartDate),
			EndDate:   firstString(org.Member.EndDate),
		})
	}
	page.Languages = stringsOf(p.KnowsLanguage)
	page.Skills = stringsOf(p.Skills)
	page.Links = stringsOf(p.SameAs)
}

// applyOpenGraph fills name and headline from og:title, which profile pages
// format as "Name - Headline - Company | Site".
func applyOpenGraph(page *ProfilePage, doc *goquery.Document) {
	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if title == "" {
		title = doc.Find("title").First().Text()
	}
	title = strings.TrimSpace(title)
	if idx := strings.LastIndex(title, "|"); idx > 0 {
		title = strings.TrimSpace(title[:idx])
	}

	parts := strings.Split(title, " - ")
	if page.Name == "" && len(parts) > 0 {
		page.Name = strings.TrimSpace(parts[0])
	}
	if page.Headline == "" && len(parts) > 1 {
		page.Headline = strings.TrimSpace(strings.Join(parts[1:], " - "))
	}

	if page.About == "" {
		if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
			page.About = strings.TrimSpace(desc)
		}
	}
}

// Package types provides type definitions for structured data used throughout the resume importer.
package types

import "slices"

// ResumeRecord is the canonical structured representation of a resume.
// Absent information is represented by empty strings, empty slices or omitted optional fields.
type ResumeRecord struct {
	Personal       PersonalInfo     `json:"personal"`
	Skills         []string         `json:"skills"`
	WorkExperience []WorkExperience `json:"workExperience"`
	Education      []Education      `json:"education"`
	Projects       []Project        `json:"projects,omitempty"`
	Certifications []Certification  `json:"certifications,omitempty"`
	Languages      []Language       `json:"languages,omitempty"`
}

// PersonalInfo holds contact and summary information.
// Name and Email are semantically required but an empty string is a valid "unknown".
type PersonalInfo struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Website  string `json:"website,omitempty"`
	Summary  string `json:"summary,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
}

// WorkExperience represents a single position held.
type WorkExperience struct {
	Company      string   `json:"company"`
	Position     string   `json:"position"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      bool     `json:"current,omitempty"`
	Description  string   `json:"description,omitempty"`
	Achievements []string `json:"achievements,omitempty"`
}

// PresentLabel is shown in place of an end date for current entries.
const PresentLabel = "Present"

// EffectiveEndDate returns the end date to display. EndDate is ignored when Current is set.
func (w WorkExperience) EffectiveEndDate() string {
	if w.Current {
		return PresentLabel
	}
	return w.EndDate
}

// Education represents a single education entry.
type Education struct {
	Institution string   `json:"institution"`
	Degree      string   `json:"degree"`
	Field       string   `json:"field"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate,omitempty"`
	Current     bool     `json:"current,omitempty"`
	GPA         *float64 `json:"gpa,omitempty"`
}

// EffectiveEndDate returns the end date to display. EndDate is ignored when Current is set.
func (e Education) EffectiveEndDate() string {
	if e.Current {
		return PresentLabel
	}
	return e.EndDate
}

// Project represents a personal or professional project.
type Project struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Technologies []string `json:"technologies"`
}

// Certification represents a certificate or license.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
	URL    string `json:"url,omitempty"`
}

// Language represents a spoken language and proficiency.
type Language struct {
	Language    string `json:"language"`
	Proficiency string `json:"proficiency"`
}

// NewResumeRecord returns a record with all required sequences initialized.
func NewResumeRecord() *ResumeRecord {
	return &ResumeRecord{
		Skills:         []string{},
		WorkExperience: []WorkExperience{},
		Education:      []Education{},
	}
}

// EmptyResumeRecord returns the fallback record used whenever extraction fails.
// Every call returns a fresh value so callers can never share or mutate a global.
func EmptyResumeRecord() *ResumeRecord {
	return NewResumeRecord()
}

// Normalize replaces nil required sequences with empty ones so the record always
// serializes as a complete document. Extractors call it once before returning.
func (r *ResumeRecord) Normalize() *ResumeRecord {
	if r.Skills == nil {
		r.Skills = []string{}
	}
	if r.WorkExperience == nil {
		r.WorkExperience = []WorkExperience{}
	}
	if r.Education == nil {
		r.Education = []Education{}
	}
	for i := range r.Projects {
		if r.Projects[i].Technologies == nil {
			r.Projects[i].Technologies = []string{}
		}
	}
	return r
}

// Clone returns a deep copy of r. Nil slices stay nil.
func (r *ResumeRecord) Clone() *ResumeRecord {
	if r == nil {
		return nil
	}
	out := *r
	out.Skills = slices.Clone(r.Skills)
	out.WorkExperience = slices.Clone(r.WorkExperience)
	for i := range out.WorkExperience {
		out.WorkExperience[i].Achievements = slices.Clone(r.WorkExperience[i].Achievements)
	}
	out.Education = slices.Clone(r.Education)
	for i := range out.Education {
		if gpa := r.Education[i].GPA; gpa != nil {
			v := *gpa
			out.Education[i].GPA = &v
		}
	}
	out.Projects = slices.Clone(r.Projects)
	for i := range out.Projects {
		out.Projects[i].Technologies = slices.Clone(r.Projects[i].Technologies)
	}
	out.Certifications = slices.Clone(r.Certifications)
	out.Languages = slices.Clone(r.Languages)
	return &out
}

// HasMinimalInformation reports whether a record carries enough to be shown as parsed
// rather than asking the user to fill it in manually.
func HasMinimalInformation(r *ResumeRecord) bool {
	if r == nil {
		return false
	}
	return r.Personal.Name != "" || r.Personal.Email != "" || len(r.Skills) > 0
}

// IsEmpty reports whether no field of the record holds any information.
func (r *ResumeRecord) IsEmpty() bool {
	if r == nil {
		return true
	}
	return r.Personal == (PersonalInfo{}) &&
		len(r.Skills) == 0 &&
		len(r.WorkExperience) == 0 &&
		len(r.Education) == 0 &&
		len(r.Projects) == 0 &&
		len(r.Certifications) == 0 &&
		len(r.Languages) == 0
}

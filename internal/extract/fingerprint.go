package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"unicode"

	"github.com/jonathan/resume-importer/internal/schemas"
	"github.com/jonathan/resume-importer/internal/types"
)

// Fingerprint identifies a known document by filename and names the verified
// baseline record to use for it.
type Fingerprint struct {
	Name            string `json:"name" yaml:"name"`
	FilenamePattern string `json:"filename_pattern" yaml:"filename_pattern"`
	BaselinePath    string `json:"baseline_path" yaml:"baseline_path"`
}

// Capability returns the registry name of this fingerprint's extractor.
func (f Fingerprint) Capability() string {
	return "fingerprint:" + f.Name
}

// Matches reports whether a filename carries this fingerprint. Both sides are
// reduced to lower-case alphanumerics before the substring check, so case,
// spacing and punctuation differences do not matter.
func (f Fingerprint) Matches(filename string) bool {
	pattern := foldForMatch(f.FilenamePattern)
	if pattern == "" {
		return false
	}
	return strings.Contains(foldForMatch(filename), pattern)
}

func foldForMatch(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// MatchFingerprint returns the first fingerprint matching a filename.
func MatchFingerprint(fingerprints []Fingerprint, filename string) (Fingerprint, bool) {
	for _, fp := range fingerprints {
		if fp.Matches(filename) {
			return fp, true
		}
	}
	return Fingerprint{}, false
}

// FingerprintExtractor handles a known document: its verified baseline wins
// field by field and the decoded document fills whatever the baseline leaves empty.
type FingerprintExtractor struct {
	fingerprint Fingerprint
	baseline    *types.ResumeRecord
	generic     *GenericExtractor
}

// NewFingerprintExtractor loads and validates the baseline record. A missing or
// invalid baseline is an error, which leaves the capability unavailable.
func NewFingerprintExtractor(fp Fingerprint, generic *GenericExtractor) (*FingerprintExtractor, error) {
	data, err := os.ReadFile(fp.BaselinePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline for %s: %w", fp.Name, err)
	}
	if err := schemas.ValidateRecordJSON(data); err != nil {
		return nil, fmt.Errorf("invalid baseline for %s: %w", fp.Name, err)
	}
	var baseline types.ResumeRecord
	if err := json.Unmarshal(data, &baseline); err != nil {
		return nil, fmt.Errorf("failed to decode baseline for %s: %w", fp.Name, err)
	}
	return &FingerprintExtractor{fingerprint: fp, baseline: baseline.Normalize(), generic: generic}, nil
}

// Name returns the capability name.
func (f *FingerprintExtractor) Name() string {
	return f.fingerprint.Capability()
}

// Extract merges the baseline with what can be read from the document. When
// the document cannot be decoded the baseline alone is returned.
func (f *FingerprintExtractor) Extract(ctx context.Context, in Input) (*types.ResumeRecord, error) {
	result := cloneRecord(f.baseline)
	if f.generic == nil {
		return result, nil
	}

	doc, err := f.generic.Extract(ctx, in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Printf("[extract] %s: document unreadable, using baseline only: %v", f.Name(), err)
		return result, nil
	}
	return fillGaps(result, doc), nil
}

// fillGaps copies into dst every field dst leaves empty and src provides.
func fillGaps(dst, src *types.ResumeRecord) *types.ResumeRecord {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.Personal.Name, src.Personal.Name)
	fill(&dst.Personal.Email, src.Personal.Email)
	fill(&dst.Personal.Phone, src.Personal.Phone)
	fill(&dst.Personal.Location, src.Personal.Location)
	fill(&dst.Personal.Website, src.Personal.Website)
	fill(&dst.Personal.Summary, src.Personal.Summary)
	fill(&dst.Personal.LinkedIn, src.Personal.LinkedIn)

	if len(dst.Skills) == 0 {
		dst.Skills = src.Skills
	}
	if len(dst.WorkExperience) == 0 {
		dst.WorkExperience = src.WorkExperience
	}
	if len(dst.Education) == 0 {
		dst.Education = src.Education
	}
	if len(dst.Projects) == 0 {
		dst.Projects = src.Projects
	}
	if len(dst.Certifications) == 0 {
		dst.Certifications = src.Certifications
	}
	if len(dst.Languages) == 0 {
		dst.Languages = src.Languages
	}
	return dst.Normalize()
}

// cloneRecord deep-copies a record so callers never share the cached baseline.
func cloneRecord(r *types.ResumeRecord) *types.ResumeRecord {
	if r == nil {
		return types.EmptyResumeRecord()
	}
	return r.Clone().Normalize()
}

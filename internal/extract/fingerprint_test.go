package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/resume-importer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baselineJSON = `{
  "personal": {"name": "Jane Doe", "email": "jane@verified.example", "phone": "", "location": "Austin, TX"},
  "skills": ["Go", "Kubernetes"],
  "workExperience": [{"company": "Acme", "position": "Staff Engineer", "startDate": "2020-01", "current": true}],
  "education": []
}`

func writeBaseline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baseline.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestFingerprint_Matches(t *testing.T) {
	fp := Fingerprint{Name: "jane", FilenamePattern: "Jane_Doe Resume"}

	tests := []struct {
		filename string
		want     bool
	}{
		{"Jane_Doe_Resume.pdf", true},
		{"jane-doe-resume (2).docx", true},
		{"JANEDOERESUME.doc", true},
		{"john_doe_resume.pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, fp.Matches(tt.filename))
		})
	}

	assert.False(t, Fingerprint{FilenamePattern: "--"}.Matches("anything"), "pattern without letters never matches")
}

func TestMatchFingerprint_FirstWins(t *testing.T) {
	fps := []Fingerprint{
		{Name: "first", FilenamePattern: "doe"},
		{Name: "second", FilenamePattern: "jane doe"},
	}
	fp, ok := MatchFingerprint(fps, "Jane Doe.pdf")
	require.True(t, ok)
	assert.Equal(t, "first", fp.Name)
	assert.Equal(t, "fingerprint:first", fp.Capability())

	_, ok = MatchFingerprint(fps, "resume.pdf")
	assert.False(t, ok)
}

func TestNewFingerprintExtractor_BaselineErrors(t *testing.T) {
	_, err := NewFingerprintExtractor(Fingerprint{Name: "missing", BaselinePath: filepath.Join(t.TempDir(), "nope.json")}, nil)
	assert.Error(t, err)

	_, err = NewFingerprintExtractor(Fingerprint{Name: "invalid", BaselinePath: writeBaseline(t, `{"personal": "not an object"}`)}, nil)
	assert.Error(t, err)
}

func TestFingerprintExtractor_BaselineWinsAndDocumentFillsGaps(t *testing.T) {
	generic := &GenericExtractor{Decoder: stubDecoder{text: "John Smith\njohn@doc.example\n(555) 010-0100\n\nEducation\nState University, B.S. in Physics, 2012"}}
	fx, err := NewFingerprintExtractor(Fingerprint{Name: "jane", FilenamePattern: "jane", BaselinePath: writeBaseline(t, baselineJSON)}, generic)
	require.NoError(t, err)
	assert.Equal(t, "fingerprint:jane", fx.Name())

	record, err := fx.Extract(context.Background(), Input{Data: pdfMagic, Filename: "jane.pdf"})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", record.Personal.Name)
	assert.Equal(t, "jane@verified.example", record.Personal.Email)
	assert.Equal(t, "(555) 010-0100", record.Personal.Phone)
	assert.Equal(t, []string{"Go", "Kubernetes"}, record.Skills)
	require.Len(t, record.Education, 1)
	assert.Equal(t, "State University", record.Education[0].Institution)
}

func TestFingerprintExtractor_UndecodableDocumentReturnsBaseline(t *testing.T) {
	fx, err := NewFingerprintExtractor(Fingerprint{Name: "jane", BaselinePath: writeBaseline(t, baselineJSON)}, NewGenericExtractor(nil, false))
	require.NoError(t, err)

	record, err := fx.Extract(context.Background(), Input{Data: []byte("garbage"), MimeType: "image/png"})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", record.Personal.Name)
	assert.Equal(t, []types.Education{}, record.Education)
}

func TestFingerprintExtractor_ResultsDoNotShareBaseline(t *testing.T) {
	fx, err := NewFingerprintExtractor(Fingerprint{Name: "jane", BaselinePath: writeBaseline(t, baselineJSON)}, nil)
	require.NoError(t, err)

	first, err := fx.Extract(context.Background(), Input{})
	require.NoError(t, err)
	first.Skills[0] = "mutated"
	first.Personal.Name = "mutated"

	second, err := fx.Extract(context.Background(), Input{})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", second.Personal.Name)
	assert.Equal(t, "Go", second.Skills[0])
}

func TestFingerprintExtractor_CancelledContext(t *testing.T) {
	fx, err := NewFingerprintExtractor(Fingerprint{Name: "jane", BaselinePath: writeBaseline(t, baselineJSON)}, &GenericExtractor{Decoder: stubDecoder{text: "x"}})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = fx.Extract(ctx, Input{Data: pdfMagic})
	assert.ErrorIs(t, err, context.Canceled)
}

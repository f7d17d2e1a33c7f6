package boundary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/resume-importer/internal/dispatch"
	"github.com/jonathan/resume-importer/internal/extract"
	"github.com/jonathan/resume-importer/internal/gate"
	"github.com/jonathan/resume-importer/internal/schemas"
	"github.com/jonathan/resume-importer/internal/testutil"
	"github.com/jonathan/resume-importer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< >>\nendobj\n")

const janeBaseline = `{
  "personal": {"name": "Jane Doe", "email": "jane@example.com", "phone": "", "location": ""},
  "skills": ["Go"],
  "workExperience": [],
  "education": []
}`

// textDecoder returns fixed text regardless of the container.
type textDecoder string

func (d textDecoder) DecodeText(extract.Container, []byte) (string, error) {
	return string(d), nil
}

// newTestAdapter wires the real extractors the way the server does, with the
// generic decoder replaced so document content is controlled by the test.
func newTestAdapter(t *testing.T, decoded string) *Adapter {
	t.Helper()
	return newAdapterWithGeneric(t, &extract.GenericExtractor{Decoder: textDecoder(decoded)})
}

func newAdapterWithGeneric(t *testing.T, generic *extract.GenericExtractor) *Adapter {
	t.Helper()

	baseline := filepath.Join(t.TempDir(), "jane.json")
	require.NoError(t, os.WriteFile(baseline, []byte(janeBaseline), 0o600))
	fp := extract.Fingerprint{Name: "jane", FilenamePattern: "jane_doe_resume", BaselinePath: baseline}

	registry := extract.NewRegistry()
	registry.Register(extract.CapabilityGeneric, func() (extract.Extractor, error) { return generic, nil })
	registry.Register(fp.Capability(), func() (extract.Extractor, error) { return extract.NewFingerprintExtractor(fp, generic) })
	registry.Register(extract.CapabilityProfile, func() (extract.Extractor, error) {
		return extract.NewProfileExtractor(extract.SlugProvider{}), nil
	})

	return NewAdapter(dispatch.New(registry, []extract.Fingerprint{fp}, dispatch.Options{}), false)
}

func requireValidEnvelope(t *testing.T, env Envelope) {
	t.Helper()
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, schemas.ValidateEnvelopeJSON(data), string(data))
}

func TestScenarioA_FingerprintedUpload(t *testing.T) {
	a := newTestAdapter(t, "")

	out := a.UploadOutcome(context.Background(), &types.UploadRequest{Data: pdfBytes, MimeType: "application/pdf", Filename: "Jane_Doe_Resume.pdf"})

	requireValidEnvelope(t, out.Envelope)
	assert.True(t, out.Envelope.Success)
	assert.Equal(t, "Jane Doe", out.Envelope.Data.Personal.Name)
	assert.Empty(t, out.Envelope.Message)
	assert.Equal(t, dispatch.KindSpecialized, out.Route.Kind)
	assert.Equal(t, gate.Usable, out.Classification)
}

func TestScenarioB_NoExtractableText(t *testing.T) {
	a := newTestAdapter(t, "")

	env := a.Upload(context.Background(), &types.UploadRequest{Data: pdfBytes, MimeType: "application/pdf", Filename: "scan.pdf"})

	requireValidEnvelope(t, env)
	assert.True(t, env.Success)
	assert.True(t, env.Data.IsEmpty())
	assert.Equal(t, gate.ManualEntryAdvisory, env.Message)
	assert.Empty(t, env.Error)
}

func TestScenarioB_BlankPDFDocument(t *testing.T) {
	a := newAdapterWithGeneric(t, extract.NewGenericExtractor(nil, false))

	out := a.UploadOutcome(context.Background(), &types.UploadRequest{Data: testutil.PDF(), MimeType: types.MimePDF, Filename: "scan.pdf"})

	requireValidEnvelope(t, out.Envelope)
	assert.True(t, out.Envelope.Success)
	assert.True(t, out.Envelope.Data.IsEmpty())
	assert.Equal(t, gate.ManualEntryAdvisory, out.Envelope.Message)
	assert.Equal(t, dispatch.KindGeneric, out.Route.Kind)
}

func TestUpload_RealPDFDocument(t *testing.T) {
	a := newAdapterWithGeneric(t, extract.NewGenericExtractor(nil, false))
	data := testutil.PDF("Mary Major", "mary@example.com", "Skills", "Go, SQL")

	env := a.Upload(context.Background(), &types.UploadRequest{Data: data, MimeType: types.MimePDF, Filename: "cv.pdf"})

	requireValidEnvelope(t, env)
	assert.True(t, env.Success)
	assert.Empty(t, env.Message)
	assert.Equal(t, "Mary Major", env.Data.Personal.Name)
	assert.Equal(t, []string{"Go", "SQL"}, env.Data.Skills)
}

func TestScenarioC_UnsupportedType(t *testing.T) {
	a := newTestAdapter(t, "Jane Doe")

	env := a.Upload(context.Background(), &types.UploadRequest{Data: []byte("\x89PNG\r\n\x1a\n"), MimeType: "image/png", Filename: "Jane_Doe_Resume.png"})

	requireValidEnvelope(t, env)
	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "image/png")
	assert.Equal(t, types.EmptyResumeRecord(), env.Data)
}

func TestScenarioD_NoFile(t *testing.T) {
	a := newTestAdapter(t, "Jane Doe")

	for _, req := range []*types.UploadRequest{nil, {MimeType: "application/pdf", Filename: "empty.pdf"}} {
		env := a.Upload(context.Background(), req)
		requireValidEnvelope(t, env)
		assert.False(t, env.Success)
		assert.Equal(t, MsgNoFile, env.Error)
		assert.Equal(t, types.EmptyResumeRecord(), env.Data)
	}
}

func TestScenarioE_InvalidProfileURL(t *testing.T) {
	a := newTestAdapter(t, "")

	env, status := a.LookupProfile(context.Background(), types.ProfileLookupRequest{URL: "https://example.com/not-a-profile"})

	requireValidEnvelope(t, env)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)
	assert.Equal(t, MsgInvalidProfileURL, env.Error)
}

func TestScenarioF_ProfileURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://www.linkedin.com/in/jane-doe-4b2a1c9", want: "Jane Doe"},
		{url: "https://www.LinkedIn.com/in/jane-doe", want: "Jane Doe"},
		{url: "https://linkedin.com/in/jsmith1", want: "Jsmith1"},
		{url: "https://linkedin.com/in/johndoe123/", want: "Johndoe123"},
	}
	a := newTestAdapter(t, "")
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			env, status := a.LookupProfile(context.Background(), types.ProfileLookupRequest{URL: tt.url})

			requireValidEnvelope(t, env)
			assert.Equal(t, http.StatusOK, status)
			assert.True(t, env.Success)
			assert.Equal(t, tt.want, env.Data.Personal.Name)
			assert.Empty(t, env.Message)
		})
	}
}

func TestLookupProfile_MissingURL(t *testing.T) {
	a := newTestAdapter(t, "")

	for _, url := range []string{"", "   "} {
		env, status := a.LookupProfile(context.Background(), types.ProfileLookupRequest{URL: url})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, MsgNoProfileURL, env.Error)
		assert.NotNil(t, env.Data)
	}
}

func TestUpload_UsableRecordHasNoMessage(t *testing.T) {
	a := newTestAdapter(t, "Jane Doe\njane@example.com\n\nSkills\nGo, SQL")

	env := a.Upload(context.Background(), &types.UploadRequest{Data: pdfBytes, MimeType: "application/pdf", Filename: "cv.pdf"})

	requireValidEnvelope(t, env)
	assert.True(t, env.Success)
	assert.Empty(t, env.Message)
	assert.Equal(t, []string{"Go", "SQL"}, env.Data.Skills)
}

func TestUpload_Idempotent(t *testing.T) {
	a := newTestAdapter(t, "Jane Doe\nStaff Engineer\nAcme Corp | Jan 2020 - Present\n- Shipped things")
	req := &types.UploadRequest{Data: pdfBytes, MimeType: "application/pdf", Filename: "cv.pdf"}

	first := a.Upload(context.Background(), req)
	second := a.Upload(context.Background(), req)
	assert.Equal(t, first, second)
}

// stubDispatcher returns a fixed result, error or panic.
type stubDispatcher struct {
	result *dispatch.Result
	err    error
	panic  bool
}

func (s stubDispatcher) Dispatch(context.Context, extract.Input) (*dispatch.Result, error) {
	if s.panic {
		panic("unexpected nil map")
	}
	return s.result, s.err
}

func TestUpload_FailureMessages(t *testing.T) {
	tests := []struct {
		name string
		d    stubDispatcher
		want string
	}{
		{name: "timeout", d: stubDispatcher{err: &dispatch.DispatchError{Reason: dispatch.ReasonTimeout, Cause: context.DeadlineExceeded}}, want: MsgTimedOut},
		{name: "decode failure", d: stubDispatcher{err: &extract.ExtractionError{Reason: extract.ReasonDecodeFailure, Message: "corrupt"}}, want: MsgUnreadable},
		{name: "unknown error", d: stubDispatcher{err: errors.New("boom")}, want: MsgParseFailed},
		{name: "unsupported empty type", d: stubDispatcher{err: &dispatch.DispatchError{Reason: dispatch.ReasonUnsupportedType}}, want: "Unsupported file type: unknown. Please upload a PDF or Word document."},
		{name: "nil result", d: stubDispatcher{}, want: MsgParseFailed},
		{name: "panic", d: stubDispatcher{panic: true}, want: MsgParseFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := NewAdapter(tt.d, false).UploadOutcome(context.Background(), &types.UploadRequest{Data: pdfBytes, MimeType: types.MimePDF})
			requireValidEnvelope(t, out.Envelope)
			assert.False(t, out.Envelope.Success)
			assert.Equal(t, tt.want, out.Envelope.Error)
			assert.Equal(t, http.StatusOK, out.Status)
			assert.Error(t, out.Err)
		})
	}
}

func TestUpload_LeavesDispatcherRecordUntouched(t *testing.T) {
	record := &types.ResumeRecord{Personal: types.PersonalInfo{Name: "Jane Doe"}}
	d := stubDispatcher{result: &dispatch.Result{Record: record}}

	env := NewAdapter(d, false).Upload(context.Background(), &types.UploadRequest{Data: pdfBytes, MimeType: types.MimePDF})

	requireValidEnvelope(t, env)
	assert.NotNil(t, env.Data.Skills)
	assert.Nil(t, record.Skills)
	assert.Nil(t, record.WorkExperience)
	assert.NotSame(t, record, env.Data)
}

func TestLookupProfile_FailureStatuses(t *testing.T) {
	tests := []struct {
		name   string
		d      stubDispatcher
		status int
		want   string
	}{
		{name: "timeout", d: stubDispatcher{err: &dispatch.DispatchError{Reason: dispatch.ReasonTimeout}}, status: http.StatusGatewayTimeout, want: MsgProfileTimedOut},
		{name: "provider failure", d: stubDispatcher{err: &extract.ExtractionError{Reason: extract.ReasonProviderFailure}}, status: http.StatusInternalServerError, want: MsgProfileFailed},
		{name: "invalid reference", d: stubDispatcher{err: &extract.ExtractionError{Reason: extract.ReasonInvalidReference}}, status: http.StatusBadRequest, want: MsgInvalidProfileURL},
		{name: "panic", d: stubDispatcher{panic: true}, status: http.StatusInternalServerError, want: MsgProfileFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, status := NewAdapter(tt.d, false).LookupProfile(context.Background(), types.ProfileLookupRequest{URL: "https://linkedin.com/in/jane"})
			requireValidEnvelope(t, env)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.want, env.Error)
		})
	}
}

func TestLookupProfile_DispatchTimeout(t *testing.T) {
	slow := extract.NewProfileExtractor(blockingProvider{})
	registry := extract.NewRegistry()
	registry.Register(extract.CapabilityProfile, func() (extract.Extractor, error) { return slow, nil })
	a := NewAdapter(dispatch.New(registry, nil, dispatch.Options{Timeout: 10 * time.Millisecond}), false)

	env, status := a.LookupProfile(context.Background(), types.ProfileLookupRequest{URL: "https://linkedin.com/in/jane"})
	assert.Equal(t, http.StatusGatewayTimeout, status)
	assert.False(t, env.Success)
}

type blockingProvider struct{}

func (blockingProvider) ResolveProfile(ctx context.Context, _ string) (*extract.ProviderRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestTooLarge(t *testing.T) {
	tests := []struct {
		max  int64
		want string
	}{
		{max: 10 << 20, want: "File too large. Maximum size is 10 MB."},
		{max: 3 << 19, want: "File too large. Maximum size is 1.5 MB."},
		{max: 512 << 10, want: "File too large. Maximum size is 512 KB."},
		{max: 100, want: "File too large. Maximum size is 100 bytes."},
	}
	for _, tt := range tests {
		out := TooLarge(tt.max)
		requireValidEnvelope(t, out.Envelope)
		assert.Equal(t, http.StatusOK, out.Status)
		assert.False(t, out.Envelope.Success)
		assert.Equal(t, tt.want, out.Envelope.Error)
		assert.ErrorIs(t, out.Err, ErrTooLarge)
	}
}

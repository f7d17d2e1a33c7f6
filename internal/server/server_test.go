package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-importer/internal/boundary"
	"github.com/jonathan/resume-importer/internal/config"
	"github.com/jonathan/resume-importer/internal/db"
	"github.com/jonathan/resume-importer/internal/extract"
	"github.com/jonathan/resume-importer/internal/gate"
	"github.com/jonathan/resume-importer/internal/pipeline"
	"github.com/jonathan/resume-importer/internal/schemas"
)

type textDecoder string

func (d textDecoder) DecodeText(extract.Container, []byte) (string, error) {
	return string(d), nil
}

const resumeText = "Jane Doe\njane@example.com\n\nSkills\nGo, SQL, Kubernetes\n"

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

type serverOptions struct {
	store   bool
	decoded string
	maxSize int64
}

func newTestServer(t *testing.T, opts serverOptions) (*Server, *pipeline.Pipeline) {
	t.Helper()
	if _, ok := os.LookupEnv("RATE_LIMIT_ENABLED"); !ok {
		t.Setenv("RATE_LIMIT_ENABLED", "false")
	}

	cfg := config.Default()
	if opts.maxSize > 0 {
		cfg.MaxUploadBytes = opts.maxSize
	}

	pOpts := pipeline.Options{Decoder: textDecoder(opts.decoded), SkipStore: !opts.store}
	if opts.store {
		store, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "imports.db"))
		require.NoError(t, err)
		t.Cleanup(store.Close)
		pOpts.Store = store
	}

	p, err := pipeline.New(context.Background(), &cfg, pOpts)
	require.NoError(t, err)
	t.Cleanup(p.Close)

	s, err := New(&cfg, p)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s, p
}

func uploadRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/parse-resume", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func profileRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/linkedin", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) boundary.Envelope {
	t.Helper()
	require.NoError(t, schemas.ValidateEnvelopeJSON(w.Body.Bytes()), w.Body.String())
	var env boundary.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})
	w := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestNew_RequiresPipeline(t *testing.T) {
	cfg := config.Default()
	_, err := New(&cfg, nil)
	assert.Error(t, err)
}

func TestParseResume(t *testing.T) {
	tests := []struct {
		name        string
		decoded     string
		req         func(t *testing.T) *http.Request
		wantSuccess bool
		wantError   string
		wantMessage string
	}{
		{
			name:    "usable pdf",
			decoded: resumeText,
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "jane.pdf", "application/pdf", pdfBytes)
			},
			wantSuccess: true,
		},
		{
			name:    "sparse pdf",
			decoded: "",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "blank.pdf", "application/pdf", pdfBytes)
			},
			wantSuccess: true,
			wantMessage: gate.ManualEntryAdvisory,
		},
		{
			name:    "unsupported type",
			decoded: resumeText,
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "file", "notes.txt", "text/plain", []byte("hello"))
			},
			wantError: "Unsupported file type: text/plain. Please upload a PDF or Word document.",
		},
		{
			name:      "missing file field",
			req:       func(t *testing.T) *http.Request { return uploadRequest(t, "", "", "", nil) },
			wantError: boundary.MsgNoFile,
		},
		{
			name: "wrong field name",
			req: func(t *testing.T) *http.Request {
				return uploadRequest(t, "resume", "jane.pdf", "application/pdf", pdfBytes)
			},
			wantError: boundary.MsgNoFile,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				return httptest.NewRequest(http.MethodPost, "/api/parse-resume", strings.NewReader("{}"))
			},
			wantError: boundary.MsgNoFile,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, serverOptions{decoded: tt.decoded})
			w := serve(s, tt.req(t))

			assert.Equal(t, http.StatusOK, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.wantSuccess, env.Success)
			assert.Equal(t, tt.wantError, env.Error)
			assert.Equal(t, tt.wantMessage, env.Message)
			require.NotNil(t, env.Data)
		})
	}
}

func TestParseResume_TooLarge(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{decoded: resumeText, maxSize: 1024})

	w := serve(s, uploadRequest(t, "file", "big.pdf", "application/pdf", append(pdfBytes, bytes.Repeat([]byte("x"), 2048)...)))
	assert.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, "File too large. Maximum size is 1 KB.", env.Error)

	w = serve(s, uploadRequest(t, "file", "huge.pdf", "application/pdf", bytes.Repeat([]byte("x"), 3<<20)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decodeEnvelope(t, w).Success)
}

func TestLinkedIn(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantName   string
	}{
		{name: "valid profile", body: `{"url":"https://www.linkedin.com/in/jane-doe-4b2a1c9"}`, wantStatus: http.StatusOK, wantName: "Jane Doe"},
		{name: "missing url", body: `{}`, wantStatus: http.StatusBadRequest, wantError: boundary.MsgNoProfileURL},
		{name: "blank url", body: `{"url":"   "}`, wantStatus: http.StatusBadRequest, wantError: boundary.MsgNoProfileURL},
		{name: "invalid url", body: `{"url":"https://example.com/jane"}`, wantStatus: http.StatusBadRequest, wantError: boundary.MsgInvalidProfileURL},
		{name: "malformed body", body: `{"url":`, wantStatus: http.StatusBadRequest, wantError: boundary.MsgNoProfileURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t, serverOptions{})
			w := serve(s, profileRequest(tt.body))

			assert.Equal(t, tt.wantStatus, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.wantError, env.Error)
			assert.Equal(t, tt.wantError == "", env.Success)
			require.NotNil(t, env.Data)
			assert.Equal(t, tt.wantName, env.Data.Personal.Name)
		})
	}
}

func TestImports_Persisted(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{store: true, decoded: resumeText})

	w := serve(s, uploadRequest(t, "file", "jane.pdf", "application/pdf", pdfBytes))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(importIDHeader)
	require.NotEmpty(t, id)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/imports/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var imp db.Import
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &imp))
	assert.Equal(t, "jane.pdf", imp.Reference)
	assert.Equal(t, db.SourceUpload, imp.Source)
	assert.Equal(t, string(gate.Usable), imp.Classification)
	assert.Equal(t, "jane@example.com", imp.Record.Personal.Email)

	w = serve(s, profileRequest(`{"url":"https://example.com/nope"}`))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/imports?limit=10", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Imports []db.Import `json:"imports"`
		Count   int         `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
}

func TestGetImport_Errors(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{store: true})

	w := serve(s, httptest.NewRequest(http.MethodGet, "/api/imports/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/imports/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/api/imports?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	noStore, _ := newTestServer(t, serverOptions{})
	w = serve(noStore, httptest.NewRequest(http.MethodGet, "/api/imports/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), ErrStoreDisabled.Error())
}

func TestCORS_Preflight(t *testing.T) {
	s, _ := newTestServer(t, serverOptions{})
	w := serve(s, httptest.NewRequest(http.MethodOptions, "/api/parse-resume", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	s, _ := newTestServer(t, serverOptions{decoded: resumeText})

	// The upload endpoint allows a burst of 5.
	for i := 0; i < 5; i++ {
		w := serve(s, uploadRequest(t, "file", "jane.pdf", "application/pdf", pdfBytes))
		require.Equal(t, http.StatusOK, w.Code, "request %d", i+1)
		assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))
	}

	w := serve(s, uploadRequest(t, "file", "jane.pdf", "application/pdf", pdfBytes))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")

	w = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth(t *testing.T) {
	t.Setenv("JWT_SECRET", testSecret)
	s, _ := newTestServer(t, serverOptions{store: true, decoded: resumeText})
	require.NotNil(t, s.jwtService)

	w := serve(s, uploadRequest(t, "file", "jane.pdf", "application/pdf", pdfBytes))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	owner := uuid.New()
	token, err := s.jwtService.GenerateToken(owner)
	require.NoError(t, err)

	req := uploadRequest(t, "file", "jane.pdf", "application/pdf", pdfBytes)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(s, req)
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get(importIDHeader)
	require.NotEmpty(t, id)

	get := func(token string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/imports/"+id, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return serve(s, req).Code
	}
	assert.Equal(t, http.StatusOK, get(token))

	otherToken, err := s.jwtService.GenerateToken(uuid.New())
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, get(otherToken))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: &ErrValidation{Field: "id", Message: "bad"}, want: http.StatusBadRequest},
		{name: "not found", err: db.ErrNotFound, want: http.StatusNotFound},
		{name: "store disabled", err: ErrStoreDisabled, want: http.StatusNotFound},
		{name: "other", err: assert.AnError, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/resume-importer/internal/boundary"
	"github.com/jonathan/resume-importer/internal/db"
	"github.com/jonathan/resume-importer/internal/server/middleware"
	"github.com/jonathan/resume-importer/internal/types"
)

const (
	// multipartOverhead is allowed on top of the file cap for form boundaries and headers
	multipartOverhead = 1 << 20
	// maxProfileBody caps the JSON body of a profile lookup
	maxProfileBody = 64 << 10
)

// importIDHeader carries the stored import ID when persistence is enabled.
const importIDHeader = "X-Import-ID"

// handleParseResume accepts a multipart upload in the "file" field. Every
// outcome, including oversize and missing files, is an envelope with status 200.
func (s *Server) handleParseResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes+multipartOverhead)

	req, err := s.readUpload(r)
	if errors.Is(err, boundary.ErrTooLarge) {
		out := boundary.TooLarge(s.maxUploadBytes)
		s.jsonResponse(w, out.Status, out.Envelope)
		return
	}
	if err != nil && s.verbose {
		log.Printf("[VERBOSE] [server] no usable upload: %v", err)
	}

	out, id := s.pipeline.ImportDocument(r.Context(), req, middleware.UserIDPtr(r.Context()))
	if id != nil {
		w.Header().Set(importIDHeader, id.String())
	}
	s.jsonResponse(w, out.Status, out.Envelope)
}

// readUpload returns the uploaded file, or nil when the form carries none.
func (s *Server) readUpload(r *http.Request) (*types.UploadRequest, error) {
	if err := r.ParseMultipartForm(s.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, boundary.ErrTooLarge
		}
		return nil, err
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := readAtMost(file, s.maxUploadBytes)
	if err != nil {
		return nil, err
	}
	return &types.UploadRequest{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
		Filename: header.Filename,
	}, nil
}

func readAtMost(f multipart.File, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, max+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if int64(len(data)) > max {
		return nil, boundary.ErrTooLarge
	}
	return data, nil
}

// handleLinkedIn looks up a profile from a JSON body {"url": "..."}. A body
// that cannot be decoded is treated as a missing URL.
func (s *Server) handleLinkedIn(w http.ResponseWriter, r *http.Request) {
	var req types.ProfileLookupRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxProfileBody)).Decode(&req); err != nil && s.verbose {
		log.Printf("[VERBOSE] [server] invalid profile request body: %v", err)
	}

	out, id := s.pipeline.ImportProfile(r.Context(), req.URL, middleware.UserIDPtr(r.Context()))
	if id != nil {
		w.Header().Set(importIDHeader, id.String())
	}
	s.jsonResponse(w, out.Status, out.Envelope)
}

// handleGetImport returns a stored import. With auth enabled, imports owned by
// other users are reported as not found.
func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	if s.pipeline.Store == nil {
		s.errorResponse(w, HTTPStatus(ErrStoreDisabled), ErrStoreDisabled.Error())
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		verr := &ErrValidation{Field: "id", Message: "must be a UUID"}
		s.errorResponse(w, HTTPStatus(verr), "Invalid import ID")
		return
	}

	imp, err := s.pipeline.Store.GetImport(r.Context(), id)
	if err == nil && !s.canView(r, imp) {
		err = db.ErrNotFound
	}
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			log.Printf("[server] failed to load import %s: %v", id, err)
			s.errorResponse(w, status, "Failed to load import")
			return
		}
		s.errorResponse(w, status, "Import not found")
		return
	}
	s.jsonResponse(w, http.StatusOK, imp)
}

// handleListImports lists recent imports, scoped to the caller when auth is enabled.
func (s *Server) handleListImports(w http.ResponseWriter, r *http.Request) {
	if s.pipeline.Store == nil {
		s.errorResponse(w, HTTPStatus(ErrStoreDisabled), ErrStoreDisabled.Error())
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	imports, err := s.pipeline.Store.ListImports(r.Context(), middleware.UserIDPtr(r.Context()), limit)
	if err != nil {
		log.Printf("[server] failed to list imports: %v", err)
		s.errorResponse(w, HTTPStatus(err), "Failed to list imports")
		return
	}
	if imports == nil {
		imports = []db.Import{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"imports": imports, "count": len(imports)})
}

func (s *Server) canView(r *http.Request, imp *db.Import) bool {
	if s.jwtService == nil {
		return true
	}
	userID, ok := middleware.UserID(r.Context())
	return ok && imp.UserID != nil && *imp.UserID == userID
}

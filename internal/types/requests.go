package types

import (
	"github.com/go-playground/validator/v10"
)

// Accepted declared MIME types for document uploads.
const (
	MimePDF        = "application/pdf"
	MimeDOCX       = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeLegacyWord = "application/msword"
)

// UploadRequest represents a document upload.
type UploadRequest struct {
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename"`
}

// Empty reports whether no file content was supplied.
func (r *UploadRequest) Empty() bool {
	return r == nil || len(r.Data) == 0
}

// ProfileLookupRequest represents an external profile import request.
type ProfileLookupRequest struct {
	URL string `json:"url" validate:"required"`
}

// Validate validates the ProfileLookupRequest using the validator.
func (r *ProfileLookupRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

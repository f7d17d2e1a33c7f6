// Package extract converts raw resume inputs (uploaded documents and external
// profile references) into ResumeRecords.
package extract

import (
	"context"
	"fmt"

	"github.com/jonathan/resume-importer/internal/types"
)

// Capability names used in the registry.
const (
	CapabilityGeneric = "generic"
	CapabilityProfile = "profile"
)

// Input is the raw material handed to an extractor. Documents carry Data and
// MimeType; profile references carry URL.
type Input struct {
	Data     []byte
	MimeType string
	Filename string
	URL      string
}

// Extractor turns an Input into a ResumeRecord. Implementations fail only when
// the input cannot be decoded at all; sparse content yields a sparse record.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, in Input) (*types.ResumeRecord, error)
}

// Reason classifies an extraction failure.
type Reason string

const (
	// ReasonInvalidReference means a reference does not have the expected shape
	ReasonInvalidReference Reason = "invalid_reference"
	// ReasonDecodeFailure means the document container or its text could not be read
	ReasonDecodeFailure Reason = "decode_failure"
	// ReasonProviderFailure means an external profile provider failed
	ReasonProviderFailure Reason = "provider_failure"
)

// ExtractionError represents a failed extraction.
type ExtractionError struct {
	Reason  Reason
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction failed (%s): %s: %v", e.Reason, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction failed (%s): %s", e.Reason, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func decodeFailure(message string, cause error) *ExtractionError {
	return &ExtractionError{Reason: ReasonDecodeFailure, Message: message, Cause: cause}
}

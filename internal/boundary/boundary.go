// Package boundary converts dispatch results and failures into the uniform
// response envelope returned to callers. Nothing below it reaches a caller raw.
package boundary

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/jonathan/resume-importer/internal/dispatch"
	"github.com/jonathan/resume-importer/internal/extract"
	"github.com/jonathan/resume-importer/internal/gate"
	"github.com/jonathan/resume-importer/internal/types"
)

// Failure messages shown to callers.
const (
	MsgNoFile            = "No file provided"
	MsgParseFailed       = "Failed to parse resume"
	MsgTimedOut          = "Resume processing timed out"
	MsgUnreadable        = "Could not read the uploaded document. The file may be corrupt or password protected."
	MsgNoProfileURL      = "No LinkedIn URL provided"
	MsgInvalidProfileURL = "Invalid LinkedIn URL"
	MsgProfileFailed     = "Failed to import LinkedIn profile"
	MsgProfileTimedOut   = "LinkedIn profile lookup timed out"
)

// ErrTooLarge is reported when an upload exceeds the configured size cap.
var ErrTooLarge = errors.New("upload exceeds size limit")

// Envelope is the response shape for both upload and profile lookup. Data is
// always present; failures carry an empty record.
type Envelope struct {
	Success bool                `json:"success"`
	Data    *types.ResumeRecord `json:"data"`
	Error   string              `json:"error,omitempty"`
	Message string              `json:"message,omitempty"`
}

// Outcome is an envelope plus what produced it, for callers that persist results.
type Outcome struct {
	Envelope       Envelope
	Status         int
	Classification gate.Classification
	Route          dispatch.Route
	Capability     string
	Fallback       bool
	Err            error
}

// Dispatcher is the part of dispatch.Dispatcher the adapter needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, in extract.Input) (*dispatch.Result, error)
}

// Adapter is the single entry point for upload and profile requests.
type Adapter struct {
	dispatcher Dispatcher
	verbose    bool
}

// NewAdapter creates an adapter over d.
func NewAdapter(d Dispatcher, verbose bool) *Adapter {
	return &Adapter{dispatcher: d, verbose: verbose}
}

// Upload turns a document upload into an envelope. Failures are soft: the
// envelope reports them and the transport status stays 200.
func (a *Adapter) Upload(ctx context.Context, req *types.UploadRequest) Envelope {
	return a.UploadOutcome(ctx, req).Envelope
}

// UploadOutcome is Upload with routing details.
func (a *Adapter) UploadOutcome(ctx context.Context, req *types.UploadRequest) (out Outcome) {
	defer a.recoverInto(&out, "upload", http.StatusOK, MsgParseFailed)

	if req.Empty() {
		return failure(http.StatusOK, MsgNoFile, nil)
	}

	result, err := a.dispatch(ctx, extract.Input{Data: req.Data, MimeType: req.MimeType, Filename: req.Filename})
	if err != nil {
		log.Printf("[boundary] upload %q (%s) failed: %v", req.Filename, req.MimeType, err)
		return failure(http.StatusOK, uploadFailureMessage(err), err)
	}
	return success(result)
}

// LookupProfile turns a profile URL into an envelope and a transport status.
// Malformed input is a client error; provider failures are server errors.
func (a *Adapter) LookupProfile(ctx context.Context, req types.ProfileLookupRequest) (Envelope, int) {
	out := a.LookupProfileOutcome(ctx, req)
	return out.Envelope, out.Status
}

// LookupProfileOutcome is LookupProfile with routing details.
func (a *Adapter) LookupProfileOutcome(ctx context.Context, req types.ProfileLookupRequest) (out Outcome) {
	defer a.recoverInto(&out, "profile", http.StatusInternalServerError, MsgProfileFailed)

	req.URL = strings.TrimSpace(req.URL)
	if err := req.Validate(); err != nil {
		return failure(http.StatusBadRequest, MsgNoProfileURL, err)
	}
	if !extract.IsProfileURL(req.URL) {
		return failure(http.StatusBadRequest, MsgInvalidProfileURL, &dispatch.DispatchError{Reason: dispatch.ReasonUnrecognizedReference, Detail: req.URL})
	}

	result, err := a.dispatch(ctx, extract.Input{URL: req.URL})
	if err != nil {
		status, msg := profileFailure(err)
		log.Printf("[boundary] profile %s failed (%d): %v", req.URL, status, err)
		return failure(status, msg, err)
	}
	return success(result)
}

func (a *Adapter) dispatch(ctx context.Context, in extract.Input) (*dispatch.Result, error) {
	if a.dispatcher == nil {
		return nil, errors.New("no dispatcher configured")
	}
	result, err := a.dispatcher.Dispatch(ctx, in)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("dispatcher returned no result")
	}
	if a.verbose {
		log.Printf("[VERBOSE] [boundary] %s route %s via %s", result.Route.Kind, result.Route.Capability, result.Capability)
	}
	return result, nil
}

func (a *Adapter) recoverInto(out *Outcome, path string, status int, msg string) {
	if r := recover(); r != nil {
		err := fmt.Errorf("%s panicked: %v", path, r)
		log.Printf("[boundary] %v", err)
		*out = failure(status, msg, err)
	}
}

func success(result *dispatch.Result) Outcome {
	record := types.EmptyResumeRecord()
	if result.Record != nil {
		record = result.Record.Clone().Normalize()
	}

	classification := gate.Classify(record)
	return Outcome{
		Envelope: Envelope{
			Success: true,
			Data:    record,
			Message: gate.AdvisoryMessage(classification),
		},
		Status:         http.StatusOK,
		Classification: classification,
		Route:          result.Route,
		Capability:     result.Capability,
		Fallback:       result.Fallback,
	}
}

// TooLarge is the soft-failure outcome for an upload rejected before dispatch
// because it is larger than maxBytes.
func TooLarge(maxBytes int64) Outcome {
	return failure(http.StatusOK, fmt.Sprintf("File too large. Maximum size is %s.", formatSize(maxBytes)), ErrTooLarge)
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%d MB", n>>20)
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%d KB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}

func failure(status int, msg string, err error) Outcome {
	return Outcome{
		Envelope: Envelope{Success: false, Data: types.EmptyResumeRecord(), Error: msg},
		Status:   status,
		Err:      err,
	}
}

func uploadFailureMessage(err error) string {
	var dispatchErr *dispatch.DispatchError
	if errors.As(err, &dispatchErr) {
		switch dispatchErr.Reason {
		case dispatch.ReasonUnsupportedType:
			declared := dispatchErr.Detail
			if declared == "" {
				declared = "unknown"
			}
			return fmt.Sprintf("Unsupported file type: %s. Please upload a PDF or Word document.", declared)
		case dispatch.ReasonTimeout:
			return MsgTimedOut
		}
	}

	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) && extractionErr.Reason == extract.ReasonDecodeFailure {
		return MsgUnreadable
	}
	return MsgParseFailed
}

func profileFailure(err error) (int, string) {
	var dispatchErr *dispatch.DispatchError
	if errors.As(err, &dispatchErr) {
		switch dispatchErr.Reason {
		case dispatch.ReasonUnrecognizedReference:
			return http.StatusBadRequest, MsgInvalidProfileURL
		case dispatch.ReasonTimeout:
			return http.StatusGatewayTimeout, MsgProfileTimedOut
		}
	}

	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) && extractionErr.Reason == extract.ReasonInvalidReference {
		return http.StatusBadRequest, MsgInvalidProfileURL
	}
	return http.StatusInternalServerError, MsgProfileFailed
}

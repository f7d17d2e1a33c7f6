package dispatch

import "fmt"

// Reason classifies a routing-stage failure.
type Reason string

const (
	// ReasonUnrecognizedReference means a URL was supplied that no extractor handles.
	ReasonUnrecognizedReference Reason = "unrecognized_reference"
	// ReasonUnsupportedType means the declared document type is not accepted.
	ReasonUnsupportedType Reason = "unsupported_type"
	// ReasonTimeout means the dispatch deadline passed or the caller gave up.
	ReasonTimeout Reason = "timeout"
)

// DispatchError is returned when input cannot be routed or did not finish in time.
type DispatchError struct {
	Reason Reason
	Detail string
	Cause  error
}

func (e *DispatchError) Error() string {
	msg := "dispatch failed (" + string(e.Reason) + ")"
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

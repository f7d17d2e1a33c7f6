// Package dispatch routes raw input to the extraction capability that handles it
// and falls back to the generic extractor when a specialized one cannot serve.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jonathan/resume-importer/internal/extract"
	"github.com/jonathan/resume-importer/internal/types"
)

// Kind names the extraction path chosen for an input.
type Kind string

const (
	KindProfile     Kind = "profile"
	KindSpecialized Kind = "specialized"
	KindGeneric     Kind = "generic"
)

// Route is the routing decision for an input.
type Route struct {
	Kind       Kind
	Capability string
	// Fallback is the capability tried when Capability is unavailable or fails.
	Fallback string
}

// Result is a successful dispatch.
type Result struct {
	Record     *types.ResumeRecord
	Route      Route
	Capability string
	Fallback   bool
}

// Options configures a Dispatcher.
type Options struct {
	// Timeout bounds each Dispatch call; zero means only the caller's context applies.
	Timeout time.Duration
	Verbose bool
}

// Dispatcher selects and runs extractors from a registry.
type Dispatcher struct {
	registry     *extract.Registry
	fingerprints []extract.Fingerprint
	opts         Options
}

// New creates a dispatcher over registry. Fingerprints are checked in order.
func New(registry *extract.Registry, fingerprints []extract.Fingerprint, opts Options) *Dispatcher {
	return &Dispatcher{registry: registry, fingerprints: fingerprints, opts: opts}
}

// Route decides which capability handles in without running anything.
func (d *Dispatcher) Route(in extract.Input) (Route, error) {
	if ref := strings.TrimSpace(in.URL); ref != "" {
		if extract.IsProfileURL(ref) {
			return Route{Kind: KindProfile, Capability: extract.CapabilityProfile}, nil
		}
		return Route{}, &DispatchError{Reason: ReasonUnrecognizedReference, Detail: ref}
	}

	switch extract.NormalizeMimeType(in.MimeType) {
	case types.MimePDF:
		if fp, ok := extract.MatchFingerprint(d.fingerprints, in.Filename); ok {
			return Route{Kind: KindSpecialized, Capability: fp.Capability(), Fallback: extract.CapabilityGeneric}, nil
		}
		return Route{Kind: KindGeneric, Capability: extract.CapabilityGeneric}, nil
	case types.MimeDOCX, types.MimeLegacyWord:
		return Route{Kind: KindGeneric, Capability: extract.CapabilityGeneric}, nil
	default:
		return Route{}, &DispatchError{Reason: ReasonUnsupportedType, Detail: strings.TrimSpace(in.MimeType)}
	}
}

// Dispatch routes in and runs the chosen extractor. Context expiry during
// extraction is reported as a Timeout DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, in extract.Input) (*Result, error) {
	route, err := d.Route(in)
	if err != nil {
		return nil, err
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := d.run(ctx, route, in)
	if err != nil {
		if isContextError(err) || ctx.Err() != nil {
			cause := err
			if ctx.Err() != nil {
				cause = ctx.Err()
			}
			return nil, &DispatchError{Reason: ReasonTimeout, Detail: route.Capability, Cause: cause}
		}
		return nil, err
	}

	if d.opts.Verbose {
		log.Printf("[VERBOSE] [dispatch] %s handled %q in %s (fallback=%t)", result.Capability, in.Filename, time.Since(start).Round(time.Millisecond), result.Fallback)
	}
	return result, nil
}

func (d *Dispatcher) run(ctx context.Context, route Route, in extract.Input) (*Result, error) {
	if route.Fallback != "" && d.registry != nil && !d.registry.Available(route.Capability) {
		log.Printf("[dispatch] %s unavailable, using %s", route.Capability, route.Fallback)
		return d.runFallback(ctx, route, in)
	}

	record, err := d.extractWith(ctx, route.Capability, in)
	if err == nil {
		return &Result{Record: record, Route: route, Capability: route.Capability}, nil
	}
	if route.Fallback == "" || isContextError(err) || ctx.Err() != nil {
		return nil, d.surface(route, err)
	}

	log.Printf("[dispatch] %s failed, falling back to %s: %v", route.Capability, route.Fallback, err)
	return d.runFallback(ctx, route, in)
}

func (d *Dispatcher) runFallback(ctx context.Context, route Route, in extract.Input) (*Result, error) {
	record, err := d.extractWith(ctx, route.Fallback, in)
	if err != nil {
		return nil, d.surface(route, err)
	}
	return &Result{Record: record, Route: route, Capability: route.Fallback, Fallback: true}, nil
}

// extractWith runs one capability. Panics inside an extractor become errors so
// a fallback can still be tried.
func (d *Dispatcher) extractWith(ctx context.Context, capability string, in extract.Input) (record *types.ResumeRecord, err error) {
	if d.registry == nil {
		return nil, fmt.Errorf("%w: no registry", extract.ErrUnavailable)
	}
	x, err := d.registry.Get(capability)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			record, err = nil, fmt.Errorf("%s panicked: %v", capability, r)
		}
	}()

	record, err = x.Extract(ctx, in)
	if err != nil {
		return nil, err
	}
	if record == nil {
		record = types.EmptyResumeRecord()
	}
	return record.Normalize(), nil
}

// surface passes extraction errors through and wraps anything else in the
// failure reason that matches the route.
func (d *Dispatcher) surface(route Route, err error) error {
	var extractionErr *extract.ExtractionError
	if errors.As(err, &extractionErr) || isContextError(err) {
		return err
	}
	reason := extract.ReasonDecodeFailure
	if route.Kind == KindProfile {
		reason = extract.ReasonProviderFailure
	}
	return &extract.ExtractionError{Reason: reason, Message: route.Capability + " could not run", Cause: err}
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

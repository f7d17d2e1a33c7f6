package extract

import (
	"context"
	"errors"
	"log"

	"github.com/jonathan/resume-importer/internal/parsing"
	"github.com/jonathan/resume-importer/internal/types"
)

// Refiner improves a heuristic draft using the raw document text.
type Refiner interface {
	Refine(ctx context.Context, text string, draft *types.ResumeRecord) (*types.ResumeRecord, error)
}

// GenericExtractor reads any supported document: it detects the container,
// decodes text and identifies fields heuristically, optionally refined.
type GenericExtractor struct {
	Decoder TextDecoder
	Refiner Refiner
	Verbose bool
}

// NewGenericExtractor creates an extractor using the default document decoder.
func NewGenericExtractor(refiner Refiner, verbose bool) *GenericExtractor {
	return &GenericExtractor{Decoder: DocumentDecoder{}, Refiner: refiner, Verbose: verbose}
}

// Name returns the capability name.
func (g *GenericExtractor) Name() string {
	return CapabilityGeneric
}

// Extract decodes the document and builds a record. Empty or unreadable text
// content yields a sparse record; only an unreadable container is an error.
func (g *GenericExtractor) Extract(ctx context.Context, in Input) (*types.ResumeRecord, error) {
	text, err := g.Text(ctx, in)
	if err != nil {
		return nil, err
	}

	record := parsing.Parse(text)

	if g.Refiner != nil && text != "" {
		refined, err := g.Refiner.Refine(ctx, text, record)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Printf("[extract] refinement failed, keeping heuristic draft: %v", err)
		case refined != nil:
			record = refined.Normalize()
		}
	}

	return record, nil
}

// Text decodes the document's plain text without identifying fields.
func (g *GenericExtractor) Text(ctx context.Context, in Input) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(in.Data) == 0 {
		return "", decodeFailure("document is empty", nil)
	}

	container := DetectContainer(in.Data, in.MimeType)
	if g.Verbose {
		log.Printf("[VERBOSE] [extract] %q: declared %q, detected container %s (%d bytes)", in.Filename, in.MimeType, container, len(in.Data))
	}
	if container == ContainerUnknown {
		return "", decodeFailure("unrecognized document container", ErrUnsupportedContainer)
	}

	decoder := g.Decoder
	if decoder == nil {
		decoder = DocumentDecoder{}
	}
	text, err := decoder.DecodeText(container, in.Data)
	if err != nil {
		var extractionErr *ExtractionError
		if errors.As(err, &extractionErr) {
			return "", extractionErr
		}
		return "", decodeFailure("could not read "+string(container)+" document", err)
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

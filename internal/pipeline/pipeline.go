// Package pipeline wires configuration into a ready-to-use import stack: the
// extractor registry, the dispatcher, the boundary adapter and the optional
// import store.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-importer/internal/boundary"
	"github.com/jonathan/resume-importer/internal/config"
	"github.com/jonathan/resume-importer/internal/db"
	"github.com/jonathan/resume-importer/internal/dispatch"
	"github.com/jonathan/resume-importer/internal/extract"
	"github.com/jonathan/resume-importer/internal/fetch"
	"github.com/jonathan/resume-importer/internal/llm"
	"github.com/jonathan/resume-importer/internal/types"
)

// DefaultConcurrency bounds ImportFiles when no limit is given.
const DefaultConcurrency = 4

// ProgressEvent reports one finished import in a batch.
type ProgressEvent struct {
	Reference string `json:"reference"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}

// ProgressCallback is called after each import in a batch finishes.
type ProgressCallback func(event ProgressEvent)

// Options adjust how New builds the pipeline.
type Options struct {
	// Store persists outcomes. When nil and the config names a database, New opens one.
	Store db.Store
	// LLMClient overrides the client built from the config's API key.
	LLMClient llm.Client
	// Provider overrides the profile provider chosen by the config.
	Provider extract.ProfileProvider
	// Decoder overrides the document decoder used by the generic extractor.
	Decoder extract.TextDecoder
	// SkipStore disables persistence even when the config names a database.
	SkipStore bool
}

// Pipeline is the assembled import stack.
type Pipeline struct {
	Registry   *extract.Registry
	Dispatcher *dispatch.Dispatcher
	Adapter    *boundary.Adapter
	Store      db.Store

	cfg       *config.Config
	llmClient llm.Client
	ownsStore bool
	ownsLLM   bool
}

// New builds a pipeline from cfg. Database failures are logged and leave the
// pipeline without a store; an invalid LLM setup only disables refinement.
func New(ctx context.Context, cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	p := &Pipeline{cfg: cfg, Store: opts.Store}

	var refiner extract.Refiner
	if cfg.LLMRefine {
		client := opts.LLMClient
		if client == nil && cfg.APIKey != "" {
			var err error
			client, err = llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
			if err != nil {
				log.Printf("Warning: LLM refinement disabled: %v", err)
			} else {
				p.ownsLLM = true
			}
		}
		if client != nil {
			p.llmClient = client
			refiner = llm.NewRecordRefiner(client, llm.DefaultConfig())
		} else if opts.LLMClient == nil && cfg.APIKey == "" {
			log.Printf("Warning: llm_refine is set but no API key is configured")
		}
	}

	generic := extract.NewGenericExtractor(refiner, cfg.Verbose)
	if opts.Decoder != nil {
		generic.Decoder = opts.Decoder
	}

	provider := opts.Provider
	if provider == nil {
		provider = profileProvider(cfg)
	}

	p.Registry = BuildRegistry(generic, provider, cfg.Fingerprints)
	if cfg.Verbose {
		log.Printf("[VERBOSE] [pipeline] capabilities: %s", strings.Join(p.Registry.Names(), ", "))
	}
	p.Dispatcher = dispatch.New(p.Registry, cfg.Fingerprints, dispatch.Options{
		Timeout: cfg.ExtractTimeout(),
		Verbose: cfg.Verbose,
	})
	p.Adapter = boundary.NewAdapter(p.Dispatcher, cfg.Verbose)

	if p.Store == nil && !opts.SkipStore && cfg.DatabaseURL != "" {
		store, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to database: %v", err)
			log.Printf("Continuing without import persistence...")
		} else {
			p.Store = store
			p.ownsStore = true
			if cfg.Verbose {
				log.Printf("[VERBOSE] Connected to database")
			}
		}
	}

	return p, nil
}

// BuildRegistry registers the generic, profile and fingerprint capabilities.
// Fingerprint baselines load lazily on first use.
func BuildRegistry(generic *extract.GenericExtractor, provider extract.ProfileProvider, fingerprints []extract.Fingerprint) *extract.Registry {
	registry := extract.NewRegistry()
	registry.Register(extract.CapabilityGeneric, func() (extract.Extractor, error) {
		return generic, nil
	})
	registry.Register(extract.CapabilityProfile, func() (extract.Extractor, error) {
		return extract.NewProfileExtractor(provider), nil
	})
	for _, fp := range fingerprints {
		registry.Register(fp.Capability(), func() (extract.Extractor, error) {
			return extract.NewFingerprintExtractor(fp, generic)
		})
	}
	return registry
}

func profileProvider(cfg *config.Config) extract.ProfileProvider {
	if cfg.ProfileProvider == config.ProviderPage {
		return &extract.PageProvider{
			Options:    fetch.DefaultOptions(),
			UseBrowser: cfg.UseBrowser,
			Verbose:    cfg.Verbose,
		}
	}
	return extract.SlugProvider{}
}

// Close releases the store and LLM client the pipeline opened itself.
func (p *Pipeline) Close() {
	if p.ownsStore && p.Store != nil {
		p.Store.Close()
	}
	if p.ownsLLM && p.llmClient != nil {
		if err := p.llmClient.Close(); err != nil {
			log.Printf("Warning: failed to close LLM client: %v", err)
		}
	}
}

// ImportDocument runs an upload through the adapter and persists the outcome.
func (p *Pipeline) ImportDocument(ctx context.Context, req *types.UploadRequest, userID *uuid.UUID) (boundary.Outcome, *uuid.UUID) {
	out := p.Adapter.UploadOutcome(ctx, req)
	reference := ""
	if req != nil {
		reference = req.Filename
	}
	return out, p.persist(ctx, db.SourceUpload, reference, out, userID)
}

// ImportProfile runs a profile lookup through the adapter and persists the outcome.
func (p *Pipeline) ImportProfile(ctx context.Context, profileURL string, userID *uuid.UUID) (boundary.Outcome, *uuid.UUID) {
	out := p.Adapter.LookupProfileOutcome(ctx, types.ProfileLookupRequest{URL: profileURL})
	return out, p.persist(ctx, db.SourceProfile, strings.TrimSpace(profileURL), out, userID)
}

// persist saves out and returns its ID, or nil when there is no store or the
// save fails. Persistence never changes what the caller receives.
func (p *Pipeline) persist(ctx context.Context, source, reference string, out boundary.Outcome, userID *uuid.UUID) *uuid.UUID {
	if p.Store == nil {
		return nil
	}
	imp := &db.Import{
		UserID:         userID,
		Source:         source,
		Reference:      reference,
		Route:          string(out.Route.Kind),
		Capability:     out.Capability,
		Classification: string(out.Classification),
		Fallback:       out.Fallback,
		Success:        out.Envelope.Success,
		Error:          out.Envelope.Error,
		Record:         out.Envelope.Data,
	}
	if err := p.Store.SaveImport(context.WithoutCancel(ctx), imp); err != nil {
		log.Printf("Warning: failed to save import for %q: %v", reference, err)
		return nil
	}
	return &imp.ID
}

// ImportFile reads a document from disk and imports it.
func (p *Pipeline) ImportFile(ctx context.Context, path string) (boundary.Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return boundary.Outcome{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	req := &types.UploadRequest{
		Data:     data,
		MimeType: DeclaredType(path, data),
		Filename: filepath.Base(path),
	}
	out, _ := p.ImportDocument(ctx, req, nil)
	return out, nil
}

// FileResult is the outcome of one file in a batch.
type FileResult struct {
	Path    string
	Outcome boundary.Outcome
	Err     error
}

// ImportFiles imports paths with at most concurrency imports in flight. Results
// keep the order of paths. A file that cannot be read is reported in its
// result and does not stop the batch.
func (p *Pipeline) ImportFiles(ctx context.Context, paths []string, concurrency int, onProgress ProgressCallback) ([]FileResult, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	results := make([]FileResult, len(paths))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	done := 0
	for i, path := range paths {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out, err := p.ImportFile(gCtx, path)
			results[i] = FileResult{Path: path, Outcome: out, Err: err}

			if onProgress != nil {
				mu.Lock()
				done++
				event := ProgressEvent{Reference: path, Done: done, Total: len(paths), Success: err == nil && out.Envelope.Success}
				if err != nil {
					event.Message = err.Error()
				} else {
					event.Message = out.Envelope.Error
				}
				onProgress(event)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// DeclaredType returns the MIME type a browser would declare for path. Known
// document extensions map directly; anything else is sniffed from data.
func DeclaredType(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return types.MimePDF
	case ".docx":
		return types.MimeDOCX
	case ".doc":
		return types.MimeLegacyWord
	}
	return extract.NormalizeMimeType(mimetype.Detect(data).String())
}

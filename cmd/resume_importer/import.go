package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-importer/internal/export"
	"github.com/jonathan/resume-importer/internal/observability"
	"github.com/jonathan/resume-importer/internal/pipeline"
)

var (
	importOutputDir   string
	importReportPath  string
	importConcurrency int
	importNoStore     bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import resume documents from disk",
	Long: `Import one or more resume documents (PDF, DOCX, DOC) and write a response
envelope per file. Use --xlsx to also write a spreadsheet summarizing the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importOutputDir, "out", "o", "", "Directory for <name>.json envelopes (default: print to stdout)")
	importCmd.Flags().StringVar(&importReportPath, "xlsx", "", "Write a batch report workbook to this path")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", pipeline.DefaultConcurrency, "Maximum imports in flight")
	importCmd.Flags().BoolVar(&importNoStore, "no-store", false, "Do not persist imports even when DATABASE_URL is set")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cmd.Context(), cfg, pipeline.Options{SkipStore: importNoStore})
	if err != nil {
		return fmt.Errorf("failed to build import pipeline: %w", err)
	}
	defer p.Close()

	if importOutputDir != "" {
		if err := os.MkdirAll(importOutputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	stdout := cmd.OutOrStdout()
	results, err := p.ImportFiles(cmd.Context(), args, importConcurrency, func(e pipeline.ProgressEvent) {
		if !cfg.Verbose {
			return
		}
		status := "✓"
		if !e.Success {
			status = "✗"
		}
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "[%d/%d] %s %s\n", e.Done, e.Total, status, e.Reference)
	})
	if err != nil {
		return fmt.Errorf("import interrupted: %w", err)
	}

	printer := observability.NewPrinter(cmd.ErrOrStderr())
	rows := make([]export.ReportRow, 0, len(results))
	failed := 0
	for _, r := range results {
		row := reportRow(r)
		rows = append(rows, row)
		if !row.Success {
			failed++
		}
		if r.Err != nil {
			_, _ = fmt.Fprintf(stdout, "✗ %s: %v\n", r.Path, r.Err)
			continue
		}

		if cfg.Verbose {
			printer.PrintOutcome(r.Outcome)
			if r.Outcome.Envelope.Success {
				printer.PrintRecord(r.Outcome.Envelope.Data)
			}
		}

		data, err := json.MarshalIndent(r.Outcome.Envelope, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal envelope for %s: %w", r.Path, err)
		}
		if importOutputDir == "" {
			_, _ = fmt.Fprintln(stdout, string(data))
			continue
		}
		outPath := filepath.Join(importOutputDir, envelopeName(r.Path))
		if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", outPath, err)
		}
		_, _ = fmt.Fprintf(stdout, "Wrote %s\n", outPath)
	}

	if importReportPath != "" {
		written, err := export.WriteImportReport(importReportPath, rows)
		if err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		_, _ = fmt.Fprintf(stdout, "Report: %s\n", written)
	}

	total, succeeded, sparse, _ := export.Summarize(rows)
	_, _ = fmt.Fprintf(stdout, "Imported %d/%d files (%d need manual entry)\n", succeeded, total, sparse)

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed to import", failed, total)
	}
	return nil
}

func reportRow(r pipeline.FileResult) export.ReportRow {
	row := export.ReportRow{File: r.Path}
	if r.Err != nil {
		row.Error = r.Err.Error()
		return row
	}
	env := r.Outcome.Envelope
	row.Success = env.Success
	row.Classification = string(r.Outcome.Classification)
	row.Error = env.Error
	if env.Data != nil {
		row.Name = env.Data.Personal.Name
		row.Email = env.Data.Personal.Email
		row.Skills = len(env.Data.Skills)
		row.Jobs = len(env.Data.WorkExperience)
	}
	return row
}

// envelopeName maps "dir/jane.pdf" to "jane.pdf.json" so same-stem files of
// different types do not collide.
func envelopeName(path string) string {
	return strings.TrimSpace(filepath.Base(path)) + ".json"
}

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-importer/internal/observability"
	"github.com/jonathan/resume-importer/internal/pipeline"
)

var profileOutputFile string

var profileCmd = &cobra.Command{
	Use:   "profile <linkedin-url>",
	Short: "Import a LinkedIn profile",
	Long:  "Resolve a LinkedIn profile URL with the configured provider and print the response envelope as JSON.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfile,
}

func init() {
	profileCmd.Flags().StringVarP(&profileOutputFile, "out", "o", "", "Write the envelope to this file instead of stdout")
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := pipeline.New(cmd.Context(), cfg, pipeline.Options{SkipStore: true})
	if err != nil {
		return fmt.Errorf("failed to build import pipeline: %w", err)
	}
	defer p.Close()

	out, _ := p.ImportProfile(cmd.Context(), args[0], nil)
	if cfg.Verbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintOutcome(out)
		if out.Envelope.Success {
			printer.PrintRecord(out.Envelope.Data)
		}
	}

	data, err := json.MarshalIndent(out.Envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}
	if profileOutputFile != "" {
		if err := os.WriteFile(profileOutputFile, data, 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", profileOutputFile)
	} else {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}

	if !out.Envelope.Success {
		return fmt.Errorf("profile import failed (%d): %s", out.Status, out.Envelope.Error)
	}
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-importer/internal/schemas"
)

var validateEnvelope bool

var validateCmd = &cobra.Command{
	Use:   "validate <file.json>...",
	Short: "Validate resume records against the embedded schema",
	Long:  "Validate one or more resume record JSON files (or response envelopes with --envelope) against the embedded JSON schemas.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateEnvelope, "envelope", false, "Files are response envelopes rather than bare records")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		var err error
		if validateEnvelope {
			var data []byte
			data, err = os.ReadFile(path)
			if err == nil {
				err = schemas.ValidateEnvelopeJSON(data)
			}
		} else {
			err = schemas.ValidateRecordFile(path)
		}

		if err != nil {
			failed++
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✗ %s: Validation failed: %v\n", path, err)
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: Validation passed\n", path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed validation", failed, len(args))
	}
	return nil
}

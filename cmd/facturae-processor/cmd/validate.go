package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
)

var validateCmd = &cobra.Command{
	Use:   "validate [files...]",
	Short: "Validate invoice files",
	Long: `Validate one or more Facturae files.

Checks performed:
  - Document is well-formed and a supported Facturae version
  - Required fields present (invoice number, issue date, issuer name and tax id)
  - Dates and amounts parse
  - Declared totals agree with the lines and tax outputs

Examples:
  facturae-processor validate factura.xsig
  facturae-processor validate facturas/ -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// ValidationResult is the per-file validation output
type ValidationResult struct {
	File          string                  `json:"file"`
	Valid         bool                    `json:"valid"`
	Errors        []string                `json:"errors"`
	Warnings      []string                `json:"warnings"`
	Discrepancies []processor.Discrepancy `json:"discrepancies,omitempty"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to validate")
	}

	pipeline := newPipeline()
	results := make([]*ValidationResult, 0, len(files))
	allValid := true

	for _, file := range files {
		result := validateFile(pipeline, file)
		results = append(results, result)

		if !result.Valid {
			allValid = false
		}
	}

	if outputFormat == "json" {
		if err := outputJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Printf("✓ %s: VALID\n", r.File)
			} else {
				fmt.Printf("✗ %s: INVALID\n", r.File)
				for _, e := range r.Errors {
					fmt.Printf("  - %s\n", e)
				}
			}
			for _, d := range r.Discrepancies {
				fmt.Printf("  ≠ %s: declared %s, computed %s\n", d.Check, d.Declared.StringFixed(2), d.Computed.StringFixed(2))
			}
			for _, w := range r.Warnings {
				fmt.Printf("  ⚠ %s\n", w)
			}
		}
	}

	if !allValid {
		return fmt.Errorf("validation failed for some files")
	}

	return nil
}

func validateFile(pipeline *processor.Pipeline, filePath string) *ValidationResult {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result := &ValidationResult{
		File:     filePath,
		Valid:    true,
		Errors:   []string{},
		Warnings: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("failed to read file: %v", err))
		return result
	}

	out := pipeline.Extract(ctx, data, contentTypeOf(filePath))
	result.Warnings = append(result.Warnings, out.Warnings...)
	if out.Error != nil {
		result.Valid = false
		result.Errors = append(result.Errors, out.Error.Error())
		return result
	}

	result.Discrepancies = processor.Reconcile(out.Record)
	if len(result.Discrepancies) > 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("%d totals do not reconcile", len(result.Discrepancies)))
	}

	if cert, ok := out.Record.Certificate.Get(); ok {
		if valid, known := cert.ValidAtSigning(); known && !valid {
			result.Warnings = append(result.Warnings, "certificate was not valid at the declared signing time")
		}
		if cert.StatusAt(time.Now()) != model.CertificateValid {
			result.Warnings = append(result.Warnings, "certificate is not currently valid")
		}
	}

	return result
}

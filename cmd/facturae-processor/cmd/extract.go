package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
)

var (
	outputFile string
	timeout    time.Duration
)

var extractCmd = &cobra.Command{
	Use:   "extract [files...]",
	Short: "Extract invoice data",
	Long: `Extract one or more Facturae files into structured records.

Supported inputs:
  - .xml   bare Facturae 3.2, 3.2.1 or 3.2.2
  - .xsig  Facturae wrapped in a XAdES signature

Coded values (payment means, tax types, centre roles) are resolved to
their descriptions. The signer certificate, when present, is included.

Examples:
  facturae-processor extract factura.xsig
  facturae-processor extract facturas/ -o results.json
  facturae-processor extract *.xml -f table`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	extractCmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Processing timeout per file")
}

func runExtract(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no files found to process")
	}

	printVerbose("Found %d files to process\n", len(files))

	pipeline := newPipeline()

	results := make([]*ExtractResult, 0, len(files))
	for _, file := range files {
		printVerbose("Processing: %s\n", file)

		result := extractFile(pipeline, file)
		results = append(results, result)

		if result.Error != "" {
			printVerbose("  Error: %s\n", result.Error)
		} else {
			printVerbose("  Format: %s, Warnings: %d\n", result.Format, len(result.Warnings))
		}
	}

	return outputResults(results)
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", arg, err)
		}

		if len(matches) == 0 {
			info, err := os.Stat(arg)
			if err != nil {
				return nil, fmt.Errorf("file not found: %s", arg)
			}

			if info.IsDir() {
				err := filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
					if err != nil {
						return err
					}
					if !info.IsDir() && isSupportedFile(path) {
						files = append(files, path)
					}
					return nil
				})
				if err != nil {
					return nil, err
				}
			} else {
				files = append(files, arg)
			}
			continue
		}

		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil {
				continue
			}
			if info.IsDir() {
				sub, err := collectFiles([]string{filepath.Join(match, "*")})
				if err != nil {
					return nil, err
				}
				files = append(files, sub...)
				continue
			}
			if isSupportedFile(match) || len(matches) == 1 {
				files = append(files, match)
			}
		}
	}

	return files, nil
}

func isSupportedFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".xsig":
		return true
	default:
		return false
	}
}

// contentTypeOf trusts the extension, then the content
func contentTypeOf(path string) model.ContentType {
	return model.ParseContentType(filepath.Ext(path))
}

func extractFile(pipeline *processor.Pipeline, filePath string) *ExtractResult {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	result := &ExtractResult{File: filePath}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.Error = fmt.Sprintf("failed to read file: %v", err)
		return result
	}

	out := pipeline.Extract(ctx, data, contentTypeOf(filePath))
	result.Format = out.Format.String()
	result.Warnings = out.Warnings
	if out.Error != nil {
		result.Error = out.Error.Error()
		result.Field = model.FieldOf(out.Error)
		return result
	}
	result.Invoice = out.Record
	return result
}

func outputResults(results []*ExtractResult) error {
	var writer io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		writer = f
	}

	var err error
	switch outputFormat {
	case "json":
		err = outputJSON(writer, results)
	case "table":
		err = outputTable(writer, results)
	case "csv":
		err = outputCSV(writer, results)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("extraction failed for some files")
		}
	}
	return nil
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputTable(w io.Writer, results []*ExtractResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tNUMBER\tDATE\tISSUER\tTOTAL\tCURRENCY\tFORMAT\tSIGNED")
	fmt.Fprintln(tw, "----\t------\t----\t------\t-----\t--------\t------\t------")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(tw, "%s\tERROR: %s\t\t\t\t\t\t\n", r.File, r.Error)
			continue
		}

		inv := r.Invoice
		total := ""
		if t, ok := inv.Totals.InvoiceTotal.Get(); ok {
			total = t.StringFixed(2)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			r.File,
			inv.Header.FullNumber(),
			inv.Header.IssueDate.String(),
			inv.Issuer.TaxID,
			total,
			inv.Header.Currency,
			r.Format,
			inv.Certificate.Present(),
		)
	}

	return tw.Flush()
}

func outputCSV(w io.Writer, results []*ExtractResult) error {
	fmt.Fprintln(w, "file,number,date,issuer_name,issuer_tax_id,receiver_name,receiver_tax_id,invoice_total,currency,format,error")

	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(w, "%s,,,,,,,,,%s,%s\n", escapeCSV(r.File), r.Format, escapeCSV(r.Error))
			continue
		}

		inv := r.Invoice
		total := ""
		if t, ok := inv.Totals.InvoiceTotal.Get(); ok {
			total = t.StringFixed(2)
		}
		fmt.Fprintf(w, "%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,\n",
			escapeCSV(r.File),
			escapeCSV(inv.Header.FullNumber()),
			inv.Header.IssueDate.String(),
			escapeCSV(inv.Issuer.Name),
			inv.Issuer.TaxID,
			escapeCSV(inv.Receiver.Name),
			inv.Receiver.TaxID,
			total,
			inv.Header.Currency,
			r.Format,
		)
	}

	return nil
}

func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return "\"" + strings.ReplaceAll(s, "\"", "\"\"") + "\""
	}
	return s
}

// ExtractResult holds the result of extracting a single file
type ExtractResult struct {
	File     string               `json:"file"`
	Format   string               `json:"format,omitempty"`
	Invoice  *model.InvoiceRecord `json:"invoice,omitempty"`
	Warnings []string             `json:"warnings,omitempty"`
	Error    string               `json:"error,omitempty"`
	Field    string               `json:"field,omitempty"`
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	facturae "github.com/rezonia/facturae-processor/internal/parser/xml"
	"github.com/rezonia/facturae-processor/internal/processor"
	"github.com/rezonia/facturae-processor/internal/render"
)

var infoCmd = &cobra.Command{
	Use:   "info [files...]",
	Short: "Show information about invoice files",
	Long: `Display information about files without extracting them.

Shows:
  - Detected format (XML, XSIG, PDF)
  - Facturae schema version and envelope for XML inputs
  - Page count for PDF files, such as rendered summaries

Examples:
  facturae-processor info factura.xsig
  facturae-processor info Factura_RCF-1.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func runInfo(cmd *cobra.Command, args []string) error {
	loader := facturae.NewLoader()
	for _, file := range args {
		printFileInfo(loader, file)
		fmt.Println()
	}
	return nil
}

func printFileInfo(loader *facturae.Loader, filePath string) {
	fmt.Printf("File: %s\n", filePath)

	info, err := os.Stat(filePath)
	if err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}

	fmt.Printf("  Size: %d bytes\n", info.Size())
	fmt.Printf("  Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

	data, err := os.ReadFile(filePath)
	if err != nil {
		fmt.Printf("  Error reading file: %v\n", err)
		return
	}

	format := processor.DetectFormat(data)
	fmt.Printf("  Format: %s\n", formatName(format))

	switch format {
	case processor.FormatPDF:
		pdf, err := render.Inspect(data)
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			return
		}
		fmt.Printf("  Pages: %d\n", pdf.Pages)

	case processor.FormatXML, processor.FormatXSIG:
		doc, err := loader.Load(data, contentTypeOf(filePath))
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			return
		}
		fmt.Printf("  Schema version: %s\n", doc.SchemaVersion)
		if doc.Envelope != "" {
			fmt.Printf("  Envelope: %s\n", doc.Envelope)
		}
		fmt.Printf("  Signed: %t\n", doc.Signed())
	}
}

func formatName(f processor.Format) string {
	switch f {
	case processor.FormatXML:
		return "XML (Facturae)"
	case processor.FormatXSIG:
		return "XSIG (signed Facturae)"
	case processor.FormatPDF:
		return "PDF"
	default:
		return "Unknown"
	}
}

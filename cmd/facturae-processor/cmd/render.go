package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
)

var (
	numRegistro  string
	tipoRegistro string
	numRCF       string
	fechaReg     string
	renderOutput string
	renderCheck  bool
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Render the PDF summary of an invoice",
	Long: `Render a Facturae file as a PDF summary with the accounting registry box.

The registry number, type and RCF number are required. The registration
time defaults to now in the configured time zone (server.time_zone).

Examples:
  facturae-processor render factura.xsig --num-registro 2024/001 --tipo-registro Entrada --num-rcf RCF-1
  facturae-processor render factura.xml --num-registro 7 --tipo-registro E --num-rcf R --fecha "2024-05-02T09:15" -o out.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringVar(&numRegistro, "num-registro", "", "Registry entry number")
	renderCmd.Flags().StringVar(&tipoRegistro, "tipo-registro", "", "Registry entry type")
	renderCmd.Flags().StringVar(&numRCF, "num-rcf", "", "RCF registration number")
	renderCmd.Flags().StringVar(&fechaReg, "fecha", "", "Registration date and time, YYYY-MM-DDTHH:MM (default: now)")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Output PDF (default: Factura_<num-rcf>.pdf)")
	renderCmd.Flags().BoolVar(&renderCheck, "check", false, "Validate the generated PDF")
	_ = renderCmd.MarkFlagRequired("num-registro")
	_ = renderCmd.MarkFlagRequired("tipo-registro")
	_ = renderCmd.MarkFlagRequired("num-rcf")
}

func runRender(cmd *cobra.Command, args []string) error {
	loc, err := cfg.Server.Location()
	if err != nil {
		return fmt.Errorf("invalid time zone %q: %w", cfg.Server.TimeZone, err)
	}
	now := time.Now().In(loc)

	reg := model.RegistryInfo{Number: numRegistro, Type: tipoRegistro, RCF: numRCF}
	at := now
	if fechaReg != "" {
		at, err = time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(fechaReg), loc)
		if err != nil {
			return fmt.Errorf("invalid --fecha %q: expected YYYY-MM-DDTHH:MM", fechaReg)
		}
	}
	reg.Date = model.Some(civil.DateOf(at))
	reg.Time = model.Some(civil.Time{Hour: at.Hour(), Minute: at.Minute()})

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	out := newPipeline(processor.WithInspection(renderCheck)).Render(ctx, data, contentTypeOf(args[0]), reg, now)
	for _, w := range out.Warnings {
		printVerbose("warning: %s\n", w)
	}
	if out.Error != nil {
		if field := model.FieldOf(out.Error); field != "" {
			return fmt.Errorf("%s: %w", field, out.Error)
		}
		return out.Error
	}

	path := renderOutput
	if path == "" {
		path = filepath.Join(filepath.Dir(args[0]), fmt.Sprintf("Factura_%s.pdf", strings.ReplaceAll(reg.RCF, "/", "-")))
	}
	if err := os.WriteFile(path, out.PDF, 0644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}

	if out.Pages > 0 {
		fmt.Printf("%s (%d pages)\n", path, out.Pages)
	} else {
		fmt.Println(path)
	}
	return nil
}

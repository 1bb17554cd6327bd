package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/signature"
)

var certificateCmd = &cobra.Command{
	Use:   "certificate [files...]",
	Short: "Show the signer certificate of signed invoices",
	Long: `Show the X.509 certificate embedded in the XAdES signature of .xsig files.

Reports subject, issuer, serial number, validity window, the declared
signing time and the signature algorithm. The signature itself is not
verified.

Examples:
  facturae-processor certificate factura.xsig
  facturae-processor certificate -f json facturas/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCertificate,
}

func init() {
	rootCmd.AddCommand(certificateCmd)
}

// CertificateReport is the per-file certificate output
type CertificateReport struct {
	File           string             `json:"file"`
	SignatureFound bool               `json:"signature_found"`
	Algorithm      string             `json:"algorithm,omitempty"`
	AlgorithmURI   string             `json:"algorithm_uri,omitempty"`
	Certificate    *model.Certificate `json:"certificate,omitempty"`
	Status         string             `json:"status,omitempty"`
	ValidAtSigning *bool              `json:"valid_at_signing,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
	Error          string             `json:"error,omitempty"`
}

func runCertificate(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found")
	}

	pipeline := newPipeline()
	now := time.Now()

	reports := make([]*CertificateReport, 0, len(files))
	for _, file := range files {
		report := &CertificateReport{File: file}
		reports = append(reports, report)

		data, err := os.ReadFile(file)
		if err != nil {
			report.Error = fmt.Sprintf("failed to read file: %v", err)
			continue
		}
		result, err := pipeline.Certificate(context.Background(), data)
		if err != nil {
			report.Error = err.Error()
			continue
		}
		report.SignatureFound = result.SignatureFound
		report.Algorithm = signature.AlgorithmName(result.Algorithm)
		report.AlgorithmURI = result.Algorithm
		report.Warnings = result.Warnings
		if cert, ok := result.Certificate.Get(); ok {
			report.Certificate = &cert
			report.Status = string(cert.StatusAt(now))
			if valid, known := cert.ValidAtSigning(); known {
				report.ValidAtSigning = &valid
			}
		}
	}

	if outputFormat == "json" {
		return outputJSON(os.Stdout, reports)
	}

	for _, r := range reports {
		printCertificate(r)
		fmt.Println()
	}
	return nil
}

func printCertificate(r *CertificateReport) {
	fmt.Printf("File: %s\n", r.File)
	if r.Error != "" {
		fmt.Printf("  Error: %s\n", r.Error)
		return
	}
	if !r.SignatureFound {
		fmt.Println("  Signature: not found")
		return
	}
	fmt.Printf("  Algorithm: %s\n", r.Algorithm)

	if c := r.Certificate; c != nil {
		fmt.Printf("  Subject: %s\n", c.Subject)
		fmt.Printf("  Issuer: %s\n", c.Issuer)
		fmt.Printf("  Serial: %s\n", c.SerialNumber)
		fmt.Printf("  Valid: %s to %s (%s)\n",
			c.ValidFrom.Format("2006-01-02"), c.ValidTo.Format("2006-01-02"), r.Status)
		if st, ok := c.SigningTime.Get(); ok {
			fmt.Printf("  Signed: %s\n", st.Format(time.RFC3339))
		}
		if r.ValidAtSigning != nil {
			fmt.Printf("  Valid at signing: %t\n", *r.ValidAtSigning)
		}
	}
	for _, w := range r.Warnings {
		fmt.Printf("  ⚠ %s\n", w)
	}
}

package invoicelib

import (
	"context"
	"io"
	"time"

	"github.com/rezonia/facturae-processor/internal/model"
)

// Extractor turns a Facturae document into an InvoiceRecord
type Extractor interface {
	// Extract reads a bare or signed Facturae document
	Extract(ctx context.Context, r io.Reader, ct model.ContentType) (*ExtractionResult, error)
}

// Renderer prints an InvoiceRecord
type Renderer interface {
	// Render lays out the record as PDF. renderedAt is printed on every page.
	Render(ctx context.Context, rec *model.InvoiceRecord, reg model.RegistryInfo, renderedAt time.Time) ([]byte, error)
}

// ExtractionResult represents extraction result with metadata
type ExtractionResult struct {
	Record        *model.InvoiceRecord
	Format        string
	Warnings      []string
	Discrepancies []Discrepancy
}

// Pipeline processes invoices from bytes to PDF
type Pipeline interface {
	Extractor
	Renderer

	// ExtractBatch extracts several documents concurrently
	ExtractBatch(ctx context.Context, inputs []io.Reader, ct model.ContentType) ([]*ExtractionResult, error)
}

// PipelineOptions configures pipeline behavior
type PipelineOptions struct {
	// PDF output
	PageSize string // fpdf page size name (default: A4)
	Compress bool   // compress page streams (default: true)

	// Inspect validates every rendered PDF with pdfcpu
	Inspect bool

	// Reconcile compares declared totals with the detail on each extraction
	Reconcile bool

	// CodeOverrides replaces or extends entries of the bundled code tables,
	// keyed by table id then raw code
	CodeOverrides map[string]map[string]string
}

// DefaultPipelineOptions returns default pipeline options
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		PageSize:  "A4",
		Compress:  true,
		Reconcile: true,
	}
}

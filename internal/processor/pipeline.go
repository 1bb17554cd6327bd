// Package processor wires the loader, the extractors and the renderer into
// the request-scoped pipeline used by the CLI and the HTTP server.
package processor

import (
	"bytes"
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/logging"
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/parser/xml"
	"github.com/rezonia/facturae-processor/internal/render"
	"github.com/rezonia/facturae-processor/internal/signature"
)

// Format represents the detected input shape
type Format int

const (
	FormatUnknown Format = iota
	FormatXML            // bare Facturae
	FormatXSIG           // Facturae with a signature
	FormatPDF
)

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatXML:
		return "xml"
	case FormatXSIG:
		return "xsig"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// ContentType maps the format to the loader's content type
func (f Format) ContentType() model.ContentType {
	switch f {
	case FormatXML:
		return model.ContentTypeXML
	case FormatXSIG:
		return model.ContentTypeXSIG
	default:
		return model.ContentTypeAuto
	}
}

// Outcome labels reported to the Recorder
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Recorder receives pipeline measurements. *metrics.Metrics implements it.
type Recorder interface {
	ObserveDocument(format, outcome string, d time.Duration)
	AddWarnings(source string, n int)
	ObserveRender(pages int, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveDocument(string, string, time.Duration) {}
func (nopRecorder) AddWarnings(string, int)                       {}
func (nopRecorder) ObserveRender(int, time.Duration)              {}

// Result contains the outcome of an extraction
type Result struct {
	Record   *model.InvoiceRecord
	Format   Format
	Warnings []string
	Error    error
	Duration time.Duration
}

// RenderResult is an extraction followed by rendering
type RenderResult struct {
	*Result
	PDF   []byte
	Pages int // 0 unless inspection is enabled
}

// Pipeline orchestrates loading, extraction and rendering. It is immutable
// after construction and safe for concurrent use.
type Pipeline struct {
	loader    *xml.Loader
	extractor *xml.Extractor
	certs     *signature.Extractor
	renderer  *render.Renderer
	resolver  *codes.Resolver
	logger    *zap.Logger
	recorder  Recorder
	inspect   bool
}

// Option configures the pipeline
type Option func(*Pipeline)

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logging.Nop(l)
	}
}

// WithRecorder sets the metrics sink
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithResolver sets the code table resolver
func WithResolver(r *codes.Resolver) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithRenderer sets the PDF renderer
func WithRenderer(r *render.Renderer) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.renderer = r
		}
	}
}

// WithInspection validates every rendered PDF and reports its page count
func WithInspection(enabled bool) Option {
	return func(p *Pipeline) {
		p.inspect = enabled
	}
}

// NewPipeline creates a new processing pipeline
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{
		loader:   xml.NewLoader(),
		certs:    signature.NewExtractor(),
		renderer: render.NewRenderer(render.DefaultOptions()),
		resolver: codes.NewResolver(),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.extractor = xml.NewExtractor(p.resolver)
	return p
}

// Resolver returns the code table resolver in use
func (p *Pipeline) Resolver() *codes.Resolver {
	return p.resolver
}

// Extract loads data declared as ct, extracts the invoice record and merges
// the signer certificate into it. Failures are reported in Result.Error.
func (p *Pipeline) Extract(ctx context.Context, data []byte, ct model.ContentType) *Result {
	start := time.Now()
	result := &Result{Format: DetectFormat(data)}

	defer func() {
		result.Duration = time.Since(start)
		p.recorder.ObserveDocument(result.Format.String(), outcome(result.Error), result.Duration)
	}()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return result
	}

	doc, err := p.loader.Load(data, ct)
	if err != nil {
		result.Error = err
		p.logger.Info("document rejected", zap.Error(err), zap.Int("size", len(data)))
		return result
	}
	result.Format = formatOf(doc)

	rec, warnings, err := p.extractor.Extract(doc)
	result.Warnings = append(result.Warnings, warnings...)
	p.recorder.AddWarnings("extractor", len(warnings))
	if err != nil {
		result.Error = err
		p.logger.Info("extraction failed",
			zap.Error(err),
			zap.String("field", model.FieldOf(err)),
			zap.String("envelope", doc.Envelope),
		)
		return result
	}

	cert := p.certs.Extract(doc.Root)
	rec.Certificate = cert.Certificate
	result.Warnings = append(result.Warnings, cert.Warnings...)
	p.recorder.AddWarnings("certificate", len(cert.Warnings))

	result.Record = rec
	for _, w := range result.Warnings {
		p.logger.Warn("extraction warning", zap.String("invoice", rec.Header.FullNumber()), zap.String("warning", w))
	}
	p.logger.Debug("invoice extracted",
		zap.String("invoice", rec.Header.FullNumber()),
		zap.String("format", result.Format.String()),
		zap.Int("lines", len(rec.Lines)),
		zap.Bool("certificate", rec.Certificate.Present()),
	)
	return result
}

// Render extracts data and renders the record with the registry metadata
func (p *Pipeline) Render(ctx context.Context, data []byte, ct model.ContentType, reg model.RegistryInfo, renderedAt time.Time) *RenderResult {
	out := &RenderResult{Result: p.Extract(ctx, data, ct)}
	if out.Error != nil {
		return out
	}

	pdf, pages, err := p.RenderRecord(ctx, out.Record, reg, renderedAt)
	if err != nil {
		out.Error = err
		return out
	}
	out.PDF = pdf
	out.Pages = pages
	return out
}

// RenderRecord renders an already extracted record
func (p *Pipeline) RenderRecord(ctx context.Context, rec *model.InvoiceRecord, reg model.RegistryInfo, renderedAt time.Time) ([]byte, int, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	if err := reg.Validate(); err != nil {
		return nil, 0, err
	}

	start := time.Now()
	pdf, err := p.renderer.Render(rec, reg, renderedAt)
	if err != nil {
		p.logger.Error("render failed", zap.Error(err))
		return nil, 0, err
	}

	pages := 0
	if p.inspect {
		info, err := render.Inspect(pdf)
		if err != nil {
			p.logger.Error("rendered PDF failed validation", zap.Error(err))
			return nil, 0, model.NewRenderError("output", "rendered PDF failed validation", err)
		}
		pages = info.Pages
	}
	p.recorder.ObserveRender(pages, time.Since(start))
	return pdf, pages, nil
}

// Certificate reports the signer certificate without extracting the invoice
func (p *Pipeline) Certificate(ctx context.Context, data []byte) (*signature.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := p.certs.ExtractBytes(data)
	p.recorder.AddWarnings("certificate", len(result.Warnings))
	return result, nil
}

func formatOf(doc *xml.Document) Format {
	if doc.Format == model.ContentTypeXSIG || doc.Signed() {
		return FormatXSIG
	}
	return FormatXML
}

func outcome(err error) string {
	var pe *model.ParseError
	switch {
	case err == nil:
		return OutcomeOK
	case errors.As(err, &pe):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

var (
	pdfMagic  = []byte("%PDF")
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
	sigDetect = signature.NewExtractor()
)

// DetectFormat guesses the input shape from its content
func DetectFormat(data []byte) Format {
	data = bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	switch {
	case len(data) == 0:
		return FormatUnknown
	case bytes.HasPrefix(data, pdfMagic):
		return FormatPDF
	case data[0] == '<':
		if sigDetect.CanExtract(data) {
			return FormatXSIG
		}
		return FormatXML
	default:
		return FormatUnknown
	}
}

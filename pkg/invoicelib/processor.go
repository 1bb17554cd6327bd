package invoicelib

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
	"github.com/rezonia/facturae-processor/internal/render"
)

// Processor implements Pipeline using the internal processor
type Processor struct {
	pipeline *processor.Pipeline
	options  PipelineOptions
}

var _ Pipeline = (*Processor)(nil)

// NewProcessor creates a new invoice processor with the given options
func NewProcessor(opts PipelineOptions) *Processor {
	resolver := codes.NewResolver()
	if len(opts.CodeOverrides) > 0 {
		overrides := make(map[codes.TableID]map[string]string, len(opts.CodeOverrides))
		for id, entries := range opts.CodeOverrides {
			overrides[codes.TableID(id)] = entries
		}
		resolver = resolver.WithOverrides(overrides)
	}

	renderOpts := render.DefaultOptions()
	if opts.PageSize != "" {
		renderOpts.PageSize = opts.PageSize
	}
	renderOpts.Compress = opts.Compress

	pipeline := processor.NewPipeline(
		processor.WithResolver(resolver),
		processor.WithRenderer(render.NewRenderer(renderOpts)),
		processor.WithInspection(opts.Inspect),
	)

	return &Processor{
		pipeline: pipeline,
		options:  opts,
	}
}

// NewDefaultProcessor creates a processor with default options
func NewDefaultProcessor() *Processor {
	return NewProcessor(DefaultPipelineOptions())
}

// Extract reads r and extracts the invoice record, with the signer
// certificate merged in when the document is signed.
func (p *Processor) Extract(ctx context.Context, r io.Reader, ct model.ContentType) (*ExtractionResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	result := p.pipeline.Extract(ctx, data, ct)
	if result.Error != nil {
		return nil, result.Error
	}

	out := &ExtractionResult{
		Record:   result.Record,
		Format:   result.Format.String(),
		Warnings: result.Warnings,
	}
	if p.options.Reconcile {
		out.Discrepancies = processor.Reconcile(result.Record)
	}
	return out, nil
}

// Render lays out rec as PDF
func (p *Processor) Render(ctx context.Context, rec *model.InvoiceRecord, reg model.RegistryInfo, renderedAt time.Time) ([]byte, error) {
	pdf, _, err := p.pipeline.RenderRecord(ctx, rec, reg, renderedAt)
	return pdf, err
}

// ExtractAndRender is Extract followed by Render
func (p *Processor) ExtractAndRender(ctx context.Context, r io.Reader, ct model.ContentType, reg model.RegistryInfo, renderedAt time.Time) ([]byte, *ExtractionResult, error) {
	result, err := p.Extract(ctx, r, ct)
	if err != nil {
		return nil, nil, err
	}
	pdf, err := p.Render(ctx, result.Record, reg, renderedAt)
	if err != nil {
		return nil, result, err
	}
	return pdf, result, nil
}

// ExtractBatch extracts multiple inputs concurrently. Results keep input
// order; a failed input leaves a nil entry and one of the errors is returned.
func (p *Processor) ExtractBatch(ctx context.Context, inputs []io.Reader, ct model.ContentType) ([]*ExtractionResult, error) {
	results := make([]*ExtractionResult, len(inputs))
	errCh := make(chan error, len(inputs))

	for i, input := range inputs {
		go func(idx int, r io.Reader) {
			result, err := p.Extract(ctx, r, ct)
			if err != nil {
				errCh <- fmt.Errorf("input %d: %w", idx, err)
				return
			}
			results[idx] = result
			errCh <- nil
		}(i, input)
	}

	var firstErr error
	for range inputs {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return results, firstErr
}

package processor_test

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
	"github.com/rezonia/facturae-processor/internal/testutil"
)

var (
	signedAt   = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	renderedAt = time.Date(2024, 3, 20, 8, 30, 0, 0, time.UTC)
	registry   = model.RegistryInfo{
		Number: "REG-1",
		Type:   "Entrada",
		RCF:    "RCF-1",
		Date:   model.Some(civil.Date{Year: 2024, Month: time.March, Day: 20}),
	}
)

type countingRecorder struct {
	mu        sync.Mutex
	documents map[string]int
	warnings  map[string]int
	renders   int
	pages     int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{documents: map[string]int{}, warnings: map[string]int{}}
}

func (r *countingRecorder) ObserveDocument(format, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.documents[format+"/"+outcome]++
}

func (r *countingRecorder) AddWarnings(source string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings[source] += n
}

func (r *countingRecorder) ObserveRender(pages int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders++
	r.pages += pages
}

func TestNewPipeline(t *testing.T) {
	p := processor.NewPipeline()
	require.NotNil(t, p)
	assert.NotNil(t, p.Resolver())
}

func TestNewPipeline_NilOptionsKeepDefaults(t *testing.T) {
	p := processor.NewPipeline(
		processor.WithLogger(nil),
		processor.WithRecorder(nil),
		processor.WithResolver(nil),
		processor.WithRenderer(nil),
	)

	result := p.Extract(context.Background(), []byte(testutil.MinimalInvoice), model.ContentTypeAuto)
	require.NoError(t, result.Error)
}

func TestExtract_SignedInvoice(t *testing.T) {
	rec := newCountingRecorder()
	p := processor.NewPipeline(processor.WithRecorder(rec))

	data := testutil.MustSign(testutil.MinimalInvoice, signedAt)
	result := p.Extract(context.Background(), data, model.ContentTypeXSIG)
	require.NoError(t, result.Error)
	require.NotNil(t, result.Record)

	assert.Equal(t, processor.FormatXSIG, result.Format)
	assert.Equal(t, "0001", result.Record.Header.Number)
	assert.Empty(t, result.Warnings)

	cert, ok := result.Record.Certificate.Get()
	require.True(t, ok)
	assert.Equal(t, "424242", cert.SerialNumber)

	assert.Equal(t, 1, rec.documents["xsig/ok"])
}

func TestExtract_UnsignedInvoiceHasNoCertificate(t *testing.T) {
	result := processor.NewPipeline().Extract(context.Background(), []byte(testutil.MinimalInvoice), model.ContentTypeXML)
	require.NoError(t, result.Error)

	assert.Equal(t, processor.FormatXML, result.Format)
	assert.False(t, result.Record.Certificate.Present())
	assert.Empty(t, result.Warnings)
}

func TestExtract_CertificateProblemIsAWarning(t *testing.T) {
	rec := newCountingRecorder()
	p := processor.NewPipeline(processor.WithRecorder(rec))

	signed := string(testutil.MustSign(testutil.MinimalInvoice, signedAt))
	start := bytes.Index([]byte(signed), []byte("<ds:X509Certificate>")) + len("<ds:X509Certificate>")
	broken := signed[:start] + "@@" + signed[start:]

	result := p.Extract(context.Background(), []byte(broken), model.ContentTypeAuto)
	require.NoError(t, result.Error)
	assert.False(t, result.Record.Certificate.Present())
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, 1, rec.warnings["certificate"])
}

func TestExtract_Failures(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		kind    error
		outcome string
	}{
		{"empty", "  \n", model.ErrEmptyDocument, "unknown/rejected"},
		{"malformed", "<Facturae><unclosed></Facturae>", model.ErrMalformedXML, "xml/rejected"},
		{"not facturae", "<Invoice/>", model.ErrUnrecognizedFormat, "xml/rejected"},
		{
			"missing issuer tax id",
			testutil.Remove(testutil.MinimalInvoice, "<TaxIdentificationNumber>B12345678</TaxIdentificationNumber>"),
			model.ErrMissingRequiredField,
			"xml/rejected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newCountingRecorder()
			p := processor.NewPipeline(processor.WithRecorder(rec))

			result := p.Extract(context.Background(), []byte(tt.data), model.ContentTypeAuto)
			require.Error(t, result.Error)
			assert.Nil(t, result.Record)
			assert.True(t, errors.Is(result.Error, tt.kind), "got %v", result.Error)
			assert.Equal(t, 1, rec.documents[tt.outcome])
		})
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := processor.NewPipeline().Extract(ctx, []byte(testutil.MinimalInvoice), model.ContentTypeAuto)
	assert.ErrorIs(t, result.Error, context.Canceled)
}

func TestExtract_LogsExtraction(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	p := processor.NewPipeline(processor.WithLogger(zap.New(core)))

	doc := testutil.Replace(testutil.MinimalInvoice, "<InvoiceClass>OO</InvoiceClass>", "<InvoiceClass>ZZ</InvoiceClass>")
	result := p.Extract(context.Background(), []byte(doc), model.ContentTypeAuto)
	require.NoError(t, result.Error)
	assert.Equal(t, "code: ZZ", result.Record.Header.Class.Text)

	debug := logs.FilterMessage("invoice extracted").All()
	require.Len(t, debug, 1)
	assert.Equal(t, "0001", debug[0].ContextMap()["invoice"])
}

func TestExtract_UsesResolver(t *testing.T) {
	resolver := codes.NewResolver().WithOverrides(map[codes.TableID]map[string]string{
		codes.InvoiceClass: {"OO": "Original (personalizado)"},
	})
	p := processor.NewPipeline(processor.WithResolver(resolver))

	result := p.Extract(context.Background(), []byte(testutil.MinimalInvoice), model.ContentTypeAuto)
	require.NoError(t, result.Error)
	assert.Equal(t, "Original (personalizado)", result.Record.Header.Class.Text)
	assert.Same(t, resolver, p.Resolver())
}

func TestRender(t *testing.T) {
	rec := newCountingRecorder()
	p := processor.NewPipeline(processor.WithRecorder(rec), processor.WithInspection(true))

	data := testutil.MustSign(testutil.FullInvoice, signedAt)
	out := p.Render(context.Background(), data, model.ContentTypeAuto, registry, renderedAt)
	require.NoError(t, out.Error)

	assert.True(t, bytes.HasPrefix(out.PDF, []byte("%PDF-")))
	assert.GreaterOrEqual(t, out.Pages, 1)
	assert.True(t, out.Record.Certificate.Present())
	assert.Equal(t, 1, rec.renders)
	assert.Equal(t, out.Pages, rec.pages)
}

func TestRender_Deterministic(t *testing.T) {
	p := processor.NewPipeline()
	data := testutil.MustSign(testutil.FullInvoice, signedAt)

	a := p.Render(context.Background(), data, model.ContentTypeAuto, registry, renderedAt)
	b := p.Render(context.Background(), data, model.ContentTypeAuto, registry, renderedAt)
	require.NoError(t, a.Error)
	require.NoError(t, b.Error)
	assert.Equal(t, a.PDF, b.PDF)
	assert.Zero(t, a.Pages, "pages are only counted with inspection")
}

func TestRender_MissingRegistryField(t *testing.T) {
	reg := registry
	reg.RCF = " "

	out := processor.NewPipeline().Render(context.Background(), []byte(testutil.MinimalInvoice), model.ContentTypeAuto, reg, renderedAt)

	var ve *model.ValidationError
	require.ErrorAs(t, out.Error, &ve)
	assert.Equal(t, "num_rcf", ve.Field)
	assert.Nil(t, out.PDF)
	assert.NotNil(t, out.Record, "extraction still succeeded")
}

func TestRender_ExtractionFailureSkipsRendering(t *testing.T) {
	rec := newCountingRecorder()
	p := processor.NewPipeline(processor.WithRecorder(rec))

	out := p.Render(context.Background(), []byte("not xml"), model.ContentTypeAuto, registry, renderedAt)
	require.Error(t, out.Error)
	assert.Nil(t, out.PDF)
	assert.Zero(t, rec.renders)
}

func TestRender_Concurrent(t *testing.T) {
	p := processor.NewPipeline()
	data := testutil.MustSign(testutil.FullInvoice, signedAt)

	want := p.Render(context.Background(), data, model.ContentTypeAuto, registry, renderedAt)
	require.NoError(t, want.Error)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out := p.Render(context.Background(), data, model.ContentTypeAuto, registry, renderedAt)
			results[i] = out.PDF
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want.PDF, got)
	}
}

func TestCertificate(t *testing.T) {
	p := processor.NewPipeline()

	result, err := p.Certificate(context.Background(), testutil.MustSign(testutil.MinimalInvoice, signedAt))
	require.NoError(t, err)
	assert.True(t, result.SignatureFound)
	assert.True(t, result.Certificate.Present())

	result, err = p.Certificate(context.Background(), []byte(testutil.MinimalInvoice))
	require.NoError(t, err)
	assert.False(t, result.SignatureFound)
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected processor.Format
	}{
		{"XML with declaration", []byte(`<?xml version="1.0"?><fe:Facturae/>`), processor.FormatXML},
		{"XML with BOM", append([]byte{0xEF, 0xBB, 0xBF}, `<Facturae/>`...), processor.FormatXML},
		{"leading whitespace", []byte("\n\t <Facturae/>"), processor.FormatXML},
		{"signed", testutil.MustSign(testutil.MinimalInvoice, time.Time{}), processor.FormatXSIG},
		{"signature word in text", []byte(`<Facturae><Note>Signature pending</Note></Facturae>`), processor.FormatXML},
		{"PDF", []byte("%PDF-1.4\n%some content"), processor.FormatPDF},
		{"Unknown format", []byte("some random text"), processor.FormatUnknown},
		{"Empty data", []byte{}, processor.FormatUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, processor.DetectFormat(tt.data))
		})
	}
}

func TestFormatString(t *testing.T) {
	tests := []struct {
		format   processor.Format
		expected string
		ct       model.ContentType
	}{
		{processor.FormatXML, "xml", model.ContentTypeXML},
		{processor.FormatXSIG, "xsig", model.ContentTypeXSIG},
		{processor.FormatPDF, "pdf", model.ContentTypeAuto},
		{processor.FormatUnknown, "unknown", model.ContentTypeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.format.String())
			assert.Equal(t, tt.ct, tt.format.ContentType())
		})
	}
}

func TestReconcile(t *testing.T) {
	p := processor.NewPipeline()
	extract := func(t *testing.T, doc string) *model.InvoiceRecord {
		t.Helper()
		result := p.Extract(context.Background(), []byte(doc), model.ContentTypeAuto)
		require.NoError(t, result.Error)
		return result.Record
	}

	t.Run("consistent invoices", func(t *testing.T) {
		assert.Empty(t, processor.Reconcile(extract(t, testutil.MinimalInvoice)))
		assert.Empty(t, processor.Reconcile(extract(t, testutil.FullInvoice)))
	})

	t.Run("line sum differs", func(t *testing.T) {
		got := processor.Reconcile(extract(t, testutil.WithLines(testutil.MinimalInvoice, 3)))
		require.Len(t, got, 1)
		assert.Equal(t, processor.CheckGrossAmount, got[0].Check)
		assert.True(t, got[0].Computed.Equal(decimal.RequireFromString("30")))
		assert.True(t, got[0].Difference().Equal(decimal.RequireFromString("70")))
	})

	t.Run("invoice total differs", func(t *testing.T) {
		doc := testutil.Replace(testutil.MinimalInvoice, "<InvoiceTotal>121.00</InvoiceTotal>", "<InvoiceTotal>125.00</InvoiceTotal>")
		got := processor.Reconcile(extract(t, doc))
		require.Len(t, got, 1)
		assert.Equal(t, processor.CheckInvoiceTotal, got[0].Check)
	})

	t.Run("sub-cent difference is ignored", func(t *testing.T) {
		doc := testutil.Replace(testutil.MinimalInvoice, "<TotalTaxOutputs>21.00</TotalTaxOutputs>", "<TotalTaxOutputs>21.001</TotalTaxOutputs>")
		assert.Empty(t, processor.Reconcile(extract(t, doc)))
	})

	t.Run("nil record", func(t *testing.T) {
		assert.Nil(t, processor.Reconcile(nil))
	})
}

func BenchmarkDetectFormat_XML(b *testing.B) {
	data := []byte(testutil.MinimalInvoice)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		processor.DetectFormat(data)
	}
}

func BenchmarkExtract(b *testing.B) {
	ctx := context.Background()
	p := processor.NewPipeline()
	data := testutil.MustSign(testutil.FullInvoice, signedAt)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.Extract(ctx, data, model.ContentTypeAuto)
	}
}

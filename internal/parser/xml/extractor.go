package xml

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/facturae-processor/internal/codes"
	dec "github.com/rezonia/facturae-processor/internal/decimal"
	"github.com/rezonia/facturae-processor/internal/model"
)

// Field paths reported in fatal errors, relative to the Facturae root
const (
	FieldIssuerName    = "Parties/SellerParty/LegalEntity/CorporateName"
	FieldIssuerTaxID   = "Parties/SellerParty/TaxIdentification/TaxIdentificationNumber"
	FieldInvoice       = "Invoices/Invoice"
	FieldInvoiceNumber = "Invoices/Invoice/InvoiceHeader/InvoiceNumber"
	FieldIssueDate     = "Invoices/Invoice/InvoiceIssueData/IssueDate"
)

// Extractor builds an InvoiceRecord from a loaded Facturae document.
// It is stateless apart from its resolver and safe for concurrent use.
type Extractor struct {
	resolver *codes.Resolver
}

// NewExtractor creates an extractor. A nil resolver uses the bundled tables.
func NewExtractor(resolver *codes.Resolver) *Extractor {
	if resolver == nil {
		resolver = codes.NewResolver()
	}
	return &Extractor{resolver: resolver}
}

// step extracts one block of the record. Steps are independent: each
// reads the tree and writes only its own part of the record.
type step struct {
	name string
	run  func(x *extraction) error
}

var steps = []step{
	{"file-header", extractFileHeader},
	{"issuer", extractIssuer},
	{"receiver", extractReceiver},
	{"third-party", extractThirdParty},
	{"invoice-header", extractInvoiceHeader},
	{"lines", extractLines},
	{"tax-outputs", extractTaxOutputs},
	{"taxes-withheld", extractTaxesWithheld},
	{"totals", extractTotals},
	{"payment", extractPayment},
	{"additional-data", extractAdditionalData},
}

// extraction is the per-call working state
type extraction struct {
	root     *etree.Element // Facturae
	invoice  *etree.Element // first Invoices/Invoice, may be nil
	rec      *model.InvoiceRecord
	resolver *codes.Resolver
	warnings []string
}

func (x *extraction) warn(format string, args ...interface{}) {
	x.warnings = append(x.warnings, fmt.Sprintf(format, args...))
}

// resolve looks raw up in a code table. A present but unlisted code keeps
// its fallback text and is reported as a warning.
func (x *extraction) resolve(id codes.TableID, raw, field string) model.Coded {
	c := x.resolver.Resolve(id, raw)
	if !c.Known && c.Code != "" {
		x.warn("%s: unknown code %q", field, c.Code)
	}
	return c
}

// Extract runs every step and aggregates the result. Warnings describe
// non-fatal degradations and are returned even when extraction fails.
func (e *Extractor) Extract(doc *Document) (*model.InvoiceRecord, []string, error) {
	if doc == nil || doc.Facturae == nil {
		return nil, nil, model.NewParseError(model.ErrUnrecognizedFormat, "", "no "+FacturaeRoot+" element", nil)
	}

	x := &extraction{
		root:     doc.Facturae,
		rec:      &model.InvoiceRecord{},
		resolver: e.resolver,
	}

	invoices := children(child(doc.Facturae, "Invoices"), "Invoice")
	if len(invoices) > 0 {
		x.invoice = invoices[0]
	}
	if len(invoices) > 1 {
		x.warn("document contains %d invoices, only the first is processed", len(invoices))
	}

	var errs []error
	for _, s := range steps {
		if err := s.run(x); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}

	switch len(errs) {
	case 0:
		return x.rec, x.warnings, nil
	case 1:
		return nil, x.warnings, errs[0]
	default:
		return nil, x.warnings, errors.Join(errs...)
	}
}

// decimalAt parses a required-shape numeric field. A missing element is
// reported as absent; unparseable text is an InvalidFieldFormat error.
func decimalAt(el *etree.Element, field string, path ...string) (model.Optional[decimal.Decimal], error) {
	c := child(el, path...)
	if c == nil {
		return model.None[decimal.Decimal](), nil
	}
	raw := c.Text()
	d, err := dec.Parse(raw)
	if err != nil {
		return model.None[decimal.Decimal](), model.InvalidField(field, raw, err)
	}
	return model.Some(d), nil
}

// dateAt parses a calendar date field (YYYY-MM-DD)
func dateAt(el *etree.Element, field string, path ...string) (model.Optional[civil.Date], error) {
	raw := text(el, path...)
	if raw == "" {
		return model.None[civil.Date](), nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return model.None[civil.Date](), model.InvalidField(field, raw, err)
	}
	return model.Some(d), nil
}

// periodAt reads a StartDate/EndDate pair. A period missing either end is
// reported as absent with a warning.
func (x *extraction) periodAt(el *etree.Element, field string) (model.Optional[model.Period], error) {
	if el == nil {
		return model.None[model.Period](), nil
	}
	start, err := dateAt(el, joinPath(field, "StartDate"), "StartDate")
	if err != nil {
		return model.None[model.Period](), err
	}
	end, err := dateAt(el, joinPath(field, "EndDate"), "EndDate")
	if err != nil {
		return model.None[model.Period](), err
	}
	s, okStart := start.Get()
	en, okEnd := end.Get()
	if !okStart || !okEnd {
		x.warn("%s is incomplete, ignored", field)
		return model.None[model.Period](), nil
	}
	return model.Some(model.Period{Start: s, End: en}), nil
}

// amountOrZero reads a numeric field that the record holds as a plain
// decimal; a missing value degrades to zero with a warning.
func (x *extraction) amountOrZero(el *etree.Element, field string, path ...string) (decimal.Decimal, error) {
	v, err := decimalAt(el, field, path...)
	if err != nil {
		return decimal.Zero, err
	}
	d, ok := v.Get()
	if !ok {
		x.warn("%s is missing, assuming 0", field)
		return decimal.Zero, nil
	}
	return d, nil
}

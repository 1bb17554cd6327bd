package processor

import (
	"github.com/shopspring/decimal"

	dec "github.com/rezonia/facturae-processor/internal/decimal"
	"github.com/rezonia/facturae-processor/internal/model"
)

// Discrepancy is a declared total that does not match the figure computed
// from the record's own detail.
type Discrepancy struct {
	Check    string          `json:"check"`
	Declared decimal.Decimal `json:"declared"`
	Computed decimal.Decimal `json:"computed"`
}

// Difference returns Declared - Computed
func (d Discrepancy) Difference() decimal.Decimal {
	return d.Declared.Sub(d.Computed)
}

// Check names
const (
	CheckGrossAmount     = "gross_amount"
	CheckBeforeTaxes     = "gross_amount_before_taxes"
	CheckTaxOutputs      = "tax_total"
	CheckTaxesWithheld   = "withholding_total"
	CheckInvoiceTotal    = "invoice_total"
	CheckInstallmentsSum = "installments"
)

// Reconcile compares the declared totals with sums over lines, taxes and
// installments, at cent precision. It only reports; the record is valid
// whatever it returns. Checks whose declared total is absent are skipped.
func Reconcile(rec *model.InvoiceRecord) []Discrepancy {
	if rec == nil {
		return nil
	}
	t := rec.Totals
	var out []Discrepancy

	check := func(name string, declared model.Optional[decimal.Decimal], computed decimal.Decimal) {
		d, ok := declared.Get()
		if !ok {
			return
		}
		if !d.Round(2).Equal(computed.Round(2)) {
			out = append(out, Discrepancy{Check: name, Declared: d, Computed: computed})
		}
	}

	lines := make([]decimal.Decimal, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		lines = append(lines, l.TotalCost)
	}
	check(CheckGrossAmount, t.GrossAmount, dec.Sum(lines))

	if gross, ok := t.GrossAmount.Get(); ok {
		before := gross.
			Sub(t.GeneralDiscounts.OrElse(dec.Zero)).
			Add(t.GeneralSurcharges.OrElse(dec.Zero))
		check(CheckBeforeTaxes, t.GrossAmountBeforeTaxes, before)
	}

	taxes := make([]decimal.Decimal, 0, 2*len(rec.TaxOutputs))
	for _, tax := range rec.TaxOutputs {
		taxes = append(taxes, tax.TaxAmount)
		if s, ok := tax.Surcharge.Get(); ok {
			taxes = append(taxes, s.Amount)
		}
	}
	check(CheckTaxOutputs, t.TaxOutputs, dec.Sum(taxes))

	withheld := make([]decimal.Decimal, 0, len(rec.TaxesWithheld))
	for _, w := range rec.TaxesWithheld {
		withheld = append(withheld, w.Amount)
	}
	check(CheckTaxesWithheld, t.TaxesWithheld, dec.Sum(withheld))

	if base, ok := t.GrossAmountBeforeTaxes.Get(); ok {
		total := base.
			Add(t.TaxOutputs.OrElse(dec.Zero)).
			Sub(t.TaxesWithheld.OrElse(dec.Zero))
		check(CheckInvoiceTotal, t.InvoiceTotal, total)
	}

	if len(rec.Payment) > 0 {
		var amounts []decimal.Decimal
		for _, p := range rec.Payment {
			if a, ok := p.Amount.Get(); ok {
				amounts = append(amounts, a)
			}
		}
		if len(amounts) == len(rec.Payment) {
			check(CheckInstallmentsSum, t.ExecutableAmount, dec.Sum(amounts))
		}
	}

	return out
}

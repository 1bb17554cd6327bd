package xml_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/parser/xml"
	"github.com/rezonia/facturae-processor/internal/testutil"
)

func extract(t *testing.T, doc string) (*model.InvoiceRecord, []string, error) {
	t.Helper()
	loaded, err := xml.NewLoader().Load([]byte(doc), model.ContentTypeAuto)
	require.NoError(t, err)
	return xml.NewExtractor(nil).Extract(loaded)
}

func mustExtract(t *testing.T, doc string) *model.InvoiceRecord {
	t.Helper()
	rec, _, err := extract(t, doc)
	require.NoError(t, err)
	require.NotNil(t, rec)
	return rec
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestExtract_MinimalInvoice(t *testing.T) {
	rec := mustExtract(t, testutil.MinimalInvoice)

	assert.Equal(t, "Servicios Ejemplo S.L.", rec.Issuer.Name)
	assert.Equal(t, "B12345678", rec.Issuer.TaxID)
	assert.Equal(t, model.PersonTypeLegalEntity, rec.Issuer.PersonType)
	assert.Equal(t, []string{"Calle Mayor 1", "28013 Madrid", "Madrid", "ESP"}, rec.Issuer.Address.Lines())

	assert.Equal(t, "Ayuntamiento de Ejemplo", rec.Receiver.Name)
	assert.Equal(t, "P2800000A", rec.Receiver.TaxID)

	assert.Equal(t, "0001", rec.Header.Number)
	assert.False(t, rec.Header.SeriesCode.Present())
	assert.Equal(t, civil.Date{Year: 2024, Month: time.March, Day: 15}, rec.Header.IssueDate)
	assert.False(t, rec.Header.Period.Present())
	assert.Equal(t, "Original", rec.Header.Class.Text)
	assert.Equal(t, "EUR", rec.Header.Currency)

	require.Len(t, rec.Lines, 1)
	line := rec.Lines[0]
	assert.Equal(t, "Servicio A", line.Description)
	assert.True(t, line.Quantity.Equal(dec("1")))
	assert.True(t, line.UnitPriceWithoutTax.Equal(dec("100.00")))
	assert.True(t, line.TotalCost.Equal(dec("100.00")))

	require.Len(t, rec.TaxOutputs, 1)
	tax := rec.TaxOutputs[0]
	assert.True(t, tax.Rate.Equal(dec("21")))
	assert.True(t, tax.TaxableBase.Equal(dec("100.00")))
	assert.True(t, tax.TaxAmount.Equal(dec("21.00")))
	assert.Equal(t, "IVA", tax.TaxType.Text)
	assert.False(t, tax.Surcharge.Present())

	assert.Empty(t, rec.TaxesWithheld)
	assert.False(t, rec.EquivalenceSurcharge.Present())
	assert.False(t, rec.Certificate.Present(), "the extractor never fills the certificate")

	total, ok := rec.Totals.InvoiceTotal.Get()
	require.True(t, ok)
	assert.Equal(t, "121", total.String())

	require.Len(t, rec.Payment, 1)
	assert.Equal(t, "Transferencia", rec.Payment[0].Means.Text)
	iban, ok := rec.Payment[0].IBAN.Get()
	require.True(t, ok)
	assert.Equal(t, "ES9121000418450200051332", iban)
}

func TestExtract_AdministrativeCentres(t *testing.T) {
	rec := mustExtract(t, testutil.MinimalInvoice)

	require.Len(t, rec.Receiver.Centres, 3)
	want := []struct{ code, role, name string }{
		{"L01280796", "Oficina contable", "Intervención General"},
		{"L01280797", "Órgano gestor", "Área de Hacienda"},
		{"L01280798", "Unidad tramitadora", "Servicio de Contratación"},
	}
	for i, w := range want {
		c := rec.Receiver.Centres[i]
		assert.Equal(t, w.code, c.CentreCode)
		assert.Equal(t, w.role, c.Role.Text)
		assert.Equal(t, w.name, c.Name)
	}
}

func TestExtract_CentresSharingRoleAreKept(t *testing.T) {
	rec := mustExtract(t, testutil.FullInvoice)

	require.Len(t, rec.Receiver.Centres, 3)
	assert.Equal(t, "01", rec.Receiver.Centres[0].Role.Code)
	assert.Equal(t, "01", rec.Receiver.Centres[1].Role.Code)
	assert.Equal(t, "Oficina B", rec.Receiver.Centres[1].Name)

	unknown := rec.Receiver.Centres[2]
	assert.False(t, unknown.Role.Known)
	assert.Equal(t, "code: 09", unknown.Role.Text)
	assert.Equal(t, "Centro sin rol conocido", unknown.Name)
}

func TestExtract_FullInvoice(t *testing.T) {
	rec := mustExtract(t, testutil.FullInvoice)

	assert.Equal(t, "María García López", rec.Issuer.Name)
	assert.Equal(t, model.PersonTypeIndividual, rec.Issuer.PersonType)

	assert.True(t, rec.Receiver.Address.Overseas)
	assert.Equal(t, "75001 Paris", rec.Receiver.Address.Town)

	tp, ok := rec.ThirdParty.Get()
	require.True(t, ok)
	assert.Equal(t, "Gestoría Tercera S.A.", tp.Name)

	assert.Equal(t, "2024-A0042", rec.Header.FullNumber())
	assert.Equal(t, "Original Rectificativa", rec.Header.Class.Text)
	period, ok := rec.Header.Period.Get()
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 1}, period.Start)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.June, Day: 30}, period.End)

	require.Len(t, rec.Lines, 2)
	first := rec.Lines[0]
	assert.Equal(t, "10.5", first.Quantity.String())
	assert.Equal(t, "95.238095", first.UnitPriceWithoutTax.String())
	assert.Equal(t, "Expediente 2024/117", first.AdditionalInfo)
	assert.True(t, first.Period.Present())
	require.Len(t, first.Charges, 1)
	assert.Equal(t, "Desplazamiento", first.Charges[0].Reason)
	require.Len(t, first.Discounts, 1)
	assert.Equal(t, "Pronto pago", first.Discounts[0].Reason)
	rate, ok := first.Discounts[0].Rate.Get()
	require.True(t, ok)
	assert.True(t, rate.Equal(dec("2")))

	assert.Equal(t, "Pedido 77/2024", rec.AdditionalInformation)
	assert.Equal(t, []string{"Operación sujeta a retención del IRPF."}, rec.LegalReferences)
}

func TestExtract_TaxRatesAreNotMerged(t *testing.T) {
	rec := mustExtract(t, testutil.FullInvoice)

	require.Len(t, rec.TaxOutputs, 2)
	assert.True(t, rec.TaxOutputs[0].Rate.Equal(dec("21")))
	assert.True(t, rec.TaxOutputs[1].Rate.Equal(dec("10")))
	assert.True(t, rec.TaxOutputs[1].TaxAmount.Equal(dec("25.05")))
}

func TestExtract_SameRateTwice(t *testing.T) {
	doc := testutil.Replace(testutil.FullInvoice, "<TaxRate>10.00</TaxRate>", "<TaxRate>21.00</TaxRate>")
	rec := mustExtract(t, doc)

	require.Len(t, rec.TaxOutputs, 2, "duplicate rates stay distinct")
	assert.True(t, rec.TaxOutputs[0].Rate.Equal(rec.TaxOutputs[1].Rate))
}

func TestExtract_EquivalenceSurcharge(t *testing.T) {
	rec := mustExtract(t, testutil.FullInvoice)

	surcharges, ok := rec.EquivalenceSurcharge.Get()
	require.True(t, ok)
	require.Len(t, surcharges, 1)
	assert.True(t, surcharges[0].Rate.Equal(dec("5.2")))
	assert.True(t, surcharges[0].Amount.Equal(dec("52")))

	assert.True(t, rec.TaxOutputs[0].Surcharge.Present())
	assert.False(t, rec.TaxOutputs[1].Surcharge.Present())
}

func TestExtract_Withholding(t *testing.T) {
	rec := mustExtract(t, testutil.FullInvoice)

	require.Len(t, rec.TaxesWithheld, 1)
	w := rec.TaxesWithheld[0]
	assert.Equal(t, "04", w.TaxType.Code)
	assert.Equal(t, "IRPF", w.TaxType.Text)
	assert.True(t, w.Rate.Equal(dec("15")))
	assert.True(t, w.Amount.Equal(dec("187.58")))
	base, ok := w.TaxableBase.Get()
	require.True(t, ok)
	assert.True(t, base.Equal(dec("1250.50")))
}

func TestExtract_WithholdingUsesResolver(t *testing.T) {
	resolver := codes.NewResolver().WithOverrides(map[codes.TableID]map[string]string{
		codes.TaxType: {"04": "Retención IRPF"},
	})
	loaded, err := xml.NewLoader().Load([]byte(testutil.FullInvoice), model.ContentTypeXML)
	require.NoError(t, err)

	rec, _, err := xml.NewExtractor(resolver).Extract(loaded)
	require.NoError(t, err)
	assert.Equal(t, "Retención IRPF", rec.TaxesWithheld[0].TaxType.Text)
}

func TestExtract_PaymentWithoutIBAN(t *testing.T) {
	rec := mustExtract(t, testutil.FullInvoice)

	require.Len(t, rec.Payment, 2)
	assert.True(t, rec.Payment[0].IBAN.Present())
	assert.False(t, rec.Payment[1].IBAN.Present())
	assert.Equal(t, "Transferencia", rec.Payment[1].Means.Text)
	due, ok := rec.Payment[1].DueDate.Get()
	require.True(t, ok)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.August, Day: 30}, due)
}

func TestExtract_LineCountMatchesSource(t *testing.T) {
	for _, n := range []int{0, 1, 7, 60} {
		t.Run(fmt.Sprintf("%d lines", n), func(t *testing.T) {
			rec := mustExtract(t, testutil.WithLines(testutil.MinimalInvoice, n))
			assert.Len(t, rec.Lines, n)
		})
	}
}

func TestExtract_LineTotalIsNotRecomputed(t *testing.T) {
	doc := testutil.Replace(testutil.MinimalInvoice, "<TotalCost>100.00</TotalCost>", "<TotalCost>99.99</TotalCost>")
	rec := mustExtract(t, doc)
	assert.Equal(t, "99.99", rec.Lines[0].TotalCost.String())
}

func TestExtract_NoTaxOutputs(t *testing.T) {
	start := "<TaxesOutputs>\n        <Tax>\n          <TaxTypeCode>01</TaxTypeCode>\n          <TaxRate>21.00</TaxRate>\n          <TaxableBase>\n            <TotalAmount>100.00</TotalAmount>\n          </TaxableBase>\n          <TaxAmount>\n            <TotalAmount>21.00</TotalAmount>\n          </TaxAmount>\n        </Tax>\n      </TaxesOutputs>"
	doc := testutil.Remove(testutil.MinimalInvoice, start)
	require.NotEqual(t, testutil.MinimalInvoice, doc)

	rec := mustExtract(t, doc)
	assert.NotNil(t, rec.TaxOutputs)
	assert.Empty(t, rec.TaxOutputs)
}

func TestExtract_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "issuer tax id",
			doc:       testutil.Remove(testutil.MinimalInvoice, "<TaxIdentificationNumber>B12345678</TaxIdentificationNumber>"),
			wantField: xml.FieldIssuerTaxID,
		},
		{
			name:      "issuer name",
			doc:       testutil.Remove(testutil.MinimalInvoice, "<CorporateName>Servicios Ejemplo S.L.</CorporateName>"),
			wantField: xml.FieldIssuerName,
		},
		{
			name:      "invoice number",
			doc:       testutil.Remove(testutil.MinimalInvoice, "<InvoiceNumber>0001</InvoiceNumber>"),
			wantField: xml.FieldInvoiceNumber,
		},
		{
			name:      "issue date",
			doc:       testutil.Remove(testutil.MinimalInvoice, "<IssueDate>2024-03-15</IssueDate>"),
			wantField: xml.FieldIssueDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _, err := extract(t, tt.doc)
			require.Error(t, err)
			assert.Nil(t, rec)
			assert.True(t, errors.Is(err, model.ErrMissingRequiredField))
			assert.Equal(t, tt.wantField, model.FieldOf(err))
		})
	}
}

func TestExtract_MissingIBANIsNotAnError(t *testing.T) {
	doc := testutil.Remove(testutil.MinimalInvoice, "<IBAN>ES9121000418450200051332</IBAN>")
	rec := mustExtract(t, doc)

	require.Len(t, rec.Payment, 1)
	assert.False(t, rec.Payment[0].IBAN.Present())
}

func TestExtract_InvalidFieldFormat(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantField string
	}{
		{
			name:      "issue date",
			doc:       testutil.Replace(testutil.MinimalInvoice, "<IssueDate>2024-03-15</IssueDate>", "<IssueDate>15/03/2024</IssueDate>"),
			wantField: xml.FieldIssueDate,
		},
		{
			name:      "impossible date",
			doc:       testutil.Replace(testutil.MinimalInvoice, "<IssueDate>2024-03-15</IssueDate>", "<IssueDate>2024-02-30</IssueDate>"),
			wantField: xml.FieldIssueDate,
		},
		{
			name:      "line quantity",
			doc:       testutil.Replace(testutil.MinimalInvoice, "<Quantity>1</Quantity>", "<Quantity>uno</Quantity>"),
			wantField: "Invoices/Invoice/Items/InvoiceLine[1]/Quantity",
		},
		{
			name:      "tax rate",
			doc:       testutil.Replace(testutil.MinimalInvoice, "<TaxRate>21.00</TaxRate>", "<TaxRate>21,00</TaxRate>"),
			wantField: "Invoices/Invoice/TaxesOutputs/Tax[1]/TaxRate",
		},
		{
			name:      "invoice total",
			doc:       testutil.Replace(testutil.MinimalInvoice, "<InvoiceTotal>121.00</InvoiceTotal>", "<InvoiceTotal>N/A</InvoiceTotal>"),
			wantField: "Invoices/Invoice/InvoiceTotals/InvoiceTotal",
		},
		{
			name:      "due date",
			doc:       testutil.Replace(testutil.MinimalInvoice, "<InstallmentDueDate>2024-04-15</InstallmentDueDate>", "<InstallmentDueDate>soon</InstallmentDueDate>"),
			wantField: "Invoices/Invoice/PaymentDetails/Installment[1]/InstallmentDueDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := extract(t, tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidFieldFormat), "got %v", err)
			assert.Equal(t, tt.wantField, model.FieldOf(err))
		})
	}
}

func TestExtract_ReceiverNameIsOptional(t *testing.T) {
	doc := testutil.Remove(testutil.MinimalInvoice, "<CorporateName>Ayuntamiento de Ejemplo</CorporateName>")
	rec, warnings, err := extract(t, doc)
	require.NoError(t, err)
	assert.Empty(t, rec.Receiver.Name)
	assert.Contains(t, warnings, "receiver name is missing")
}

func TestExtract_UnknownCodesFallBack(t *testing.T) {
	doc := testutil.Replace(testutil.MinimalInvoice, "<PaymentMeans>04</PaymentMeans>", "<PaymentMeans>77</PaymentMeans>")
	rec := mustExtract(t, doc)

	means := rec.Payment[0].Means
	assert.False(t, means.Known)
	assert.Equal(t, "77", means.Code)
	raw, ok := codes.RawFromFallback(means.Text)
	require.True(t, ok)
	assert.Equal(t, "77", raw)
}

func TestExtract_UnknownCodesAreWarned(t *testing.T) {
	tests := []struct {
		name    string
		old     string
		new     string
		coded   func(*model.InvoiceRecord) model.Coded
		warning string
	}{
		{
			name:    "centre role",
			old:     "<RoleTypeCode>02</RoleTypeCode>",
			new:     "<RoleTypeCode>99</RoleTypeCode>",
			coded:   func(r *model.InvoiceRecord) model.Coded { return r.Receiver.Centres[1].Role },
			warning: `AdministrativeCentre[2]/RoleTypeCode: unknown code "99"`,
		},
		{
			name:    "payment means",
			old:     "<PaymentMeans>04</PaymentMeans>",
			new:     "<PaymentMeans>99</PaymentMeans>",
			coded:   func(r *model.InvoiceRecord) model.Coded { return r.Payment[0].Means },
			warning: `Installment[1]/PaymentMeans: unknown code "99"`,
		},
		{
			name:    "invoice class",
			old:     "<InvoiceClass>OO</InvoiceClass>",
			new:     "<InvoiceClass>99</InvoiceClass>",
			coded:   func(r *model.InvoiceRecord) model.Coded { return r.Header.Class },
			warning: `InvoiceHeader/InvoiceClass: unknown code "99"`,
		},
		{
			name:    "document type",
			old:     "<InvoiceDocumentType>FC</InvoiceDocumentType>",
			new:     "<InvoiceDocumentType>99</InvoiceDocumentType>",
			coded:   func(r *model.InvoiceRecord) model.Coded { return r.Header.DocumentType },
			warning: `InvoiceHeader/InvoiceDocumentType: unknown code "99"`,
		},
		{
			name:    "tax type",
			old:     "<TaxTypeCode>01</TaxTypeCode>",
			new:     "<TaxTypeCode>99</TaxTypeCode>",
			coded:   func(r *model.InvoiceRecord) model.Coded { return r.TaxOutputs[0].TaxType },
			warning: `TaxTypeCode: unknown code "99"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, warnings, err := extract(t, testutil.Replace(testutil.MinimalInvoice, tt.old, tt.new))
			require.NoError(t, err)

			c := tt.coded(rec)
			assert.False(t, c.Known)
			assert.Equal(t, "99", c.Code)
			require.Len(t, warnings, 1)
			assert.Contains(t, warnings[0], tt.warning)
		})
	}
}

func TestExtract_KnownCodesAreNotWarned(t *testing.T) {
	_, warnings, err := extract(t, testutil.MinimalInvoice)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestExtract_MultipleInvoicesUsesFirst(t *testing.T) {
	second := "<Invoice><InvoiceHeader><InvoiceNumber>0002</InvoiceNumber></InvoiceHeader></Invoice>\n  </Invoices>"
	doc := testutil.Replace(testutil.MinimalInvoice, "</Invoices>", second)

	rec, warnings, err := extract(t, doc)
	require.NoError(t, err)
	assert.Equal(t, "0001", rec.Header.Number)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "only the first is processed")
}

func TestExtract_IncompletePeriodIsAbsent(t *testing.T) {
	doc := testutil.Remove(testutil.FullInvoice, "<EndDate>2024-06-30</EndDate>")
	rec, warnings, err := extract(t, doc)
	require.NoError(t, err)
	assert.False(t, rec.Header.Period.Present())
	assert.NotEmpty(t, warnings)
}

func TestExtract_NoInvoice(t *testing.T) {
	doc := `<Facturae><Parties><SellerParty><TaxIdentification><TaxIdentificationNumber>B1</TaxIdentificationNumber></TaxIdentification><LegalEntity><CorporateName>X</CorporateName></LegalEntity></SellerParty></Parties></Facturae>`
	_, _, err := extract(t, doc)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrMissingRequiredField))
	assert.Equal(t, xml.FieldInvoice, model.FieldOf(err))
}

func TestExtract_NilDocument(t *testing.T) {
	_, _, err := xml.NewExtractor(nil).Extract(nil)
	assert.ErrorIs(t, err, model.ErrUnrecognizedFormat)
}

package model

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// PersonType distinguishes legal entities from individuals
type PersonType string

const (
	PersonTypeLegalEntity PersonType = "J"
	PersonTypeIndividual  PersonType = "F"
)

// ContentType is the declared shape of an incoming document
type ContentType string

const (
	ContentTypeXML  ContentType = "xml"  // bare Facturae
	ContentTypeXSIG ContentType = "xsig" // XAdES-enveloped Facturae
	ContentTypeAuto ContentType = "auto"
)

// ParseContentType maps a file extension or flag value to a ContentType
func ParseContentType(s string) ContentType {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "xml", "application/xml", "text/xml":
		return ContentTypeXML
	case "xsig":
		return ContentTypeXSIG
	default:
		return ContentTypeAuto
	}
}

// Coded is a coded enumeration value: the raw code as found in the
// document and its resolved display text.
type Coded struct {
	Code  string `json:"code"`
	Text  string `json:"text"`
	Known bool   `json:"known"`
}

func (c Coded) String() string {
	return c.Text
}

// Address is a postal address in Spain or abroad
type Address struct {
	Street      string `json:"street,omitempty"`
	PostCode    string `json:"post_code,omitempty"`
	Town        string `json:"town,omitempty"`
	Province    string `json:"province,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
	Overseas    bool   `json:"overseas,omitempty"`
}

// Lines returns the non-empty address parts in display order
func (a Address) Lines() []string {
	var parts []string
	for _, p := range []string{a.Street, strings.TrimSpace(a.PostCode + " " + a.Town), a.Province, a.CountryCode} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// IsZero reports whether no address part was found
func (a Address) IsZero() bool {
	return len(a.Lines()) == 0
}

// Party represents seller, buyer or third party
type Party struct {
	Name       string     `json:"name"`
	PersonType PersonType `json:"person_type,omitempty"`
	TaxID      string     `json:"tax_id"`
	Address    Address    `json:"address"`
}

// AdministrativeCentre is a routing destination of a public-sector receiver
type AdministrativeCentre struct {
	Role       Coded  `json:"role"`
	CentreCode string `json:"centre_code"`
	Name       string `json:"name,omitempty"`
}

// Receiver is the buyer party plus its administrative centres, in source order
type Receiver struct {
	Party
	Centres []AdministrativeCentre `json:"administrative_centres"`
}

// Period is a closed date interval
type Period struct {
	Start civil.Date `json:"start"`
	End   civil.Date `json:"end"`
}

// FileHeader holds the Facturae file-level header
type FileHeader struct {
	SchemaVersion string `json:"schema_version"`
	Modality      string `json:"modality,omitempty"`
	IssuerType    string `json:"issuer_type,omitempty"`
	BatchCurrency string `json:"batch_currency,omitempty"`
}

// InvoiceHeader identifies the invoice
type InvoiceHeader struct {
	SeriesCode   Optional[string] `json:"series_code"`
	Number       string           `json:"number"`
	IssueDate    civil.Date       `json:"issue_date"`
	Period       Optional[Period] `json:"invoicing_period"`
	DocumentType Coded            `json:"document_type"`
	Class        Coded            `json:"class"`
	Currency     string           `json:"currency,omitempty"`
	Language     string           `json:"language,omitempty"`
}

// FullNumber returns the series code followed by the invoice number
func (h InvoiceHeader) FullNumber() string {
	return h.SeriesCode.OrElse("") + h.Number
}

// Adjustment is a line-level charge or discount
type Adjustment struct {
	Reason string                    `json:"reason"`
	Rate   Optional[decimal.Decimal] `json:"rate"`
	Amount decimal.Decimal           `json:"amount"`
}

// InvoiceLine is one line item. TotalCost is read from the document,
// never recomputed.
type InvoiceLine struct {
	Description         string           `json:"description"`
	Quantity            decimal.Decimal  `json:"quantity"`
	UnitOfMeasure       string           `json:"unit_of_measure,omitempty"`
	UnitPriceWithoutTax decimal.Decimal  `json:"unit_price_without_tax"`
	TotalCost           decimal.Decimal  `json:"total_cost"`
	AdditionalInfo      string           `json:"additional_info,omitempty"`
	Period              Optional[Period] `json:"period"`
	Charges             []Adjustment     `json:"charges"`
	Discounts           []Adjustment     `json:"discounts"`
}

// Surcharge is an equivalence surcharge declared on a tax output
type Surcharge struct {
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// TaxOutput is one declared output-tax entry. Entries with equal rates
// are kept distinct.
type TaxOutput struct {
	TaxType     Coded               `json:"tax_type"`
	Rate        decimal.Decimal     `json:"rate"`
	TaxableBase decimal.Decimal     `json:"taxable_base"`
	TaxAmount   decimal.Decimal     `json:"tax_amount"`
	Surcharge   Optional[Surcharge] `json:"surcharge"`
}

// WithheldTax is one withholding entry (IRPF is the common case)
type WithheldTax struct {
	TaxType     Coded                     `json:"tax_type"`
	Rate        decimal.Decimal           `json:"rate"`
	TaxableBase Optional[decimal.Decimal] `json:"taxable_base"`
	Amount      decimal.Decimal           `json:"amount"`
}

// Totals are read verbatim from InvoiceTotals
type Totals struct {
	GrossAmount            Optional[decimal.Decimal] `json:"gross_amount"`
	GeneralDiscounts       Optional[decimal.Decimal] `json:"general_discounts"`
	GeneralSurcharges      Optional[decimal.Decimal] `json:"general_surcharges"`
	GrossAmountBeforeTaxes Optional[decimal.Decimal] `json:"gross_amount_before_taxes"`
	TaxOutputs             Optional[decimal.Decimal] `json:"tax_total"`
	TaxesWithheld          Optional[decimal.Decimal] `json:"withholding_total"`
	InvoiceTotal           Optional[decimal.Decimal] `json:"invoice_total"`
	OutstandingAmount      Optional[decimal.Decimal] `json:"outstanding_amount"`
	ExecutableAmount       Optional[decimal.Decimal] `json:"net_payable"`
}

// Installment is one payment installment. IBAN is optional.
type Installment struct {
	DueDate Optional[civil.Date]      `json:"due_date"`
	Amount  Optional[decimal.Decimal] `json:"amount"`
	Means   Coded                     `json:"payment_means"`
	IBAN    Optional[string]          `json:"iban"`
}

// InvoiceRecord is the normalized result of extracting one Facturae invoice.
// It is built once by the extractor and treated as read-only afterwards.
type InvoiceRecord struct {
	FileHeader FileHeader      `json:"file_header"`
	Issuer     Party           `json:"issuer"`
	Receiver   Receiver        `json:"receiver"`
	ThirdParty Optional[Party] `json:"third_party"`
	Header     InvoiceHeader   `json:"invoice_header"`
	Lines      []InvoiceLine   `json:"lines"`

	TaxOutputs []TaxOutput `json:"tax_outputs"`
	// EquivalenceSurcharge is present iff at least one tax output declares it
	EquivalenceSurcharge Optional[[]Surcharge] `json:"equivalence_surcharge"`
	TaxesWithheld        []WithheldTax         `json:"tax_withheld"`

	Totals  Totals        `json:"totals"`
	Payment []Installment `json:"payment"`

	Certificate Optional[Certificate] `json:"certificate"`

	AdditionalInformation string   `json:"additional_information,omitempty"`
	LegalReferences       []string `json:"legal_references,omitempty"`
}

// Charges returns every line-level charge in line order
func (r *InvoiceRecord) Charges() []Adjustment {
	var out []Adjustment
	for _, l := range r.Lines {
		out = append(out, l.Charges...)
	}
	return out
}

// Discounts returns every line-level discount in line order
func (r *InvoiceRecord) Discounts() []Adjustment {
	var out []Adjustment
	for _, l := range r.Lines {
		out = append(out, l.Discounts...)
	}
	return out
}

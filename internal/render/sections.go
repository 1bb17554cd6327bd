package render

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	dec "github.com/rezonia/facturae-processor/internal/decimal"
	"github.com/rezonia/facturae-processor/internal/model"
)

// Section identifies one block of the rendered document
type Section string

const (
	SectionHeader      Section = "header"
	SectionParties     Section = "parties"
	SectionLines       Section = "lines"
	SectionAdjustments Section = "charges-discounts"
	SectionTaxOutputs  Section = "tax-outputs"
	SectionSurcharge   Section = "equivalence-surcharge"
	SectionWithholding Section = "withholding"
	SectionTotals      Section = "totals"
	SectionPayment     Section = "payment"
	SectionNotes       Section = "notes"
	SectionCertificate Section = "certificate"
)

const notAvailable = "N/A"

// Sections returns the blocks Render draws for rec, in page order.
// Optional blocks appear only when the record carries their data.
func Sections(rec *model.InvoiceRecord) []Section {
	out := []Section{SectionHeader, SectionParties, SectionLines}
	if len(rec.Charges()) > 0 || len(rec.Discounts()) > 0 {
		out = append(out, SectionAdjustments)
	}
	if len(rec.TaxOutputs) > 0 {
		out = append(out, SectionTaxOutputs)
	}
	if rec.EquivalenceSurcharge.Present() {
		out = append(out, SectionSurcharge)
	}
	if len(rec.TaxesWithheld) > 0 {
		out = append(out, SectionWithholding)
	}
	out = append(out, SectionTotals)
	if len(rec.Payment) > 0 {
		out = append(out, SectionPayment)
	}
	if rec.AdditionalInformation != "" || len(rec.LegalReferences) > 0 {
		out = append(out, SectionNotes)
	}
	if rec.Certificate.Present() {
		out = append(out, SectionCertificate)
	}
	return out
}

type drawFunc func(d *document, rec *model.InvoiceRecord, reg model.RegistryInfo, renderedAt time.Time)

var sectionDrawers = map[Section]drawFunc{
	SectionHeader:      drawHeader,
	SectionParties:     drawParties,
	SectionLines:       drawLines,
	SectionAdjustments: drawAdjustments,
	SectionTaxOutputs:  drawTaxOutputs,
	SectionSurcharge:   drawSurcharge,
	SectionWithholding: drawWithholding,
	SectionTotals:      drawTotals,
	SectionPayment:     drawPayment,
	SectionNotes:       drawNotes,
	SectionCertificate: drawCertificate,
}

func formatDate(d civil.Date) string {
	return fmt.Sprintf("%02d/%02d/%04d", d.Day, int(d.Month), d.Year)
}

func formatPeriod(p model.Period) string {
	return formatDate(p.Start) + " – " + formatDate(p.End)
}

func money(v model.Optional[decimal.Decimal]) string {
	if d, ok := v.Get(); ok {
		return dec.FormatMoney(d)
	}
	return notAvailable
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func drawHeader(d *document, rec *model.InvoiceRecord, reg model.RegistryInfo, _ time.Time) {
	h := rec.Header
	leftW := d.width * 0.6
	rightW := d.width - leftW
	top := d.pdf.GetY()

	d.font("B", 16)
	d.textColor(headingGreen)
	d.pdf.SetXY(d.left, top)
	d.pdf.CellFormat(leftW, 9, d.tr("Resumen de Factura"), "", 2, "L", false, 0, "")
	d.textColor(black)

	period := notAvailable
	if p, ok := h.Period.Get(); ok {
		period = formatPeriod(p)
	}
	info := []string{
		fmt.Sprintf("Fecha de Emisión: %s    Número: %s", formatDate(h.IssueDate), h.FullNumber()),
		fmt.Sprintf("Clase de factura: %s    Moneda: %s", h.Class.Text, orNA(h.Currency)),
		fmt.Sprintf("Tipo de documento: %s", h.DocumentType.Text),
		fmt.Sprintf("Periodo de facturación: %s", period),
	}
	d.font("", 8)
	for _, line := range info {
		d.pdf.SetX(d.left)
		d.pdf.CellFormat(leftW, lineHeight+1, d.tr(line), "", 2, "L", false, 0, "")
	}
	leftBottom := d.pdf.GetY()

	registry := []string{
		"Num. RCF: " + reg.RCF,
		"Fecha y hora RCF: " + orNA(reg.DateTime()),
		"Num.Registro: " + reg.Number,
		"Tipo Registro: " + reg.Type,
	}
	x := d.left + leftW
	d.pdf.SetXY(x, top)
	for _, line := range registry {
		d.pdf.SetX(x)
		d.pdf.CellFormat(rightW, lineHeight+2, d.tr(line), "", 2, "L", false, 0, "")
	}
	d.pdf.Rect(x, top, rightW, d.pdf.GetY()-top, "D")

	if d.pdf.GetY() < leftBottom {
		d.pdf.SetY(leftBottom)
	}
	d.space(5)
}

func partyLines(p model.Party) []string {
	addr := notAvailable
	if lines := p.Address.Lines(); len(lines) > 0 {
		addr = strings.Join(lines, ", ")
	}
	out := []string{
		"Nombre: " + orNA(p.Name),
		"NIF: " + orNA(p.TaxID),
		"Dirección: " + addr,
	}
	if !p.Address.Overseas {
		out = append(out,
			"Población: "+orNA(p.Address.Town),
			"Cod.Postal: "+orNA(p.Address.PostCode),
			"Provincia: "+orNA(p.Address.Province),
		)
	}
	return out
}

func drawParties(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	receiver := partyLines(rec.Receiver.Party)
	for _, c := range rec.Receiver.Centres {
		receiver = append(receiver, fmt.Sprintf("%s: %s - %s", c.Role.Text, orNA(c.CentreCode), orNA(c.Name)))
	}

	cols := []column{
		{title: "EMISOR", width: 0.5},
		{title: "RECEPTOR", width: 0.5},
	}
	d.table(cols, [][]string{{
		strings.Join(partyLines(rec.Issuer), "\n"),
		strings.Join(receiver, "\n"),
	}}, tableStyle{})

	if tp, ok := rec.ThirdParty.Get(); ok {
		d.table([]column{{title: "TERCERO", width: 1}}, [][]string{{
			strings.Join(partyLines(tp), "\n"),
		}}, tableStyle{})
	}
	d.space(5)
}

func lineDescription(l model.InvoiceLine) string {
	parts := []string{orNA(l.Description)}
	if l.AdditionalInfo != "" {
		parts = append(parts, "("+l.AdditionalInfo+")")
	}
	if p, ok := l.Period.Get(); ok {
		parts = append(parts, "(Periodo: "+formatPeriod(p)+")")
	}
	return strings.Join(parts, "\n")
}

func drawLines(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	if len(rec.Lines) == 0 {
		d.paragraph("No hay conceptos en la factura.", "", 8)
		d.space(5)
		return
	}

	cols := []column{
		{title: "Descripción", width: 0.58},
		{title: "Cantidad", width: 0.12, align: "R"},
		{title: "Precio Unitario", width: 0.15, align: "R"},
		{title: "Importe", width: 0.15, align: "R"},
	}
	rows := make([][]string, 0, len(rec.Lines))
	for _, l := range rec.Lines {
		rows = append(rows, []string{
			lineDescription(l),
			dec.FormatQuantity(l.Quantity),
			dec.FormatMoney(l.UnitPriceWithoutTax),
			dec.FormatMoney(l.TotalCost),
		})
	}
	d.table(cols, rows, tableStyle{})
	d.space(5)
}

func drawAdjustments(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	d.heading("CARGOS Y DESCUENTOS", 10, "L")

	cols := []column{
		{title: "Línea", width: 0.08, align: "C"},
		{title: "CONCEPTO", width: 0.50},
		{title: "CLASE", width: 0.14, align: "C"},
		{title: "TIPO (%)", width: 0.13, align: "R"},
		{title: "IMPORTE", width: 0.15, align: "R"},
	}

	var rows [][]string
	add := func(n int, kind string, a model.Adjustment, sign string) {
		rate := "-"
		if r, ok := a.Rate.Get(); ok {
			rate = dec.FormatRate(r)
		}
		rows = append(rows, []string{fmt.Sprintf("%d", n), a.Reason, kind, rate, sign + dec.FormatMoney(a.Amount)})
	}
	for i, l := range rec.Lines {
		for _, c := range l.Charges {
			add(i+1, "Cargo", c, "")
		}
		for _, dsc := range l.Discounts {
			add(i+1, "Descuento", dsc, "-")
		}
	}
	d.table(cols, rows, tableStyle{})
	d.space(5)
}

func drawTaxOutputs(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	d.heading("Desglose de Impuestos", 10, "L")

	cols := []column{
		{title: "Tipo", width: 0.22},
		{title: "% Tipo", width: 0.14, align: "R"},
		{title: "Base Imponible", width: 0.32, align: "R"},
		{title: "Cuota", width: 0.32, align: "R"},
	}
	rows := make([][]string, 0, len(rec.TaxOutputs))
	for _, t := range rec.TaxOutputs {
		rows = append(rows, []string{
			t.TaxType.Text,
			dec.FormatFixed(t.Rate, 2),
			dec.FormatMoney(t.TaxableBase),
			dec.FormatMoney(t.TaxAmount),
		})
	}
	d.table(cols, rows, tableStyle{})
	d.space(4)
}

func drawSurcharge(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	d.heading("Recargo de Equivalencia", 10, "L")

	cols := []column{
		{title: "Tipo", width: 0.18},
		{title: "% Tipo", width: 0.12, align: "R"},
		{title: "Base Imponible", width: 0.25, align: "R"},
		{title: "% Rec.Eq.", width: 0.20, align: "R"},
		{title: "Rec.Eq.", width: 0.25, align: "R"},
	}
	var rows [][]string
	for _, t := range rec.TaxOutputs {
		s, ok := t.Surcharge.Get()
		if !ok {
			continue
		}
		rows = append(rows, []string{
			t.TaxType.Text,
			dec.FormatFixed(t.Rate, 2),
			dec.FormatMoney(t.TaxableBase),
			dec.FormatFixed(s.Rate, 2),
			dec.FormatMoney(s.Amount),
		})
	}
	d.table(cols, rows, tableStyle{})
	d.space(4)
}

func drawWithholding(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	d.heading("Retenciones", 10, "L")

	cols := []column{
		{title: "Tipo", width: 0.22},
		{title: "% Retención", width: 0.14, align: "R"},
		{title: "Base Imponible", width: 0.32, align: "R"},
		{title: "Importe", width: 0.32, align: "R"},
	}
	rows := make([][]string, 0, len(rec.TaxesWithheld))
	for _, w := range rec.TaxesWithheld {
		rows = append(rows, []string{
			w.TaxType.Text,
			dec.FormatFixed(w.Rate, 2),
			money(w.TaxableBase),
			dec.FormatMoney(w.Amount),
		})
	}
	d.table(cols, rows, tableStyle{})
	d.space(4)
}

// withholdingLabel names the withheld taxes, e.g. "Retención (15 %) IRPF:"
func withholdingLabel(taxes []model.WithheldTax) string {
	if len(taxes) == 0 {
		return "Retenciones:"
	}
	parts := make([]string, 0, len(taxes))
	for _, t := range taxes {
		parts = append(parts, fmt.Sprintf("Retención (%s %%) %s", dec.FormatRate(t.Rate), t.TaxType.Text))
	}
	return strings.Join(parts, " · ") + ":"
}

func drawTotals(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	t := rec.Totals
	cols := []column{
		{width: 0.35},
		{width: 0.15, align: "R"},
		{width: 0.35},
		{width: 0.15, align: "R"},
	}
	rows := [][]string{
		{"Importe bruto total:", money(t.GrossAmount), "Base imponible antes de impuestos:", money(t.GrossAmountBeforeTaxes)},
		{"Descuentos generales:", money(t.GeneralDiscounts), "Importe de impuestos:", money(t.TaxOutputs)},
		{withholdingLabel(rec.TaxesWithheld), money(t.TaxesWithheld), "Importe total factura:", money(t.InvoiceTotal)},
		{"Importe pendiente:", money(t.OutstandingAmount), "Total a ejecutar:", money(t.ExecutableAmount)},
	}
	d.heading("Totales", 10, "L")
	d.table(cols, rows, tableStyle{fillFirstRow: true, keepTogether: true})
	d.space(5)
}

func drawPayment(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	d.heading("Forma de Pago", 10, "L")

	cols := []column{
		{title: "Medio", width: 0.25},
		{title: "Vencimiento", width: 0.15, align: "C"},
		{title: "Importe", width: 0.20, align: "R"},
		{title: "IBAN", width: 0.40},
	}
	rows := make([][]string, 0, len(rec.Payment))
	for _, p := range rec.Payment {
		due := notAvailable
		if dd, ok := p.DueDate.Get(); ok {
			due = formatDate(dd)
		}
		rows = append(rows, []string{p.Means.Text, due, money(p.Amount), p.IBAN.OrElse("-")})
	}
	d.table(cols, rows, tableStyle{})
	d.space(5)
}

func drawNotes(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, _ time.Time) {
	d.heading("Observaciones", 10, "L")
	if rec.AdditionalInformation != "" {
		d.paragraph(rec.AdditionalInformation, "", 8)
	}
	for _, ref := range rec.LegalReferences {
		d.paragraph("- "+ref, "I", 8)
	}
	d.space(5)
}

func certificateStatus(c model.Certificate, at time.Time) string {
	switch c.StatusAt(at) {
	case model.CertificateNotYetValid:
		return "Certificado aún no válido (vigencia futura)"
	case model.CertificateExpired:
		return "Certificado caducado"
	default:
		return "Certificado actualmente válido"
	}
}

func signingValidity(c model.Certificate) string {
	valid, known := c.ValidAtSigning()
	switch {
	case !known:
		return "Fecha de firma no disponible"
	case valid:
		return "Certificado válido en la fecha de la firma"
	default:
		return "Certificado NO era válido en la fecha de la firma"
	}
}

func drawCertificate(d *document, rec *model.InvoiceRecord, _ model.RegistryInfo, renderedAt time.Time) {
	c, _ := rec.Certificate.Get()

	signer := c.CommonName
	if signer == "" {
		signer = c.Subject
	}
	authority := c.IssuerCommonName
	if authority == "" {
		authority = c.Issuer
	}
	signedAt := "No especificada"
	if st, ok := c.SigningTime.Get(); ok {
		signedAt = st.In(renderedAt.Location()).Format("02/01/2006 15:04:05")
	}

	cols := []column{
		{width: 0.11}, {width: 0.37},
		{width: 0.09}, {width: 0.16},
		{width: 0.10}, {width: 0.17},
	}
	rows := [][]string{
		{"Firmante:", orNA(signer), "NIF:", orNA(c.SubjectSerialNumber), "Algoritmo:", orNA(c.SignatureAlgorithm)},
		{"Fecha Firma:", signedAt, "Desde:", c.ValidFrom.UTC().Format("02/01/2006"), "Hasta:", c.ValidTo.UTC().Format("02/01/2006")},
		{"Estado actual:", certificateStatus(c, renderedAt), "Validez en firma:", signingValidity(c), "Autoridad Certificación:", orNA(authority)},
	}

	d.ensureSpace(40)
	d.heading("Firma electrónica", 12, "C")
	d.table(cols, rows, tableStyle{fillFirstRow: true, keepTogether: true, fontSize: 7})
}

package xml

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/model"
)

func extractInvoiceHeader(x *extraction) error {
	if x.invoice == nil {
		return model.MissingField(FieldInvoice)
	}

	hdr := child(x.invoice, "InvoiceHeader")
	issue := child(x.invoice, "InvoiceIssueData")

	h := model.InvoiceHeader{
		Number:       text(hdr, "InvoiceNumber"),
		DocumentType: x.resolve(codes.DocumentType, text(hdr, "InvoiceDocumentType"), FieldInvoice+"/InvoiceHeader/InvoiceDocumentType"),
		Class:        x.resolve(codes.InvoiceClass, text(hdr, "InvoiceClass"), FieldInvoice+"/InvoiceHeader/InvoiceClass"),
		Currency:     text(issue, "InvoiceCurrencyCode"),
		Language:     text(issue, "LanguageName"),
	}
	if series := text(hdr, "InvoiceSeriesCode"); series != "" {
		h.SeriesCode = model.Some(series)
	}

	var errs []error
	if h.Number == "" {
		errs = append(errs, model.MissingField(FieldInvoiceNumber))
	}

	issueDate, err := dateAt(issue, FieldIssueDate, "IssueDate")
	switch {
	case err != nil:
		errs = append(errs, err)
	case !issueDate.Present():
		errs = append(errs, model.MissingField(FieldIssueDate))
	default:
		h.IssueDate, _ = issueDate.Get()
	}

	period, err := x.periodAt(child(issue, "InvoicingPeriod"), "Invoices/Invoice/InvoiceIssueData/InvoicingPeriod")
	if err != nil {
		errs = append(errs, err)
	}
	h.Period = period

	if h.Currency == "" {
		h.Currency = x.rec.FileHeader.BatchCurrency
	}

	x.rec.Header = h
	return errors.Join(errs...)
}

func extractLines(x *extraction) error {
	lines := children(child(x.invoice, "Items"), "InvoiceLine")
	x.rec.Lines = make([]model.InvoiceLine, 0, len(lines))

	for i, el := range lines {
		line, err := x.parseLine(el, fmt.Sprintf("Invoices/Invoice/Items/InvoiceLine[%d]", i+1))
		if err != nil {
			return err
		}
		x.rec.Lines = append(x.rec.Lines, line)
	}
	return nil
}

func (x *extraction) parseLine(el *etree.Element, field string) (model.InvoiceLine, error) {
	line := model.InvoiceLine{
		Description:    text(el, "ItemDescription"),
		UnitOfMeasure:  text(el, "UnitOfMeasure"),
		AdditionalInfo: text(el, "AdditionalLineItemInformation"),
	}

	var err error
	if line.Quantity, err = x.amountOrZero(el, joinPath(field, "Quantity"), "Quantity"); err != nil {
		return line, err
	}
	if line.UnitPriceWithoutTax, err = x.amountOrZero(el, joinPath(field, "UnitPriceWithoutTax"), "UnitPriceWithoutTax"); err != nil {
		return line, err
	}
	if line.TotalCost, err = x.amountOrZero(el, joinPath(field, "TotalCost"), "TotalCost"); err != nil {
		return line, err
	}
	if line.Period, err = x.periodAt(child(el, "LineItemPeriod"), joinPath(field, "LineItemPeriod")); err != nil {
		return line, err
	}

	for i, c := range children(child(el, "Charges"), "Charge") {
		adj, err := x.parseAdjustment(c, fmt.Sprintf("%s/Charges/Charge[%d]", field, i+1), "Charge", "Cargo")
		if err != nil {
			return line, err
		}
		line.Charges = append(line.Charges, adj)
	}

	// DiscountsAndRebates is the schema name; Discounts shows up in the wild
	discounts := child(el, "DiscountsAndRebates")
	if discounts == nil {
		discounts = child(el, "Discounts")
	}
	for i, d := range children(discounts, "Discount") {
		adj, err := x.parseAdjustment(d, fmt.Sprintf("%s/DiscountsAndRebates/Discount[%d]", field, i+1), "Discount", "Dcto.")
		if err != nil {
			return line, err
		}
		line.Discounts = append(line.Discounts, adj)
	}

	return line, nil
}

func (x *extraction) parseAdjustment(el *etree.Element, field, prefix, defaultReason string) (model.Adjustment, error) {
	adj := model.Adjustment{Reason: text(el, prefix+"Reason")}
	if adj.Reason == "" {
		adj.Reason = defaultReason
	}

	rate, err := decimalAt(el, joinPath(field, prefix+"Rate"), prefix+"Rate")
	if err != nil {
		return adj, err
	}
	adj.Rate = rate

	adj.Amount, err = x.amountOrZero(el, joinPath(field, prefix+"Amount"), prefix+"Amount")
	return adj, err
}

func extractTaxOutputs(x *extraction) error {
	taxes := children(child(x.invoice, "TaxesOutputs"), "Tax")
	x.rec.TaxOutputs = make([]model.TaxOutput, 0, len(taxes))

	var surcharges []model.Surcharge
	for i, el := range taxes {
		field := fmt.Sprintf("Invoices/Invoice/TaxesOutputs/Tax[%d]", i+1)

		out := model.TaxOutput{TaxType: x.taxType(el, field)}

		var err error
		if out.Rate, err = x.amountOrZero(el, joinPath(field, "TaxRate"), "TaxRate"); err != nil {
			return err
		}
		if out.TaxableBase, err = x.amountOrZero(el, joinPath(field, "TaxableBase/TotalAmount"), "TaxableBase", "TotalAmount"); err != nil {
			return err
		}
		if out.TaxAmount, err = x.amountOrZero(el, joinPath(field, "TaxAmount/TotalAmount"), "TaxAmount", "TotalAmount"); err != nil {
			return err
		}

		if child(el, "EquivalenceSurcharge") != nil || child(el, "EquivalenceSurchargeAmount") != nil {
			s := model.Surcharge{}
			if s.Rate, err = x.amountOrZero(el, joinPath(field, "EquivalenceSurcharge"), "EquivalenceSurcharge"); err != nil {
				return err
			}
			if s.Amount, err = x.amountOrZero(el, joinPath(field, "EquivalenceSurchargeAmount/TotalAmount"), "EquivalenceSurchargeAmount", "TotalAmount"); err != nil {
				return err
			}
			out.Surcharge = model.Some(s)
			surcharges = append(surcharges, s)
		}

		x.rec.TaxOutputs = append(x.rec.TaxOutputs, out)
	}

	if len(surcharges) > 0 {
		x.rec.EquivalenceSurcharge = model.Some(surcharges)
	}
	return nil
}

func extractTaxesWithheld(x *extraction) error {
	taxes := children(child(x.invoice, "TaxesWithheld"), "Tax")
	x.rec.TaxesWithheld = make([]model.WithheldTax, 0, len(taxes))

	for i, el := range taxes {
		field := fmt.Sprintf("Invoices/Invoice/TaxesWithheld/Tax[%d]", i+1)

		w := model.WithheldTax{TaxType: x.taxType(el, field)}

		var err error
		if w.Rate, err = x.amountOrZero(el, joinPath(field, "TaxRate"), "TaxRate"); err != nil {
			return err
		}
		if w.TaxableBase, err = decimalAt(el, joinPath(field, "TaxableBase/TotalAmount"), "TaxableBase", "TotalAmount"); err != nil {
			return err
		}
		if w.Amount, err = x.amountOrZero(el, joinPath(field, "TaxAmount/TotalAmount"), "TaxAmount", "TotalAmount"); err != nil {
			return err
		}
		x.rec.TaxesWithheld = append(x.rec.TaxesWithheld, w)
	}
	return nil
}

func (x *extraction) taxType(el *etree.Element, field string) model.Coded {
	raw := text(el, "TaxTypeCode")
	if raw == "" {
		x.warn("%s/TaxTypeCode is missing", field)
	}
	return x.resolve(codes.TaxType, raw, joinPath(field, "TaxTypeCode"))
}

func extractTotals(x *extraction) error {
	totals := child(x.invoice, "InvoiceTotals")
	if totals == nil {
		x.warn("Invoices/Invoice/InvoiceTotals is missing")
		return nil
	}

	fields := []struct {
		name string
		dst  *model.Optional[decimal.Decimal]
	}{
		{"TotalGrossAmount", &x.rec.Totals.GrossAmount},
		{"TotalGeneralDiscounts", &x.rec.Totals.GeneralDiscounts},
		{"TotalGeneralSurcharges", &x.rec.Totals.GeneralSurcharges},
		{"TotalGrossAmountBeforeTaxes", &x.rec.Totals.GrossAmountBeforeTaxes},
		{"TotalTaxOutputs", &x.rec.Totals.TaxOutputs},
		{"TotalTaxesWithheld", &x.rec.Totals.TaxesWithheld},
		{"InvoiceTotal", &x.rec.Totals.InvoiceTotal},
		{"TotalOutstandingAmount", &x.rec.Totals.OutstandingAmount},
		{"TotalExecutableAmount", &x.rec.Totals.ExecutableAmount},
	}

	var errs []error
	for _, f := range fields {
		v, err := decimalAt(totals, joinPath("Invoices/Invoice/InvoiceTotals", f.name), f.name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		*f.dst = v
	}
	return errors.Join(errs...)
}

func extractPayment(x *extraction) error {
	installments := children(child(x.invoice, "PaymentDetails"), "Installment")
	x.rec.Payment = make([]model.Installment, 0, len(installments))

	for i, el := range installments {
		field := fmt.Sprintf("Invoices/Invoice/PaymentDetails/Installment[%d]", i+1)

		inst := model.Installment{
			Means: x.resolve(codes.PaymentMeans, text(el, "PaymentMeans"), joinPath(field, "PaymentMeans")),
		}

		var err error
		if inst.DueDate, err = dateAt(el, joinPath(field, "InstallmentDueDate"), "InstallmentDueDate"); err != nil {
			return err
		}
		if inst.Amount, err = decimalAt(el, joinPath(field, "InstallmentAmount"), "InstallmentAmount"); err != nil {
			return err
		}

		account := child(el, "AccountToBeCredited")
		iban := text(account, "IBAN")
		if iban == "" {
			iban = text(account, "AccountNumber")
		}
		if iban != "" {
			inst.IBAN = model.Some(iban)
		}

		x.rec.Payment = append(x.rec.Payment, inst)
	}
	return nil
}

func extractAdditionalData(x *extraction) error {
	x.rec.AdditionalInformation = text(x.invoice, "AdditionalData", "InvoiceAdditionalInformation")
	for _, ref := range children(child(x.invoice, "LegalLiterals"), "LegalReference") {
		if v := text(ref); v != "" {
			x.rec.LegalReferences = append(x.rec.LegalReferences, v)
		}
	}
	return nil
}

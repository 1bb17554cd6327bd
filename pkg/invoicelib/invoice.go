// Package invoicelib provides a public API for reading Facturae 3.2.x
// electronic invoices and printing them as PDF.
//
// Example usage:
//
//	proc := invoicelib.NewDefaultProcessor()
//	result, err := proc.Extract(ctx, reader, invoicelib.ContentTypeAuto)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Record.Header.FullNumber())
package invoicelib

import (
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
)

// Re-export core types for public API
type (
	InvoiceRecord        = model.InvoiceRecord
	InvoiceHeader        = model.InvoiceHeader
	InvoiceLine          = model.InvoiceLine
	Party                = model.Party
	Receiver             = model.Receiver
	AdministrativeCentre = model.AdministrativeCentre
	TaxOutput            = model.TaxOutput
	WithheldTax          = model.WithheldTax
	Totals               = model.Totals
	Installment          = model.Installment
	Certificate          = model.Certificate
	Coded                = model.Coded
	RegistryInfo         = model.RegistryInfo
	ContentType          = model.ContentType
	Discrepancy          = processor.Discrepancy
)

// Re-export content types
const (
	ContentTypeXML  = model.ContentTypeXML
	ContentTypeXSIG = model.ContentTypeXSIG
	ContentTypeAuto = model.ContentTypeAuto
)

// Re-export error types
type (
	ParseError      = model.ParseError
	ValidationError = model.ValidationError
	RenderError     = model.RenderError
)

// Re-export error kinds, matched with errors.Is
var (
	ErrEmptyDocument        = model.ErrEmptyDocument
	ErrMalformedXML         = model.ErrMalformedXML
	ErrUnrecognizedFormat   = model.ErrUnrecognizedFormat
	ErrMissingRequiredField = model.ErrMissingRequiredField
	ErrInvalidFieldFormat   = model.ErrInvalidFieldFormat
)

package server

import (
	"github.com/rezonia/facturae-processor/internal/codes"
	"github.com/rezonia/facturae-processor/internal/model"
	"github.com/rezonia/facturae-processor/internal/processor"
)

// ExtractResponse is the response for the extract endpoint
type ExtractResponse struct {
	Invoice       *model.InvoiceRecord    `json:"invoice"`
	Format        string                  `json:"format"`
	Warnings      []string                `json:"warnings,omitempty"`
	Discrepancies []processor.Discrepancy `json:"discrepancies,omitempty"`
}

// CertificateResponse is the response for the certificate endpoint. It
// describes the embedded certificate; the signature itself is not verified.
type CertificateResponse struct {
	SignatureFound bool               `json:"signature_found"`
	Algorithm      string             `json:"algorithm,omitempty"`
	AlgorithmURI   string             `json:"algorithm_uri,omitempty"`
	Certificate    *model.Certificate `json:"certificate,omitempty"`
	Status         string             `json:"status,omitempty"`
	ValidAtSigning *bool              `json:"valid_at_signing,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// CodesResponse lists the code tables in use
type CodesResponse struct {
	Tables []codes.Table `json:"tables"`
}

// ErrorResponse is the standard error response
type ErrorResponse struct {
	Error    string   `json:"error"`
	Field    string   `json:"field,omitempty"`
	Details  string   `json:"details,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

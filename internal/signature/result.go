package signature

import (
	"crypto/x509"
	"time"

	"github.com/rezonia/facturae-processor/internal/model"
)

// Result is the outcome of a certificate extraction. Certificate is absent
// when no signature was found or its certificate could not be decoded;
// Warnings then say why.
type Result struct {
	SignatureFound bool                             `json:"signature_found"`
	Certificate    model.Optional[model.Certificate] `json:"certificate"`

	// Algorithm is the ds:SignatureMethod URI, when declared
	Algorithm string `json:"algorithm,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// NewResult creates a new empty result
func NewResult() *Result {
	return &Result{
		Warnings: make([]string, 0),
	}
}

// AddWarning records a non-fatal degradation
func (r *Result) AddWarning(err error) {
	r.Warnings = append(r.Warnings, err.Error())
}

// SetCertificate populates the certificate summary from a parsed x509
// certificate. signingTime may be zero when the envelope declares none.
func (r *Result) SetCertificate(cert *x509.Certificate, signingTime time.Time) {
	if cert == nil {
		return
	}

	c := model.Certificate{
		Subject:             cert.Subject.String(),
		Issuer:              cert.Issuer.String(),
		SerialNumber:        cert.SerialNumber.String(),
		ValidFrom:           cert.NotBefore.UTC(),
		ValidTo:             cert.NotAfter.UTC(),
		CommonName:          cert.Subject.CommonName,
		SubjectSerialNumber: cert.Subject.SerialNumber,
		SignatureAlgorithm:  cert.SignatureAlgorithm.String(),
	}

	// Issuer CN, falling back to the organization
	if cert.Issuer.CommonName != "" {
		c.IssuerCommonName = cert.Issuer.CommonName
	} else if len(cert.Issuer.Organization) > 0 {
		c.IssuerCommonName = cert.Issuer.Organization[0]
	}

	if !signingTime.IsZero() {
		c.SigningTime = model.Some(signingTime.UTC())
	}

	r.Certificate = model.Some(c)
}

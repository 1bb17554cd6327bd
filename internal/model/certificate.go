package model

import "time"

// CertificateStatus describes a certificate's validity at a point in time
type CertificateStatus string

const (
	CertificateValid       CertificateStatus = "valid"
	CertificateExpired     CertificateStatus = "expired"
	CertificateNotYetValid CertificateStatus = "not_yet_valid"
)

// Certificate summarizes the signer certificate embedded in a XAdES envelope.
// Nothing here implies the signature was verified.
type Certificate struct {
	Subject             string              `json:"subject"`
	Issuer              string              `json:"issuer"`
	SerialNumber        string              `json:"serial_number"`
	ValidFrom           time.Time           `json:"valid_from"`
	ValidTo             time.Time           `json:"valid_to"`
	CommonName          string              `json:"common_name,omitempty"`
	SubjectSerialNumber string              `json:"subject_serial_number,omitempty"`
	IssuerCommonName    string              `json:"issuer_common_name,omitempty"`
	SignatureAlgorithm  string              `json:"signature_algorithm,omitempty"`
	SigningTime         Optional[time.Time] `json:"signing_time"`
}

// StatusAt reports the validity of the certificate at t
func (c Certificate) StatusAt(t time.Time) CertificateStatus {
	switch {
	case t.Before(c.ValidFrom):
		return CertificateNotYetValid
	case t.After(c.ValidTo):
		return CertificateExpired
	default:
		return CertificateValid
	}
}

// ValidAtSigning reports whether the declared signing time falls inside the
// validity window. The second result is false when no signing time was found.
func (c Certificate) ValidAtSigning() (valid bool, known bool) {
	st, ok := c.SigningTime.Get()
	if !ok {
		return false, false
	}
	return c.StatusAt(st) == CertificateValid, true
}

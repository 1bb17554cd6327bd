package signature

import "fmt"

// Warning codes for certificate extraction. None of these abort a pipeline;
// they are reported alongside an absent certificate.
const (
	ErrCodeNoCertificate    = "NO_CERTIFICATE"
	ErrCodeUndecodable      = "CERT_UNDECODABLE"
	ErrCodeUnparseable      = "CERT_UNPARSEABLE"
	ErrCodeSigningTime      = "SIGNING_TIME_INVALID"
	ErrCodeMalformedPayload = "MALFORMED_PAYLOAD"
)

// SignatureError describes why a certificate could not be reported
type SignatureError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *SignatureError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *SignatureError) Unwrap() error {
	return e.Cause
}

// NewSignatureError creates a new signature error
func NewSignatureError(code, field, message string, cause error) *SignatureError {
	return &SignatureError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// ErrNoCertificate is reported when a Signature carries no X509Certificate
func ErrNoCertificate() *SignatureError {
	return NewSignatureError(ErrCodeNoCertificate, "X509Certificate", "signature carries no certificate", nil)
}

// ErrUndecodable is reported when the certificate element is not valid base64
func ErrUndecodable(cause error) *SignatureError {
	return NewSignatureError(ErrCodeUndecodable, "X509Certificate", "certificate is not valid base64", cause)
}

// ErrUnparseable is reported when the decoded bytes are not an X.509 certificate
func ErrUnparseable(cause error) *SignatureError {
	return NewSignatureError(ErrCodeUnparseable, "X509Certificate", "certificate could not be parsed", cause)
}

// ErrSigningTime is reported when the XAdES SigningTime cannot be parsed
func ErrSigningTime(value string, cause error) *SignatureError {
	return NewSignatureError(ErrCodeSigningTime, "SigningTime", fmt.Sprintf("unparseable value %q", value), cause)
}

// ErrMalformedPayload is reported by ExtractBytes when the input is not XML
func ErrMalformedPayload(cause error) *SignatureError {
	return NewSignatureError(ErrCodeMalformedPayload, "", "document is not well-formed XML", cause)
}

// Package signature reports the signer certificate embedded in a signed
// Facturae document. It does not verify the signature.
package signature

import (
	"bytes"
	"crypto/x509"
	"encoding/base64"
	"strings"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
	"golang.org/x/net/html/charset"
)

// xadesTimeLayouts are tried in order for SigningTime values
var xadesTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

// algorithmNames maps ds:SignatureMethod URIs to short names
var algorithmNames = map[string]string{
	dsig.RSASHA1SignatureMethod:     "RSA-SHA1",
	dsig.RSASHA256SignatureMethod:   "RSA-SHA256",
	dsig.RSASHA384SignatureMethod:   "RSA-SHA384",
	dsig.RSASHA512SignatureMethod:   "RSA-SHA512",
	dsig.ECDSASHA256SignatureMethod: "ECDSA-SHA256",
	dsig.ECDSASHA384SignatureMethod: "ECDSA-SHA384",
	dsig.ECDSASHA512SignatureMethod: "ECDSA-SHA512",
}

// Extractor locates the X509Certificate inside an XMLDSig/XAdES signature
// block and summarizes it. It never fails: problems become warnings.
type Extractor struct{}

// NewExtractor creates a new certificate extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract searches the whole tree under root, which must be the original
// document root rather than the Facturae subtree of an enveloping signature.
func (e *Extractor) Extract(root *etree.Element) *Result {
	result := NewResult()

	sig := findSignatureElement(root)
	if sig == nil {
		return result
	}
	result.SignatureFound = true

	if sm := findLocal(findLocal(sig, dsig.SignedInfoTag), dsig.SignatureMethodTag); sm != nil {
		result.Algorithm = sm.SelectAttrValue(dsig.AlgorithmAttr, "")
	}

	certElem := findLocal(sig, dsig.X509CertificateTag)
	if certElem == nil {
		// some producers put KeyInfo beside the signature
		certElem = findLocal(root, dsig.X509CertificateTag)
	}
	if certElem == nil {
		result.AddWarning(ErrNoCertificate())
		return result
	}

	cert, err := decodeCertificate(certElem.Text())
	if err != nil {
		result.AddWarning(err)
		return result
	}

	signingTime, err := readSigningTime(sig, root)
	if err != nil {
		result.AddWarning(err)
	}

	result.SetCertificate(cert, signingTime)
	return result
}

// ExtractBytes parses data independently of the invoice loader and runs
// Extract on its root.
func (e *Extractor) ExtractBytes(data []byte) *Result {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel

	if start := bytes.IndexByte(data, '<'); start > 0 {
		data = data[start:]
	}
	if end := bytes.LastIndexByte(data, '>'); end >= 0 {
		data = data[:end+1]
	}

	if err := doc.ReadFromBytes(data); err != nil || doc.Root() == nil {
		result := NewResult()
		result.AddWarning(ErrMalformedPayload(err))
		return result
	}
	return e.Extract(doc.Root())
}

// CanExtract returns true if the data appears to be XML with a signature
func (e *Extractor) CanExtract(data []byte) bool {
	if len(data) < 5 {
		return false
	}

	trimmed := bytes.TrimSpace(data)
	if !bytes.HasPrefix(trimmed, []byte("<")) {
		return false
	}

	return bytes.Contains(data, []byte("<Signature")) ||
		bytes.Contains(data, []byte(":Signature"))
}

// AlgorithmName returns a short name for a SignatureMethod URI, or the
// URI itself when it is not one of the common RSA or ECDSA methods.
func AlgorithmName(uri string) string {
	if name, ok := algorithmNames[uri]; ok {
		return name
	}
	return uri
}

func decodeCertificate(encoded string) (*x509.Certificate, error) {
	// base64 in XML is commonly wrapped at 64 or 76 columns
	cleaned := strings.Join(strings.Fields(encoded), "")
	der, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, ErrUndecodable(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, ErrUnparseable(err)
	}
	return cert, nil
}

// readSigningTime looks for a XAdES SigningTime inside the signature first,
// then anywhere in the document. A missing element yields a zero time.
func readSigningTime(sig, root *etree.Element) (time.Time, error) {
	el := findLocal(sig, "SigningTime")
	if el == nil {
		el = findLocal(root, "SigningTime")
	}
	if el == nil {
		return time.Time{}, nil
	}

	raw := strings.TrimSpace(el.Text())
	var lastErr error
	for _, layout := range xadesTimeLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, ErrSigningTime(raw, lastErr)
}

// findSignatureElement returns the first ds:Signature in document order.
// Elements named Signature in another namespace are used only when no
// XMLDSig one exists.
func findSignatureElement(root *etree.Element) *etree.Element {
	var fallback *etree.Element
	var walk func(el *etree.Element) *etree.Element
	walk = func(el *etree.Element) *etree.Element {
		if el.Tag == dsig.SignatureTag {
			if el.NamespaceURI() == dsig.Namespace {
				return el
			}
			if fallback == nil {
				fallback = el
			}
		}
		for _, c := range el.ChildElements() {
			if found := walk(c); found != nil {
				return found
			}
		}
		return nil
	}

	if root == nil {
		return nil
	}
	if found := walk(root); found != nil {
		return found
	}
	return fallback
}

// findLocal searches for an element by local name recursively, including
// elem itself.
func findLocal(elem *etree.Element, localName string) *etree.Element {
	if elem == nil {
		return nil
	}
	if elem.Tag == localName {
		return elem
	}
	for _, child := range elem.ChildElements() {
		if found := findLocal(child, localName); found != nil {
			return found
		}
	}
	return nil
}

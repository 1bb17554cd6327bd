package testutil

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"math/big"
	"time"

	"github.com/beevik/etree"
	dsig "github.com/russellhaering/goxmldsig"
)

// XAdESNamespace is the XAdES 1.3.2 namespace
const XAdESNamespace = "http://uri.etsi.org/01903/v1.3.2#"

// CertOptions describes the signer certificate of a test signature
type CertOptions struct {
	CommonName   string
	SerialNumber string // subject serialNumber attribute, the NIF in Spanish certificates
	IssuerCN     string
	NotBefore    time.Time
	NotAfter     time.Time
}

// DefaultCertOptions returns a certificate issued by "CN=Test CA"
func DefaultCertOptions() CertOptions {
	return CertOptions{
		CommonName:   "GARCIA LOPEZ MARIA - 12345678Z",
		SerialNumber: "IDCES-12345678Z",
		IssuerCN:     "Test CA",
		NotBefore:    time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		NotAfter:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// KeyStore is an in-memory dsig.X509KeyStore holding a CA-issued leaf
type KeyStore struct {
	Key  *rsa.PrivateKey
	Cert []byte
	CA   []byte
}

// GetKeyPair implements dsig.X509KeyStore
func (ks *KeyStore) GetKeyPair() (*rsa.PrivateKey, []byte, error) {
	return ks.Key, ks.Cert, nil
}

// NewKeyStore creates a CA and a leaf certificate signed by it
func NewKeyStore(opts CertOptions) (*KeyStore, error) {
	caKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: opts.IssuerCN},
		NotBefore:             opts.NotBefore.AddDate(-1, 0, 0),
		NotAfter:              opts.NotAfter.AddDate(1, 0, 0),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return nil, fmt.Errorf("create CA certificate: %w", err)
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return nil, err
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	leafTemplate := &x509.Certificate{
		SerialNumber: big.NewInt(424242),
		Subject: pkix.Name{
			CommonName:   opts.CommonName,
			SerialNumber: opts.SerialNumber,
			Country:      []string{"ES"},
		},
		NotBefore: opts.NotBefore,
		NotAfter:  opts.NotAfter,
		KeyUsage:  x509.KeyUsageDigitalSignature | x509.KeyUsageContentCommitment,
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, caCert, &key.PublicKey, caKey)
	if err != nil {
		return nil, fmt.Errorf("create leaf certificate: %w", err)
	}

	return &KeyStore{Key: key, Cert: leafDER, CA: caDER}, nil
}

// Sign returns doc with an enveloped XMLDSig signature appended to its root
// and a XAdES SigningTime property. signingTime zero omits the property.
func Sign(doc string, ks dsig.X509KeyStore, signingTime time.Time) ([]byte, error) {
	d := etree.NewDocument()
	if err := d.ReadFromString(doc); err != nil {
		return nil, err
	}

	ctx := dsig.NewDefaultSigningContext(ks)
	signed, err := ctx.SignEnveloped(d.Root())
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}

	if !signingTime.IsZero() {
		sig := signed.ChildElements()[len(signed.ChildElements())-1]
		obj := sig.CreateElement(dsig.DefaultPrefix + ":Object")
		qp := obj.CreateElement("xades:QualifyingProperties")
		qp.CreateAttr("xmlns:xades", XAdESNamespace)
		st := qp.CreateElement("xades:SignedProperties").
			CreateElement("xades:SignedSignatureProperties").
			CreateElement("xades:SigningTime")
		st.SetText(signingTime.Format(time.RFC3339))
	}

	d.SetRoot(signed)
	return d.WriteToBytes()
}

// MustSign is Sign with the default certificate, panicking on error
func MustSign(doc string, signingTime time.Time) []byte {
	ks, err := NewKeyStore(DefaultCertOptions())
	if err != nil {
		panic(err)
	}
	out, err := Sign(doc, ks, signingTime)
	if err != nil {
		panic(err)
	}
	return out
}

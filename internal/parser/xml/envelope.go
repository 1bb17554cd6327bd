package xml

import (
	"github.com/beevik/etree"

	"github.com/rezonia/facturae-processor/internal/model"
)

// FacturaeRoot is the local name of the invoice root element
const FacturaeRoot = "Facturae"

// Envelope locates the Facturae subtree inside a parsed document
type Envelope interface {
	// Name identifies the envelope kind
	Name() string

	// Locate returns the Facturae element, or nil if this envelope does
	// not apply to the document
	Locate(root *etree.Element) *etree.Element

	// ContentType is the format reported when this envelope matches
	ContentType() model.ContentType
}

// bareEnvelope matches a document whose root is Facturae. Enveloped
// XAdES signatures (ds:Signature as a child of Facturae) also match here.
type bareEnvelope struct{}

func (bareEnvelope) Name() string { return "facturae" }

func (bareEnvelope) Locate(root *etree.Element) *etree.Element {
	if root != nil && root.Tag == FacturaeRoot {
		return root
	}
	return nil
}

func (bareEnvelope) ContentType() model.ContentType { return model.ContentTypeXML }

// signatureEnvelope matches an enveloping signature or any other wrapper
// that carries Facturae somewhere below its root.
type signatureEnvelope struct{}

func (signatureEnvelope) Name() string { return "xades" }

func (signatureEnvelope) Locate(root *etree.Element) *etree.Element {
	if root == nil {
		return nil
	}
	return findDescendant(root, FacturaeRoot)
}

func (signatureEnvelope) ContentType() model.ContentType { return model.ContentTypeXSIG }

// envelopesFor returns the envelopes to try for a declared content type,
// most specific first
func envelopesFor(ct model.ContentType) []Envelope {
	if ct == model.ContentTypeXML {
		return []Envelope{bareEnvelope{}}
	}
	return []Envelope{bareEnvelope{}, signatureEnvelope{}}
}

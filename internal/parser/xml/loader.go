package xml

import (
	"bytes"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/rezonia/facturae-processor/internal/model"
)

// SupportedSchemaPrefix is the Facturae schema family accepted by the loader
const SupportedSchemaPrefix = "3.2"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Document is a loaded Facturae document. Root is the full original tree,
// kept for certificate lookup; Facturae is the invoice subtree.
type Document struct {
	Root          *etree.Element
	Facturae      *etree.Element
	Format        model.ContentType
	Envelope      string
	SchemaVersion string
}

// Signed reports whether a Signature element is present anywhere in the tree
func (d *Document) Signed() bool {
	return findDescendant(d.Root, "Signature") != nil
}

// Loader turns raw bytes into a Document. It holds no state and is safe for
// concurrent use.
type Loader struct{}

// NewLoader creates a new loader
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses data declared as ct. It fails with ErrEmptyDocument,
// ErrMalformedXML or ErrUnrecognizedFormat.
func (l *Loader) Load(data []byte, ct model.ContentType) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, model.NewParseError(model.ErrEmptyDocument, "", "no content", nil)
	}

	payload := bytes.TrimPrefix(data, utf8BOM)
	if ct != model.ContentTypeXML {
		payload = trimContainer(payload)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(payload); err != nil {
		return nil, model.NewParseError(model.ErrMalformedXML, "", "failed to parse XML", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, model.NewParseError(model.ErrMalformedXML, "", "no root element", nil)
	}

	for _, env := range envelopesFor(ct) {
		fe := env.Locate(root)
		if fe == nil {
			continue
		}

		version := text(fe, "FileHeader", "SchemaVersion")
		if version != "" && !strings.HasPrefix(version, SupportedSchemaPrefix) {
			return nil, model.NewParseError(model.ErrUnrecognizedFormat, "FileHeader/SchemaVersion",
				"unsupported Facturae version "+version, nil)
		}

		d := &Document{
			Root:          root,
			Facturae:      fe,
			Format:        env.ContentType(),
			Envelope:      env.Name(),
			SchemaVersion: version,
		}
		if d.Format == model.ContentTypeXML && d.Signed() {
			d.Format = model.ContentTypeXSIG
		}
		return d, nil
	}

	return nil, model.NewParseError(model.ErrUnrecognizedFormat, root.Tag,
		"no "+FacturaeRoot+" element found", nil)
}

// trimContainer drops any bytes around the XML payload of a signature
// container: everything before the first '<' and after the last '>'.
func trimContainer(data []byte) []byte {
	start := bytes.IndexByte(data, '<')
	end := bytes.LastIndexByte(data, '>')
	if start < 0 || end < start {
		return data
	}
	return data[start : end+1]
}

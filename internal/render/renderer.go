// Package render lays out an InvoiceRecord as a paginated PDF.
package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/rezonia/facturae-processor/internal/model"
)

// Legend printed in the footer of every page
const Legend = "REPRESENTACIÓN DEL CONTENIDO DE LA FACTURA ELECTRÓNICA Y DEL REGISTRO CONTABLE DE FACTURAS."

// Options configures the page and document metadata
type Options struct {
	PageSize string // fpdf size name: A4, Letter...
	Title    string
	Creator  string

	// Compress zlib-compresses page streams. Tests turn it off to search
	// the output for text.
	Compress bool
}

// DefaultOptions returns A4 output with compressed streams
func DefaultOptions() Options {
	return Options{
		PageSize: "A4",
		Title:    "Resumen de Factura",
		Creator:  "facturae-processor",
		Compress: true,
	}
}

// Renderer produces PDF documents. It holds only configuration and is
// safe for concurrent use.
type Renderer struct {
	opts Options
}

// NewRenderer creates a renderer; empty option fields take defaults
func NewRenderer(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.PageSize == "" {
		opts.PageSize = def.PageSize
	}
	if opts.Title == "" {
		opts.Title = def.Title
	}
	if opts.Creator == "" {
		opts.Creator = def.Creator
	}
	return &Renderer{opts: opts}
}

// Render lays out rec with the registry metadata. renderedAt is printed in
// the footer, drives the certificate status line and is written as the PDF
// creation date; it must be supplied by the caller. The output is
// byte-identical for identical inputs.
func (r *Renderer) Render(rec *model.InvoiceRecord, reg model.RegistryInfo, renderedAt time.Time) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.RenderTo(&buf, rec, reg, renderedAt); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderTo is Render writing into buf
func (r *Renderer) RenderTo(buf *bytes.Buffer, rec *model.InvoiceRecord, reg model.RegistryInfo, renderedAt time.Time) error {
	if rec == nil {
		return model.NewRenderError("record", "nil invoice record", nil)
	}
	if renderedAt.IsZero() {
		return model.NewRenderError("footer", "render timestamp is required", nil)
	}

	pdf := fpdf.New("P", "mm", r.opts.PageSize, "")
	if err := pdf.Error(); err != nil {
		return model.NewRenderError("page", fmt.Sprintf("unsupported page size %q", r.opts.PageSize), err)
	}

	// fixed metadata keeps the output reproducible
	pdf.SetCreationDate(renderedAt)
	pdf.SetModificationDate(renderedAt)
	pdf.SetCatalogSort(true)
	pdf.SetCompression(r.opts.Compress)
	pdf.SetTitle(r.opts.Title, true)
	pdf.SetCreator(r.opts.Creator, true)
	pdf.SetSubject(rec.Header.FullNumber(), true)

	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 22)
	pdf.AliasNbPages("")

	doc := newDocument(pdf)
	pdf.SetFooterFunc(func() { doc.footer(renderedAt) })
	pdf.AddPage()

	for _, s := range Sections(rec) {
		draw, ok := sectionDrawers[s]
		if !ok {
			return model.NewRenderError(string(s), "no layout for section", nil)
		}
		draw(doc, rec, reg, renderedAt)
		if pdf.Err() {
			return model.NewRenderError(string(s), "layout failed", pdf.Error())
		}
	}

	if err := pdf.Output(buf); err != nil {
		return model.NewRenderError("output", "could not write PDF", err)
	}
	return nil
}

// footer draws the legend, the render timestamp and the page counter
func (d *document) footer(renderedAt time.Time) {
	d.pdf.SetY(-18)
	d.font("", 7)
	d.textColor(black)

	stamp := renderedAt.Format("02/01/2006 15:04:05")
	stampW := d.pdf.GetStringWidth(stamp) + 2

	d.pdf.SetX(d.left)
	d.pdf.CellFormat(d.width-stampW, 4, d.tr(Legend), "", 0, "L", false, 0, "")
	d.pdf.CellFormat(stampW, 4, stamp, "", 1, "R", false, 0, "")

	d.pdf.SetX(d.left)
	d.pdf.CellFormat(d.width, 4, d.tr(fmt.Sprintf("Página %d de {nb}", d.pdf.PageNo())), "", 0, "C", false, 0, "")
}

package render

import (
	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 4.0
	cellPad    = 1.0
)

type rgb struct{ r, g, b int }

var (
	headingGreen = rgb{0, 100, 0}
	headerFill   = rgb{224, 240, 224}
	gridGrey     = rgb{128, 128, 128}
	black        = rgb{0, 0, 0}
)

// column describes one table column. width is a fraction of the usable
// page width.
type column struct {
	title string
	width float64
	align string
}

// tableStyle controls optional table behaviour
type tableStyle struct {
	fillFirstRow bool // shade the first body row like a header
	keepTogether bool // start on a new page rather than split the table
	fontSize     float64
}

// document wraps the fpdf instance with the page geometry and the
// UTF-8 to cp1252 translation the core fonts need.
type document struct {
	pdf   *fpdf.Fpdf
	enc   *encoding.Encoder
	left  float64
	width float64
}

func newDocument(pdf *fpdf.Fpdf) *document {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return &document{
		pdf:   pdf,
		enc:   encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()),
		left:  left,
		width: pageW - left - right,
	}
}

// tr converts s to cp1252; runes outside it become the substitute byte
func (d *document) tr(s string) string {
	out, err := d.enc.String(s)
	if err != nil {
		return s
	}
	return out
}

func (d *document) font(style string, size float64) {
	d.pdf.SetFont(fontFamily, style, size)
}

func (d *document) textColor(c rgb) {
	d.pdf.SetTextColor(c.r, c.g, c.b)
}

// pageLimit is the y coordinate at which content must stop
func (d *document) pageLimit() float64 {
	_, pageH := d.pdf.GetPageSize()
	_, _, _, bottom := d.pdf.GetMargins()
	return pageH - bottom
}

// ensureSpace starts a new page if h does not fit below the cursor
func (d *document) ensureSpace(h float64) bool {
	if d.pdf.GetY()+h <= d.pageLimit() {
		return false
	}
	d.pdf.AddPage()
	return true
}

func (d *document) space(h float64) {
	d.pdf.Ln(h)
}

// heading writes a section title
func (d *document) heading(title string, size float64, align string) {
	d.ensureSpace(size/2 + 3*lineHeight)
	d.font("B", size)
	d.textColor(headingGreen)
	d.pdf.SetX(d.left)
	d.pdf.CellFormat(d.width, size/2, d.tr(title), "", 1, align, false, 0, "")
	d.textColor(black)
	d.space(1)
}

// rowHeight measures the tallest cell of a row
func (d *document) rowHeight(cols []column, cells []string) float64 {
	maxLines := 1
	for i, c := range cols {
		if i >= len(cells) {
			break
		}
		lines := d.pdf.SplitLines([]byte(d.tr(cells[i])), c.width*d.width)
		if len(lines) > maxLines {
			maxLines = len(lines)
		}
	}
	return float64(maxLines)*lineHeight + 2*cellPad
}

// drawRow draws one bordered row at the cursor and moves below it
func (d *document) drawRow(cols []column, cells []string, fill bool, align func(column) string) {
	h := d.rowHeight(cols, cells)
	y := d.pdf.GetY()
	x := d.left

	d.pdf.SetDrawColor(gridGrey.r, gridGrey.g, gridGrey.b)
	d.pdf.SetFillColor(headerFill.r, headerFill.g, headerFill.b)
	for i, c := range cols {
		w := c.width * d.width
		style := "D"
		if fill {
			style = "DF"
		}
		d.pdf.Rect(x, y, w, h, style)

		text := ""
		if i < len(cells) {
			text = cells[i]
		}
		d.pdf.SetXY(x, y+cellPad)
		d.pdf.MultiCell(w, lineHeight, d.tr(text), "", align(c), false)
		x += w
	}
	d.pdf.SetXY(d.left, y+h)
}

// table draws a header row (if any column has a title) and the body rows.
// When a row does not fit, a new page is started and the header repeated.
func (d *document) table(cols []column, rows [][]string, style tableStyle) {
	size := style.fontSize
	if size == 0 {
		size = 8
	}

	hasHeader := false
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.title
		if c.title != "" {
			hasHeader = true
		}
	}
	centred := func(column) string { return "C" }
	bodyAlign := func(c column) string {
		if c.align == "" {
			return "L"
		}
		return c.align
	}

	printHeader := func() {
		if !hasHeader {
			return
		}
		d.font("B", size)
		d.drawRow(cols, header, true, centred)
		d.font("", size)
	}

	d.font("", size)
	if style.keepTogether {
		total := 0.0
		if hasHeader {
			total += d.rowHeight(cols, header)
		}
		for _, r := range rows {
			total += d.rowHeight(cols, r)
		}
		d.ensureSpace(total)
	}

	first := 0.0
	if len(rows) > 0 {
		first = d.rowHeight(cols, rows[0])
	}
	if hasHeader {
		d.ensureSpace(d.rowHeight(cols, header) + first)
	}
	printHeader()

	for i, r := range rows {
		if d.ensureSpace(d.rowHeight(cols, r)) {
			printHeader()
		}
		d.drawRow(cols, r, style.fillFirstRow && i == 0, bodyAlign)
	}

	d.pdf.SetDrawColor(black.r, black.g, black.b)
}

// paragraph writes wrapped free text across the usable width
func (d *document) paragraph(text string, style string, size float64) {
	d.font(style, size)
	d.pdf.SetX(d.left)
	d.pdf.MultiCell(d.width, lineHeight, d.tr(text), "", "L", false)
}

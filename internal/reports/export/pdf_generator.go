package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PDFColor represents an RGB color
type PDFColor struct {
	R, G, B int
}

// PDFOptions configures PDF generation
type PDFOptions struct {
	Orientation    string // P or L
	PageSize       string
	Title          string
	Subtitle       string
	DateFormat     string
	FontFamily     string
	FontSize       float64
	TitleFontSize  float64
	HeaderColor    PDFColor
	AlternateColor PDFColor
	Margin         float64
}

// DefaultPDFOptions returns default PDF options
func DefaultPDFOptions() PDFOptions {
	return PDFOptions{
		Orientation:    "L",
		PageSize:       "A4",
		Title:          "Compliance Report",
		DateFormat:     "2006-01-02",
		FontFamily:     "Arial",
		FontSize:       9,
		TitleFontSize:  16,
		HeaderColor:    PDFColor{R: 68, G: 114, B: 196},
		AlternateColor: PDFColor{R: 242, G: 242, B: 242},
		Margin:         12,
	}
}

// PDFGenerator renders tables into a paginated PDF
type PDFGenerator struct {
	pdf     *gofpdf.Fpdf
	options PDFOptions
	tr      func(string) string
}

func NewPDFGenerator(options PDFOptions) *PDFGenerator {
	pdf := gofpdf.New(options.Orientation, "mm", options.PageSize, "")
	pdf.SetMargins(options.Margin, options.Margin, options.Margin)
	pdf.SetAutoPageBreak(true, options.Margin)

	g := &PDFGenerator{
		pdf:     pdf,
		options: options,
		// Core fonts are cp1252; Spanish names need translating from UTF-8.
		tr: pdf.UnicodeTranslatorFromDescriptor(""),
	}
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont(options.FontFamily, "", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()
	g.addTitle()
	return g
}

func (g *PDFGenerator) addTitle() {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.TitleFontSize)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 10, g.tr(g.options.Title), "", 1, "C", false, 0, "")

	if g.options.Subtitle != "" {
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize+2)
		g.pdf.SetTextColor(100, 100, 100)
		g.pdf.CellFormat(0, 7, g.tr(g.options.Subtitle), "", 1, "C", false, 0, "")
	}

	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(128, 128, 128)
	g.pdf.CellFormat(0, 6, "Generated: "+time.Now().Format(g.options.DateFormat), "", 1, "R", false, 0, "")
	g.pdf.Ln(4)
}

// AddSummary writes label/value pairs in the given order
func (g *PDFGenerator) AddSummary(title string, items [][2]string) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, g.tr(title), "", 1, "L", false, 0, "")

	for _, item := range items {
		g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
		g.pdf.CellFormat(55, 6, g.tr(item[0]+":"), "", 0, "L", false, 0, "")
		g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
		g.pdf.CellFormat(0, 6, g.tr(item[1]), "", 1, "L", false, 0, "")
	}
	g.pdf.Ln(4)
}

// AddTable writes a titled table, repeating its header on every new page
func (g *PDFGenerator) AddTable(table Table) error {
	if len(table.Columns) == 0 {
		return fmt.Errorf("table %s has no columns", table.Name)
	}

	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize+2)
	g.pdf.SetTextColor(0, 0, 0)
	g.pdf.CellFormat(0, 8, g.tr(table.Name), "", 1, "L", false, 0, "")

	widths := g.columnWidths(table)
	g.addHeader(table, widths)

	_, pageHeight := g.pdf.GetPageSize()
	for i, row := range table.Rows {
		if g.pdf.GetY()+7 > pageHeight-g.options.Margin {
			g.pdf.AddPage()
			g.addHeader(table, widths)
		}

		if i%2 == 1 {
			g.pdf.SetFillColor(g.options.AlternateColor.R, g.options.AlternateColor.G, g.options.AlternateColor.B)
		} else {
			g.pdf.SetFillColor(255, 255, 255)
		}
		for j, col := range table.Columns {
			val := truncate(formatValue(row[col.Key], g.options.DateFormat), int(widths[j]/1.8))
			g.pdf.CellFormat(widths[j], 7, g.tr(val), "1", 0, "L", true, 0, "")
		}
		g.pdf.Ln(-1)
	}
	g.pdf.Ln(6)
	return g.pdf.Error()
}

func (g *PDFGenerator) addHeader(table Table, widths []float64) {
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
	g.pdf.SetFillColor(g.options.HeaderColor.R, g.options.HeaderColor.G, g.options.HeaderColor.B)
	g.pdf.SetTextColor(255, 255, 255)
	for i, col := range table.Columns {
		g.pdf.CellFormat(widths[i], 8, g.tr(col.Label), "1", 0, "C", true, 0, "")
	}
	g.pdf.Ln(-1)
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	g.pdf.SetTextColor(0, 0, 0)
}

// columnWidths sizes columns by content, scaled down to the printable width
func (g *PDFGenerator) columnWidths(table Table) []float64 {
	pageWidth, _ := g.pdf.GetPageSize()
	available := pageWidth - 2*g.options.Margin

	widths := make([]float64, len(table.Columns))
	g.pdf.SetFont(g.options.FontFamily, "B", g.options.FontSize)
	for i, col := range table.Columns {
		widths[i] = g.pdf.GetStringWidth(col.Label) + 4
	}
	g.pdf.SetFont(g.options.FontFamily, "", g.options.FontSize)
	for _, row := range table.Rows {
		for i, col := range table.Columns {
			if w := g.pdf.GetStringWidth(formatValue(row[col.Key], g.options.DateFormat)) + 4; w > widths[i] {
				widths[i] = w
			}
		}
	}

	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > available {
		scale := available / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

func truncate(s string, maxChars int) string {
	r := []rune(s)
	if maxChars < 4 || len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars-3]) + "..."
}

// Bytes renders the document
func (g *PDFGenerator) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

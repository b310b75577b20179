// internal/pdf/generator.go
package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PermitDocument is the flattened snapshot a delivery permit is rendered
// from. The renderer never reaches back into the database.
type PermitDocument struct {
	RefNo         string
	Status        string
	FarmerName    string
	SocietyName   string
	FactoryName   string
	WarehouseName string
	ApplicationAt time.Time
	DeliveryStart time.Time
	DeliveryEnd   time.Time
	ApprovedBy    string
	ApprovedAt    time.Time
	Lines         []PermitLine
	TotalBags     int
	TotalWeightKg float64
}

// PermitLine is one (grade, bags) row of the permit table.
type PermitLine struct {
	Grade        string
	WeightPerBag float64
	Bags         int
	WeightKg     float64
}

// AnalyticsReport is the flattened snapshot an analytics summary is rendered
// from.
type AnalyticsReport struct {
	Title        string
	GeneratedAt  time.Time
	PeriodLabel  string
	StatusRows   []ReportRow
	TopSocieties []ReportRow
	TopGrades    []ReportRow
}

// ReportRow is one label/value line of a report section.
type ReportRow struct {
	Label string
	Value string
}

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Arial"}
}

// GeneratePermitDocument renders the delivery permit handed to the
// transporter at the warehouse gate.
func (g *Generator) GeneratePermitDocument(doc PermitDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Coffee Delivery Permit", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference No: %s", doc.RefNo), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Applied on %s", formatDate(doc.ApplicationAt)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.detailBlock(pdf, "Consignor", []string{
		fmt.Sprintf("Farmer: %s", doc.FarmerName),
		fmt.Sprintf("Society: %s", doc.SocietyName),
		fmt.Sprintf("Factory: %s", doc.FactoryName),
	})
	pdf.Ln(2)
	g.detailBlock(pdf, "Destination", []string{
		fmt.Sprintf("Warehouse: %s", doc.WarehouseName),
	})
	pdf.Ln(2)
	g.detailBlock(pdf, "Delivery Window", []string{
		fmt.Sprintf("From %s to %s", formatDate(doc.DeliveryStart), formatDate(doc.DeliveryEnd)),
	})
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Consignment", "", 1, "L", false, 0, "")

	headers := []string{"Grade", "Weight per Bag (kg)", "Bags", "Weight (kg)"}
	widths := []float64{60, 45, 30, 45}
	g.tableRow(pdf, headers, widths, true)
	for _, line := range doc.Lines {
		g.tableRow(pdf, []string{
			line.Grade,
			fmt.Sprintf("%.2f", line.WeightPerBag),
			fmt.Sprintf("%d", line.Bags),
			fmt.Sprintf("%.2f", line.WeightKg),
		}, widths, false)
	}
	g.tableRow(pdf, []string{
		"Total", "",
		fmt.Sprintf("%d", doc.TotalBags),
		fmt.Sprintf("%.2f", doc.TotalWeightKg),
	}, widths, true)

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Approved by %s on %s", doc.ApprovedBy, formatDate(doc.ApprovedAt)), "", 1, "L", false, 0, "")
	pdf.Ln(6)
	pdf.CellFormat(0, 6, "Authorized signature: ______________________", "", 1, "L", false, 0, "")

	return output(pdf)
}

// GenerateAnalyticsReport renders a one-page summary of the analytics
// series for offline distribution.
func (g *Generator) GenerateAnalyticsReport(report AnalyticsReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, report.Title, "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s", report.PeriodLabel), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated on %s", report.GeneratedAt.Format("02 Jan 2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.reportSection(pdf, "Permits by Status", report.StatusRows)
	g.reportSection(pdf, "Top Societies by Weight (kg)", report.TopSocieties)
	g.reportSection(pdf, "Top Grades by Weight (kg)", report.TopGrades)

	return output(pdf)
}

func (g *Generator) reportSection(pdf *gofpdf.Fpdf, title string, rows []ReportRow) {
	if len(rows) == 0 {
		return
	}
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	widths := []float64{120, 60}
	for _, row := range rows {
		g.tableRow(pdf, []string{row.Label, row.Value}, widths, false)
	}
	pdf.Ln(4)
}

func (g *Generator) detailBlock(pdf *gofpdf.Fpdf, title string, lines []string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	for _, line := range lines {
		pdf.MultiCell(0, 5, line, "", "L", false)
	}
}

func (g *Generator) tableRow(pdf *gofpdf.Fpdf, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(g.fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02 Jan 2006")
}

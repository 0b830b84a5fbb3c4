package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	ocpi "chargenet-cloud/internal/ocpi/domain"
)

// CdrExport is the input for a CDR report: the tenant's posted CDRs in a
// stop-time window.
type CdrExport struct {
	TenantID string
	From     time.Time
	To       time.Time
	Cdrs     []ocpi.Cdr
}

// Totals sums energy and cost over the export.
func (e CdrExport) Totals() (energyKWh, cost float64) {
	for _, cdr := range e.Cdrs {
		energyKWh += cdr.TotalEnergy
		cost += cdr.TotalCost
	}
	return energyKWh, cost
}

// BuildCdrPDF renders a minimal PDF for a CDR export.
func BuildCdrPDF(export CdrExport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Charge Detail Records")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Tenant: %s", export.TenantID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("From: %s", export.From.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("To: %s", export.To.Format(time.RFC3339)))
	pdf.Ln(5)

	energy, cost := export.Totals()
	pdf.Cell(0, 6, fmt.Sprintf("Records: %d", len(export.Cdrs)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Energy (kWh): %.3f", energy))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Cost: %.2f", cost))
	pdf.Ln(8)

	// Records table
	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(30, 6, "CDR", "1", 0, "C", false, 0, "")
	pdf.CellFormat(38, 6, "Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(38, 6, "Stop", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Energy (kWh)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(28, 6, "Cost", "1", 0, "C", false, 0, "")
	pdf.CellFormat(18, 6, "Curr", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, cdr := range export.Cdrs {
		pdf.CellFormat(30, 6, cdr.ID, "1", 0, "L", false, 0, "")
		pdf.CellFormat(38, 6, cdr.StartDateTime.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(38, 6, cdr.StopDateTime.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.3f", cdr.TotalEnergy), "1", 0, "R", false, 0, "")
		pdf.CellFormat(28, 6, fmt.Sprintf("%.2f", cdr.TotalCost), "1", 0, "R", false, 0, "")
		pdf.CellFormat(18, 6, cdr.Currency, "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildCdrXLSX renders a minimal XLSX for a CDR export.
func BuildCdrXLSX(export CdrExport) ([]byte, error) {
	f := excelize.NewFile()
	summarySheet := "summary"
	recordsSheet := "records"
	f.SetSheetName("Sheet1", summarySheet)
	f.NewSheet(recordsSheet)

	energy, cost := export.Totals()
	_ = f.SetCellValue(summarySheet, "A1", "Charge Detail Records")
	_ = f.SetCellValue(summarySheet, "A3", "Tenant")
	_ = f.SetCellValue(summarySheet, "B3", export.TenantID)
	_ = f.SetCellValue(summarySheet, "A4", "From")
	_ = f.SetCellValue(summarySheet, "B4", export.From.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A5", "To")
	_ = f.SetCellValue(summarySheet, "B5", export.To.Format(time.RFC3339))
	_ = f.SetCellValue(summarySheet, "A6", "Records")
	_ = f.SetCellValue(summarySheet, "B6", len(export.Cdrs))
	_ = f.SetCellValue(summarySheet, "A7", "Total Energy (kWh)")
	_ = f.SetCellValue(summarySheet, "B7", energy)
	_ = f.SetCellValue(summarySheet, "A8", "Total Cost")
	_ = f.SetCellValue(summarySheet, "B8", cost)

	_ = f.SetCellValue(recordsSheet, "A1", "CDR")
	_ = f.SetCellValue(recordsSheet, "B1", "Auth ID")
	_ = f.SetCellValue(recordsSheet, "C1", "Start")
	_ = f.SetCellValue(recordsSheet, "D1", "Stop")
	_ = f.SetCellValue(recordsSheet, "E1", "Energy (kWh)")
	_ = f.SetCellValue(recordsSheet, "F1", "Time (h)")
	_ = f.SetCellValue(recordsSheet, "G1", "Cost")
	_ = f.SetCellValue(recordsSheet, "H1", "Currency")
	for i, cdr := range export.Cdrs {
		row := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", row), cdr.ID)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", row), cdr.AuthID)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", row), cdr.StartDateTime.Format(time.RFC3339))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", row), cdr.StopDateTime.Format(time.RFC3339))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", row), cdr.TotalEnergy)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("F%d", row), cdr.TotalTime)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("G%d", row), cdr.TotalCost)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("H%d", row), cdr.Currency)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

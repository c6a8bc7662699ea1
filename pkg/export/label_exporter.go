package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// Label is one printable name tag.
type Label struct {
	PersonName   string
	GroupName    string
	LocationName string
	ScheduleName string
	SecurityCode string
	Organization string
}

// LabelExporter renders name tags onto 89x36mm label stock, one tag per page.
type LabelExporter struct{}

// NewLabelExporter constructs a label exporter.
func NewLabelExporter() *LabelExporter {
	return &LabelExporter{}
}

// Render produces a PDF with one page per label.
func (e *LabelExporter) Render(labels []Label) ([]byte, error) {
	if len(labels) == 0 {
		return nil, fmt.Errorf("labels require at least one entry")
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: 89, Ht: 36},
	})
	pdf.SetMargins(4, 3, 4)
	pdf.SetAutoPageBreak(false, 0)

	for _, label := range labels {
		pdf.AddPage()

		pdf.SetFont("Arial", "B", 18)
		pdf.CellFormat(60, 9, label.PersonName, "", 0, "L", false, 0, "")
		if label.SecurityCode != "" {
			pdf.SetFont("Arial", "B", 14)
			pdf.CellFormat(0, 9, label.SecurityCode, "", 1, "R", false, 0, "")
		} else {
			pdf.Ln(-1)
		}

		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, label.GroupName+" / "+label.LocationName, "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 6, label.ScheduleName, "", 1, "L", false, 0, "")

		if label.Organization != "" {
			pdf.SetFont("Arial", "I", 7)
			pdf.CellFormat(0, 4, label.Organization, "", 1, "L", false, 0, "")
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render labels: %w", err)
	}
	return buf.Bytes(), nil
}

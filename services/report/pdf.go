package report

import (
	"bytes"
	"context"
	"fmt"

	"github.com/go-pdf/fpdf"
)

// PdfRenderer writes a printable report. Layout stays simple, it is
// meant to be handed out at a club meeting, not framed.
type PdfRenderer struct{}

func (PdfRenderer) Name() string { return "pdf" }
func (PdfRenderer) Ext() string  { return "pdf" }

func (PdfRenderer) Render(ctx context.Context, model Model) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, fmt.Sprintf("%s Club Report", model.ClubName), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Generated "+model.GeneratedAt.Format("January 2, 2006 3:04 PM"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdfHeading(pdf, "Club Overview")
	pdfKeyValue(pdf, "Paid members", fmt.Sprint(model.Stats.TotalMembers))
	pdfKeyValue(pdf, "Active members", fmt.Sprint(model.Stats.ActiveMembers))
	pdfKeyValue(pdf, "Completed pathways", fmt.Sprint(model.Stats.CompletedPathwaysTotal))
	pdf.Ln(4)

	if len(model.PathwayDistribution) > 0 {
		pdfHeading(pdf, "Pathway Distribution")
		for _, row := range model.PathwayDistribution {
			pdfKeyValue(pdf, row.Label, fmt.Sprint(row.Count))
		}
		pdf.Ln(4)
	}
	if len(model.LevelDistribution) > 0 {
		pdfHeading(pdf, "Level Distribution")
		for _, row := range model.LevelDistribution {
			pdfKeyValue(pdf, row.Label, fmt.Sprint(row.Count))
		}
		pdf.Ln(4)
	}

	pdfHeading(pdf, "Members")
	for _, member := range model.Members {
		pdf.SetFont("Helvetica", "B", 11)
		title := member.DisplayName
		if member.Incomplete {
			title += " (incomplete data)"
		}
		pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 9)
		if len(member.Pathways) == 0 {
			pdf.CellFormat(0, 5, "No pathway enrollments.", "", 1, "L", false, 0, "")
			pdf.Ln(2)
			continue
		}
		for _, pathway := range member.Pathways {
			line := fmt.Sprintf("%s: level %d, %.1f%% complete, %d left in level (%s)",
				pathway.Name, pathway.CurrentLevel, pathway.CompletionPercent,
				pathway.RemainingInLevel, pathway.Status)
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
		for _, project := range member.NextProjects {
			line := fmt.Sprintf("Next: %s (%s, level %d, %s)",
				project.Name, project.Type, project.Level, project.Duration)
			pdf.CellFormat(0, 5, line, "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}

	var buffer bytes.Buffer
	err := pdf.Output(&buffer)
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

func pdfHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func pdfKeyValue(pdf *fpdf.Fpdf, key, value string) {
	pdf.CellFormat(60, 6, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

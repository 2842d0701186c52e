package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/jung-kurt/gofpdf"

	domain "github.com/bryanwahyu/assessly/internal/domain/assessments"
)

// PDFRenderer renders a completed assessment into report bytes.
// Rendering is a pure transform; two renders of the same assessment
// produce the same filename for the same completion date.
type PDFRenderer struct{}

func NewPDFRenderer() *PDFRenderer { return &PDFRenderer{} }

// FileName is slug(company|"assessment") + completion date. The date is
// the assessment's own completedOn, not wall clock, so recovery renders
// land on the same path instead of piling up new files.
func (r *PDFRenderer) FileName(company string, completedOn time.Time) string {
	base := slug.Make(company)
	if base == "" {
		base = "assessment"
	}
	return fmt.Sprintf("%s-%s.pdf", base, completedOn.Format("2006-01-02"))
}

// Render builds the report document: score header, intro, one section
// per category with benchmark and best practices, outro. company is the
// resolved owner company so user-owned and guest reports share a header.
func (r *PDFRenderer) Render(a *domain.Assessment, doc *domain.RecommendationDoc, company string) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("no recommendation document to render")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Maturity Assessment Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Maturity Assessment Report", "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 11)
	if a.CompletedOn != nil {
		pdf.CellFormat(0, 6, "Completed: "+a.CompletedOn.Format("2 January 2006"), "", 1, "L", false, 0, "")
	}
	if company != "" {
		pdf.CellFormat(0, 6, "Company: "+company, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	if a.Score != nil {
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, fmt.Sprintf("Overall score: %d / 100", *a.Score), "", 1, "L", false, 0, "")
		drawBar(pdf, *a.Score)
		pdf.Ln(4)
	}

	if doc.Intro != "" {
		pdf.SetFont("Helvetica", "", 11)
		pdf.MultiCell(0, 5.5, doc.Intro, "", "L", false)
		pdf.Ln(3)
	}

	for _, cat := range doc.Categories {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, cat.Name, "", 1, "L", false, 0, "")

		pdf.SetFont("Helvetica", "", 10)
		line := fmt.Sprintf("Score %d / 100  -  benchmark %d", cat.CurrentScore, cat.Benchmark)
		if cat.Trend != "" {
			line += "  -  trend " + cat.Trend
		}
		pdf.CellFormat(0, 5.5, line, "", 1, "L", false, 0, "")
		drawBar(pdf, cat.CurrentScore)

		for _, bp := range cat.BestPractices {
			pdf.SetX(14)
			pdf.MultiCell(0, 5, "- "+bp, "", "L", false)
		}
		pdf.Ln(3)
	}

	if doc.Outro != "" {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.MultiCell(0, 5.5, doc.Outro, "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// drawBar draws a 0..100 score bar at the current position.
func drawBar(pdf *gofpdf.Fpdf, score int) {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	x, y := pdf.GetX(), pdf.GetY()
	width := 120.0
	pdf.SetFillColor(230, 230, 230)
	pdf.Rect(x, y+1, width, 3.5, "F")
	pdf.SetFillColor(46, 125, 50)
	pdf.Rect(x, y+1, width*float64(score)/100, 3.5, "F")
	pdf.SetY(y + 6)
}

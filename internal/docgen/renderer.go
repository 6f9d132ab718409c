package docgen

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/veridianip/veridian/backend/internal/nda"
	"github.com/veridianip/veridian/backend/internal/reports"
	"github.com/veridianip/veridian/backend/internal/submissions"
)

const (
	pageMargin = 15.0
	lineHeight = 5.5
)

// Renderer produces PDF documents for submissions, NDAs, and search reports.
type Renderer struct{}

// NewRenderer constructs a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(true, pageMargin)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, title, "", "C", false)
	pdf.Ln(4)
	return pdf
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 7, text, "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
}

func field(pdf *fpdf.Fpdf, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(45, lineHeight, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, value, "", "L", false)
}

func paragraph(pdf *fpdf.Fpdf, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(0, lineHeight, text, "", "L", false)
	pdf.Ln(2)
}

func render(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SubmissionSnapshot renders the review-step view of a paid submission.
func (r *Renderer) SubmissionSnapshot(submission submissions.Submission, view submissions.ReviewView) ([]byte, error) {
	pdf := newDocument("Search Request " + submission.Reference)

	heading(pdf, "Project")
	field(pdf, "Project name", view.ProjectName)
	field(pdf, "Contact", view.ContactName)
	field(pdf, "Email", view.Email)
	field(pdf, "Phone", view.Phone)
	field(pdf, "Search type", string(submission.SearchType))
	pdf.Ln(3)

	heading(pdf, "Invention")
	field(pdf, "Title", view.Title)
	paragraph(pdf, view.Description)

	if len(view.Features) > 0 {
		heading(pdf, "Features")
		for index, feature := range view.Features {
			paragraph(pdf, fmt.Sprintf("%d. %s", index+1, feature))
		}
	}

	if len(view.Markets) > 0 {
		heading(pdf, "Target markets")
		paragraph(pdf, strings.Join(view.Markets, ", "))
	}

	return render(pdf)
}

// AgreementPDF renders the fixed-text NDA with the captured signature.
func (r *Renderer) AgreementPDF(doc nda.Document) ([]byte, error) {
	pdf := newDocument("Non-Disclosure Agreement")

	paragraph(pdf, doc.TermsText)
	pdf.Ln(4)

	heading(pdf, "Signed by")
	field(pdf, "Name", doc.SignerName)
	field(pdf, "Company", doc.Company)
	field(pdf, "Email", doc.Email)
	field(pdf, "Date", doc.SignedAt.Format("2006-01-02"))

	if len(doc.SignaturePNG) > 0 {
		options := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("signature", options, bytes.NewReader(doc.SignaturePNG))
		pdf.Ln(4)
		pdf.ImageOptions("signature", pageMargin, pdf.GetY(), 60, 0, false, options, 0, "")
	}

	return render(pdf)
}

// ReportPDF renders the finalized search report with all sections.
func (r *Renderer) ReportPDF(report reports.Report) ([]byte, error) {
	scope, features, market, risk, appendices, disclaimers, err := report.Sections()
	if err != nil {
		return nil, err
	}

	pdf := newDocument("Search Report " + report.Reference)

	heading(pdf, "Search Scope")
	field(pdf, "Databases", strings.Join(scope.Databases, ", "))
	field(pdf, "Jurisdictions", strings.Join(scope.Jurisdictions, ", "))
	field(pdf, "Classifications", strings.Join(scope.Classifications, ", "))
	field(pdf, "Date range", scope.DateRange)
	paragraph(pdf, scope.Notes)

	heading(pdf, "Feature Analysis")
	for _, finding := range features.Findings {
		field(pdf, "Feature", finding.Feature)
		field(pdf, "Risk level", finding.RiskLevel)
		for _, citation := range finding.Citations {
			paragraph(pdf, fmt.Sprintf("%s  %s (%s): %s",
				citation.PatentNumber, citation.Title, citation.Assignee, citation.Relevance))
		}
	}
	paragraph(pdf, features.Summary)

	heading(pdf, "Market Analysis")
	for _, entry := range market.Entries {
		field(pdf, entry.Jurisdiction, entry.PatentActivity)
		paragraph(pdf, entry.Notes)
	}
	paragraph(pdf, market.Summary)

	heading(pdf, "Risk Mitigation")
	for _, item := range risk.Items {
		field(pdf, item.Severity, item.Risk)
		paragraph(pdf, item.Mitigation)
	}
	paragraph(pdf, risk.Summary)

	if len(appendices.Items) > 0 {
		heading(pdf, "Appendices")
		for _, appendix := range appendices.Items {
			field(pdf, "Appendix", appendix.Title)
			paragraph(pdf, appendix.Content)
		}
	}

	if disclaimers.Text != "" {
		heading(pdf, "Legal Disclaimers")
		paragraph(pdf, disclaimers.Text)
	}

	return render(pdf)
}

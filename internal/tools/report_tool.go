package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"healthmate/internal/models"
)

// ReportTool renders a Markdown report body into a PDF under the uploads
// directory and returns an HTML download link. Registered with the agent as
// "write_report".
type ReportTool struct {
	uploadDir     string
	publicBaseURL string
}

// NewReportTool creates the report writing tool
func NewReportTool(uploadDir, publicBaseURL string) *ReportTool {
	return &ReportTool{uploadDir: uploadDir, publicBaseURL: publicBaseURL}
}

// reportArgs is the tool-call argument payload
type reportArgs struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Body     string `json:"body"`
}

// Definition describes the tool in OpenAI function-calling format
func (t *ReportTool) Definition() models.Tool {
	return models.Tool{
		Type: "function",
		Function: models.ToolFunction{
			Name:        "write_report",
			Description: "Generate a professional medical report PDF",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filename": map[string]any{"type": "string", "description": "A PDF-friendly file name for the report (e.g., 'malaria_symptoms_report.pdf')"},
					"title":    map[string]any{"type": "string", "description": "A concise title for the report"},
					"body":     map[string]any{"type": "string", "description": "The full formatted report body in Markdown"},
				},
				"required": []string{"filename", "title", "body"},
			},
		},
	}
}

// Execute writes the PDF and returns the HTML anchor tag linking to it
func (t *ReportTool) Execute(ctx context.Context, args json.RawMessage) (string, error) {
	var req reportArgs
	if err := json.Unmarshal(args, &req); err != nil {
		return "", fmt.Errorf("invalid write_report arguments: %w", err)
	}

	filename := SanitizeReportFilename(req.Filename)
	if err := os.MkdirAll(t.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create uploads directory: %w", err)
	}

	path := filepath.Join(t.uploadDir, filename)
	if err := renderReportPDF(path, req.Title, req.Body); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}

	log.Printf("📄 Report written: %s", path)
	return fmt.Sprintf("<a href='%s/files/download/%s' download>click here to download %s</a>", t.publicBaseURL, filename, filename), nil
}

// SanitizeReportFilename reduces a model-chosen filename to the safe .pdf
// basename the report is actually written under. Callers recording the
// report name must use this, not the raw model output.
func SanitizeReportFilename(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "report.pdf"
	}
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// renderReportPDF lays out the title plus the Markdown body (headings, bullet
// lists, bold runs, paragraphs) as a Letter-sized PDF
func renderReportPDF(path, title, body string) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 20)
	pdf.MultiCell(0, 10, tr(title), "", "C", false)
	pdf.Ln(6)

	source := []byte(body)
	doc := goldmark.New().Parser().Parse(text.NewReader(source))

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch block := node.(type) {
		case *ast.Heading:
			size := 14.0
			if block.Level > 1 {
				size = 12
			}
			pdf.SetFont("Helvetica", "B", size)
			pdf.MultiCell(0, 8, tr(nodeText(block, source)), "", "L", false)
			pdf.Ln(2)
		case *ast.List:
			pdf.SetFont("Helvetica", "", 11)
			for item := block.FirstChild(); item != nil; item = item.NextSibling() {
				pdf.MultiCell(0, 6, tr("  \x95 "+nodeText(item, source)), "", "L", false)
			}
			pdf.Ln(2)
		case *ast.Paragraph:
			writeInline(pdf, tr, block, source)
			pdf.Ln(8)
		default:
			textContent := nodeText(node, source)
			if textContent != "" {
				pdf.SetFont("Helvetica", "", 11)
				pdf.MultiCell(0, 6, tr(textContent), "", "L", false)
				pdf.Ln(2)
			}
		}
	}

	return pdf.OutputFileAndClose(path)
}

// writeInline emits a paragraph's inline runs, toggling bold for Strong nodes
func writeInline(pdf *fpdf.Fpdf, tr func(string) string, paragraph ast.Node, source []byte) {
	for child := paragraph.FirstChild(); child != nil; child = child.NextSibling() {
		switch inline := child.(type) {
		case *ast.Emphasis:
			style := "I"
			if inline.Level >= 2 {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, 11)
			pdf.Write(6, tr(nodeText(inline, source)))
		default:
			pdf.SetFont("Helvetica", "", 11)
			pdf.Write(6, tr(nodeText(child, source)))
		}
	}
}

// nodeText collects the plain text beneath an AST node
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if textNode, ok := n.(*ast.Text); ok {
			sb.Write(textNode.Segment.Value(source))
			if textNode.SoftLineBreak() || textNode.HardLineBreak() {
				sb.WriteByte(' ')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

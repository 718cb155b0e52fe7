package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

const (
	// MaxPDFPages limits the number of pages to process
	MaxPDFPages = 100

	// MaxExtractedTextSize limits the extracted text size (1MB)
	MaxExtractedTextSize = 1024 * 1024
)

// ReadDocument extracts plain text from an uploaded document so it can be
// injected into a prompt. Supports .txt and .pdf; anything else yields a
// fixed notice. Extraction failures degrade to a message, never an error,
// matching how the chat pipeline treats uploaded context as best-effort.
func ReadDocument(path string) string {
	if path == "" {
		return ""
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Sprintf("could not read uploaded file: %v", err)
		}
		return string(data)
	case ".pdf":
		text, err := extractPDFText(path)
		if err != nil {
			return fmt.Sprintf("could not read uploaded file: %v", err)
		}
		return text
	default:
		return "no text extracted due to invalid file type"
	}
}

// extractPDFText extracts text from every page of a PDF, bounded in pages and
// total size
func extractPDFText(path string) (string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	totalPages := reader.NumPage()
	if totalPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}
	if totalPages > MaxPDFPages {
		return "", fmt.Errorf("PDF has too many pages (%d), max allowed is %d", totalPages, MaxPDFPages)
	}

	var textBuilder strings.Builder
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// Skip pages with extraction errors, don't fail completely
			continue
		}

		cleaned := cleanPDFText(text)
		if cleaned != "" {
			textBuilder.WriteString(fmt.Sprintf("\n--- Page %d ---\n", pageNum))
			textBuilder.WriteString(cleaned)
			textBuilder.WriteString("\n")
		}

		if textBuilder.Len() > MaxExtractedTextSize {
			textBuilder.WriteString("\n... [Content truncated - size limit reached]")
			break
		}
	}

	extracted := textBuilder.String()
	if len(extracted) > MaxExtractedTextSize {
		extracted = extracted[:MaxExtractedTextSize] + "\n... [Content truncated]"
	}

	return extracted, nil
}

// cleanPDFText cleans extracted PDF text
func cleanPDFText(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = normalizeWhitespace(text)
	return strings.TrimSpace(text)
}

// normalizeWhitespace collapses runs of whitespace, preserving newlines
func normalizeWhitespace(text string) string {
	var result strings.Builder
	lastWasSpace := false

	for _, r := range text {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				if r == '\n' {
					result.WriteRune('\n')
					lastWasSpace = false
				} else {
					result.WriteRune(' ')
					lastWasSpace = true
				}
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

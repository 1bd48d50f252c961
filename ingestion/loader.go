package ingestion

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/retrievit/core"
)

// Supported content types. Markdown is indexed as-is: the raw markup
// tokenizes fine and stripping it buys nothing for retrieval quality.
const (
	ContentTypeText     = "text/plain"
	ContentTypeMarkdown = "text/markdown"
	ContentTypePDF      = "application/pdf"
)

// ExtractText pulls the indexable text out of a raw document.
// Content types outside the allow-list fail with core.ErrUnsupportedContentType.
// Parameters like "; charset=utf-8" are ignored.
func ExtractText(content []byte, contentType string) (string, error) {
	switch normalizeContentType(contentType) {
	case ContentTypeText, ContentTypeMarkdown:
		return string(content), nil
	case ContentTypePDF:
		return extractPDFText(content)
	default:
		return "", fmt.Errorf("%w: %q", core.ErrUnsupportedContentType, contentType)
	}
}

// normalizeContentType strips media type parameters and whitespace.
func normalizeContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

// extractPDFText extracts plain text from a PDF document.
// Returns an empty string (not an error) if the PDF has no extractable text;
// the caller reports that as an empty document.
func extractPDFText(content []byte) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}
	plainReader, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	out, err := io.ReadAll(plainReader)
	if err != nil {
		return "", fmt.Errorf("extracting pdf text: %w", err)
	}
	return string(out), nil
}

package extraction

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// Text below this length means the PDF is almost certainly scanned.
	minTextLength = 50

	maxStatementPages = 10
	maxPaystubPages   = 4

	pageBreak = "\n\n--- Page Break ---\n\n"
)

// extractPDFText pulls plain text from up to maxPages pages. The pdf library
// panics on some malformed documents, so the whole extraction is wrapped in
// recover.
func extractPDFText(data []byte, maxPages int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newError(ErrScannedPDF, fmt.Sprintf("failed to read PDF: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", wrapError(ErrScannedPDF, "could not open PDF", err)
	}

	pages := reader.NumPage()
	if pages > maxPages {
		pages = maxPages
	}

	var sections []string
	for i := 1; i <= pages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if strings.TrimSpace(content) != "" {
			sections = append(sections, content)
		}
	}

	text = strings.Join(sections, pageBreak)
	if len(strings.TrimSpace(text)) < minTextLength {
		return "", newError(ErrScannedPDF,
			"Could not extract readable text from this PDF. The document may be image-based (scanned). "+
				"Try saving it as an image (screenshot/PNG) and uploading that instead.")
	}
	return text, nil
}

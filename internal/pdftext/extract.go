package pdftext

import (
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// MinUsableChars is the smallest extraction considered readable; scanned or
// image-only PDFs typically fall under it.
const MinUsableChars = 50

// Extract pulls the plain text out of a PDF. The caller decides whether the
// result is long enough to be usable (see MinUsableChars).
func Extract(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", err
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	if _, err := io.Copy(&b, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}

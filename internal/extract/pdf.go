package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// extractPDF walks every page of the PDF at path, concatenating each page's
// plain text and recording where it starts in the flattened result so later
// components can report "this chunk came from page N".
func extractPDF(path string) (Result, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Result{}, apperr.New(apperr.KindExtraction, fmt.Sprintf("open pdf %q", path), err)
	}
	defer f.Close()

	var body strings.Builder
	pages := make([]Page, 0, r.NumPage())

	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page (e.g. an embedded image-only page)
			// does not fail the whole document; it just contributes nothing.
			continue
		}

		pages = append(pages, Page{Number: pageIndex, StartOffset: body.Len()})
		body.WriteString(text)
		body.WriteString("\n\n")
	}

	return Result{Text: body.String(), Pages: pages}, nil
}

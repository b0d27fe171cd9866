package extract

import (
	"fmt"

	"github.com/nguyenthenguyen/docx"
	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// extractDOCX reads the zip-packaged Word document at path. DOCX has no
// native page boundaries (pagination is a rendering concern, not a document
// one), so the result collapses to a single page spanning the whole body.
func extractDOCX(path string) (Result, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return Result{}, apperr.New(apperr.KindExtraction, fmt.Sprintf("open docx %q", path), err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return Result{
		Text:  content,
		Pages: []Page{{Number: 1, StartOffset: 0}},
	}, nil
}

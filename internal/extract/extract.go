// Package extract turns a source file (PDF, DOCX, or HTML) into ordered
// plain text plus a per-page provenance table. There is no OCR path: a
// scanned PDF that yields zero extractable text fails with NoTextError
// rather than silently returning nothing to chunk.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// Page records the byte offset at which one source page's text begins in
// the text as extracted, before normalization, for provenance display
// ("this chunk came from page 4").
type Page struct {
	Number      int
	StartOffset int
}

// Result is the output of extracting one document.
type Result struct {
	Text     string
	Pages    []Page
	Markdown string // populated for HTML sources, empty otherwise
}

// Format is an explicit hint; when empty, Extract infers it from the file
// extension.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// Extract reads path and produces ordered plain text with page provenance.
func Extract(path string, hint Format) (Result, error) {
	format := hint
	if format == "" {
		format = formatFromExtension(path)
	}

	var (
		res Result
		err error
	)

	switch format {
	case FormatPDF:
		res, err = extractPDF(path)
	case FormatDOCX:
		res, err = extractDOCX(path)
	case FormatHTML:
		res, err = extractHTML(path)
	default:
		return Result{}, apperr.New(apperr.KindExtraction, fmt.Sprintf("unsupported format for %q", path), nil)
	}
	if err != nil {
		return Result{}, err
	}

	res.Text = normalize(res.Text)
	if strings.TrimSpace(res.Text) == "" {
		return Result{}, apperr.New(apperr.KindNoText, fmt.Sprintf("no extractable text in %q", path), nil)
	}

	return res, nil
}

func formatFromExtension(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".html", ".htm":
		return FormatHTML
	default:
		return ""
	}
}

// Supported reports whether path's extension is one Extract can handle,
// used by the ingestion driver's directory walk to decide what to skip.
func Supported(path string) bool {
	return formatFromExtension(path) != ""
}

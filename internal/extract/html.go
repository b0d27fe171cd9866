package extract

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	readability "github.com/go-shiori/go-readability"
	"github.com/verdana-eu/verdana-agent/internal/apperr"
)

// extractHTML reads the local HTML file at path, extracts the main article
// with go-readability (stripping navigation/ads/chrome), renders it to
// Markdown for display, and flattens it to plain text for chunking.
func extractHTML(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, apperr.New(apperr.KindExtraction, fmt.Sprintf("open html %q", path), err)
	}
	defer f.Close()

	base, _ := url.Parse("file://" + path)
	article, err := readability.FromReader(f, base)
	if err != nil {
		return Result{}, apperr.New(apperr.KindExtraction, fmt.Sprintf("parse html %q", path), err)
	}

	articleHTML := article.Content
	if strings.TrimSpace(articleHTML) == "" {
		return Result{}, apperr.New(apperr.KindNoText, fmt.Sprintf("no readable article content in %q", path), nil)
	}

	markdown, err := htmltomarkdown.ConvertString(articleHTML)
	if err != nil {
		return Result{}, apperr.New(apperr.KindExtraction, fmt.Sprintf("html to markdown %q", path), err)
	}

	title := strings.TrimSpace(article.Title)
	if title != "" {
		markdown = "# " + title + "\n\n" + markdown
	}

	plain := strings.TrimSpace(article.TextContent)
	if plain == "" {
		plain = stripMarkdownSyntax(markdown)
	}

	return Result{
		Text:     plain,
		Markdown: strings.TrimSpace(markdown),
		Pages:    []Page{{Number: 1, StartOffset: 0}},
	}, nil
}

// stripMarkdownSyntax is a last-resort fallback used only when readability's
// own TextContent field comes back empty (unusual, but the library does not
// guarantee it); it removes the most common Markdown punctuation so the
// chunker at least sees prose rather than markup.
func stripMarkdownSyntax(markdown string) string {
	replacer := strings.NewReplacer("#", "", "*", "", "_", "", "`", "")
	return replacer.Replace(markdown)
}

package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// PrimaryResult is Stage 1's output (spec §4.5 Stage 1).
type PrimaryResult struct {
	Text        string
	Title       string
	Authors     []string
	PublishedAt string // raw, not yet normalized
}

// ExtractPrimary delegates to a readability-style extractor. An error or
// empty text is reported via ok=false so the caller can apply the
// source-specific empty-text fallback described in spec §4.5 Stage 1.
func ExtractPrimary(html, rawURL string) (PrimaryResult, bool) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return PrimaryResult{}, false
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err != nil {
		return PrimaryResult{}, false
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return PrimaryResult{}, false
	}

	var authors []string
	if article.Byline != "" {
		authors = []string{article.Byline}
	}

	return PrimaryResult{
		Text:        text,
		Title:       strings.TrimSpace(article.Title),
		Authors:     authors,
		PublishedAt: publishedAtFromArticle(article),
	}, true
}

func publishedAtFromArticle(article readability.Article) string {
	if article.PublishedTime != nil {
		return article.PublishedTime.Format("2006-01-02T15:04:05Z07:00")
	}
	return ""
}

// FallbackTitle implements the "best-effort title from og:title or <title>"
// behavior used for video and forum candidates when primary extraction
// yields empty text (spec §4.5 Stage 1).
func FallbackTitle(html, candidateTitle string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return candidateTitle
	}

	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if t := strings.TrimSpace(og); t != "" {
			return t
		}
	}
	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return candidateTitle
}

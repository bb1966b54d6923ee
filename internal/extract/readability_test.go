package extract

import "testing"

func TestExtractPrimaryReturnsTextAndTitle(t *testing.T) {
	html := `<html><head><title>Headline</title></head><body>
		<article><p>This is the first paragraph of a long article body with enough
		content that a readability-style extractor should treat it as the main
		content block rather than boilerplate.</p>
		<p>A second paragraph adds more substantive text so extraction succeeds
		reliably across readability implementations and heuristics.</p></article>
	</body></html>`

	result, ok := ExtractPrimary(html, "https://example.com/article/1")
	if !ok {
		t.Fatal("expected extraction to succeed on substantive article HTML")
	}
	if result.Text == "" {
		t.Fatal("expected non-empty text")
	}
}

func TestExtractPrimaryFailsOnEmptyBody(t *testing.T) {
	html := `<html><head><title>Empty</title></head><body></body></html>`
	_, ok := ExtractPrimary(html, "https://example.com/empty")
	if ok {
		t.Fatal("expected extraction to fail on an empty body")
	}
}

func TestFallbackTitlePrefersOGTitle(t *testing.T) {
	html := `<html><head><meta property="og:title" content="OG Title"><title>Page Title</title></head><body></body></html>`
	if got := FallbackTitle(html, "Candidate Title"); got != "OG Title" {
		t.Fatalf("expected og:title, got %q", got)
	}
}

func TestFallbackTitleFallsBackToTitleTag(t *testing.T) {
	html := `<html><head><title>Page Title</title></head><body></body></html>`
	if got := FallbackTitle(html, "Candidate Title"); got != "Page Title" {
		t.Fatalf("expected <title>, got %q", got)
	}
}

func TestFallbackTitleFallsBackToCandidate(t *testing.T) {
	html := `<html><head></head><body></body></html>`
	if got := FallbackTitle(html, "Candidate Title"); got != "Candidate Title" {
		t.Fatalf("expected candidate title, got %q", got)
	}
}

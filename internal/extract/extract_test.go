package extract

import (
	"context"
	"testing"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func TestBuildDocumentRejectsLowKeywordHits(t *testing.T) {
	html := `<html><head><title>Article</title></head><body><article><p>This is
		a long enough article body with plenty of filler content so readability
		treats it as the main block, but it never mentions the configured
		keyword anywhere in its text.</p></article></body></html>`

	cand := model.Candidate{URL: "https://example.com/a/1", Source: "gdelt", DiscoveredVia: model.DiscoveredVia{Type: "news"}}
	fr := &model.FetchResult{HTML: html, FetchedFrom: "live", FetchedAt: time.Now(), StatusCode: 200}

	cfg := Config{Keywords: []string{"unobtainium"}, AllowedLangs: []string{"eng"}, MinKeywordHits: 1}
	doc, rej := BuildDocument(context.Background(), cand, fr, "run-1", cfg)
	if doc != nil {
		t.Fatal("expected nil document")
	}
	if rej == nil || rej.Status != "quality-reject" {
		t.Fatalf("expected quality-reject, got %+v", rej)
	}
}

func TestBuildDocumentAcceptsAndSetsID(t *testing.T) {
	html := `<html><head><title>Article</title></head><body><article><p>This article
		talks extensively about widgets and their manufacture, mentioning widgets
		several times so the keyword gate is satisfied by this text block.</p></article></body></html>`

	cand := model.Candidate{URL: "https://example.com/a/2?utm_source=x", Source: "gdelt", DiscoveredVia: model.DiscoveredVia{Type: "news"}}
	fr := &model.FetchResult{HTML: html, FetchedFrom: "live", FetchedAt: time.Now(), StatusCode: 200}

	cfg := Config{Keywords: []string{"widgets"}, AllowedLangs: []string{"eng"}, MinKeywordHits: 1}
	doc, rej := BuildDocument(context.Background(), cand, fr, "run-1", cfg)
	if rej != nil {
		t.Fatalf("expected acceptance, got rejection %+v", rej)
	}
	if doc == nil {
		t.Fatal("expected a document")
	}
	if doc.ID == "" {
		t.Fatal("expected a non-empty document ID")
	}
	if doc.Quality.KeywordHits < 1 {
		t.Fatalf("expected at least 1 keyword hit, got %d", doc.Quality.KeywordHits)
	}
}

func TestBuildDocumentExtractFailedForNonAugmentedSource(t *testing.T) {
	html := `<html><head><title>Empty</title></head><body></body></html>`
	cand := model.Candidate{URL: "https://example.com/empty", Source: "gdelt", DiscoveredVia: model.DiscoveredVia{Type: "news"}}
	fr := &model.FetchResult{HTML: html, FetchedFrom: "live", FetchedAt: time.Now(), StatusCode: 200}

	doc, rej := BuildDocument(context.Background(), cand, fr, "run-1", Config{})
	if doc != nil {
		t.Fatal("expected nil document")
	}
	if rej == nil || rej.Status != "extract-failed" {
		t.Fatalf("expected extract-failed, got %+v", rej)
	}
}

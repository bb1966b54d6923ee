package news

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func TestDiscoverDeduplicatesAcrossChunksAndKeywords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"articles":[
			{"url":"https://news.example.com/a","title":"A","seendate":"20251122T131743Z"},
			{"url":"https://news.example.com/b","title":"B","seendate":"20251122"}
		]}`))
	}))
	defer srv.Close()

	window := model.TimeRange{Start: time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)}
	cfg := Config{
		ChunkDays:      1,
		MaxConcurrency: 4,
		MaxRecords:     50,
		MaxAttempts:    1,
		BaseURL:        srv.URL,
		Lang:           []string{"ko"},
	}

	candidates, err := Discover(context.Background(), []string{"keyword1", "keyword2"}, window, cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 deduplicated candidates, got %d", len(candidates))
	}
}

func TestDiscoverSkipsShortKeywords(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.Write([]byte(`{"articles":[]}`))
	}))
	defer srv.Close()

	window := model.TimeRange{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}
	cfg := Config{ChunkDays: 1, MaxConcurrency: 1, MaxAttempts: 1, BaseURL: srv.URL}

	_, err := Discover(context.Background(), []string{"ab"}, window, cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if called {
		t.Fatal("expected keywords shorter than 3 characters to be skipped entirely")
	}
}

func TestDiscoverHonorsRetryAfterOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"articles":[{"url":"https://news.example.com/x","title":"X","seendate":"20251122"}]}`))
	}))
	defer srv.Close()

	window := model.TimeRange{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}
	cfg := Config{ChunkDays: 1, MaxConcurrency: 1, MaxAttempts: 3, BaseURL: srv.URL}

	candidates, err := Discover(context.Background(), []string{"keyword"}, window, cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate after retry, got %d", len(candidates))
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
}

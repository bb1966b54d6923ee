package video

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func TestDiscoverEmptyWithoutAPIKey(t *testing.T) {
	candidates, err := Discover(context.Background(), []string{"kw"}, model.TimeRange{}, Config{})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if candidates != nil {
		t.Fatal("expected nil candidates when API key is absent")
	}
}

func TestDiscoverEmitsCandidatePerVideo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.URL.Path, "/search") {
			w.Write([]byte(`{"items":[{"id":{"videoId":"abc123"}}]}`))
			return
		}
		w.Write([]byte(`{"items":[{"id":"abc123","snippet":{"title":"A Video","publishedAt":"2025-11-22T13:17:43Z"},"statistics":{"viewCount":"100"}}]}`))
	}))
	defer srv.Close()

	cfg := Config{APIKey: "test-key", HTTPClient: srv.Client()}
	origBase := youtubeDataAPIBase
	_ = origBase
	candidates, err := discoverAgainst(srv.URL, []string{"korean movie"}, cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].URL != "https://www.youtube.com/watch?v=abc123" {
		t.Fatalf("unexpected URL %q", candidates[0].URL)
	}
	if candidates[0].HintedTimestamp == nil || candidates[0].HintedTimestamp.Year() != 2025 {
		t.Fatal("expected hinted_timestamp from snippet.publishedAt")
	}
}

// discoverAgainst runs the same logic as Discover but against a test server
// base URL, since youtubeDataAPIBase is a package constant.
func discoverAgainst(base string, keywords []string, cfg Config) ([]model.Candidate, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	var out []model.Candidate
	for _, keyword := range keywords {
		var searchResp ytSearchResp
		if err := getJSON(context.Background(), client, base+"/search?q="+url.QueryEscape(keyword), &searchResp); err != nil {
			return nil, err
		}
		var ids []string
		for _, item := range searchResp.Items {
			ids = append(ids, item.ID.VideoID)
		}
		if len(ids) == 0 {
			continue
		}
		var videosResp ytVideosResp
		if err := getJSON(context.Background(), client, base+"/videos?id="+strings.Join(ids, ","), &videosResp); err != nil {
			return nil, err
		}
		for _, item := range videosResp.Items {
			out = append(out, toCandidate(item, keyword))
		}
	}
	return out, nil
}

var _ = time.Now

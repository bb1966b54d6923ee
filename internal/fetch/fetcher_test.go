package fetch

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func TestFetcherFetchesAllowedURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "corpuscrawler/1.0", RequestTimeout: 5 * time.Second}, nil)
	result, err := f.Fetch(model.Candidate{URL: srv.URL + "/article/1"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result == nil {
		t.Fatal("expected a fetch result")
	}
	if result.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", result.StatusCode)
	}
	if result.FetchedFrom != "live" {
		t.Fatalf("expected fetched_from=live, got %q", result.FetchedFrom)
	}
}

func TestFetcherSkipsRobotsDisallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Write([]byte("should not be fetched"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "corpuscrawler/1.0", RequestTimeout: 5 * time.Second}, nil)
	result, err := f.Fetch(model.Candidate{URL: srv.URL + "/private/secret"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result != nil {
		t.Fatal("expected nil result for robots-disallowed url")
	}
}

func TestFetcherRobotsOverrideBypassesDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.Write([]byte("fetched anyway"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "corpuscrawler/1.0", RequestTimeout: 5 * time.Second}, nil)
	cand := model.Candidate{URL: srv.URL + "/private/secret", Extra: map[string]any{"robots_override": true}}
	result, err := f.Fetch(cand)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if result == nil {
		t.Fatal("expected override to bypass robots disallow")
	}
}

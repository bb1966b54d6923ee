package fetch

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRobotsCacheDisallowsConfiguredPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := NewRobotsCache(srv.Client(), "corpuscrawler/1.0")
	allowed, err := cache.Allowed(srv.URL + "/private/secret")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if allowed {
		t.Fatal("expected /private/ to be disallowed")
	}

	allowed, err = cache.Allowed(srv.URL + "/public/page")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Fatal("expected /public/ to be allowed")
	}
}

func TestRobotsCacheAllowsAllWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cache := NewRobotsCache(srv.Client(), "corpuscrawler/1.0")
	allowed, err := cache.Allowed(srv.URL + "/anything")
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if !allowed {
		t.Fatal("expected allow-all when robots.txt is missing")
	}
}

func TestRobotsCacheIsPerHost(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			calls++
			w.Write([]byte("User-agent: *\nAllow: /\n"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := NewRobotsCache(srv.Client(), "corpuscrawler/1.0")
	if _, err := cache.Allowed(srv.URL + "/a"); err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if _, err := cache.Allowed(srv.URL + "/b"); err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected robots.txt to be fetched once per host, got %d calls", calls)
	}
}

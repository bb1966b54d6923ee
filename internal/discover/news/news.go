// Package news implements the GDELT-style News-API discoverer (C3): it
// slices the configured time window into overlapping chunks, fans one HTTP
// request per (keyword, chunk) pair out across a bounded worker pool, and
// deduplicates discovered article URLs across every worker.
package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// langSourceClause maps the configured ISO language codes to GDELT's
// sourcelang: query clause. Languages without a known mapping are omitted
// from the query rather than failing the whole request.
var langSourceClause = map[string]string{
	"ko": "sourcelang:KOREAN",
	"en": "sourcelang:ENGLISH",
	"ja": "sourcelang:JAPANESE",
	"zh": "sourcelang:CHINESE",
}

// Config mirrors config.GDELT plus the ambient HTTP/UA settings the
// discoverer needs but that C1 scopes under the top-level Config.
type Config struct {
	ChunkDays            int
	OverlapDays          int
	MaxConcurrency       int
	MaxRecords           int
	MaxAttempts          int
	RateLimitBackoffSec  float64
	PauseBetweenRequests float64
	BaseURL              string

	Lang       []string
	UserAgent  string
	HTTPClient *http.Client
	Log        logger.Interface
}

type gdeltArticle struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	SeenDate string `json:"seendate"`
}

type gdeltResponse struct {
	Articles []gdeltArticle `json:"articles"`
}

// Discover issues one request per (keyword, window-chunk) pair across a
// bounded worker pool and returns the deduplicated candidates found.
func Discover(ctx context.Context, keywords []string, window model.TimeRange, cfg Config) ([]model.Candidate, error) {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 1
	}

	chunks := chunkWindow(window, cfg.ChunkDays, cfg.OverlapDays)

	type job struct {
		keyword string
		chunk   model.TimeRange
	}
	var jobs []job
	for _, kw := range keywords {
		if len(strings.TrimSpace(kw)) < 3 {
			continue
		}
		for _, c := range chunks {
			jobs = append(jobs, job{keyword: kw, chunk: c})
		}
	}

	var (
		mu         sync.Mutex
		seenURLs   = make(map[string]struct{})
		candidates []model.Candidate
	)

	sem := make(chan struct{}, cfg.MaxConcurrency)
	eg, egCtx := errgroup.WithContext(ctx)

	// A single token-bucket limiter shared by every worker enforces
	// pause_between_requests as a true cross-worker request rate rather
	// than a per-worker sleep, which under-paces once MaxConcurrency > 1.
	var limiter *rate.Limiter
	if cfg.PauseBetweenRequests > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.PauseBetweenRequests*float64(time.Second))), 1)
	}

	for _, j := range jobs {
		j := j
		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return nil //nolint:nilerr // context cancellation on one job shouldn't abort the whole pass
				}
			}

			articles, err := fetchChunk(egCtx, client, j.keyword, j.chunk, cfg)
			if err != nil {
				if cfg.Log != nil {
					cfg.Log.Warn("gdelt request failed", "keyword", j.keyword, "error", err)
				}
				return nil // one failed chunk doesn't abort the whole discovery pass
			}

			mu.Lock()
			defer mu.Unlock()
			for _, a := range articles {
				if a.URL == "" {
					continue
				}
				if _, dup := seenURLs[a.URL]; dup {
					continue
				}
				seenURLs[a.URL] = struct{}{}
				candidates = append(candidates, toCandidate(a, j.keyword, j.chunk))
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return candidates, err
	}
	return candidates, nil
}

func toCandidate(a gdeltArticle, keyword string, chunk model.TimeRange) model.Candidate {
	var hinted *time.Time
	if t, ok := parseSeenDate(a.SeenDate); ok {
		hinted = &t
	}
	win := chunk
	return model.Candidate{
		URL:    a.URL,
		Source: "gdelt",
		DiscoveredVia: model.DiscoveredVia{
			Type:     "news",
			Keyword:  keyword,
			Seendate: a.SeenDate,
			Window:   &win,
		},
		HintedTimestamp: hinted,
		Title:           a.Title,
	}
}

// parseSeenDate prefers the full YYYYMMDDTHHMMSSZ form and falls back to a
// bare YYYYMMDD date.
func parseSeenDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("20060102T150405Z", raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse("20060102", raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func chunkWindow(window model.TimeRange, chunkDays, overlapDays int) []model.TimeRange {
	if chunkDays <= 0 {
		chunkDays = 1
	}
	var out []model.TimeRange
	step := time.Duration(chunkDays) * 24 * time.Hour
	overlap := time.Duration(overlapDays) * 24 * time.Hour

	cursor := window.Start
	for cursor.Before(window.End) {
		end := cursor.Add(step)
		if end.After(window.End) {
			end = window.End
		}
		out = append(out, model.TimeRange{Start: cursor, End: end})
		if !end.Before(window.End) {
			break
		}
		next := end.Add(-overlap)
		if !next.Before(end) || !next.After(cursor) {
			next = end
		}
		cursor = next
	}
	return out
}

func fetchChunk(ctx context.Context, client *http.Client, keyword string, chunk model.TimeRange, cfg Config) ([]gdeltArticle, error) {
	query := keyword
	if clause := firstLangClause(cfg.Lang); clause != "" {
		query = query + " " + clause
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("mode", "ArtList")
	params.Set("format", "json")
	params.Set("startdatetime", chunk.Start.UTC().Format("20060102150405"))
	params.Set("enddatetime", chunk.End.UTC().Format("20060102150405"))
	if cfg.MaxRecords > 0 {
		params.Set("maxrecords", strconv.Itoa(cfg.MaxRecords))
	}

	endpoint := cfg.BaseURL + "?" + params.Encode()

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := doRequest(ctx, client, endpoint, cfg.UserAgent)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * time.Second) // linear backoff on request errors
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryWait(resp.Header.Get("Retry-After"), cfg.RateLimitBackoffSec, attempt)
			resp.Body.Close()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			continue
		}

		if resp.StatusCode >= 400 {
			resp.Body.Close()
			lastErr = fmt.Errorf("gdelt request: status %d", resp.StatusCode)
			continue
		}

		var parsed gdeltResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if decodeErr != nil {
			lastErr = fmt.Errorf("decode gdelt response: %w", decodeErr)
			continue
		}
		return parsed.Articles, nil
	}
	return nil, lastErr
}

func doRequest(ctx context.Context, client *http.Client, endpoint, userAgent string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return client.Do(req)
}

func firstLangClause(langs []string) string {
	for _, l := range langs {
		if clause, ok := langSourceClause[strings.ToLower(l)]; ok {
			return clause
		}
	}
	return ""
}

func retryWait(retryAfterHeader string, backoffSec float64, attempt int) time.Duration {
	if retryAfterHeader != "" {
		if secs, err := strconv.Atoi(retryAfterHeader); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	if backoffSec <= 0 {
		backoffSec = 1
	}
	mult := 1 << attempt
	return time.Duration(backoffSec*float64(mult)) * time.Second
}

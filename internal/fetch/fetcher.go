// Package fetch implements the Fetcher (C4): robots.txt-aware, per-host
// paced HTTP retrieval with a shared retry policy and a charset decode
// chain. It is the only component in the pipeline that issues requests to
// a target site's resource URLs.
package fetch

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// Config tunes the Fetcher.
type Config struct {
	UserAgent       string
	RequestTimeout  time.Duration
	GlobalPauseSec  float64
	PerHostPauseSec map[string]float64 // suffix-matched on ".domain"
	Retry           RetryConfig
}

// Fetcher implements Fetch(candidate) -> FetchResult per spec §4.4.
type Fetcher struct {
	cfg     Config
	log     logger.Interface
	pacer   *HostPacer
	robots  *RobotsCache
	httpCli *http.Client

	mu        sync.Mutex
	collector *colly.Collector
}

func New(cfg Config, log logger.Interface) *Fetcher {
	if log == nil {
		log = logger.NewNoOp()
	}
	if cfg.Retry == (RetryConfig{}) {
		cfg.Retry = DefaultRetryConfig()
	}
	transport := NewRetryTransport(http.DefaultTransport, cfg.Retry)

	httpCli := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.Debugger(&logger.CollyDebugger{Logger: log}),
	)
	c.WithTransport(transport)
	if cfg.RequestTimeout > 0 {
		c.SetRequestTimeout(cfg.RequestTimeout)
	}

	return &Fetcher{
		cfg:       cfg,
		log:       log,
		pacer:     NewHostPacer(),
		robots:    NewRobotsCache(httpCli, cfg.UserAgent),
		httpCli:   httpCli,
		collector: c,
	}
}

// HTTPClient returns the retry-wrapped HTTP client the Fetcher issues its
// own requests with, so sibling discoverers (e.g. the forum listing
// discoverer) can reuse the same retry/timeout policy for their own GETs.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.httpCli
}

// Robots returns the shared per-host robots.txt cache.
func (f *Fetcher) Robots() *RobotsCache {
	return f.robots
}

// Fetch retrieves the live HTML for candidate, honoring robots.txt, per-host
// pacing and the shared retry policy. Returns (nil, nil) when robots.txt
// disallows the URL and the candidate does not carry an override — this is
// a silent skip, not an error (spec §7).
func (f *Fetcher) Fetch(candidate model.Candidate) (*model.FetchResult, error) {
	u, err := url.Parse(candidate.URL)
	if err != nil {
		return nil, fmt.Errorf("parse candidate url %q: %w", candidate.URL, err)
	}

	if !candidate.RobotsOverride() {
		allowed, robotsErr := f.robots.Allowed(candidate.URL)
		if robotsErr != nil {
			f.log.Warn("robots.txt check failed, proceeding", "url", candidate.URL, "error", robotsErr)
		} else if !allowed {
			f.log.Debug("robots.txt disallows url, skipping", "url", candidate.URL)
			return nil, nil
		}
	}

	interval := f.hostPauseFor(u.Hostname())
	release := f.pacer.Acquire(u.Hostname(), interval)
	defer release()

	return f.doFetch(candidate.URL)
}

// hostPauseFor resolves the minimum pacing interval for host: the largest of
// the configured global pause and any per-host override, matched by exact
// host or ".domain" suffix (spec §4.4 step 3).
func (f *Fetcher) hostPauseFor(host string) time.Duration {
	pause := f.cfg.GlobalPauseSec
	for suffixHost, seconds := range f.cfg.PerHostPauseSec {
		if host == suffixHost || strings.HasSuffix(host, "."+strings.TrimPrefix(suffixHost, ".")) {
			if seconds > pause {
				pause = seconds
			}
		}
	}
	return time.Duration(pause * float64(time.Second))
}

// doFetch performs the actual GET, synchronously, via the shared colly
// collector (Async is false, so Visit blocks until the registered callbacks
// have run). result/fetchErr are local to each call, and f.mu serializes
// calls on the shared collector.
func (f *Fetcher) doFetch(rawURL string) (*model.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var (
		result   *model.FetchResult
		fetchErr error
	)

	c := f.collector.Clone()

	onResponse := func(r *colly.Response) {
		text, encodingName := DecodeHTML(r.Body, responseFrom(r))
		result = &model.FetchResult{
			URL:         r.Request.URL.String(),
			FetchedFrom: "live",
			StatusCode:  r.StatusCode,
			HTML:        text,
			Encoding:    encodingName,
			FetchedAt:   time.Now().UTC(),
		}
	}
	onError := func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			text, encodingName := DecodeHTML(r.Body, responseFrom(r))
			result = &model.FetchResult{
				URL:         rawURL,
				FetchedFrom: "live",
				StatusCode:  r.StatusCode,
				HTML:        text,
				Encoding:    encodingName,
				FetchedAt:   time.Now().UTC(),
			}
			return
		}
		fetchErr = err
	}

	c.OnResponse(onResponse)
	c.OnError(onError)

	if err := c.Visit(rawURL); err != nil {
		if result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if fetchErr != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, fetchErr)
	}
	return result, nil
}

// responseFrom adapts a colly.Response's headers into the *http.Response
// shape DecodeHTML expects, without needing colly to expose the raw
// net/http response.
func responseFrom(r *colly.Response) *http.Response {
	return &http.Response{Header: r.Headers.Clone()}
}

// Package forum implements the paginated board-listing discoverer (C3):
// for each enabled forum site, it walks configured boards page by page,
// parses thread listings with a site-specific parser, and yields one
// Candidate per thread. The five supported sites differ in parameter
// names, link patterns, and row layout, so each gets its own entry in the
// sites registry rather than a shared generic scraper (spec §9 "avoid
// inheritance").
package forum

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/fetch"
	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// ThreadHit is one row parsed from a board listing page.
type ThreadHit struct {
	ThreadURL      string
	Title          string
	Author         string
	PublishedAtRaw string
}

// SiteDef is a registry entry: a URL builder plus a listing parser, both
// owning that site's selectors and parameter conventions.
type SiteDef struct {
	// PageURL builds the listing URL for board at the given 1-based page.
	PageURL func(board string, page int) string
	// Parse extracts thread rows from an already-fetched listing page.
	Parse func(doc *goquery.Document, pageURL string) []ThreadHit
}

var registry = map[string]SiteDef{
	"dcinside":   dcinsideSite,
	"bobaedream": bobaedreamSite,
	"mlbpark":    mlbparkSite,
	"theqoo":     theqooSite,
	"ppomppu":    ppomppuSite,
}

// Config bundles the ambient knobs the forum discoverer needs beyond the
// per-site config.ForumSite settings (spec §4.3).
type Config struct {
	Sites      map[string]config.ForumSite
	Window     *model.TimeRange // drop (but keep) out-of-window timestamps when set
	UntilDate  *time.Time       // stop paginating a board once its oldest ts predates this
	Cursors    map[string]int   // board URL -> starting page, default 1
	HTTPClient *http.Client
	Robots     *fetch.RobotsCache
	UserAgent  string
	Log        logger.Interface
}

// Result is Discover's output: the candidates found plus the last page
// visited per board, so the caller (AutoCrawler) can advance forum_cursors.
type Result struct {
	Candidates []model.Candidate
	LastPages  map[string]int
}

// Discover walks every enabled site's configured boards, page by page,
// until max_pages, per_board_limit, or until_date stops that board.
func Discover(ctx context.Context, cfg Config) (Result, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Log == nil {
		cfg.Log = logger.NewNoOp()
	}
	res := Result{LastPages: map[string]int{}}

	for siteKey, site := range cfg.Sites {
		if !site.Enabled {
			continue
		}
		def, ok := registry[siteKey]
		if !ok {
			cfg.Log.Warn("no listing parser registered for forum site", "site", siteKey)
			continue
		}
		for _, board := range site.Boards {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			cands, lastPage := discoverBoard(ctx, siteKey, board, site, def, cfg)
			res.Candidates = append(res.Candidates, cands...)
			res.LastPages[board] = lastPage
		}
	}
	return res, nil
}

func discoverBoard(ctx context.Context, siteKey, board string, site config.ForumSite, def SiteDef, cfg Config) ([]model.Candidate, int) {
	startPage := cfg.Cursors[board]
	if startPage <= 0 {
		startPage = 1
	}
	maxPages := site.MaxPages
	if maxPages <= 0 {
		maxPages = 1
	}
	limit := site.PerBoardLimit

	seenNorm := map[string]struct{}{}
	var out []model.Candidate
	lastPage := startPage - 1

	for page := startPage; page < startPage+maxPages; page++ {
		pageURL := def.PageURL(board, page)
		lastPage = page

		if site.ObeyRobots && cfg.Robots != nil {
			allowed, err := cfg.Robots.Allowed(pageURL)
			if err == nil && !allowed {
				cfg.Log.Debug("robots.txt disallows forum listing page, skipping", "url", pageURL)
				break
			}
		}

		html, err := getHTML(ctx, cfg.HTTPClient, pageURL, cfg.UserAgent)
		if err != nil {
			cfg.Log.Warn("forum listing fetch failed", "site", siteKey, "board", board, "page", page, "error", err)
			break
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			cfg.Log.Warn("forum listing parse failed", "site", siteKey, "board", board, "page", page, "error", err)
			break
		}

		hits := def.Parse(doc, pageURL)
		var oldestOnPage time.Time
		oldestSet := false

		for _, hit := range hits {
			if hit.ThreadURL == "" {
				continue
			}
			if _, dup := seenNorm[hit.ThreadURL]; dup {
				continue
			}
			seenNorm[hit.ThreadURL] = struct{}{}

			ts, ok := parseListingTimestamp(hit.PublishedAtRaw)
			if ok && (!oldestSet || ts.Before(oldestOnPage)) {
				oldestOnPage, oldestSet = ts, true
			}

			var hinted *time.Time
			if ok {
				inWindow := cfg.Window == nil || (!ts.Before(cfg.Window.Start) && ts.Before(cfg.Window.End))
				if inWindow {
					t := ts
					hinted = &t
				}
			}

			extra := map[string]any{}
			if !site.ObeyRobots {
				extra["robots_override"] = true
			}

			out = append(out, model.Candidate{
				URL:    hit.ThreadURL,
				Source: siteKey,
				DiscoveredVia: model.DiscoveredVia{
					Type:  "forum",
					Site:  siteKey,
					Board: board,
					Page:  page,
				},
				HintedTimestamp: hinted,
				Title:           hit.Title,
				Extra:           extra,
			})

			if limit > 0 && len(out) >= limit {
				return out, lastPage
			}
		}

		if site.PauseSec > 0 {
			time.Sleep(time.Duration(site.PauseSec * float64(time.Second)))
		}

		if cfg.UntilDate != nil && oldestSet && oldestOnPage.Before(*cfg.UntilDate) {
			break
		}
		if len(hits) == 0 {
			break
		}
	}
	return out, lastPage
}

func getHTML(ctx context.Context, client *http.Client, rawURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// listingTimeLayouts is the chain from spec §4.3: full datetime, dotted
// datetime, then two-digit-year variants, before the digits-only fallback.
var listingTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006.01.02 15:04",
	"06.01.02 15:04",
	"06-01-02 15:04:05",
}

func parseListingTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range listingTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return parseDigitsOnly(raw)
}

// parseDigitsOnly is the last resort in the chain: strip every non-digit and
// interpret what remains as YYYYMMDDHHMMSS, YYYYMMDDHHMM, or YYYYMMDD.
func parseDigitsOnly(raw string) (time.Time, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch len(digits) {
	case 14:
		if t, err := time.ParseInLocation("20060102150405", digits, time.UTC); err == nil {
			return t, true
		}
	case 12:
		if t, err := time.ParseInLocation("200601021504", digits, time.UTC); err == nil {
			return t, true
		}
	case 8:
		if t, err := time.ParseInLocation("20060102", digits, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

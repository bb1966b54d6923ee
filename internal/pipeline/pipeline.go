// Package pipeline composes the Discoverers, Fetcher, Extractor, and
// DocumentIndex into one discovery -> fetch -> extract -> store pass (C6
// Pipeline.run()).
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/discover/forum"
	"github.com/kdevcrawl/corpuscrawler/internal/discover/news"
	"github.com/kdevcrawl/corpuscrawler/internal/discover/video"
	"github.com/kdevcrawl/corpuscrawler/internal/extract"
	"github.com/kdevcrawl/corpuscrawler/internal/fetch"
	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/metrics"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
	"github.com/kdevcrawl/corpuscrawler/internal/urlnorm"
)

// StoreObserver is invoked once per stored Document, letting the
// AutoCrawler update AutoState without the Pipeline depending on it
// (spec §3 "Observer").
type StoreObserver func(doc *model.Document, cand model.Candidate)

// Stats is PipelineStats: the counters a single Run accumulates (spec §4.6
// step 7).
type Stats struct {
	Discovered        map[string]int `json:"discovered"`
	Fetched           int            `json:"fetched"`
	Stored            int            `json:"stored"`
	DuplicatesSkipped int            `json:"duplicates_skipped"`
	FailedFetch       int            `json:"failed_fetch"`
	QualityRejected   int            `json:"quality_rejected"`
	IndexDuplicates   int            `json:"index_duplicates"`
	ExtractionFailed  int            `json:"extraction_failed"`
}

func newStats() *Stats {
	return &Stats{Discovered: map[string]int{}}
}

// Options scopes a single Run: which sources to discover from, which time
// windows/keywords to use for each, and a hard cap on fetches. AutoCrawler
// fills these in per sub-run; a plain single `crawl` run leaves the window
// fields empty and falls back to the top-level config.Config window.
type Options struct {
	IncludeGdelt   bool
	IncludeYoutube bool
	IncludeForums  bool

	ForumsSiteFilter []string // restrict to these forum site keys; empty = all enabled

	MaxFetch int // 0 = config autocrawl.round.max_fetch applies (unbounded if that is also 0)

	GdeltWindows    []model.TimeRange // empty = derive one window from config.Config.TimeWindow
	YoutubeWindows  []model.TimeRange
	YoutubeKeywords []string // empty = config.Config.Keywords

	ForumCursors    map[string]int
	ForumsWindow    *model.TimeRange
	ForumsUntilDate *time.Time

	RunID string
}

// DefaultOptions enables every source family with no window overrides, the
// shape of a plain single-run `crawl` invocation.
func DefaultOptions() Options {
	return Options{IncludeGdelt: true, IncludeYoutube: true, IncludeForums: true}
}

// Pipeline wires the discoverers, fetcher, extractor and index together for
// repeated Run calls (one per autocrawl sub-run, or one for a standalone
// crawl).
type Pipeline struct {
	cfg      *config.Config
	log      logger.Interface
	index    *urlnorm.Index
	writer   *urlnorm.Writer
	fetcher  *fetch.Fetcher
	extract  extract.Config
	metrics  *metrics.Collector
	observer StoreObserver

	newsClient  newsConfigFn
	videoClient videoConfigFn

	lastForumPages map[string]int
}

type newsConfigFn func() news.Config
type videoConfigFn func() video.Config

// New builds a Pipeline ready to Run. newsCfg/videoCfg are factories rather
// than values so that a caller (e.g. AutoCrawler) can layer a circuit
// breaker or other per-run transport onto the discoverer HTTP clients
// without the Pipeline needing to know about it.
func New(
	cfg *config.Config,
	log logger.Interface,
	index *urlnorm.Index,
	writer *urlnorm.Writer,
	fetcher *fetch.Fetcher,
	extractCfg extract.Config,
	m *metrics.Collector,
	newsCfg func() news.Config,
	videoCfg func() video.Config,
) *Pipeline {
	if log == nil {
		log = logger.NewNoOp()
	}
	return &Pipeline{
		cfg:         cfg,
		log:         log,
		index:       index,
		writer:      writer,
		fetcher:     fetcher,
		extract:     extractCfg,
		metrics:     m,
		newsClient:  newsCfg,
		videoClient: videoCfg,
	}
}

// SetObserver installs the callback invoked once per stored Document.
func (p *Pipeline) SetObserver(obs StoreObserver) {
	p.observer = obs
}

// Run executes one discovery -> fetch -> extract -> store pass and returns
// its statistics (spec §4.6 Pipeline.run()).
func (p *Pipeline) Run(ctx context.Context, opts Options) (*Stats, error) {
	stats := newStats()
	runID := opts.RunID
	if runID == "" {
		runID = newRunID()
	}

	candidatesBySource, err := p.discover(ctx, opts, stats)
	if err != nil {
		return stats, err
	}

	ordered := orderedCandidates(candidatesBySource, sortedForumSiteKeys(p.cfg))

	maxFetch := opts.MaxFetch
	if maxFetch <= 0 {
		maxFetch = p.cfg.Autocrawl.RoundCfg.MaxFetch
	}

	fetchCount := 0
	for _, cand := range ordered {
		if maxFetch > 0 && fetchCount >= maxFetch {
			break
		}

		fr, err := p.fetcher.Fetch(cand)
		fetchCount++
		if err != nil {
			stats.FailedFetch++
			if p.metrics != nil {
				p.metrics.FailedFetch.Inc()
			}
			p.log.Warn("fetch failed", "url", cand.URL, "error", err)
			continue
		}
		if fr == nil {
			// robots.txt disallowed this URL and no override was set: a
			// silent skip, not a failure (spec §7).
			continue
		}
		stats.Fetched++
		if p.metrics != nil {
			p.metrics.Fetched.Inc()
		}

		doc, rejection := extract.BuildDocument(ctx, cand, fr, runID, p.extract)
		if rejection != nil {
			switch rejection.Status {
			case "quality-reject":
				stats.QualityRejected++
				if p.metrics != nil {
					p.metrics.QualityRejected.Inc()
				}
			default:
				stats.ExtractionFailed++
				if p.metrics != nil {
					p.metrics.ExtractionFailed.Inc()
				}
			}
			continue
		}

		if p.index.Contains(doc.ID) || p.index.ContainsURL(doc.URL) {
			stats.IndexDuplicates++
			stats.DuplicatesSkipped++
			if p.metrics != nil {
				p.metrics.DuplicatesSkipped.Inc()
			}
			continue
		}

		if err := p.writer.Append(doc); err != nil {
			p.log.Error("failed to append document", "id", doc.ID, "error", err)
			continue
		}
		p.index.Add(doc.ID)
		p.index.AddURL(doc.URL)
		stats.Stored++
		if p.metrics != nil {
			p.metrics.Stored.WithLabelValues(doc.Source).Inc()
		}

		if p.observer != nil {
			p.observer(doc, cand)
		}
	}

	if err := p.index.Flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// discover runs every included discoverer concurrently and merges their
// output into one map per source, applying the bare-domain/robots.txt skip
// and the max_candidates_per_source trim (spec §4.3 "Merge & trim").
func (p *Pipeline) discover(ctx context.Context, opts Options, stats *Stats) (map[string][]model.Candidate, error) {
	var (
		mu      sync.Mutex
		perSrc  = map[string][]model.Candidate{}
		seenURL = map[string]struct{}{}
	)

	add := func(cands []model.Candidate) {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range cands {
			norm, err := urlnorm.Normalize(c.URL)
			if err != nil {
				norm = c.URL
			}
			if urlnorm.IsBareDomain(norm) {
				continue
			}
			if _, dup := seenURL[norm]; dup {
				continue
			}
			seenURL[norm] = struct{}{}
			perSrc[c.Source] = append(perSrc[c.Source], c)
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)

	if opts.IncludeGdelt {
		windows := opts.GdeltWindows
		if len(windows) == 0 {
			w, err := p.defaultWindow()
			if err != nil {
				return nil, err
			}
			windows = []model.TimeRange{w}
		}
		for _, w := range windows {
			w := w
			eg.Go(func() error {
				cands, err := news.Discover(egCtx, p.cfg.Keywords, w, p.newsClient())
				if err != nil {
					p.log.Warn("gdelt discover failed", "error", err)
					return nil
				}
				add(cands)
				return nil
			})
		}
	}

	if opts.IncludeYoutube {
		keywords := opts.YoutubeKeywords
		if len(keywords) == 0 {
			keywords = p.cfg.Keywords
		}
		windows := opts.YoutubeWindows
		if len(windows) == 0 {
			w, err := p.defaultWindow()
			if err != nil {
				return nil, err
			}
			windows = []model.TimeRange{w}
		}
		for _, w := range windows {
			w := w
			eg.Go(func() error {
				cands, err := video.Discover(egCtx, keywords, w, p.videoClient())
				if err != nil {
					p.log.Warn("video discover failed", "error", err)
					return nil
				}
				add(cands)
				return nil
			})
		}
	}

	var forumLastPages map[string]int
	if opts.IncludeForums {
		sites := forumSitesFor(p.cfg.Forums.Sites, opts.ForumsSiteFilter)
		eg.Go(func() error {
			res, err := forum.Discover(egCtx, forum.Config{
				Sites:      sites,
				Window:     opts.ForumsWindow,
				UntilDate:  opts.ForumsUntilDate,
				Cursors:    opts.ForumCursors,
				HTTPClient: p.fetcher.HTTPClient(),
				Robots:     p.fetcher.Robots(),
				UserAgent:  p.cfg.UserAgent,
				Log:        p.log,
			})
			if err != nil {
				p.log.Warn("forum discover failed", "error", err)
				return nil
			}
			mu.Lock()
			forumLastPages = res.LastPages
			mu.Unlock()
			add(res.Candidates)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	p.lastForumPages = forumLastPages

	for src, cands := range perSrc {
		stats.Discovered[src] = len(cands)
		if p.metrics != nil {
			p.metrics.Discovered.WithLabelValues(src).Add(float64(len(cands)))
		}
	}

	trimmed := map[string][]model.Candidate{}
	limit := p.cfg.Limits.MaxCandidatesPerSource
	for src, cands := range perSrc {
		if limit > 0 && len(cands) > limit {
			cands = cands[:limit]
		}
		trimmed[src] = cands
	}
	return trimmed, nil
}

// LastForumPages returns each board's last-visited page from the most
// recent forum discovery pass, so AutoCrawler can advance forum_cursors
// after the sub-run completes.
func (p *Pipeline) LastForumPages() map[string]int {
	return p.lastForumPages
}

func (p *Pipeline) defaultWindow() (model.TimeRange, error) {
	start, end, err := p.cfg.TimeWindow.Bounds(time.Now())
	if err != nil {
		return model.TimeRange{}, err
	}
	return model.TimeRange{Start: start, End: end}, nil
}

// orderedCandidates flattens the per-source candidate map in the fixed
// priority spec §4.6 step 2 requires: forums (in the given site order),
// then news, then video.
func orderedCandidates(bySource map[string][]model.Candidate, forumSiteOrder []string) []model.Candidate {
	var out []model.Candidate
	seen := map[string]bool{}
	for _, site := range forumSiteOrder {
		out = append(out, bySource[site]...)
		seen[site] = true
	}
	// any forum-like source not already covered by the configured order
	// (defensive: keeps a newly added site from silently vanishing)
	var leftoverForums []string
	for src := range bySource {
		if !seen[src] && src != "gdelt" && src != "youtube" {
			leftoverForums = append(leftoverForums, src)
		}
	}
	sort.Strings(leftoverForums)
	for _, src := range leftoverForums {
		out = append(out, bySource[src]...)
	}
	out = append(out, bySource["gdelt"]...)
	out = append(out, bySource["youtube"]...)
	return out
}

func sortedForumSiteKeys(cfg *config.Config) []string {
	keys := make([]string, 0, len(cfg.Forums.Sites))
	for k := range cfg.Forums.Sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func forumSitesFor(all map[string]config.ForumSite, filter []string) map[string]config.ForumSite {
	if len(filter) == 0 {
		return all
	}
	allow := map[string]struct{}{}
	for _, f := range filter {
		allow[f] = struct{}{}
	}
	out := map[string]config.ForumSite{}
	for k, v := range all {
		if _, ok := allow[k]; ok {
			out[k] = v
		}
	}
	return out
}

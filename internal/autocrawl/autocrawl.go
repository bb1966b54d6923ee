// Package autocrawl implements the AutoCrawler (C6): it plans and executes
// bounded, resumable rounds over the Pipeline, keeping a persistent
// per-month deficit state, YouTube quota budget, and cooldown map so that
// the corpus fills uniformly without wasting external API quota.
package autocrawl

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
	"github.com/kdevcrawl/corpuscrawler/internal/pipeline"
)

// RoundResult summarizes one RunRound call: the plan that was executed plus
// the combined stats across every sub-pipeline run.
type RoundResult struct {
	Plan  model.RoundPlan
	Stats pipeline.Stats
}

// AutoCrawler owns AutoState exclusively: it is mutated only from RunRound
// and from the store observer invoked by a single sub-Pipeline at a time
// (spec §5 "Shared resources and locking").
type AutoCrawler struct {
	cfg       *config.Config
	log       logger.Interface
	statePath string
	pipe      *pipeline.Pipeline

	mu    sync.Mutex
	state *model.AutoState
}

// New constructs an AutoCrawler, loading AutoState from statePath (or
// starting fresh if absent/corrupt).
func New(cfg *config.Config, log logger.Interface, pipe *pipeline.Pipeline, statePath string) *AutoCrawler {
	if log == nil {
		log = logger.NewNoOp()
	}
	a := &AutoCrawler{
		cfg:       cfg,
		log:       log,
		statePath: statePath,
		pipe:      pipe,
		state:     loadState(statePath, log),
	}
	pipe.SetObserver(a.observe)
	return a
}

// State returns a snapshot of the current AutoState, for `autocrawl status`.
func (a *AutoCrawler) State() model.AutoState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.state
}

// Reset replaces AutoState with a fresh one, preserving the configured
// quota defaults (spec §6 `autocrawl reset`).
func (a *AutoCrawler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	fresh := model.NewAutoState()
	fresh.Youtube = model.YoutubeQuota{
		DailyQuota:   a.cfg.Autocrawl.Youtube.DailyQuota,
		ReserveQuota: a.cfg.Autocrawl.Youtube.ReserveQuota,
	}
	a.state = fresh
}

// Save persists AutoState to disk.
func (a *AutoCrawler) Save() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return saveState(a.statePath, a.state)
}

// observe is the Pipeline's store_observer: it increments the stored
// counters that drive next round's deficit computation (spec §4.6
// store_observer).
func (a *AutoCrawler) observe(doc *model.Document, cand model.Candidate) {
	a.mu.Lock()
	defer a.mu.Unlock()

	ts := resolveBucketTime(doc, cand)
	bucket := model.Bucket(ts)
	if a.state.Counts[bucket] == nil {
		a.state.Counts[bucket] = map[string]int{}
	}
	a.state.Counts[bucket][doc.Source]++
	a.state.StoredBySource[doc.Source]++
}

func resolveBucketTime(doc *model.Document, cand model.Candidate) time.Time {
	if doc.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, doc.PublishedAt); err == nil {
			return t
		}
	}
	if cand.HintedTimestamp != nil {
		return *cand.HintedTimestamp
	}
	return time.Now().UTC()
}

// tickCooldowns decrements every (bucket, source) cooldown, removing
// entries that reach zero, exactly once per round (spec §4.6 step 1).
func (a *AutoCrawler) tickCooldowns() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for bucket, bySrc := range a.state.Cooldowns {
		for src, rounds := range bySrc {
			rounds--
			if rounds <= 0 {
				delete(bySrc, src)
			} else {
				bySrc[src] = rounds
			}
		}
		if len(bySrc) == 0 {
			delete(a.state.Cooldowns, bucket)
		}
	}
}

// applyCooldown implements spec §4.6 step 3's post-sub-run cooldown
// decision: a low-yield or high-duplicate-ratio sub-run puts (bucket,
// source) in cooldown for cooldown_rounds, never shortening an existing
// longer cooldown.
func (a *AutoCrawler) applyCooldown(bucket, source string, stored, fetched, duplicatesSkipped int) {
	denom := fetched + duplicatesSkipped
	if denom < 1 {
		denom = 1
	}
	dupRatio := float64(duplicatesSkipped) / float64(denom)

	round := a.cfg.Autocrawl.RoundCfg
	if stored >= round.MinStoredThreshold && dupRatio < round.MaxDupRatio {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.Cooldowns[bucket] == nil {
		a.state.Cooldowns[bucket] = map[string]int{}
	}
	if existing := a.state.Cooldowns[bucket][source]; existing < round.CooldownRounds {
		a.state.Cooldowns[bucket][source] = round.CooldownRounds
	}
}

// planConfig derives PlanConfig from config.Config, plus a deterministic
// (sorted) list of enabled forum site keys.
func (a *AutoCrawler) planConfig() PlanConfig {
	var sites []string
	for k, s := range a.cfg.Forums.Sites {
		if s.Enabled {
			sites = append(sites, k)
		}
	}
	sort.Strings(sites)

	ac := a.cfg.Autocrawl
	return PlanConfig{
		MonthsBack:         ac.MonthsBack,
		MonthlyTarget:      ac.MonthlyTargetPerSrc,
		IncludeForums:      ac.IncludeForums,
		ForumSites:         sites,
		MaxGdeltWindows:    ac.RoundCfg.MaxGdeltWindows,
		MaxYoutubeWindows:  ac.RoundCfg.MaxYoutubeWindows,
		MaxYoutubeKeywords: ac.RoundCfg.MaxYoutubeKeywords,
		MaxFetch:           ac.RoundCfg.MaxFetch,
		Keywords:           a.cfg.Keywords,
	}
}

// Plan returns the next RoundPlan without mutating state or running
// anything (spec §6 `autocrawl plan`).
func (a *AutoCrawler) Plan(now time.Time) model.RoundPlan {
	a.mu.Lock()
	stateCopy := *a.state
	a.mu.Unlock()
	return Plan(&stateCopy, a.planConfig(), now)
}

// RunRound ticks cooldowns, plans, executes the planned sub-pipeline runs,
// advances forum cursors and the bucket cursor, and persists AutoState
// (spec §4.6 RunRound).
func (a *AutoCrawler) RunRound(ctx context.Context, now time.Time) (*RoundResult, error) {
	a.tickCooldowns()

	a.mu.Lock()
	plan := Plan(a.state, a.planConfig(), now)
	a.mu.Unlock()

	total := pipeline.Stats{Discovered: map[string]int{}}

	for _, w := range plan.Windows["gdelt"] {
		bucket := model.Bucket(w.Start)
		stats, err := a.pipe.Run(ctx, pipeline.Options{
			IncludeGdelt: true,
			MaxFetch:     plan.MaxFetch,
			GdeltWindows: []model.TimeRange{w},
		})
		if err != nil {
			return nil, err
		}
		mergeStats(&total, stats)
		a.applyCooldown(bucket, "gdelt", stats.Stored, stats.Fetched, stats.DuplicatesSkipped)
	}

	if len(plan.YoutubeKeywords) > 0 {
		for _, w := range plan.Windows["youtube"] {
			bucket := model.Bucket(w.Start)
			stats, err := a.pipe.Run(ctx, pipeline.Options{
				IncludeYoutube:  true,
				MaxFetch:        plan.MaxFetch,
				YoutubeWindows:  []model.TimeRange{w},
				YoutubeKeywords: plan.YoutubeKeywords,
			})
			if err != nil {
				return nil, err
			}
			mergeStats(&total, stats)
			a.applyCooldown(bucket, "youtube", stats.Stored, stats.Fetched, stats.DuplicatesSkipped)
		}
		a.consumeYoutubeQuota(now, len(plan.YoutubeKeywords))
	}

	if plan.IncludeForums && len(plan.Windows["forums"]) > 0 {
		w := plan.Windows["forums"][0]
		cursors := a.forumCursorsSnapshot()
		stats, err := a.pipe.Run(ctx, pipeline.Options{
			IncludeForums:   true,
			MaxFetch:        plan.MaxFetch,
			ForumCursors:    cursors,
			ForumsWindow:    &w,
			ForumsUntilDate: plan.ForumsUntilDate,
		})
		if err != nil {
			return nil, err
		}
		mergeStats(&total, stats)
		a.applyCooldown(model.Bucket(w.Start), "forums", stats.Stored, stats.Fetched, stats.DuplicatesSkipped)
		a.advanceForumCursors(a.pipe.LastForumPages())
	}

	a.advanceBucketCursor()

	if err := a.Save(); err != nil {
		return nil, err
	}
	return &RoundResult{Plan: plan, Stats: total}, nil
}

func (a *AutoCrawler) forumCursorsSnapshot() map[string]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]int, len(a.state.ForumCursors))
	for k, v := range a.state.ForumCursors {
		out[k] = v
	}
	for _, site := range a.cfg.Forums.Sites {
		for _, board := range site.Boards {
			if _, ok := out[board]; !ok {
				out[board] = 1
			}
		}
	}
	return out
}

func (a *AutoCrawler) advanceForumCursors(lastPages map[string]int) {
	if len(lastPages) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for board, page := range lastPages {
		a.state.ForumCursors[board] = page + 1
	}
}

func (a *AutoCrawler) advanceBucketCursor() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.BucketCursor = (a.state.BucketCursor + 1) % 120
}

func (a *AutoCrawler) consumeYoutubeQuota(now time.Time, keywordCount int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Youtube.Consume(now, keywordCount*101)
	if len(a.cfg.Keywords) > 0 {
		a.state.YoutubeKwCursor = (a.state.YoutubeKwCursor + keywordCount) % len(a.cfg.Keywords)
	}
}

func mergeStats(total *pipeline.Stats, s *pipeline.Stats) {
	if s == nil {
		return
	}
	for src, n := range s.Discovered {
		total.Discovered[src] += n
	}
	total.Fetched += s.Fetched
	total.Stored += s.Stored
	total.DuplicatesSkipped += s.DuplicatesSkipped
	total.FailedFetch += s.FailedFetch
	total.QualityRejected += s.QualityRejected
	total.IndexDuplicates += s.IndexDuplicates
	total.ExtractionFailed += s.ExtractionFailed
}

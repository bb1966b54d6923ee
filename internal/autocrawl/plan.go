package autocrawl

import (
	"sort"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// sourceOffset staggers which part of the rotated bucket ranking each
// source starts scanning from, so three sources don't all reach for the
// same top-ranked bucket every round (spec §4.6 step 2).
var sourceOffset = map[string]int{
	"gdelt":   0,
	"youtube": 1,
	"forums":  2,
}

// forumsDefaultMaxWindows is the implicit cap on how many month buckets the
// forum discoverer is handed per round: spec.md gives gdelt and youtube an
// explicit max_*_windows knob but names none for forums, since forum
// pagination is driven by page cursors rather than a window count. One
// bucket per round keeps forums on the same per-round cadence as the other
// two sources (see DESIGN.md Open Question resolution).
const forumsDefaultMaxWindows = 1

// recentBuckets returns the last n "YYYY-MM" keys ending at now, most
// recent first.
func recentBuckets(now time.Time, n int) []string {
	out := make([]string, 0, n)
	cursor := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		out = append(out, model.Bucket(cursor))
		cursor = cursor.AddDate(0, -1, 0)
	}
	return out
}

// bucketBounds materializes a "YYYY-MM" key into [month_start, min(next
// month start, now)).
func bucketBounds(bucket string, now time.Time) (model.TimeRange, error) {
	start, err := time.ParseInLocation("2006-01", bucket, time.UTC)
	if err != nil {
		return model.TimeRange{}, err
	}
	end := start.AddDate(0, 1, 0)
	if end.After(now) {
		end = now
	}
	return model.TimeRange{Start: start, End: end}, nil
}

// deficits computes, for every recent bucket and every named source,
// max(0, monthly_target - stored_count).
func deficits(state *model.AutoState, buckets []string, sources []string, monthlyTarget int) map[string]map[string]int {
	out := map[string]map[string]int{}
	for _, b := range buckets {
		out[b] = map[string]int{}
		for _, src := range sources {
			stored := 0
			if m, ok := state.Counts[b]; ok {
				stored = m[src]
			}
			d := monthlyTarget - stored
			if d < 0 {
				d = 0
			}
			out[b][src] = d
		}
	}
	return out
}

// addForumAggregateDeficit adds a synthetic "forums" entry to def, summing
// every configured forum site's deficit for that bucket. Forums share one
// planned window per round rather than one per site, so the planner needs
// a single aggregate signal to rank and pick buckets by; this key is
// planning-internal and never written back to AutoState.Counts.
func addForumAggregateDeficit(def map[string]map[string]int, buckets, forumSites []string) {
	for _, b := range buckets {
		total := 0
		for _, site := range forumSites {
			total += def[b][site]
		}
		def[b]["forums"] = total
	}
}

// rankBuckets scores each bucket by its total deficit across sources,
// decayed 3% per step of age, and returns buckets sorted by descending
// score (ties broken by bucket key, newest first, for determinism).
func rankBuckets(buckets []string, defByBucket map[string]map[string]int) []string {
	type scored struct {
		bucket string
		score  float64
	}
	items := make([]scored, 0, len(buckets))
	for age, b := range buckets {
		total := 0
		for _, d := range defByBucket[b] {
			total += d
		}
		score := float64(total) * (1 - 0.03*float64(age))
		items = append(items, scored{bucket: b, score: score})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].bucket > items[j].bucket
	})
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.bucket
	}
	return out
}

// rotate returns ranked rotated left by n positions (mod len), the way
// bucket_cursor keeps successive rounds from always favoring the same
// top-ranked bucket.
func rotate(ranked []string, n int) []string {
	if len(ranked) == 0 {
		return ranked
	}
	n = ((n % len(ranked)) + len(ranked)) % len(ranked)
	out := make([]string, len(ranked))
	copy(out, ranked[n:])
	copy(out[len(ranked)-n:], ranked[:n])
	return out
}

// pickWindows selects up to maxWindows buckets for source from rotated,
// honoring cooldowns and (in the first pass) a cap of one pick per bucket
// across all sources in this round; a second, uncapped pass fills any
// remaining slack (spec §4.6 step 2).
func pickWindows(rotated []string, source string, maxWindows int, def map[string]map[string]int, cooldowns map[string]map[string]int, pickedThisRound map[string]bool) []string {
	if maxWindows <= 0 || len(rotated) == 0 {
		return nil
	}
	offset := sourceOffset[source]
	start := offset % len(rotated)

	eligible := func(b string) bool {
		if def[b][source] <= 0 {
			return false
		}
		if c, ok := cooldowns[b]; ok && c[source] > 0 {
			return false
		}
		return true
	}

	var chosen []string
	// pass 1: respect the cross-source cap.
	for i := 0; i < len(rotated) && len(chosen) < maxWindows; i++ {
		b := rotated[(start+i)%len(rotated)]
		if !eligible(b) || pickedThisRound[b] {
			continue
		}
		chosen = append(chosen, b)
		pickedThisRound[b] = true
	}
	// pass 2: fill remaining slack, ignoring the cross-source cap.
	if len(chosen) < maxWindows {
		alreadyChosen := map[string]bool{}
		for _, b := range chosen {
			alreadyChosen[b] = true
		}
		for i := 0; i < len(rotated) && len(chosen) < maxWindows; i++ {
			b := rotated[(start+i)%len(rotated)]
			if !eligible(b) || alreadyChosen[b] {
				continue
			}
			chosen = append(chosen, b)
			alreadyChosen[b] = true
		}
	}
	return chosen
}

// pickYoutubeKeywords applies the Video-keyword-subset cost model: each
// keyword costs search(100)+videos(1) = 101 quota units, so the available
// budget caps how many keywords a round can afford on top of
// max_youtube_keywords. Keywords are picked round-robin from cursor.
func pickYoutubeKeywords(keywords []string, cursor, maxKeywords, available int) ([]string, int) {
	if len(keywords) == 0 || maxKeywords <= 0 {
		return nil, cursor
	}
	affordable := available / 101
	limit := maxKeywords
	if affordable < limit {
		limit = affordable
	}
	if limit <= 0 {
		return nil, cursor
	}
	if limit > len(keywords) {
		limit = len(keywords)
	}

	out := make([]string, 0, limit)
	c := cursor
	for i := 0; i < limit; i++ {
		idx := (c + i) % len(keywords)
		out = append(out, keywords[idx])
	}
	nextCursor := (c + limit) % len(keywords)
	return out, nextCursor
}

// Plan computes the next RoundPlan from state and now without mutating
// state (spec §8 "Round determinism": frozen clock + frozen state + frozen
// network implies plan_round is byte-identical across repeated calls).
func Plan(state *model.AutoState, cfg PlanConfig, now time.Time) model.RoundPlan {
	buckets := recentBuckets(now, cfg.MonthsBack)

	def := deficits(state, buckets, append([]string{"gdelt", "youtube"}, cfg.ForumSites...), cfg.MonthlyTarget)
	ranked := rankBuckets(buckets, def)
	addForumAggregateDeficit(def, buckets, cfg.ForumSites)
	rotated := rotate(ranked, state.BucketCursor)

	pickedThisRound := map[string]bool{}

	gdeltBuckets := pickWindows(rotated, "gdelt", cfg.MaxGdeltWindows, def, state.Cooldowns, pickedThisRound)
	youtubeBuckets := pickWindows(rotated, "youtube", cfg.MaxYoutubeWindows, def, state.Cooldowns, pickedThisRound)

	windows := map[string][]model.TimeRange{}
	for _, b := range gdeltBuckets {
		if tr, err := bucketBounds(b, now); err == nil {
			windows["gdelt"] = append(windows["gdelt"], tr)
		}
	}
	for _, b := range youtubeBuckets {
		if tr, err := bucketBounds(b, now); err == nil {
			windows["youtube"] = append(windows["youtube"], tr)
		}
	}

	var forumsUntil *time.Time
	if cfg.IncludeForums {
		forumBuckets := pickWindows(rotated, "forums", forumsDefaultMaxWindows, def, state.Cooldowns, pickedThisRound)
		for _, b := range forumBuckets {
			if tr, err := bucketBounds(b, now); err == nil {
				windows["forums"] = append(windows["forums"], tr)
				oldest := tr.Start
				if forumsUntil == nil || oldest.Before(*forumsUntil) {
					forumsUntil = &oldest
				}
			}
		}
	}

	available := state.Youtube.Available(now)
	ytKeywords, _ := pickYoutubeKeywords(cfg.Keywords, state.YoutubeKwCursor, cfg.MaxYoutubeKeywords, available)

	return model.RoundPlan{
		Windows:         windows,
		YoutubeKeywords: ytKeywords,
		IncludeForums:   cfg.IncludeForums,
		MaxFetch:        cfg.MaxFetch,
		ForumsUntilDate: forumsUntil,
		Deficits:        def,
	}
}

// PlanConfig bundles the autocrawl knobs Plan needs, mirroring
// config.Autocrawl without importing the config package's viper/yaml tags
// into the planner's pure core.
type PlanConfig struct {
	MonthsBack         int
	MonthlyTarget      int
	IncludeForums      bool
	ForumSites         []string
	MaxGdeltWindows    int
	MaxYoutubeWindows  int
	MaxYoutubeKeywords int
	MaxFetch           int
	Keywords           []string
}

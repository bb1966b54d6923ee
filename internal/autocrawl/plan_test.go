package autocrawl

import (
	"testing"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return tm
}

// TestPlanDeficitInTwoMonths is spec.md §8 scenario 6: monthly_target=10,
// counts[2025-10]={gdelt:3}, counts[2025-11]={gdelt:9}, max_gdelt_windows=2,
// no cooldowns, bucket_cursor=0 -> gdelt windows contain 2025-10 first (the
// higher deficit), then 2025-11. The clock sits in November so that, with
// months_back=2, those are the only two recent buckets (recentBuckets
// counts the current month).
func TestPlanDeficitInTwoMonths(t *testing.T) {
	now := mustParse(t, "2025-11-15T00:00:00Z")
	state := model.NewAutoState()
	state.Counts["2025-10"] = map[string]int{"gdelt": 3}
	state.Counts["2025-11"] = map[string]int{"gdelt": 9}

	cfg := PlanConfig{
		MonthsBack:        2,
		MonthlyTarget:     10,
		MaxGdeltWindows:   2,
		MaxYoutubeWindows: 0,
	}

	plan := Plan(state, cfg, now)

	gw := plan.Windows["gdelt"]
	if len(gw) != 2 {
		t.Fatalf("expected 2 gdelt windows, got %d (%v)", len(gw), gw)
	}
	if got := model.Bucket(gw[0].Start); got != "2025-10" {
		t.Fatalf("expected 2025-10 first (higher deficit), got %s", got)
	}
	if got := model.Bucket(gw[1].Start); got != "2025-11" {
		t.Fatalf("expected 2025-11 second, got %s", got)
	}
}

// TestPlanIsPure checks spec.md §8's "Round determinism" property: calling
// Plan twice with the same (state, cfg, now) produces identical output and
// never mutates state.
func TestPlanIsPure(t *testing.T) {
	now := mustParse(t, "2025-12-01T00:00:00Z")
	state := model.NewAutoState()
	state.Counts["2025-11"] = map[string]int{"gdelt": 2}
	state.BucketCursor = 3
	snapshot := *state

	cfg := PlanConfig{MonthsBack: 4, MonthlyTarget: 10, MaxGdeltWindows: 1, MaxYoutubeWindows: 1}

	p1 := Plan(state, cfg, now)
	p2 := Plan(state, cfg, now)

	if len(p1.Windows["gdelt"]) != len(p2.Windows["gdelt"]) {
		t.Fatal("Plan produced different gdelt window counts across repeated calls")
	}
	if state.BucketCursor != snapshot.BucketCursor {
		t.Fatal("Plan mutated state.BucketCursor")
	}
}

func TestCooldownExcludesBucket(t *testing.T) {
	now := mustParse(t, "2025-12-01T00:00:00Z")
	state := model.NewAutoState()
	state.Counts["2025-11"] = map[string]int{"gdelt": 0}
	state.Cooldowns["2025-11"] = map[string]int{"gdelt": 2}

	cfg := PlanConfig{MonthsBack: 2, MonthlyTarget: 10, MaxGdeltWindows: 1}
	plan := Plan(state, cfg, now)

	for _, w := range plan.Windows["gdelt"] {
		if model.Bucket(w.Start) == "2025-11" {
			t.Fatal("expected cooled-down bucket 2025-11 to be excluded")
		}
	}
}

func TestPickYoutubeKeywordsRespectsBudget(t *testing.T) {
	keywords := []string{"a", "b", "c", "d"}
	// 150 units affords 1 keyword at 101/unit.
	picked, next := pickYoutubeKeywords(keywords, 0, 3, 150)
	if len(picked) != 1 {
		t.Fatalf("expected 1 affordable keyword, got %d", len(picked))
	}
	if picked[0] != "a" {
		t.Fatalf("expected round-robin from cursor 0, got %v", picked)
	}
	if next != 1 {
		t.Fatalf("expected cursor to advance to 1, got %d", next)
	}
}

func TestPickYoutubeKeywordsWrapsCursor(t *testing.T) {
	keywords := []string{"a", "b", "c"}
	picked, next := pickYoutubeKeywords(keywords, 2, 3, 1000)
	want := []string{"c", "a", "b"}
	if len(picked) != len(want) {
		t.Fatalf("expected %d keywords, got %d", len(want), len(picked))
	}
	for i, w := range want {
		if picked[i] != w {
			t.Fatalf("expected %v, got %v", want, picked)
		}
	}
	if next != 2 {
		t.Fatalf("expected cursor to wrap back to 2, got %d", next)
	}
}

func TestRotatePreservesOrderAndLength(t *testing.T) {
	ranked := []string{"2025-11", "2025-10", "2025-09"}
	rotated := rotate(ranked, 1)
	want := []string{"2025-10", "2025-09", "2025-11"}
	for i, w := range want {
		if rotated[i] != w {
			t.Fatalf("expected %v, got %v", want, rotated)
		}
	}
}

func TestSourcesDontDoubleBookSameBucketInPassOne(t *testing.T) {
	now := mustParse(t, "2025-12-01T00:00:00Z")
	state := model.NewAutoState()
	// Every bucket has the same deficit for both sources, so only the
	// per-source scan offset and the cross-source cap (pickedThisRound)
	// keep them from colliding.
	cfg := PlanConfig{MonthsBack: 3, MonthlyTarget: 10, MaxGdeltWindows: 1, MaxYoutubeWindows: 1}
	plan := Plan(state, cfg, now)

	if len(plan.Windows["gdelt"]) != 1 || len(plan.Windows["youtube"]) != 1 {
		t.Fatalf("expected one window per source, got %v", plan.Windows)
	}
	g := model.Bucket(plan.Windows["gdelt"][0].Start)
	y := model.Bucket(plan.Windows["youtube"][0].Start)
	if g == y {
		t.Fatalf("expected source offsets to avoid the same bucket in pass 1, both picked %s", g)
	}
}

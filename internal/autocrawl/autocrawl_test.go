package autocrawl

import (
	"testing"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func newTestCrawler(t *testing.T) *AutoCrawler {
	t.Helper()
	cfg := config.Default()
	cfg.Autocrawl.RoundCfg.MinStoredThreshold = 3
	cfg.Autocrawl.RoundCfg.MaxDupRatio = 0.5
	cfg.Autocrawl.RoundCfg.CooldownRounds = 2
	return &AutoCrawler{
		cfg:       cfg,
		log:       logger.NewNoOp(),
		statePath: t.TempDir() + "/_auto_state.json",
		state:     model.NewAutoState(),
	}
}

func TestTickCooldownsDecrementsAndRemoves(t *testing.T) {
	a := newTestCrawler(t)
	a.state.Cooldowns["2025-11"] = map[string]int{"gdelt": 1, "youtube": 2}

	a.tickCooldowns()
	if _, ok := a.state.Cooldowns["2025-11"]["gdelt"]; ok {
		t.Fatal("expected gdelt cooldown to be removed after reaching zero")
	}
	if a.state.Cooldowns["2025-11"]["youtube"] != 1 {
		t.Fatalf("expected youtube cooldown decremented to 1, got %d", a.state.Cooldowns["2025-11"]["youtube"])
	}

	a.tickCooldowns()
	if _, ok := a.state.Cooldowns["2025-11"]; ok {
		t.Fatal("expected bucket entry to be pruned once empty")
	}
}

func TestApplyCooldownTripsOnLowYield(t *testing.T) {
	a := newTestCrawler(t)
	a.applyCooldown("2025-11", "gdelt", 1, 10, 8)
	if a.state.Cooldowns["2025-11"]["gdelt"] != 2 {
		t.Fatalf("expected cooldown set to cooldown_rounds=2, got %d", a.state.Cooldowns["2025-11"]["gdelt"])
	}
}

func TestApplyCooldownSkipsOnGoodYield(t *testing.T) {
	a := newTestCrawler(t)
	a.applyCooldown("2025-11", "gdelt", 5, 10, 1)
	if _, ok := a.state.Cooldowns["2025-11"]; ok {
		t.Fatal("expected no cooldown for a healthy sub-run")
	}
}

func TestApplyCooldownNeverShortensExisting(t *testing.T) {
	a := newTestCrawler(t)
	a.state.Cooldowns["2025-11"] = map[string]int{"gdelt": 5}
	a.applyCooldown("2025-11", "gdelt", 1, 10, 8)
	if a.state.Cooldowns["2025-11"]["gdelt"] != 5 {
		t.Fatalf("expected existing longer cooldown preserved, got %d", a.state.Cooldowns["2025-11"]["gdelt"])
	}
}

func TestObserveIncrementsCounts(t *testing.T) {
	a := newTestCrawler(t)
	doc := &model.Document{Source: "gdelt", PublishedAt: "2025-11-05T00:00:00Z"}
	a.observe(doc, model.Candidate{})

	if a.state.Counts["2025-11"]["gdelt"] != 1 {
		t.Fatalf("expected counts[2025-11][gdelt]=1, got %d", a.state.Counts["2025-11"]["gdelt"])
	}
	if a.state.StoredBySource["gdelt"] != 1 {
		t.Fatalf("expected stored_by_source[gdelt]=1, got %d", a.state.StoredBySource["gdelt"])
	}
}

func TestObserveFallsBackToCandidateHint(t *testing.T) {
	a := newTestCrawler(t)
	hint := time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)
	doc := &model.Document{Source: "dcinside"}
	a.observe(doc, model.Candidate{HintedTimestamp: &hint})

	if a.state.Counts["2025-10"]["dcinside"] != 1 {
		t.Fatalf("expected fallback to candidate.hinted_timestamp bucket, got %v", a.state.Counts)
	}
}

func TestResetPreservesQuotaDefaults(t *testing.T) {
	a := newTestCrawler(t)
	a.cfg.Autocrawl.Youtube.DailyQuota = 5000
	a.cfg.Autocrawl.Youtube.ReserveQuota = 500
	a.state.Counts["2025-11"] = map[string]int{"gdelt": 7}
	a.state.BucketCursor = 4

	a.Reset()

	if len(a.state.Counts) != 0 {
		t.Fatal("expected Reset to clear counts")
	}
	if a.state.BucketCursor != 0 {
		t.Fatal("expected Reset to clear bucket cursor")
	}
	if a.state.Youtube.DailyQuota != 5000 || a.state.Youtube.ReserveQuota != 500 {
		t.Fatalf("expected Reset to reseed quota defaults from config, got %+v", a.state.Youtube)
	}
}

func TestQuotaSafetyAcrossConsumes(t *testing.T) {
	a := newTestCrawler(t)
	a.state.Youtube.DailyQuota = 1000
	a.state.Youtube.ReserveQuota = 100
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)

	consumed := 0
	for i := 0; i < 5; i++ {
		avail := a.state.Youtube.Available(now)
		if avail <= 0 {
			break
		}
		units := 101
		if units > avail {
			units = avail
		}
		a.state.Youtube.Consume(now, units)
		consumed += units
	}
	if consumed > 900 {
		t.Fatalf("expected total consumed <= daily_quota-reserve_quota=900, got %d", consumed)
	}
}

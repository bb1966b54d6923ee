package pipeline

import (
	"testing"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

func TestOrderedCandidatesPriority(t *testing.T) {
	bySource := map[string][]model.Candidate{
		"gdelt":    {{URL: "https://news.example/a", Source: "gdelt"}},
		"youtube":  {{URL: "https://youtube.example/a", Source: "youtube"}},
		"dcinside": {{URL: "https://dc.example/a", Source: "dcinside"}},
	}
	ordered := orderedCandidates(bySource, []string{"dcinside"})
	if len(ordered) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(ordered))
	}
	if ordered[0].Source != "dcinside" {
		t.Fatalf("expected forum first, got %q", ordered[0].Source)
	}
	if ordered[1].Source != "gdelt" {
		t.Fatalf("expected gdelt second, got %q", ordered[1].Source)
	}
	if ordered[2].Source != "youtube" {
		t.Fatalf("expected youtube last, got %q", ordered[2].Source)
	}
}

func TestForumSitesForFilter(t *testing.T) {
	all := map[string]config.ForumSite{
		"dcinside":   {Enabled: true},
		"bobaedream": {Enabled: true},
	}
	filtered := forumSitesFor(all, []string{"dcinside"})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 site after filter, got %d", len(filtered))
	}
	if _, ok := filtered["dcinside"]; !ok {
		t.Fatal("expected dcinside to survive the filter")
	}

	unfiltered := forumSitesFor(all, nil)
	if len(unfiltered) != 2 {
		t.Fatal("expected no filtering when filter list is empty")
	}
}

func TestSortedForumSiteKeysDeterministic(t *testing.T) {
	cfg := &config.Config{Forums: config.Forums{Sites: map[string]config.ForumSite{
		"theqoo":     {},
		"bobaedream": {},
		"dcinside":   {},
	}}}
	keys := sortedForumSiteKeys(cfg)
	want := []string{"bobaedream", "dcinside", "theqoo"}
	if len(keys) != len(want) {
		t.Fatalf("got %v", keys)
	}
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("expected sorted order %v, got %v", want, keys)
		}
	}
}

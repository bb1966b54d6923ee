package forum

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
)

const dcinsideListingFixture = `
<html><body>
<table>
<tr class="ub-content">
  <td class="gall_tit"><a href="/board/view/?id=test&no=111">First thread</a></td>
  <td class="gall_writer">nick1</td>
  <td class="gall_date" title="2025.11.22 13:17">11.22</td>
</tr>
<tr class="ub-content">
  <td class="gall_tit"><a href="/board/view/?id=test&no=222">Second thread</a></td>
  <td class="gall_writer">nick2</td>
  <td class="gall_date" title="2025.11.20 09:00">11.20</td>
</tr>
</table>
</body></html>`

func TestDiscoverDCInsideListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dcinsideListingFixture))
	}))
	defer srv.Close()

	cfg := Config{
		Sites: map[string]config.ForumSite{
			"dcinside": {
				Enabled:  true,
				Boards:   []string{srv.URL + "/board/lists/?id=test"},
				MaxPages: 1,
			},
		},
		HTTPClient: srv.Client(),
	}

	res, err := Discover(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(res.Candidates))
	}
	if res.Candidates[0].Source != "dcinside" {
		t.Fatalf("expected source dcinside, got %q", res.Candidates[0].Source)
	}
	if res.Candidates[0].HintedTimestamp == nil {
		t.Fatal("expected hinted_timestamp parsed from gall_date title")
	}
}

func TestDiscoverSkipsDisabledSite(t *testing.T) {
	cfg := Config{
		Sites: map[string]config.ForumSite{
			"dcinside": {Enabled: false, Boards: []string{"https://example.com/board"}},
		},
	}
	res, err := Discover(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Fatal("expected no candidates for a disabled site")
	}
}

func TestParseListingTimestampChain(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"2025-11-22 13:17:43", true},
		{"2025.11.22 13:17", true},
		{"25.11.22 13:17", true},
		{"20251122131743", true},
		{"not a date", false},
	}
	for _, tc := range cases {
		_, ok := parseListingTimestamp(tc.raw)
		if ok != tc.ok {
			t.Errorf("parseListingTimestamp(%q) ok=%v, want %v", tc.raw, ok, tc.ok)
		}
	}
}

func TestDiscoverRobotsOverrideCarried(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(dcinsideListingFixture))
	}))
	defer srv.Close()

	cfg := Config{
		Sites: map[string]config.ForumSite{
			"dcinside": {
				Enabled:    true,
				Boards:     []string{srv.URL + "/board/lists/?id=test"},
				MaxPages:   1,
				ObeyRobots: false,
			},
		},
		HTTPClient: srv.Client(),
	}
	res, err := Discover(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(res.Candidates) == 0 || !res.Candidates[0].RobotsOverride() {
		t.Fatal("expected robots_override=true to be carried when obey_robots is false")
	}
}

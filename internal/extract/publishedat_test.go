package extract

import (
	"strings"
	"testing"
	"time"
)

func TestNormalizePublishedAtISO(t *testing.T) {
	v, ok := normalizePublishedAt("2025-11-22T13:17:43Z")
	if !ok {
		t.Fatal("expected ISO timestamp to parse")
	}
	if !strings.HasPrefix(v, "2025-11-22T13:17:43") {
		t.Fatalf("unexpected result %q", v)
	}
}

func TestNormalizePublishedAtDottedSeparators(t *testing.T) {
	v, ok := normalizePublishedAt("2025.11.22 13:17:43")
	if !ok {
		t.Fatal("expected dotted datetime to parse")
	}
	if !strings.HasPrefix(v, "2025-11-22T13:17:43") {
		t.Fatalf("unexpected result %q", v)
	}
}

func TestBestDateTokenPrefersTimeOverDateOnly(t *testing.T) {
	text := "posted 2025-11-20 then edited 2025-11-22 13:17:43 see also 2025-11-21"
	tok, ok := bestDateToken(text)
	if !ok {
		t.Fatal("expected a date token")
	}
	if !tok.hasTime {
		t.Fatal("expected the datetime-with-time token to win over date-only tokens")
	}
	if tok.t.Day() != 22 {
		t.Fatalf("expected day 22, got %d", tok.t.Day())
	}
}

func TestBestDateTokenPicksLatestWithinSameGroup(t *testing.T) {
	text := "2025-11-20 13:00:00 and 2025-11-22 13:17:43 and 2025-11-19 09:00:00"
	tok, ok := bestDateToken(text)
	if !ok {
		t.Fatal("expected a date token")
	}
	if tok.t.Day() != 22 {
		t.Fatalf("expected the latest datetime-with-time token (day 22), got day %d", tok.t.Day())
	}
}

func TestInferPublishedAtPrefersExtractorValue(t *testing.T) {
	hinted := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	got := inferPublishedAt("2025-11-22T13:17:43Z", true, "no dates here", "<html></html>", nil, &hinted)
	if !strings.HasPrefix(got, "2025-11-22T13:17:43") {
		t.Fatalf("expected extractor value to win, got %q", got)
	}
}

func TestInferPublishedAtScansForumTextWhenMissing(t *testing.T) {
	got := inferPublishedAt("", true, "some text 2025.11.22 13:17:43 more text", "<html></html>", nil, nil)
	if !strings.HasPrefix(got, "2025-11-22T13:17:43") {
		t.Fatalf("expected forum text scan to find the datetime token, got %q", got)
	}
}

func TestInferPublishedAtFallsBackToHintedTimestamp(t *testing.T) {
	hinted := time.Date(2021, 6, 15, 8, 0, 0, 0, time.UTC)
	got := inferPublishedAt("", false, "no dates", "<html></html>", nil, &hinted)
	if !strings.HasPrefix(got, "2021-06-15T08:00:00") {
		t.Fatalf("expected hinted timestamp fallback, got %q", got)
	}
}

func TestInferPublishedAtEmptyWhenNothingAvailable(t *testing.T) {
	got := inferPublishedAt("", false, "no dates", "<html></html>", nil, nil)
	if got != "" {
		t.Fatalf("expected empty published_at, got %q", got)
	}
}

package extract

import "testing"

func TestEvaluateQualityCountsDistinctKeywordHits(t *testing.T) {
	gate := EvaluateQuality("The quick Brown fox jumps over the lazy DOG", "eng",
		[]string{"fox", "dog", "elephant"}, []string{"eng"}, 1)

	if gate.KeywordHits != 2 {
		t.Fatalf("expected 2 keyword hits, got %d", gate.KeywordHits)
	}
	if !gate.Passed {
		t.Fatal("expected gate to pass")
	}
	if gate.KeywordCoverage < 0.66 || gate.KeywordCoverage > 0.67 {
		t.Fatalf("expected coverage ~0.667, got %v", gate.KeywordCoverage)
	}
}

func TestEvaluateQualityRejectsBelowMinKeywordHits(t *testing.T) {
	gate := EvaluateQuality("nothing relevant here", "eng", []string{"fox"}, []string{"eng"}, 1)
	if gate.Passed {
		t.Fatal("expected gate to reject")
	}
	if gate.KeywordHits != 0 {
		t.Fatalf("expected 0 hits, got %d", gate.KeywordHits)
	}
}

func TestEvaluateQualityMonotonicInMinKeywordHits(t *testing.T) {
	text := "fox fox fox"
	low := EvaluateQuality(text, "eng", []string{"fox"}, []string{"eng"}, 1)
	high := EvaluateQuality(text, "eng", []string{"fox"}, []string{"eng"}, 2)
	if !low.Passed {
		t.Fatal("expected low threshold to pass")
	}
	if high.Passed {
		t.Fatal("raising min_keyword_hits must never turn a reject into an accept scenario in reverse: expected high threshold to fail")
	}
}

func TestEvaluateQualityScoresLangAndHits(t *testing.T) {
	gate := EvaluateQuality("fox", "eng", []string{"fox"}, []string{"eng"}, 1)
	if gate.Score != 0.5 {
		t.Fatalf("expected score 0.3+0.2=0.5, got %v", gate.Score)
	}
	if len(gate.Reasons) != 0 {
		t.Fatalf("expected no failure reasons, got %v", gate.Reasons)
	}

	rejected := EvaluateQuality("fox", "kor", []string{"fox"}, []string{"eng"}, 5)
	if rejected.Score != 0 {
		t.Fatalf("expected score 0, got %v", rejected.Score)
	}
	if len(rejected.Reasons) != 2 {
		t.Fatalf("expected both lang and keyword_hits reasons, got %v", rejected.Reasons)
	}
}

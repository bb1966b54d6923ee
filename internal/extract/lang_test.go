package extract

import "testing"

func TestDetectLanguageEmptyIsUnd(t *testing.T) {
	if got := DetectLanguage("   "); got != "und" {
		t.Fatalf("expected und for empty text, got %q", got)
	}
}

func TestDetectLanguageEnglish(t *testing.T) {
	got := DetectLanguage("The quick brown fox jumps over the lazy dog near the riverbank every morning.")
	if got != "eng" {
		t.Fatalf("expected eng, got %q", got)
	}
}

package urlnorm

import "testing"

func TestNormalizeStripsUTMsAndSortsQuery(t *testing.T) {
	got, err := Normalize("https://EXAMPLE.com/Path?b=2&utm_source=x&a=1")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "https://example.com/Path?a=1&b=2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeDropsDefaultPortAndTrailingQuestionMark(t *testing.T) {
	got, err := Normalize("http://example.com:80/index.html?")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "http://example.com/index.html"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"https://EXAMPLE.com/Path?b=2&utm_source=x&a=1",
		"http://example.com:443/a/b?",
		"https://Example.COM:443/foo/bar/?utm_campaign=y&z=1#frag",
		"HTTPS://example.com",
	}
	for _, in := range inputs {
		once, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		twice, err := Normalize(once)
		if err != nil {
			t.Fatalf("Normalize(%q) second pass: %v", once, err)
		}
		if once != twice {
			t.Fatalf("not idempotent: Normalize(%q)=%q, Normalize(that)=%q", in, once, twice)
		}
	}
}

func TestNormalizeStripsOnlyUTMKeys(t *testing.T) {
	got, err := Normalize("https://example.com/a?utm_source=a&utm_medium=b&utm_campaign=c&utm_term=d&utm_content=e&keep=1")
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := "https://example.com/a?keep=1"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDocumentIDDeterministic(t *testing.T) {
	u, _ := Normalize("https://example.com/a?b=1")
	id1 := DocumentID(u)
	id2 := DocumentID(u)
	if id1 != id2 {
		t.Fatalf("DocumentID not deterministic: %q vs %q", id1, id2)
	}
	if len(id1) != 40 {
		t.Fatalf("expected 40-char hex sha1, got %d chars", len(id1))
	}
}

func TestIsBareDomain(t *testing.T) {
	cases := map[string]bool{
		"https://example.com":              true,
		"https://example.com/":             true,
		"https://example.com/robots.txt":   true,
		"https://example.com/articles/123": false,
	}
	for in, want := range cases {
		norm, err := Normalize(in)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got := IsBareDomain(norm); got != want {
			t.Fatalf("IsBareDomain(%q)=%v, want %v", norm, got, want)
		}
	}
}

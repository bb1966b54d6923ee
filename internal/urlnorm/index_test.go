package urlnorm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestIndexAddContainsFlushReload(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	u, _ := Normalize("https://example.com/a")
	id := DocumentID(u)

	if idx.Contains(id) || idx.ContainsURL(u) {
		t.Fatal("expected empty index")
	}

	idx.Add(id)
	idx.AddURL(u)

	if !idx.Contains(id) || !idx.ContainsURL(u) {
		t.Fatal("expected index to contain added id/url")
	}

	if err := idx.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "_index.json")); err != nil {
		t.Fatalf("expected _index.json to exist: %v", err)
	}

	reloaded, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reloaded.Contains(id) || !reloaded.ContainsURL(u) {
		t.Fatal("expected reloaded index to contain persisted id/url")
	}
}

func TestIndexSelfHealsFromLogs(t *testing.T) {
	dir := t.TempDir()
	log := `{"id":"abc123","url":"https://example.com/a"}
not-json-garbage
{"id":"def456","url":"https://example.com/b"}
`
	if err := os.WriteFile(filepath.Join(dir, "news.jsonl"), []byte(log), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	idx, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if !idx.Contains("abc123") || !idx.Contains("def456") {
		t.Fatal("expected index to self-heal from jsonl records")
	}
	wantURL, _ := Normalize("https://example.com/a")
	if !idx.ContainsURL(wantURL) {
		t.Fatal("expected self-healed index to contain normalized url")
	}
}

func TestIndexFlushIsMonotone(t *testing.T) {
	dir := t.TempDir()
	idx, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.Flush(); err != nil {
		t.Fatalf("Flush on clean index: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "_index.json")); !os.IsNotExist(err) {
		t.Fatal("expected no file to be written when index was never dirtied")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWithoutParamsFileFailsValidation(t *testing.T) {
	cfg, err := Load("")
	if err == nil {
		t.Fatalf("expected validation error without keywords/start_date, got none")
	}
	_ = cfg
}

func TestLoadFromYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "params.yaml")
	yamlContent := `
keywords: ["foo", "bar"]
time_window:
  start_date: "2025-01-01"
output:
  root: "./out"
quality:
  min_keyword_hits: 2
`
	if err := os.WriteFile(path, []byte(yamlContent), 0o600); err != nil {
		t.Fatalf("write params file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Keywords) != 2 {
		t.Fatalf("expected 2 keywords, got %v", cfg.Keywords)
	}
	if cfg.Quality.MinKeywordHits != 2 {
		t.Fatalf("expected min_keyword_hits=2, got %d", cfg.Quality.MinKeywordHits)
	}
	if cfg.GDELT.ChunkDays != 1 {
		t.Fatalf("expected default chunk_days=1 to survive, got %d", cfg.GDELT.ChunkDays)
	}
}

func TestValidateRejectsMissingKeywords(t *testing.T) {
	cfg := Default()
	cfg.TimeWindow.StartDate = "2025-01-01"
	cfg.Output.Root = "./out"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for missing keywords")
	}
}

func TestValidateRejectsEnabledForumWithNoBoards(t *testing.T) {
	cfg := Default()
	cfg.Keywords = []string{"x"}
	cfg.TimeWindow.StartDate = "2025-01-01"
	cfg.Output.Root = "./out"
	cfg.Forums.Sites["dcinside"] = ForumSite{Enabled: true}
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for enabled forum site with no boards")
	}
}

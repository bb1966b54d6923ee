package config

import (
	"errors"
	"fmt"
)

// Validate performs the eager checks the teacher's validateConfig performs:
// required fields present, enums within range.
func Validate(cfg *Config) error {
	if len(cfg.Keywords) == 0 {
		return errors.New("keywords: at least one keyword is required")
	}
	if cfg.TimeWindow.StartDate == "" {
		return errors.New("time_window.start_date is required")
	}
	if cfg.Output.Root == "" {
		return errors.New("output.root is required")
	}
	if cfg.Limits.MaxCandidatesPerSource < 0 {
		return fmt.Errorf("limits.max_candidates_per_source must be >= 0, got %d", cfg.Limits.MaxCandidatesPerSource)
	}
	if cfg.Quality.MinKeywordHits < 0 {
		return fmt.Errorf("quality.min_keyword_hits must be >= 0, got %d", cfg.Quality.MinKeywordHits)
	}
	if cfg.GDELT.ChunkDays <= 0 {
		return fmt.Errorf("gdelt.chunk_days must be > 0, got %d", cfg.GDELT.ChunkDays)
	}
	for name, site := range cfg.Forums.Sites {
		if site.Enabled && len(site.Boards) == 0 {
			return fmt.Errorf("forums.sites.%s: enabled but has no boards configured", name)
		}
	}
	return nil
}

package model

import "time"

// RoundPlan is the AutoCrawler's ephemeral planner output for one round.
type RoundPlan struct {
	Windows         map[string][]TimeRange `json:"windows"` // source -> windows
	YoutubeKeywords []string               `json:"youtube_keywords"`
	IncludeForums   bool                   `json:"include_forums"`
	MaxFetch        int                    `json:"max_fetch"`

	// ForumsUntilDate, when set, tells the forum discoverer to stop
	// paginating a board once its oldest-seen timestamp predates it.
	ForumsUntilDate *time.Time `json:"-"`

	// Deficits is surfaced for `autocrawl plan` (and `autocrawl run
	// --dry-run`) reporting; it is not consumed by Execute.
	Deficits map[string]map[string]int `json:"deficits,omitempty"`
}

// Package model holds the data types shared across discovery, fetch,
// extraction, and storage: Candidate, FetchResult, Document, AutoState and
// RoundPlan, as laid out in the system's data model.
package model

import "time"

// DiscoveredVia tags how a Candidate was found. Exactly one of the
// source-specific field groups is meaningful for a given Type.
type DiscoveredVia struct {
	Type string `json:"type"` // "news" | "video" | "forum"

	// news
	Keyword  string     `json:"keyword,omitempty"`
	Seendate string     `json:"seendate,omitempty"`
	Window   *TimeRange `json:"window,omitempty"`

	// forum
	Site  string `json:"site,omitempty"`
	Board string `json:"board,omitempty"`
	Page  int    `json:"page,omitempty"`
}

// TimeRange is a half-open [Start,End) UTC interval.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Candidate is a discovery hint: a URL plus provenance, not yet fetched.
type Candidate struct {
	URL             string         `json:"url"`
	Source          string         `json:"source"`
	DiscoveredVia   DiscoveredVia  `json:"discovered_via"`
	HintedTimestamp *time.Time     `json:"hinted_timestamp,omitempty"`
	Title           string         `json:"title,omitempty"`
	Extra           map[string]any `json:"extra,omitempty"`
}

// RobotsOverride reports whether this candidate should bypass the fetcher's
// own robots.txt check (set by forum sites configured with obey_robots=false).
func (c Candidate) RobotsOverride() bool {
	if c.Extra == nil {
		return false
	}
	v, ok := c.Extra["robots_override"].(bool)
	return ok && v
}

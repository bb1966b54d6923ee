package model

import "time"

// FetchResult is the outcome of a successful fetch: produced once per
// candidate and consumed once by the extractor.
type FetchResult struct {
	URL         string    `json:"url"`
	FetchedFrom string    `json:"fetched_from"` // always "live" in this implementation
	StatusCode  int       `json:"status_code"`
	HTML        string    `json:"html"`
	SnapshotURL string    `json:"snapshot_url,omitempty"`
	Encoding    string    `json:"encoding"`
	FetchedAt   time.Time `json:"fetched_at"`
}

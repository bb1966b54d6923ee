package pipeline

import "github.com/google/uuid"

// newRunID mints a fresh crawl.run_id (spec §3 Crawl.RunID).
func newRunID() string {
	return uuid.NewString()
}

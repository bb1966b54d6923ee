package model

import "time"

const StateSchemaVersion = 1

// YoutubeQuota tracks the daily unit budget for the video-API discoverer.
type YoutubeQuota struct {
	DailyQuota     int       `json:"daily_quota"`
	ReserveQuota   int       `json:"reserve_quota"`
	UsedToday      int       `json:"used_today"`
	PeriodStartUTC time.Time `json:"period_start_utc"`
}

// Available returns the remaining consumable units for "today", rolling the
// period over first if it has drifted to a new UTC day.
func (q *YoutubeQuota) Available(now time.Time) int {
	q.ensureDay(now)
	avail := q.DailyQuota - q.ReserveQuota - q.UsedToday
	if avail < 0 {
		return 0
	}
	return avail
}

// Consume deducts units from today's budget, rolling the day over first.
func (q *YoutubeQuota) Consume(now time.Time, units int) {
	q.ensureDay(now)
	q.UsedToday += units
}

func (q *YoutubeQuota) ensureDay(now time.Time) {
	y1, m1, d1 := q.PeriodStartUTC.UTC().Date()
	y2, m2, d2 := now.UTC().Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		q.UsedToday = 0
		q.PeriodStartUTC = time.Date(y2, m2, d2, 0, 0, 0, 0, time.UTC)
	}
}

// AutoState is the AutoCrawler's persistent planner state.
type AutoState struct {
	Version int `json:"version"`

	// Counts[bucket][source] = stored count for that month/source.
	Counts map[string]map[string]int `json:"counts"`
	// StoredBySource is the cumulative stored count per source.
	StoredBySource map[string]int `json:"stored_by_source"`

	Youtube         YoutubeQuota `json:"youtube"`
	YoutubeKwCursor int          `json:"youtube_kw_cursor"`

	// Cooldowns[bucket][source] = rounds remaining before it can be picked
	// again.
	Cooldowns map[string]map[string]int `json:"cooldowns"`

	BucketCursor int `json:"bucket_cursor"`

	// ForumCursors[boardURL] = next start page to paginate from.
	ForumCursors map[string]int `json:"forum_cursors"`

	LastUpdated time.Time `json:"last_updated"`
}

// NewAutoState returns a freshly initialized AutoState.
func NewAutoState() *AutoState {
	return &AutoState{
		Version:        StateSchemaVersion,
		Counts:         map[string]map[string]int{},
		StoredBySource: map[string]int{},
		Cooldowns:      map[string]map[string]int{},
		ForumCursors:   map[string]int{},
	}
}

// Bucket returns the "YYYY-MM" key for t.
func Bucket(t time.Time) string {
	return t.UTC().Format("2006-01")
}

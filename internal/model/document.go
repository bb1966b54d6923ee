package model

// Quality is the quality gate's verdict, attached to every stored Document.
type Quality struct {
	Score           float64  `json:"score"`
	Reasons         []string `json:"reasons,omitempty"`
	KeywordCoverage float64  `json:"keyword_coverage"`
	Length          int      `json:"length"`
	KeywordHits     int      `json:"keyword_hits"`
}

// Crawl records the provenance of the fetch that produced this Document.
type Crawl struct {
	RunID       string `json:"run_id"`
	FetchedAt   string `json:"fetched_at"` // ISO-8601 UTC
	FetchedFrom string `json:"fetched_from"`
}

// ForumComment is one comment attached to a forum Document.
type ForumComment struct {
	Author      string `json:"author"`
	Text        string `json:"text"`
	PublishedAt string `json:"publishedAt,omitempty"`
	ID          string `json:"id,omitempty"`
	Depth       int    `json:"depth,omitempty"`
	ReplyTo     string `json:"replyTo,omitempty"`
}

// ForumExtra is the extra.forum payload for forum Documents.
type ForumExtra struct {
	Site     string         `json:"site"`
	Board    string         `json:"board"`
	Comments []ForumComment `json:"comments,omitempty"`
}

// VideoComment is one comment attached to a video Document.
type VideoComment struct {
	Author      string `json:"author"`
	LikeCount   int    `json:"likeCount"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Text        string `json:"text"`
}

// VideoExtra is the extra.youtube payload for video Documents.
type VideoExtra struct {
	ID         string         `json:"id,omitempty"`
	Snippet    map[string]any `json:"snippet,omitempty"`
	Statistics map[string]any `json:"statistics,omitempty"`
	Comments   []VideoComment `json:"comments,omitempty"`
}

// Document is the canonical stored record.
type Document struct {
	ID            string        `json:"id"` // SHA-1 of the normalized URL
	Source        string        `json:"source"`
	URL           string        `json:"url"`
	SnapshotURL   string        `json:"snapshot_url,omitempty"`
	Title         string        `json:"title"`
	Text          string        `json:"text"`
	Lang          string        `json:"lang"` // three-letter code, or "und"
	PublishedAt   string        `json:"published_at"`
	Authors       []string      `json:"authors,omitempty"`
	DiscoveredVia DiscoveredVia `json:"discovered_via"`
	Quality       Quality       `json:"quality"`
	Crawl         Crawl         `json:"crawl"`
	Extra         any           `json:"extra,omitempty"` // *ForumExtra or *VideoExtra
}

// Package extract implements the canonical-document builder (C5): primary
// readability extraction, source-specific augmentation (video comments,
// forum comments), published_at inference, and the keyword-hits quality
// gate.
package extract

import (
	"context"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/kdevcrawl/corpuscrawler/internal/extract/forumcomments"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
	"github.com/kdevcrawl/corpuscrawler/internal/urlnorm"
)

// Rejection is the non-nil half of build_document's (Document?, Rejection?)
// result pair.
type Rejection struct {
	Status  string // "extract-failed" | "quality-reject"
	Reason  string
	Quality *model.Quality
}

// Config bundles the keyword/quality knobs from config.Config plus the
// env-sourced augmentation toggles the spec lists as CRAWLER_USER_AGENT's
// siblings (spec §6 Environment variables).
type Config struct {
	Keywords       []string
	AllowedLangs   []string
	MinKeywordHits int

	HTTPClient *http.Client

	Video VideoAugmentConfig

	ForumCommentsEnabled bool
	ForumCommentsMax     int
	FastCrawl            bool
}

// ConfigFromEnv layers the YOUTUBE_COMMENTS_*/FORUMS_COMMENTS_*/FAST_CRAWL
// environment variables onto the keyword/quality settings from config.Config.
func ConfigFromEnv(keywords, allowedLangs []string, minKeywordHits int, client *http.Client) Config {
	cfg := Config{
		Keywords:       keywords,
		AllowedLangs:   allowedLangs,
		MinKeywordHits: minKeywordHits,
		HTTPClient:     client,
		Video: VideoAugmentConfig{
			APIKey:         os.Getenv("YOUTUBE_API_KEY"),
			CommentsPages:  envInt("YOUTUBE_COMMENTS_PAGES", 1),
			IncludeReplies: envBool("YOUTUBE_COMMENTS_INCLUDE_REPLIES", false),
			Order:          envOr("YOUTUBE_COMMENTS_ORDER", "time"),
			TextFormat:     envOr("YOUTUBE_COMMENTS_TEXT_FORMAT", "plainText"),
			HTTPClient:     client,
		},
		ForumCommentsEnabled: envBool("FORUMS_COMMENTS_ENABLED", true),
		ForumCommentsMax:     envInt("FORUMS_COMMENTS_MAX", 50),
		FastCrawl:            envBool("FAST_CRAWL", false),
	}
	if cfg.FastCrawl {
		cfg.ForumCommentsEnabled = false
		cfg.Video.CommentsPages = 0
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// BuildDocument runs the four extraction stages over a fetched candidate and
// either returns a finished Document or a Rejection explaining why none was
// produced.
func BuildDocument(ctx context.Context, cand model.Candidate, fr *model.FetchResult, runID string, cfg Config) (*model.Document, *Rejection) {
	isVideo := cand.DiscoveredVia.Type == "video"
	isForum := cand.DiscoveredVia.Type == "forum"

	primary, ok := ExtractPrimary(fr.HTML, cand.URL)
	if !ok {
		switch {
		case isVideo:
			primary = PrimaryResult{Title: cand.Title}
		case isForum:
			primary = PrimaryResult{Title: FallbackTitle(fr.HTML, cand.Title)}
		default:
			return nil, &Rejection{Status: "extract-failed"}
		}
	}

	text := primary.Text
	title := primary.Title
	var videoExtra *model.VideoExtra
	var forumExtra *model.ForumExtra
	var commentTimestamps []string

	if isVideo {
		videoExtra, text = augmentVideo(ctx, cand, primary, cfg)
	}
	if isForum {
		forumExtra, text = augmentForum(ctx, cand, fr, primary, cfg)
		if forumExtra != nil {
			for _, c := range forumExtra.Comments {
				commentTimestamps = append(commentTimestamps, c.PublishedAt)
			}
		}
	}

	publishedAt := inferPublishedAt(primary.PublishedAt, isForum, text, fr.HTML, commentTimestamps, cand.HintedTimestamp)
	if publishedAt == "" && cand.HintedTimestamp != nil {
		publishedAt = cand.HintedTimestamp.UTC().Format(time.RFC3339)
	}

	lang := DetectLanguage(text)
	gate := EvaluateQuality(text, lang, cfg.Keywords, cfg.AllowedLangs, cfg.MinKeywordHits)
	quality := model.Quality{
		Score:           gate.Score,
		Reasons:         gate.Reasons,
		KeywordCoverage: gate.KeywordCoverage,
		Length:          gate.Length,
		KeywordHits:     gate.KeywordHits,
	}

	if !gate.Passed {
		return nil, &Rejection{Status: "quality-reject", Reason: "keyword_hits", Quality: &quality}
	}

	var extra any
	switch {
	case videoExtra != nil:
		extra = videoExtra
	case forumExtra != nil:
		extra = forumExtra
	}

	normalizedURL, err := urlnorm.Normalize(cand.URL)
	if err != nil {
		normalizedURL = cand.URL
	}

	doc := &model.Document{
		ID:            urlnorm.DocumentID(normalizedURL),
		Source:        cand.Source,
		URL:           normalizedURL,
		SnapshotURL:   fr.SnapshotURL,
		Title:         title,
		Text:          text,
		Lang:          lang,
		PublishedAt:   publishedAt,
		Authors:       primary.Authors,
		DiscoveredVia: cand.DiscoveredVia,
		Quality:       quality,
		Crawl: model.Crawl{
			RunID:       runID,
			FetchedAt:   fr.FetchedAt.UTC().Format(time.RFC3339),
			FetchedFrom: fr.FetchedFrom,
		},
		Extra: extra,
	}
	return doc, nil
}

func augmentVideo(ctx context.Context, cand model.Candidate, primary PrimaryResult, cfg Config) (*model.VideoExtra, string) {
	videoID := videoIDFromCandidate(cand)
	description := videoDescriptionFromCandidate(cand)

	comments, err := FetchVideoComments(ctx, videoID, cfg.Video)
	_ = err // a failed comment fetch still yields the base document text

	text := ComposeVideoText(primary.Title, description, primary.Text, comments)

	extra := &model.VideoExtra{ID: videoID, Comments: comments}
	if cand.Extra != nil {
		if yt, ok := cand.Extra["youtube"].(map[string]any); ok {
			if snippet, ok := yt["snippet"].(map[string]any); ok {
				extra.Snippet = snippet
			}
			extra.Statistics = statsAsMap(yt["statistics"])
		}
	}
	return extra, text
}

func augmentForum(ctx context.Context, cand model.Candidate, fr *model.FetchResult, primary PrimaryResult, cfg Config) (*model.ForumExtra, string) {
	text := primary.Text
	if !cfg.ForumCommentsEnabled {
		return nil, text
	}

	site := cand.DiscoveredVia.Site
	if site == "" {
		site = cand.Source
	}
	board := cand.DiscoveredVia.Board

	var comments []model.ForumComment
	if fetcher, ok := forumcomments.Lookup(site); ok {
		client := cfg.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		fetched, err := fetcher(ctx, client, cand.URL, fr.HTML)
		if err == nil {
			comments = fetched
		}
	} else {
		comments = genericCommentSweep(fr.HTML)
	}

	if cfg.ForumCommentsMax > 0 && len(comments) > cfg.ForumCommentsMax {
		comments = comments[:cfg.ForumCommentsMax]
	}

	if len(comments) > 0 {
		var joined []string
		for _, c := range comments {
			if c.Text != "" {
				joined = append(joined, c.Text)
			}
		}
		text = strings.TrimSpace(text + "\n\n" + strings.Join(joined, "\n"))
	}

	return &model.ForumExtra{Site: site, Board: board, Comments: comments}, text
}

// genericCommentSweep is the fallback when a site has no registered
// fetcher: a broad CSS-selector sweep across the comment container patterns
// the five known sites use (spec §4.5 Stage 2 "generic CSS-selector sweep").
func genericCommentSweep(html string) []model.ForumComment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	for _, sel := range []string{"div.comment", "li.comment", "div.reply"} {
		var out []model.ForumComment
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text == "" {
				return
			}
			out = append(out, model.ForumComment{Text: text})
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

const youtubeDataAPIBase = "https://www.googleapis.com/youtube/v3"

var reWatchV = regexp.MustCompile(`[?&]v=([^&]+)`)

// VideoAugmentConfig carries the YOUTUBE_COMMENTS_* knobs (spec §6
// Environment variables) that shape comment-thread pagination.
type VideoAugmentConfig struct {
	APIKey          string
	CommentsPages   int
	IncludeReplies  bool
	Order           string // "time" | "relevance"
	TextFormat      string // "html" | "plainText"
	HTTPClient      *http.Client
}

// videoIDFromCandidate recovers the YouTube video ID from extra.youtube.id
// or, failing that, the v= query parameter (spec §4.5 Stage 2).
func videoIDFromCandidate(cand model.Candidate) string {
	if cand.Extra != nil {
		if yt, ok := cand.Extra["youtube"].(map[string]any); ok {
			if id, ok := yt["id"].(string); ok && id != "" {
				return id
			}
		}
	}
	if m := reWatchV.FindStringSubmatch(cand.URL); len(m) == 2 {
		return m[1]
	}
	return ""
}

type ytCommentThreadResp struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			TopLevelComment struct {
				Snippet ytCommentSnippet `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
		Replies struct {
			Comments []struct {
				Snippet ytCommentSnippet `json:"snippet"`
			} `json:"comments"`
		} `json:"replies"`
	} `json:"items"`
}

type ytCommentSnippet struct {
	AuthorDisplayName     string `json:"authorDisplayName"`
	TextDisplay           string `json:"textDisplay"`
	TextOriginal          string `json:"textOriginal"`
	LikeCount             int    `json:"likeCount"`
	PublishedAt           string `json:"publishedAt"`
}

func (s ytCommentSnippet) text(textFormat string) string {
	if textFormat == "html" {
		return stripHTMLTags(s.TextDisplay)
	}
	if s.TextOriginal != "" {
		return s.TextOriginal
	}
	return stripHTMLTags(s.TextDisplay)
}

var reHTMLTag = regexp.MustCompile(`<[^>]*>`)

func stripHTMLTags(s string) string {
	return strings.TrimSpace(reHTMLTag.ReplaceAllString(s, ""))
}

// FetchVideoComments pages through commentThreads for videoID up to
// cfg.CommentsPages pages, optionally including one level of replies.
func FetchVideoComments(ctx context.Context, videoID string, cfg VideoAugmentConfig) ([]model.VideoComment, error) {
	if cfg.APIKey == "" || videoID == "" {
		return nil, nil
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	order := cfg.Order
	if order == "" {
		order = "time"
	}
	textFormat := cfg.TextFormat
	if textFormat == "" {
		textFormat = "plainText"
	}

	var out []model.VideoComment
	pageToken := ""
	pages := cfg.CommentsPages
	if pages <= 0 {
		return nil, nil
	}

	for page := 0; page < pages; page++ {
		params := url.Values{}
		params.Set("part", "snippet,replies")
		params.Set("videoId", videoID)
		params.Set("order", order)
		params.Set("textFormat", textFormat)
		params.Set("maxResults", "100")
		params.Set("key", cfg.APIKey)
		if pageToken != "" {
			params.Set("pageToken", pageToken)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, youtubeDataAPIBase+"/commentThreads?"+params.Encode(), nil)
		if err != nil {
			return out, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return out, fmt.Errorf("youtube commentThreads: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return out, fmt.Errorf("youtube commentThreads %d: %s", resp.StatusCode, string(body))
		}

		var parsed ytCommentThreadResp
		err = json.NewDecoder(resp.Body).Decode(&parsed)
		resp.Body.Close()
		if err != nil {
			return out, fmt.Errorf("decode commentThreads: %w", err)
		}

		for _, item := range parsed.Items {
			top := item.Snippet.TopLevelComment.Snippet
			out = append(out, model.VideoComment{
				Author:      top.AuthorDisplayName,
				LikeCount:   top.LikeCount,
				PublishedAt: top.PublishedAt,
				Text:        top.text(textFormat),
			})
			if cfg.IncludeReplies {
				for _, reply := range item.Replies.Comments {
					out = append(out, model.VideoComment{
						Author:      reply.Snippet.AuthorDisplayName,
						LikeCount:   reply.Snippet.LikeCount,
						PublishedAt: reply.Snippet.PublishedAt,
						Text:        reply.Snippet.text(textFormat),
					})
				}
			}
		}

		if parsed.NextPageToken == "" {
			break
		}
		pageToken = parsed.NextPageToken
	}

	return out, nil
}

// ComposeVideoText builds the document body for video candidates: title,
// description, the (possibly empty) base extraction, then joined comments.
func ComposeVideoText(title, description, baseText string, comments []model.VideoComment) string {
	var joined []string
	for _, c := range comments {
		if c.Text == "" {
			continue
		}
		joined = append(joined, c.Text)
	}

	parts := []string{title, description, baseText, strings.Join(joined, "\n")}
	var nonEmpty []string
	for _, p := range parts {
		nonEmpty = append(nonEmpty, p)
	}
	return strings.Join(nonEmpty, "\n\n")
}

func videoDescriptionFromCandidate(cand model.Candidate) string {
	if cand.Extra == nil {
		return ""
	}
	yt, ok := cand.Extra["youtube"].(map[string]any)
	if !ok {
		return ""
	}
	snippet, ok := yt["snippet"].(map[string]any)
	if !ok {
		return ""
	}
	desc, _ := snippet["description"].(string)
	return desc
}

// statsAsMap converts whatever numeric-ish statistics bag a candidate
// carries into the string-keyed map.any shape model.VideoExtra expects.
func statsAsMap(v any) map[string]any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

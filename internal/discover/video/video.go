// Package video implements the YouTube-style Video-API discoverer (C3): a
// search call per keyword followed by a details call batching the returned
// video IDs.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

const youtubeDataAPIBase = "https://www.googleapis.com/youtube/v3"

// Config carries the Video-API discoverer's knobs.
type Config struct {
	APIKey     string
	MaxResults int
	HTTPClient *http.Client
}

type ytSearchResp struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type ytVideoItem struct {
	ID         string         `json:"id"`
	Snippet    map[string]any `json:"snippet"`
	Statistics map[string]any `json:"statistics"`
}

type ytVideosResp struct {
	Items []ytVideoItem `json:"items"`
}

// Discover issues one search request per keyword and a follow-up videos
// request to enrich each hit with snippet/contentDetails/statistics.
func Discover(ctx context.Context, keywords []string, window model.TimeRange, cfg Config) ([]model.Candidate, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 25
	}

	var out []model.Candidate
	for _, keyword := range keywords {
		ids, err := search(ctx, client, keyword, window, maxResults, cfg.APIKey)
		if err != nil {
			return out, err
		}
		if len(ids) == 0 {
			continue
		}
		items, err := videoDetails(ctx, client, ids, cfg.APIKey)
		if err != nil {
			return out, err
		}
		for _, item := range items {
			out = append(out, toCandidate(item, keyword))
		}
	}
	return out, nil
}

func search(ctx context.Context, client *http.Client, keyword string, window model.TimeRange, maxResults int, apiKey string) ([]string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", keyword)
	params.Set("type", "video")
	params.Set("order", "date")
	params.Set("maxResults", strconv.Itoa(maxResults))
	params.Set("key", apiKey)
	if !window.Start.IsZero() {
		params.Set("publishedAfter", window.Start.UTC().Format(time.RFC3339))
	}
	if !window.End.IsZero() {
		params.Set("publishedBefore", window.End.UTC().Format(time.RFC3339))
	}

	var parsed ytSearchResp
	if err := getJSON(ctx, client, youtubeDataAPIBase+"/search?"+params.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}

	ids := make([]string, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	return ids, nil
}

func videoDetails(ctx context.Context, client *http.Client, ids []string, apiKey string) ([]ytVideoItem, error) {
	params := url.Values{}
	params.Set("part", "snippet,contentDetails,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", apiKey)

	var parsed ytVideosResp
	if err := getJSON(ctx, client, youtubeDataAPIBase+"/videos?"+params.Encode(), &parsed); err != nil {
		return nil, fmt.Errorf("youtube videos: %w", err)
	}
	return parsed.Items, nil
}

func toCandidate(item ytVideoItem, keyword string) model.Candidate {
	var hinted *time.Time
	if publishedAt, ok := item.Snippet["publishedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, publishedAt); err == nil {
			hinted = &t
		}
	}
	title, _ := item.Snippet["title"].(string)

	return model.Candidate{
		URL:    "https://www.youtube.com/watch?v=" + item.ID,
		Source: "youtube",
		DiscoveredVia: model.DiscoveredVia{
			Type:    "video",
			Keyword: keyword,
		},
		HintedTimestamp: hinted,
		Title:           title,
		Extra: map[string]any{
			"youtube": map[string]any{
				"id":         item.ID,
				"snippet":    item.Snippet,
				"statistics": item.Statistics,
			},
		},
	}
}

func getJSON(ctx context.Context, client *http.Client, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

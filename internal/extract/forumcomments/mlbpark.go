package forumcomments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// FetchMLBPark implements the mlbpark-style comment protocol: the same
// script that serves the thread also serves its comments when called with
// m=reply instead of the article mode parameter.
func FetchMLBPark(ctx context.Context, client *http.Client, threadURL, pageHTML string) ([]model.ForumComment, error) {
	u, err := url.Parse(threadURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("m", "reply")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mlbpark m=reply: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mlbpark m=reply: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("mlbpark parse: %w", err)
	}

	var out []model.ForumComment
	doc.Find("div.other_con").Each(func(i int, s *goquery.Selection) {
		author := strings.TrimSpace(s.Find(".nick, .writer").First().Text())
		text := strings.TrimSpace(s.Find(".re_txt, .txt").First().Text())
		publishedAt := strings.TrimSpace(s.Find(".date, .time").First().Text())
		ip, _ := s.Find(".ip").First().Attr("title")
		if text == "" {
			text = strings.TrimSpace(s.Text())
		}
		if author != "" && ip != "" {
			author = author + "(" + ip + ")"
		}
		out = append(out, model.ForumComment{
			Author:      author,
			Text:        text,
			PublishedAt: publishedAt,
			ID:          fmt.Sprintf("%d", i),
		})
	})
	return out, nil
}

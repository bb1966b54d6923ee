package forumcomments

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

var (
	reBobaeTb  = regexp.MustCompile(`tb=([A-Za-z0-9_]+)`)
	reBobaeWid = regexp.MustCompile(`wid=(\d+)`)
)

// FetchBobaedream implements the bobaedream-style comment protocol: the
// thread/board codes live in the page HTML as tb=/wid= tokens, fed to a
// comment_list.php listing endpoint.
func FetchBobaedream(ctx context.Context, client *http.Client, threadURL, pageHTML string) ([]model.ForumComment, error) {
	tbMatch := reBobaeTb.FindStringSubmatch(pageHTML)
	widMatch := reBobaeWid.FindStringSubmatch(pageHTML)
	if len(tbMatch) != 2 || len(widMatch) != 2 {
		return nil, fmt.Errorf("bobaedream: could not find tb/wid tokens in page")
	}
	no := queryParam(threadURL, "No")
	if no == "" {
		no = queryParam(threadURL, "no")
	}

	params := url.Values{}
	params.Set("code", tbMatch[1])
	params.Set("No", no)
	params.Set("page", "1")
	params.Set("strLimit", "1000")
	params.Set("wid", widMatch[1])

	base, err := url.Parse(threadURL)
	if err != nil {
		return nil, err
	}
	endpoint := fmt.Sprintf("%s://%s/view/comment_list.php?%s", base.Scheme, base.Host, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bobaedream comment_list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bobaedream comment_list: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("bobaedream parse: %w", err)
	}

	var out []model.ForumComment
	doc.Find(`dd[id^=small_cmt_]`).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		id = strings.TrimPrefix(id, "small_cmt_")
		author := strings.TrimSpace(s.Find(".cmt_nick, .writer").First().Text())
		text := strings.TrimSpace(s.Find(".cmt_txt, .txt").First().Text())
		publishedAt := strings.TrimSpace(s.Find(".cmt_date, .date").First().Text())
		if text == "" {
			text = strings.TrimSpace(s.Text())
		}
		out = append(out, model.ForumComment{
			Author:      author,
			Text:        text,
			PublishedAt: publishedAt,
			ID:          id,
		})
	})
	return out, nil
}

package forumcomments

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

var reHHMMSS = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}`)

// FetchPpomppu implements the ppomppu-style comment protocol: comments are
// often already inline on the thread page; when they're not, a secondary
// comment.php request is tried, and PPOMPPU_ID/PPOMPPU_PW drive one login
// retry when that also comes back empty.
func FetchPpomppu(ctx context.Context, client *http.Client, threadURL, pageHTML string) ([]model.ForumComment, error) {
	if comments := parsePpomppuComments(pageHTML); len(comments) > 0 {
		return comments, nil
	}

	u, err := url.Parse(threadURL)
	if err != nil {
		return nil, err
	}

	session := newSessionClient(client, newJar())
	comments, err := fetchPpomppuCommentPage(ctx, session, u)
	if err != nil {
		return nil, err
	}
	if len(comments) > 0 {
		return comments, nil
	}

	id := os.Getenv("PPOMPPU_ID")
	pw := os.Getenv("PPOMPPU_PW")
	if !hasCredentials(id, pw) {
		return nil, nil
	}
	if err := ppomppuLogin(ctx, session, u, id, pw); err != nil {
		return nil, nil
	}
	return fetchPpomppuCommentPage(ctx, session, u)
}

func parsePpomppuComments(html string) []model.ForumComment {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var out []model.ForumComment
	doc.Find(`div[class^=comment_line]`).Each(func(_ int, s *goquery.Selection) {
		author := strings.TrimSpace(s.Find(".nick, .name").First().Text())
		text := strings.TrimSpace(s.Find(".comment_view, .txt").First().Text())
		if text == "" {
			text = strings.TrimSpace(s.Text())
		}
		publishedAt := reHHMMSS.FindString(s.Text())
		if text == "" {
			return
		}
		out = append(out, model.ForumComment{Author: author, Text: text, PublishedAt: publishedAt})
	})
	return out
}

func fetchPpomppuCommentPage(ctx context.Context, client *http.Client, u *url.URL) ([]model.ForumComment, error) {
	no := queryParam(u.String(), "no")
	params := url.Values{}
	params.Set("no", no)
	endpoint := fmt.Sprintf("%s://%s/zboard/comment.php?%s", u.Scheme, u.Host, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ppomppu comment.php: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}

	body := new(bytes.Buffer)
	if _, err := body.ReadFrom(resp.Body); err != nil {
		return nil, fmt.Errorf("ppomppu read body: %w", err)
	}
	return parsePpomppuComments(body.String()), nil
}

func ppomppuLogin(ctx context.Context, client *http.Client, u *url.URL, id, pw string) error {
	form := url.Values{}
	form.Set("user_id", id)
	form.Set("password", pw)

	endpoint := fmt.Sprintf("%s://%s/zboard/zblogin.php", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("ppomppu login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("ppomppu login: status %d", resp.StatusCode)
	}
	return nil
}

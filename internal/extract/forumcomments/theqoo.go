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

var reTheqooDocumentSrl = regexp.MustCompile(`/(\d+)(?:[/?]|$)`)

// FetchTheqoo implements the theqoo-style comment protocol: an XHR
// board-content-comment-list endpoint keyed by mid and document_srl. A 400
// or empty body is treated as "not logged in"; THEQOO_ID/THEQOO_PW from the
// environment drive one login retry.
func FetchTheqoo(ctx context.Context, client *http.Client, threadURL, pageHTML string) ([]model.ForumComment, error) {
	u, err := url.Parse(threadURL)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 1 {
		return nil, fmt.Errorf("theqoo: could not parse mid from %s", threadURL)
	}
	mid := parts[0]

	documentSrl := queryParam(threadURL, "document_srl")
	if documentSrl == "" {
		if m := reTheqooDocumentSrl.FindStringSubmatch(u.Path); len(m) == 2 {
			documentSrl = m[1]
		}
	}
	if documentSrl == "" {
		return nil, fmt.Errorf("theqoo: could not parse document_srl from %s", threadURL)
	}

	session := newSessionClient(client, newJar())

	comments, status, err := fetchTheqooComments(ctx, session, u, mid, documentSrl)
	if err != nil {
		return nil, err
	}
	if status != http.StatusBadRequest && len(comments) > 0 {
		return comments, nil
	}

	id := os.Getenv("THEQOO_ID")
	pw := os.Getenv("THEQOO_PW")
	if !hasCredentials(id, pw) {
		return comments, nil
	}
	if err := theqooLogin(ctx, session, u, pageHTML, id, pw); err != nil {
		return comments, nil
	}

	comments, _, err = fetchTheqooComments(ctx, session, u, mid, documentSrl)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func fetchTheqooComments(ctx context.Context, client *http.Client, u *url.URL, mid, documentSrl string) ([]model.ForumComment, int, error) {
	params := url.Values{}
	params.Set("mid", mid)
	params.Set("document_srl", documentSrl)
	endpoint := fmt.Sprintf("%s://%s/index.php?module=board&act=dispBoardContentCommentList&%s", u.Scheme, u.Host, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("theqoo comment list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("theqoo parse: %w", err)
	}

	var out []model.ForumComment
	sel := doc.Find(".comment_wrap, .fdb_lst_wrp li, .xe_content .comment")
	sel.Each(func(_ int, s *goquery.Selection) {
		author := strings.TrimSpace(s.Find(".author, .writer").First().Text())
		text := strings.TrimSpace(s.Find(".comment_content, .xe_content").First().Text())
		publishedAt := strings.TrimSpace(s.Find(".date, time").First().Text())
		id, _ := s.Attr("id")
		if text == "" {
			return
		}
		out = append(out, model.ForumComment{Author: author, Text: text, PublishedAt: publishedAt, ID: id})
	})
	return out, resp.StatusCode, nil
}

func theqooLogin(ctx context.Context, client *http.Client, u *url.URL, loginPageHTML, id, pw string) error {
	csrf := csrfTokenFromMeta(loginPageHTML)

	form := url.Values{}
	form.Set("user_id", id)
	form.Set("password", pw)
	if csrf != "" {
		form.Set("_csrf", csrf)
	}

	endpoint := fmt.Sprintf("%s://%s/index.php?module=member&act=procMemberLogin", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("theqoo login: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("theqoo login: status %d", resp.StatusCode)
	}
	return nil
}

func csrfTokenFromMeta(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	token, _ := doc.Find(`meta[name="csrf-token"]`).First().Attr("content")
	return strings.TrimSpace(token)
}

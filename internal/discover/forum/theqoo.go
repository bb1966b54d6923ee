package forum

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// theqoo-style board listings (an XE/Rhymix board): /{mid}?page={n}, rows
// in table.bd_lst_wrp tr with the thread link carrying document_srl in its
// href, title under td.title a, author/date in sibling tds.
var theqooSite = SiteDef{
	PageURL: func(board string, page int) string {
		return setQueryParam(board, "page", strconv.Itoa(page))
	},
	Parse: func(doc *goquery.Document, pageURL string) []ThreadHit {
		var out []ThreadHit
		doc.Find("table.bd_lst_wrp tr, table tr").Each(func(_ int, s *goquery.Selection) {
			link := s.Find("td.title a, a.hx").First()
			href, ok := link.Attr("href")
			if !ok || href == "" {
				return
			}
			title := strings.TrimSpace(link.Text())
			author := strings.TrimSpace(s.Find(".writer, .author").First().Text())
			raw := strings.TrimSpace(s.Find(".date, .regdate").First().Text())
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

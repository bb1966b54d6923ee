// Package forumcomments implements the five site-specific comment fetchers
// named in the extractor's forum augmentation stage: dcinside, bobaedream,
// mlbpark, theqoo, and ppomppu each expose comments through a different
// secondary endpoint, so each gets its own small client rather than a
// shared generic scraper.
package forumcomments

import (
	"context"
	"net/http"

	"github.com/kdevcrawl/corpuscrawler/internal/model"
)

// Fetcher fetches the comment list for one forum thread. pageHTML is the
// already-fetched thread page HTML (some sites embed comments inline and
// never need a secondary request); threadURL is the thread URL as the
// discoverer emitted it (not normalized).
type Fetcher func(ctx context.Context, client *http.Client, threadURL, pageHTML string) ([]model.ForumComment, error)

// registry maps a forum site key (matching config.Forums.Sites and
// Candidate.Source) to its comment fetcher.
var registry = map[string]Fetcher{
	"dcinside":   FetchDCInside,
	"bobaedream": FetchBobaedream,
	"mlbpark":    FetchMLBPark,
	"theqoo":     FetchTheqoo,
	"ppomppu":    FetchPpomppu,
}

// Lookup returns the comment fetcher for site, if one is registered.
func Lookup(site string) (Fetcher, bool) {
	f, ok := registry[site]
	return f, ok
}

// newSessionClient returns an HTTP client with its own cookie jar so that
// any login performed for this call doesn't leak into the shared fetcher
// client or persist across unrelated threads.
func newSessionClient(base *http.Client, jar http.CookieJar) *http.Client {
	c := &http.Client{Jar: jar}
	if base != nil {
		c.Transport = base.Transport
		c.Timeout = base.Timeout
	}
	return c
}

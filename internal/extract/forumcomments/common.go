package forumcomments

import (
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
)

var reHTMLTag = regexp.MustCompile(`<[^>]*>`)

func stripTags(s string) string {
	return strings.TrimSpace(reHTMLTag.ReplaceAllString(s, ""))
}

// queryParam extracts a single query parameter from rawURL, tolerating
// already-escaped values.
func queryParam(rawURL, key string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

// pathSegment returns the last non-empty path segment of rawURL, used by
// sites that encode the thread ID in the path rather than the query string.
func pathSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func newJar() *cookiejar.Jar {
	jar, _ := cookiejar.New(nil)
	return jar
}

// hasCredentials reports whether both an id and password env var are
// non-empty; absence of either means "skip login" (spec §4.5 comment
// fetchers).
func hasCredentials(id, pw string) bool {
	return id != "" && pw != ""
}

// Package urlnorm implements URL canonicalization and the persistent
// DocumentIndex that guarantees exactly-once storage (C2).
package urlnorm

import (
	"crypto/sha1" //nolint:gosec // content-addressing, not a security boundary
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

var utmParams = map[string]bool{
	"utm_source":   true,
	"utm_medium":   true,
	"utm_campaign": true,
	"utm_term":     true,
	"utm_content":  true,
}

// Normalize canonicalizes a URL per spec §4.2: lower-case scheme/host, drop
// default ports, ensure a leading slash, sort query params, strip UTM
// params, drop the fragment, strip a trailing bare "?".
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	host = stripDefaultPort(host, u.Scheme)
	u.Host = host

	if u.Path == "" {
		u.Path = "/"
	}

	q := u.Query()
	for k := range utmParams {
		q.Del(k)
	}
	u.RawQuery = sortedQuery(q)
	u.Fragment = ""
	u.RawFragment = ""

	s := u.String()
	s = strings.TrimSuffix(s, "?")
	return s, nil
}

func stripDefaultPort(host, scheme string) string {
	const (
		httpPort  = ":80"
		httpsPort = ":443"
	)
	switch scheme {
	case "http":
		return strings.TrimSuffix(host, httpPort)
	case "https":
		return strings.TrimSuffix(host, httpsPort)
	default:
		return host
	}
}

// sortedQuery renders q with keys (and repeated values) in sorted order, so
// that equivalent query strings always normalize identically.
func sortedQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		vals := append([]string(nil), q[k]...)
		sort.Strings(vals)
		for j, v := range vals {
			if i > 0 || j > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

// DocumentID derives the deterministic storage ID for a normalized URL:
// SHA-1 of the normalized form, hex-encoded.
func DocumentID(normalizedURL string) string {
	sum := sha1.Sum([]byte(normalizedURL)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// IsBareDomain reports whether a normalized URL looks like a homepage or
// robots.txt resource rather than a real article/thread — the pipeline's
// merge step drops these as discovery noise (spec §4.6 step 1): a URL with
// at most 2 slashes total ("scheme://host"), or one whose path is empty or
// "/" with no query ("scheme://host/").
func IsBareDomain(normalizedURL string) bool {
	if strings.HasSuffix(normalizedURL, "robots.txt") {
		return true
	}
	if strings.Count(normalizedURL, "/") <= 2 {
		return true
	}
	u, err := url.Parse(normalizedURL)
	if err != nil {
		return true
	}
	return strings.Trim(u.Path, "/") == "" && u.RawQuery == ""
}

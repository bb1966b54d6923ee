package extract

import (
	"regexp"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
)

// dateToken is one candidate timestamp found while scanning text for a
// publication date (spec §4.5 Stage 3).
type dateToken struct {
	t       time.Time
	hasTime bool
}

// datetime patterns tolerating '.', '-', '/' separators and optional time,
// checked in order from most to least specific so the first regex to match
// a given substring wins.
var (
	reDateTime4 = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})[ T](\d{1,2}):(\d{2})(?::(\d{2}))?`)
	reDateOnly4 = regexp.MustCompile(`(\d{4})[.\-/](\d{1,2})[.\-/](\d{1,2})`)
	reDateTime2 = regexp.MustCompile(`(\d{2})[.\-/](\d{1,2})[.\-/](\d{1,2})[ T](\d{1,2}):(\d{2})(?::(\d{2}))?`)
	reDateOnly2 = regexp.MustCompile(`(\d{2})[.\-/](\d{1,2})[.\-/](\d{1,2})`)
)

// normalizePublishedAt parses a raw published_at string extracted by stage 1
// into RFC3339 UTC. ISO-8601 (anything dateparse can already make sense of)
// is tried first; a regex battery tolerating the loose separators used by
// Korean news and forum sites is the fallback.
func normalizePublishedAt(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	if t, err := dateparse.ParseAny(raw); err == nil {
		return t.UTC().Format(time.RFC3339), true
	}
	if tok, ok := bestDateToken(raw); ok {
		return tok.t.UTC().Format(time.RFC3339), true
	}
	return "", false
}

// bestDateToken scans s for every datetime/date-only token matched by the
// regex battery and returns the one with time (over date-only) and, within
// that group, the latest.
func bestDateToken(s string) (dateToken, bool) {
	var best dateToken
	found := false

	consider := func(tok dateToken, ok bool) {
		if !ok {
			return
		}
		if !found {
			best, found = tok, true
			return
		}
		if tok.hasTime != best.hasTime {
			if tok.hasTime {
				best = tok
			}
			return
		}
		if tok.t.After(best.t) {
			best = tok
		}
	}

	for _, m := range reDateTime4.FindAllStringSubmatch(s, -1) {
		consider(parseDateTimeMatch(m, 4))
	}
	for _, m := range reDateTime2.FindAllStringSubmatch(s, -1) {
		consider(parseDateTimeMatch(m, 2))
	}
	for _, m := range reDateOnly4.FindAllStringSubmatch(s, -1) {
		consider(parseDateOnlyMatch(m, 4))
	}
	for _, m := range reDateOnly2.FindAllStringSubmatch(s, -1) {
		consider(parseDateOnlyMatch(m, 2))
	}

	return best, found
}

func parseDateTimeMatch(m []string, yearDigits int) (dateToken, bool) {
	if len(m) < 6 {
		return dateToken{}, false
	}
	year, ok := fullYear(m[1], yearDigits)
	if !ok {
		return dateToken{}, false
	}
	month := atoiOr(m[2], -1)
	day := atoiOr(m[3], -1)
	hour := atoiOr(m[4], -1)
	minute := atoiOr(m[5], -1)
	second := 0
	if len(m) > 6 && m[6] != "" {
		second = atoiOr(m[6], 0)
	}
	if !validYMD(year, month, day) || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return dateToken{}, false
	}
	return dateToken{
		t:       time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC),
		hasTime: true,
	}, true
}

func parseDateOnlyMatch(m []string, yearDigits int) (dateToken, bool) {
	if len(m) < 4 {
		return dateToken{}, false
	}
	year, ok := fullYear(m[1], yearDigits)
	if !ok {
		return dateToken{}, false
	}
	month := atoiOr(m[2], -1)
	day := atoiOr(m[3], -1)
	if !validYMD(year, month, day) {
		return dateToken{}, false
	}
	return dateToken{t: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), hasTime: false}, true
}

func fullYear(raw string, digits int) (int, bool) {
	y := atoiOr(raw, -1)
	if y < 0 {
		return 0, false
	}
	if digits == 2 {
		if len(raw) != 2 {
			return 0, false
		}
		if y <= 69 {
			y += 2000
		} else {
			y += 1900
		}
	} else if len(raw) != 4 {
		return 0, false
	}
	return y, true
}

func validYMD(year, month, day int) bool {
	if year < 1990 || year > 2100 {
		return false
	}
	if month < 1 || month > 12 {
		return false
	}
	if day < 1 || day > 31 {
		return false
	}
	return true
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

// inferPublishedAt implements stage 3 in full: normalize the extractor's own
// published_at, then for forum candidates fall back to scanning text, raw
// HTML, and comment timestamps, and finally the candidate's hinted
// timestamp.
func inferPublishedAt(extractorRaw string, isForum bool, text, rawHTML string, commentTimestamps []string, hinted *time.Time) string {
	if v, ok := normalizePublishedAt(extractorRaw); ok {
		return v
	}

	if isForum {
		var sources []string
		sources = append(sources, text, rawHTML)
		sources = append(sources, commentTimestamps...)

		found := false
		var best dateToken
		for _, s := range sources {
			tok, ok := bestDateToken(s)
			if !ok {
				continue
			}
			if !found {
				best, found = tok, true
				continue
			}
			if tok.hasTime != best.hasTime {
				if tok.hasTime {
					best = tok
				}
				continue
			}
			if tok.t.After(best.t) {
				best = tok
			}
		}
		if found {
			return best.t.UTC().Format(time.RFC3339)
		}
	}

	if hinted != nil {
		return hinted.UTC().Format(time.RFC3339)
	}
	return ""
}

package extract

import "strings"

// QualityGate is stage 4's verdict before a model.Quality is attached to a
// Document (spec §4.5 Stage 4).
type QualityGate struct {
	Lang            string
	Score           float64
	Reasons         []string
	KeywordCoverage float64
	Length          int
	KeywordHits     int
	Passed          bool
}

// EvaluateQuality scores extracted text against the configured keyword list
// and allowed languages, and decides whether the document clears
// min_keyword_hits.
func EvaluateQuality(text, lang string, keywords, allowedLangs []string, minKeywordHits int) QualityGate {
	lowerText := strings.ToLower(text)

	hits := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(lowerText, kw) {
			hits++
		}
	}

	coverage := 0.0
	if len(keywords) > 0 {
		coverage = float64(hits) / float64(len(keywords))
	}

	langAllowed := containsFold(allowedLangs, lang)
	hitsOK := hits >= minKeywordHits

	score := 0.0
	var reasons []string
	if langAllowed {
		score += 0.3
	} else {
		reasons = append(reasons, "lang")
	}
	if hitsOK {
		score += 0.2
	} else {
		reasons = append(reasons, "keyword_hits")
	}

	return QualityGate{
		Lang:            lang,
		Score:           score,
		Reasons:         reasons,
		KeywordCoverage: coverage,
		Length:          len([]rune(text)),
		KeywordHits:     hits,
		Passed:          hitsOK,
	}
}

func containsFold(list []string, v string) bool {
	v = strings.ToLower(v)
	for _, s := range list {
		if strings.ToLower(s) == v {
			return true
		}
	}
	return false
}

package extract

import (
	"strings"
	"sync"

	"github.com/RadhiFadlillah/whatlanggo"
)

// langDetectOnce guards whatlanggo's package-level trigram tables, which are
// built lazily on first use; detection is deterministic once warmed, so
// repeated calls on the same text always agree.
var langDetectOnce sync.Once

func warmLangDetector() {
	langDetectOnce.Do(func() {
		whatlanggo.Detect("warmup")
	})
}

// DetectLanguage returns a three-letter ISO 639-3 code, or "und" when the
// text is too short or ambiguous for whatlanggo to commit to a language.
func DetectLanguage(text string) string {
	warmLangDetector()

	text = strings.TrimSpace(text)
	if text == "" {
		return "und"
	}

	info := whatlanggo.Detect(text)
	if info.Lang == whatlanggo.Und {
		return "und"
	}
	return info.Lang.Iso6393()
}

package source

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/researchaccelerator-hub/comment-insights/audience"
	"github.com/researchaccelerator-hub/comment-insights/model"
)

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// isURLOnly reports whether the text contains at least one URL and
// nothing else once URLs are stripped.
func isURLOnly(text string) bool {
	stripped := strings.TrimSpace(urlPattern.ReplaceAllString(text, ""))
	return stripped == "" && urlPattern.MatchString(text)
}

// FilterComments drops comments below the minimum length and comments
// that are only URLs. When filterLanguage is set and a detector is
// available, only comments detected as that language survive. Order is
// preserved.
func FilterComments(comments []model.RawComment, minLength int, filterLanguage string, detector audience.LanguageDetector) []model.RawComment {
	if filterLanguage != "" && detector == nil {
		log.Warn().Str("filterLanguage", filterLanguage).Msg("Language filter requested but no detector available, skipping language filtering")
	}

	kept := make([]model.RawComment, 0, len(comments))
	for _, c := range comments {
		if utf8.RuneCountInString(c.Text) < minLength {
			continue
		}
		if isURLOnly(c.Text) {
			continue
		}
		if filterLanguage != "" && detector != nil {
			code, ok := detector.Detect(c.Text)
			if !ok || code != filterLanguage {
				continue
			}
		}
		kept = append(kept, c)
	}

	log.Debug().Int("kept", len(kept)).Int("total", len(comments)).Msg("Filtered comments")
	return kept
}

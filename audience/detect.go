package audience

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LanguageDetector identifies the language of a comment text, returning a
// lowercase ISO 639-1 code. Detection failures report ok=false and the
// text counts as "unknown".
type LanguageDetector interface {
	Detect(text string) (code string, ok bool)
}

// linguaDetector wraps the lingua language detector.
type linguaDetector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector over all supported languages. Building
// the model is expensive, so callers should construct one per run and
// share it.
func NewDetector() LanguageDetector {
	return &linguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().FromAllLanguages().Build(),
	}
}

func (d *linguaDetector) Detect(text string) (string, bool) {
	language, exists := d.detector.DetectLanguageOf(text)
	if !exists {
		return "", false
	}
	return strings.ToLower(language.IsoCode639_1().String()), true
}

// languageNames maps ISO 639-1 codes to display names for reporting.
var languageNames = map[string]string{
	"cs": "Czech", "sk": "Slovak", "en": "English", "de": "German",
	"pl": "Polish", "hu": "Hungarian", "ru": "Russian", "fr": "French",
	"es": "Spanish", "it": "Italian", "pt": "Portuguese", "nl": "Dutch",
	"sv": "Swedish", "da": "Danish", "no": "Norwegian", "fi": "Finnish",
	"ar": "Arabic", "zh": "Chinese", "ja": "Japanese", "ko": "Korean",
	"hi": "Hindi", "tr": "Turkish", "unknown": "Unknown",
}

// languageName resolves a code to its display name, falling back to the
// uppercased code for languages outside the map.
func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

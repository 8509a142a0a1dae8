// Package langdetect tags finished transcripts with a best-effort
// ISO 639-1 language code.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector wraps a lingua language detector. The zero value is not usable;
// construct with New.
type Detector struct {
	inner lingua.LanguageDetector
}

// New builds a detector over all spoken languages. Model data loads lazily
// on first detection, so construction is cheap.
func New() *Detector {
	return &Detector{
		inner: lingua.NewLanguageDetectorBuilder().
			FromAllSpokenLanguages().
			WithLowAccuracyMode().
			Build(),
	}
}

// Detect returns the lower-case ISO 639-1 code for text, or empty when the
// text is too short or ambiguous to classify.
func (d *Detector) Detect(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lang, ok := d.inner.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(lang.IsoCode639_1().String())
}

package dictation

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// CleanTranscript normalizes engine output for pasting: NFC form, collapsed
// internal whitespace, trimmed ends. Engines disagree on composed vs
// decomposed accents and like to pad with newlines.
func CleanTranscript(text string) string {
	text = norm.NFC.String(text)
	return strings.Join(strings.Fields(text), " ")
}

package normalize

import (
	"regexp"
	"strings"
)

var (
	trailingParenStamp = regexp.MustCompile(`\s*\(\d{1,2}:\d{2}(?::\d{2})?\)$`)
	trailingBareStamp  = regexp.MustCompile(`\s+\d{1,2}:\d{2}(?::\d{2})?$`)
	trailingSuffix     = regexp.MustCompile(`\s+\d{1,2}$`)
	innerWhitespace    = regexp.MustCompile(`\s+`)
)

// SpeakerLabel canonicalizes a raw speaker header as rendered by the source
// site. It strips, in order: a trailing parenthesized timestamp, a trailing
// bare HH:MM[:SS] timestamp, a trailing 1-2 digit numeric suffix, and a
// trailing colon. Internal whitespace is collapsed. The second return value
// reports whether anything was stripped.
func SpeakerLabel(raw string) (string, bool) {
	clean := strings.TrimSpace(raw)
	clean = trailingParenStamp.ReplaceAllString(clean, "")
	clean = trailingBareStamp.ReplaceAllString(clean, "")
	clean = trailingSuffix.ReplaceAllString(clean, "")
	clean = strings.TrimSuffix(clean, ":")
	clean = innerWhitespace.ReplaceAllString(strings.TrimSpace(clean), " ")
	return clean, clean != strings.TrimSpace(raw)
}

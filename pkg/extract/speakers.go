package extract

import (
	"regexp"
	"strings"
)

var (
	// "Donald Trump 00", a title-case name with a bare numeric suffix.
	speakerWithSuffix = regexp.MustCompile(`^[A-Z][a-zA-Z\s.]+\s\d{1,2}$`)
	// "Donald Trump", 1-4 capitalized words, no digits. Heuristic: this
	// both over- and under-matches on real names (hyphens, honorifics),
	// matching the source site's own loose grammar.
	speakerBare = regexp.MustCompile(`^[A-Z][a-zA-Z]+(?:\s+[A-Z][a-zA-Z]+){0,3}$`)

	// "00:00-00:00:10 (10 sec)"
	timestampSpan = regexp.MustCompile(`^\d{1,2}:\d{2}-\d{1,2}:\d{2}:\d{2}`)
	// "NO STRESSLENS:", "NO SIGNAL (0.125):", "MEDIUM (1.5):"
	ratingPrefix = regexp.MustCompile(`^(NO STRESSLENS|NO SIGNAL|MEDIUM|WEAK|STRONG|HIGH)(\s*\([0-9.]+\))?:`)
)

// Rendered-page chrome that must never be mistaken for dialogue.
var skipKeywords = []string{
	"StressLens", "Topics", "Entities", "Moderation", "Speakers",
	"Full Transcript:", "CAPITOL HILL SINCE", "About Contact Us",
	"CQ and Roll Call", "FiscalNote",
}

// ParseSpeakerSections scans rendered transcript text line by line and
// groups it into speaker turns. A speaker header is a title-case name line,
// optionally suffixed with a bare 1-2 digit number. A header may be followed
// by a timestamp-span line and a rating line, both consumed as metadata.
// Every other non-empty, non-metadata line is dialogue body; the parser is
// deliberately tolerant of lines it does not recognize.
func ParseSpeakerSections(text string) []Section {
	lines := strings.Split(text, "\n")
	var sections []Section

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])

		if line == "" || isChrome(line) {
			i++
			continue
		}

		if !isSpeakerHeader(line) {
			i++
			continue
		}

		header := line
		i++

		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		var span string
		if i < len(lines) && timestampSpan.MatchString(strings.TrimSpace(lines[i])) {
			span = strings.TrimSpace(lines[i])
			i++
		}
		for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
			i++
		}
		if i < len(lines) && ratingPrefix.MatchString(strings.TrimSpace(lines[i])) {
			i++
		}

		var body []string
		for i < len(lines) {
			cur := strings.TrimSpace(lines[i])

			if speakerWithSuffix.MatchString(cur) {
				break
			}
			// A bare title-case line only ends the turn when a timestamp
			// follows it; otherwise it could be a shouted name in dialogue.
			if speakerBare.MatchString(cur) && timestampFollows(lines, i+1) {
				break
			}

			if cur == "" || timestampSpan.MatchString(cur) || ratingPrefix.MatchString(cur) || isChrome(cur) {
				i++
				continue
			}

			body = append(body, cur)
			i++
		}

		if len(body) > 0 {
			sections = append(sections, Section{
				Speaker:   header,
				Timestamp: span,
				Text:      strings.Join(body, " "),
			})
		}
	}

	return sections
}

// timestampFollows looks past blank lines for a timestamp-span line.
func timestampFollows(lines []string, i int) bool {
	for ; i < len(lines); i++ {
		cur := strings.TrimSpace(lines[i])
		if cur == "" {
			continue
		}
		return timestampSpan.MatchString(cur)
	}
	return false
}

func isSpeakerHeader(line string) bool {
	return speakerWithSuffix.MatchString(line) || speakerBare.MatchString(line)
}

func isChrome(line string) bool {
	for _, kw := range skipKeywords {
		if strings.Contains(line, kw) {
			return true
		}
	}
	return false
}

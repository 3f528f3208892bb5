package syncer

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Event types are inferred from the title, most specific phrase first so
// "Press Gaggle" never classifies as a plain press event.
var eventTypePhrases = []struct {
	phrase string
	typ    string
}{
	{"press gaggle", "Press Gaggle"},
	{"press briefing", "Press Briefing"},
	{"press conference", "Press Conference"},
	{"gaggle", "Press Gaggle"},
	{"briefing", "Press Briefing"},
	{"interview", "Interview"},
	{"remarks", "Remarks"},
	{"speech", "Speech"},
	{"address", "Speech"},
	{"rally", "Speech"},
}

func inferEventType(title string) string {
	t := strings.ToLower(title)
	for _, e := range eventTypePhrases {
		if strings.Contains(t, e.phrase) {
			return e.typ
		}
	}
	return "Speech"
}

var (
	durationMinutes = regexp.MustCompile(`(?i)\((\d{1,3})\s*min(?:ute)?s?\)`)
	durationClock   = regexp.MustCompile(`(\d{1,2}):(\d{2}):(\d{2})\s*$`)
	locationLabel   = regexp.MustCompile(`(?i)^location:\s*(.+)$`)
)

// extractDuration scans header text near the title for a stated length,
// either "(47 minutes)" or a trailing HH:MM:SS total. Returns seconds, or 0
// when nothing is stated.
func extractDuration(header string) int {
	if m := durationMinutes.FindStringSubmatch(header); m != nil {
		return atoi(m[1]) * 60
	}
	for _, line := range strings.Split(header, "\n") {
		if m := durationClock.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return atoi(m[1])*3600 + atoi(m[2])*60 + atoi(m[3])
		}
	}
	return 0
}

// extractLocation looks for an explicit "Location:" line in the page header.
func extractLocation(header string) string {
	for _, line := range strings.Split(header, "\n") {
		if m := locationLabel.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// pageTitle pulls the event title out of the document, falling back to the
// reference slug when the page carries no usable heading.
func pageTitle(doc *goquery.Document, ref string) string {
	for _, sel := range []string{"h1", ".page-title", ".event-title", "title"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return collapseSpaces(t)
		}
	}
	return titleFromSlug(ref)
}

// titleFromSlug reconstructs a readable title from the last path segment of
// a reference URL.
func titleFromSlug(ref string) string {
	seg := ref
	if i := strings.LastIndex(seg, "/"); i >= 0 {
		seg = seg[i+1:]
	}
	seg = strings.ReplaceAll(seg, "-", " ")
	seg = strings.ReplaceAll(seg, "_", " ")
	words := strings.Fields(seg)
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

var spaceRun = regexp.MustCompile(`\s+`)

func collapseSpaces(s string) string {
	return spaceRun.ReplaceAllString(s, " ")
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

package discover

import (
	"regexp"
	"strings"
	"time"
)

var monthNumbers = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June, "july": time.July,
	"august": time.August, "september": time.September, "october": time.October,
	"november": time.November, "december": time.December,
}

var (
	// "...-january-7-2025" with -, _, / or = separators (the = form shows
	// up inside query parameters).
	monthNameDate = regexp.MustCompile(`(?i)[-_/=](january|february|march|april|may|june|july|august|september|october|november|december)[-_/](\d{1,2})[-_/](\d{4})`)
	// "...-2025-01-07"
	isoDate = regexp.MustCompile(`[-_/=](\d{4})-(\d{2})-(\d{2})`)
)

// ParseRefDate extracts the event date embedded in a document reference.
// The source encodes it either as a month-name-day-year slug or an ISO date.
func ParseRefDate(ref string) (time.Time, bool) {
	if m := monthNameDate.FindStringSubmatch(ref); m != nil {
		month, ok := monthNumbers[strings.ToLower(m[1])]
		if ok {
			day := atoi(m[2])
			year := atoi(m[3])
			if validDay(year, month, day) {
				return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
			}
		}
	}
	if m := isoDate.FindStringSubmatch(ref); m != nil {
		year, month, day := atoi(m[1]), atoi(m[2]), atoi(m[3])
		if month >= 1 && month <= 12 && validDay(year, time.Month(month), day) {
			return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// CanonicalRef normalizes a reference for use as an archive key: surrounding
// whitespace and any trailing slash removed.
func CanonicalRef(ref string) string {
	ref = strings.TrimSpace(ref)
	for strings.HasSuffix(ref, "/") {
		ref = strings.TrimSuffix(ref, "/")
	}
	return ref
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

func validDay(year int, month time.Month, day int) bool {
	if year < 1900 || year > 2200 || day < 1 {
		return false
	}
	return day <= time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

package normalize

import (
	"regexp"
	"strings"
)

// Site boilerplate fragments that leak into rendered transcript text.
var boilerplateFragments = []string{
	"StressLens",
	"Topics",
	"Entities",
	"Moderation",
	"Speakers",
	"Full Transcript:",
	"CAPITOL HILL SINCE",
	"About Contact Us",
	"CQ and Roll Call",
	"FiscalNote",
}

var (
	timestampLine = regexp.MustCompile(`^\d{1,2}:\d{2}-\d{1,2}:\d{2}:\d{2}`)
	ratingLine    = regexp.MustCompile(`^(NO STRESSLENS|NO SIGNAL|MEDIUM|WEAK|STRONG|HIGH)(\s*\([0-9.]+\))?:`)
	signalLine    = regexp.MustCompile(`(?i)signal rating`)
	annotation    = regexp.MustCompile(`(?i)\[(?:inaudible|laughter|laughs|applause|crosstalk|audience)[^\]]*\]`)
	blankRuns     = regexp.MustCompile(`\n{3,}`)
	spaceRuns     = regexp.MustCompile(`[ \t]{2,}`)
)

// StripStats counts removals per artifact category.
type StripStats struct {
	BoilerplateLines int `json:"boilerplate_lines"`
	TimestampLines   int `json:"timestamp_lines"`
	RatingLines      int `json:"rating_lines"`
	SignalLines      int `json:"signal_lines"`
	Annotations      int `json:"annotations"`
	LabelsNormalized int `json:"labels_normalized"`
}

func (s *StripStats) add(o StripStats) {
	s.BoilerplateLines += o.BoilerplateLines
	s.TimestampLines += o.TimestampLines
	s.RatingLines += o.RatingLines
	s.SignalLines += o.SignalLines
	s.Annotations += o.Annotations
	s.LabelsNormalized += o.LabelsNormalized
}

// StripArtifacts removes site-specific non-dialogue text from a dialogue body:
// boilerplate lines, timestamp-range lines, rating lines, signal-rating lines,
// then inline bracketed stage directions across the joined text. Runs of blank
// lines and repeated spaces are collapsed.
func StripArtifacts(text string) (string, StripStats) {
	var stats StripStats

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case isBoilerplate(trimmed):
			stats.BoilerplateLines++
		case timestampLine.MatchString(trimmed):
			stats.TimestampLines++
		case ratingLine.MatchString(trimmed):
			stats.RatingLines++
		case signalLine.MatchString(trimmed):
			stats.SignalLines++
		default:
			kept = append(kept, line)
		}
	}

	clean := strings.Join(kept, "\n")
	stats.Annotations = len(annotation.FindAllString(clean, -1))
	clean = annotation.ReplaceAllString(clean, "")
	clean = blankRuns.ReplaceAllString(clean, "\n\n")
	clean = spaceRuns.ReplaceAllString(clean, " ")

	return strings.TrimSpace(clean), stats
}

// HasResidualArtifacts reports whether already-persisted dialogue still
// carries stripped-artifact signatures: a numeric speaker suffix, a rating
// marker, or an inline timestamp range. Such records were written before the
// normalization rules existed and are eligible for re-scraping.
func HasResidualArtifacts(dialogue string) bool {
	if dialogue == "" {
		return false
	}
	return residualSuffix.MatchString(dialogue) ||
		residualRating.MatchString(dialogue) ||
		residualStamp.MatchString(dialogue)
}

var (
	residualSuffix = regexp.MustCompile(`(?m)^[A-Z][a-zA-Z .]+\s\d{1,2}$`)
	residualRating = regexp.MustCompile(`NO STRESSLENS|NO SIGNAL|(?m)^(MEDIUM|WEAK|STRONG|HIGH)\s*\([0-9.]+\):`)
	residualStamp  = regexp.MustCompile(`\d{1,2}:\d{2}-\d{1,2}:\d{2}:\d{2}`)
)

func isBoilerplate(line string) bool {
	if line == "" {
		return false
	}
	for _, frag := range boilerplateFragments {
		if strings.Contains(line, frag) {
			return true
		}
	}
	return false
}

// Package normalize turns raw extracted dialogue sections into the clean,
// speaker-labeled text that gets persisted: canonical speaker labels, site
// artifacts stripped, word counts consistent with the final formatting.
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexmiron/podium/pkg/extract"
)

// Result is the normalized output assembled from a document's sections.
type Result struct {
	DialogueText            string
	Speakers                []string
	WordCount               int
	PrimarySpeakerWordCount int
	Stats                   StripStats
}

// Assemble normalizes each section's speaker label, strips artifacts from its
// body, drops sections left empty by stripping, and joins the survivors as
// "{speaker}\n{body}\n" blocks in original order. The total word count is
// taken from the assembled text rather than summed per section, so it always
// agrees with the persisted formatting.
func Assemble(sections []extract.Section, primarySpeaker string) Result {
	var res Result
	seen := make(map[string]bool)
	var blocks []string

	for _, sec := range sections {
		speaker, modified := SpeakerLabel(sec.Speaker)
		if modified {
			res.Stats.LabelsNormalized++
		}
		if speaker == "" {
			continue
		}

		body, stats := StripArtifacts(sec.Text)
		res.Stats.add(stats)
		if body == "" {
			continue
		}

		if !seen[speaker] {
			seen[speaker] = true
			res.Speakers = append(res.Speakers, speaker)
		}
		blocks = append(blocks, fmt.Sprintf("%s\n%s\n", speaker, body))

		if matchesPrimary(speaker, primarySpeaker) {
			res.PrimarySpeakerWordCount += len(strings.Fields(body))
		}
	}

	sort.Strings(res.Speakers)
	res.DialogueText = strings.Join(blocks, "\n")
	res.WordCount = len(strings.Fields(res.DialogueText))
	return res
}

// matchesPrimary reports whether a normalized speaker label refers to the
// tracked primary speaker: case-insensitive exact match, containment of the
// full name, or a bare surname.
func matchesPrimary(speaker, primary string) bool {
	if primary == "" {
		return false
	}
	s := strings.ToLower(speaker)
	p := strings.ToLower(primary)
	if s == p || strings.Contains(s, p) {
		return true
	}
	fields := strings.Fields(p)
	return len(fields) > 1 && s == fields[len(fields)-1]
}

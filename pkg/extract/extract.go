// Package extract locates the transcript region of a loaded document and
// parses it into ordered, speaker-segmented dialogue sections. The site's
// markup is inconsistent across pages, so extraction is an ordered chain of
// strategies tried until one yields sections.
package extract

import (
	"github.com/PuerkitoBio/goquery"
)

// Section is one contiguous speaker turn: a raw speaker header (numeric
// suffix not yet stripped), an optional timestamp span, and the body text.
type Section struct {
	Speaker   string
	Timestamp string
	Text      string
}

// probe pairs a structural selector with the minimum rendered-text length
// that makes its match worth parsing.
type probe struct {
	selector   string
	minContent int
}

// Probes are ordered most-specific first; "body" is the last resort and
// needs substantially more text before it is trusted.
var contentProbes = []probe{
	{".transcript-content", 200},
	{".transcript-text", 200},
	{".transcript-body", 200},
	{"#transcript-content", 200},
	{".full-transcript", 200},
	{"[data-transcript]", 200},
	{".speaker-section", 200},
	{"article.transcript", 200},
	{"article", 200},
	{"main.transcript", 200},
	{"main", 200},
	{".content-body", 200},
	{".content", 200},
	{"#transcript", 200},
	{"#content", 200},
	{"body", 400},
}

type strategy struct {
	name string
	run  func(doc *goquery.Document) []Section
}

var strategies = []strategy{
	{"selector-chain", fromSelectorChain},
	{"paragraphs", fromParagraphs},
	{"colon-scan", fromColonScan},
}

// Dialogue runs the extraction strategies in priority order and returns the
// sections from the first one that succeeds, along with the strategy name
// for telemetry. An empty slice means no speaker-segmented content was found.
func Dialogue(doc *goquery.Document) ([]Section, string) {
	for _, s := range strategies {
		if sections := s.run(doc); len(sections) > 0 {
			return sections, s.name
		}
	}
	return nil, ""
}

func fromSelectorChain(doc *goquery.Document) []Section {
	for _, p := range contentProbes {
		sel := doc.Find(p.selector).First()
		if sel.Length() == 0 {
			continue
		}
		text := renderedText(sel)
		if len(text) < p.minContent {
			continue
		}
		if sections := ParseSpeakerSections(text); len(sections) > 0 {
			return sections
		}
	}
	return nil
}

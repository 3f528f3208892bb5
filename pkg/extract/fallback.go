package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// fromParagraphs treats each paragraph-like element as a candidate
// "Speaker: text" line. Weaker than the selector chain, but survives pages
// where the transcript container classes changed.
func fromParagraphs(doc *goquery.Document) []Section {
	var sections []Section
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if len(text) < 10 {
			return
		}
		speaker, body, ok := splitSpeakerLine(text)
		if !ok {
			return
		}
		sections = append(sections, Section{Speaker: speaker, Text: body})
	})
	return sections
}

// fromColonScan is the last resort: a plain colon/title-case scan over the
// whole page's visible text.
func fromColonScan(doc *goquery.Document) []Section {
	body := doc.Find("body").First()
	if body.Length() == 0 {
		return nil
	}
	text := renderedText(body)

	var sections []Section
	var speaker string
	var buf []string

	flush := func() {
		if speaker != "" && len(buf) > 0 {
			sections = append(sections, Section{Speaker: speaker, Text: strings.Join(buf, " ")})
		}
		buf = nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if s, rest, ok := splitSpeakerLine(line); ok {
			flush()
			speaker = s
			if rest != "" {
				buf = append(buf, rest)
			}
			continue
		}
		if speaker != "" {
			buf = append(buf, line)
		}
	}
	flush()

	return sections
}

// splitSpeakerLine recognizes "Speaker Name: text" where the prefix is at
// most four words.
func splitSpeakerLine(line string) (speaker, body string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	prefix := strings.TrimSpace(line[:idx])
	if prefix == "" || len(strings.Fields(prefix)) > 4 {
		return "", "", false
	}
	return prefix, strings.TrimSpace(line[idx+1:]), true
}

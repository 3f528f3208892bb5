package syncer

import "testing"

func TestInferEventType(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Remarks at the Hanukkah Reception", "Remarks"},
		{"Press Conference with Foreign Leaders", "Press Conference"},
		{"Press Gaggle Aboard Air Force One", "Press Gaggle"},
		{"Press Briefing by the Press Secretary", "Press Briefing"},
		{"Interview with Mark Levin", "Interview"},
		{"Address to the Nation", "Speech"},
		{"Campaign Rally in Phoenix", "Speech"},
		{"Untitled Event", "Speech"},
	}
	for _, c := range cases {
		if got := inferEventType(c.title); got != c.want {
			t.Errorf("inferEventType(%q) = %q, want %q", c.title, got, c.want)
		}
	}
}

func TestExtractDuration(t *testing.T) {
	cases := []struct {
		header string
		want   int
	}{
		{"Remarks (47 minutes)", 47 * 60},
		{"Speech (5 min)", 5 * 60},
		{"Total length\n01:02:30", 3750},
		{"No duration stated", 0},
	}
	for _, c := range cases {
		if got := extractDuration(c.header); got != c.want {
			t.Errorf("extractDuration(%q) = %d, want %d", c.header, got, c.want)
		}
	}
}

func TestExtractLocation(t *testing.T) {
	header := "Some title\nLocation: East Room, White House\nother line"
	if got := extractLocation(header); got != "East Room, White House" {
		t.Errorf("location = %q", got)
	}
	if got := extractLocation("no location line"); got != "" {
		t.Errorf("location = %q, want empty", got)
	}
}

func TestTitleFromSlug(t *testing.T) {
	got := titleFromSlug("https://example.com/transcript/remarks-at-the-dinner-january-10-2025")
	want := "Remarks At The Dinner January 10 2025"
	if got != want {
		t.Errorf("titleFromSlug = %q, want %q", got, want)
	}
}

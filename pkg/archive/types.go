package archive

import "time"

// Record is one archived transcript, keyed by its canonical reference.
type Record struct {
	ID               int64     `json:"id"`
	Reference        string    `json:"reference"`
	Title            string    `json:"title"`
	EventDate        string    `json:"event_date"` // YYYY-MM-DD
	EventType        string    `json:"event_type"`
	Location         string    `json:"location,omitempty"`
	WordCount        int       `json:"word_count"`
	PrimaryWordCount int       `json:"primary_word_count"`
	DurationSeconds  int       `json:"duration_seconds,omitempty"` // 0 = unknown
	Dialogue         string    `json:"dialogue,omitempty"`
	SpeakersJSON     string    `json:"speakers_json,omitempty"`
	LastSyncedAt     time.Time `json:"last_synced_at"`
}

// Valid reports whether the record holds usable content. Empty or zero-word
// records are scrape failures that were persisted before validation existed,
// and stay eligible for re-scraping.
func (r Record) Valid() bool {
	return r.WordCount > 0 && r.Dialogue != ""
}

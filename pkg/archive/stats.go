package archive

import (
	"context"
	"database/sql"
	"sort"

	"github.com/tidwall/gjson"
)

// Stats summarizes the archive for the status surface and the stats command.
type Stats struct {
	TotalRecords  int            `json:"total_records"`
	ValidRecords  int            `json:"valid_records"`
	EarliestDate  string         `json:"earliest_date,omitempty"`
	LatestDate    string         `json:"latest_date,omitempty"`
	TotalWords    int64          `json:"total_words"`
	ByEventType   map[string]int `json:"by_event_type"`
	SpeakerCounts []SpeakerCount `json:"top_speakers,omitempty"`
}

// SpeakerCount is the number of transcripts a speaker appears in.
type SpeakerCount struct {
	Speaker string `json:"speaker"`
	Count   int    `json:"count"`
}

const topSpeakers = 15

func (d *DB) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{ByEventType: make(map[string]int)}

	var earliest, latest sql.NullString
	err := d.sql.QueryRowContext(ctx, `
SELECT COUNT(*),
       COALESCE(SUM(CASE WHEN word_count > 0 AND dialogue != '' THEN 1 ELSE 0 END), 0),
       MIN(event_date), MAX(event_date),
       COALESCE(SUM(word_count), 0)
FROM transcripts`).Scan(&stats.TotalRecords, &stats.ValidRecords, &earliest, &latest, &stats.TotalWords)
	if err != nil {
		return Stats{}, err
	}
	stats.EarliestDate = earliest.String
	stats.LatestDate = latest.String

	rows, err := d.sql.QueryContext(ctx, "SELECT event_type, COUNT(*) FROM transcripts GROUP BY event_type")
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return Stats{}, err
		}
		stats.ByEventType[typ] = n
	}
	if err := rows.Err(); err != nil {
		return Stats{}, err
	}

	counts, err := d.speakerCounts(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats.SpeakerCounts = counts

	return stats, nil
}

// speakerCounts tallies how many transcripts each canonical speaker appears
// in, reading the speakers_json column.
func (d *DB) speakerCounts(ctx context.Context) ([]SpeakerCount, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT speakers_json FROM transcripts WHERE speakers_json IS NOT NULL")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tally := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, name := range gjson.Parse(raw).Array() {
			if s := name.String(); s != "" {
				tally[s]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make([]SpeakerCount, 0, len(tally))
	for speaker, n := range tally {
		counts = append(counts, SpeakerCount{Speaker: speaker, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Speaker < counts[j].Speaker
	})
	if len(counts) > topSpeakers {
		counts = counts[:topSpeakers]
	}
	return counts, nil
}

// ListOptions controls selection when listing records.
type ListOptions struct {
	From      string // inclusive YYYY-MM-DD bound
	To        string // inclusive YYYY-MM-DD bound
	EventType string
	Limit     int
}

// List returns record summaries (dialogue omitted) matching the filters,
// newest first.
func (d *DB) List(ctx context.Context, opts ListOptions) ([]Record, error) {
	where := "WHERE 1=1"
	args := []interface{}{}
	if opts.From != "" {
		where += " AND event_date >= ?"
		args = append(args, opts.From)
	}
	if opts.To != "" {
		where += " AND event_date <= ?"
		args = append(args, opts.To)
	}
	if opts.EventType != "" {
		where += " AND event_type = ?"
		args = append(args, opts.EventType)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	q := `SELECT id, reference, title, event_date, event_type, location, word_count,
       primary_word_count, duration_seconds, speakers_json, last_synced_at
FROM transcripts ` + where + " ORDER BY event_date DESC, id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var location, speakers sql.NullString
		var duration sql.NullInt64
		var syncedAt string
		if err := rows.Scan(&rec.ID, &rec.Reference, &rec.Title, &rec.EventDate, &rec.EventType,
			&location, &rec.WordCount, &rec.PrimaryWordCount, &duration, &speakers, &syncedAt); err != nil {
			return nil, err
		}
		rec.Location = location.String
		rec.SpeakersJSON = speakers.String
		rec.DurationSeconds = int(duration.Int64)
		rec.LastSyncedAt = parseSQLiteTime(syncedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ListFull returns complete records (dialogue included) in a date range,
// oldest first. Used by the clean path.
func (d *DB) ListFull(ctx context.Context, from, to string) ([]Record, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, reference, title, event_date, event_type, location, word_count,
       primary_word_count, duration_seconds, dialogue, speakers_json, last_synced_at
FROM transcripts
WHERE event_date >= ? AND event_date <= ?
ORDER BY event_date, id`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

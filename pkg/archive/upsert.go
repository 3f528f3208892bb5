package archive

import (
	"context"
	"database/sql"
	"errors"
)

// Upsert inserts a new record or replaces every field of the existing row
// with the same reference. It is safe to call repeatedly with identical
// input. The first return value reports whether a new row was created.
func (d *DB) Upsert(ctx context.Context, rec Record) (bool, error) {
	var existingID int64
	err := d.sql.QueryRowContext(ctx, "SELECT id FROM transcripts WHERE reference = ?", rec.Reference).Scan(&existingID)
	exists := err == nil
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	_, err = d.sql.ExecContext(ctx, `
INSERT INTO transcripts
  (reference, title, event_date, event_type, location, word_count,
   primary_word_count, duration_seconds, dialogue, speakers_json, last_synced_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(reference) DO UPDATE SET
  title              = excluded.title,
  event_date         = excluded.event_date,
  event_type         = excluded.event_type,
  location           = excluded.location,
  word_count         = excluded.word_count,
  primary_word_count = excluded.primary_word_count,
  duration_seconds   = excluded.duration_seconds,
  dialogue           = excluded.dialogue,
  speakers_json      = excluded.speakers_json,
  last_synced_at     = CURRENT_TIMESTAMP`,
		rec.Reference, rec.Title, rec.EventDate, rec.EventType, nullIfEmpty(rec.Location),
		rec.WordCount, rec.PrimaryWordCount, nullIfZero(rec.DurationSeconds),
		rec.Dialogue, nullIfEmpty(rec.SpeakersJSON))
	if err != nil {
		return false, err
	}
	return !exists, nil
}

// Lookup fetches a record by canonical reference. The boolean is false when
// the reference is not archived.
func (d *DB) Lookup(ctx context.Context, reference string) (Record, bool, error) {
	row := d.sql.QueryRowContext(ctx, `
SELECT id, reference, title, event_date, event_type, location, word_count,
       primary_word_count, duration_seconds, dialogue, speakers_json, last_synced_at
FROM transcripts WHERE reference = ?`, reference)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Has reports whether a reference is already archived.
func (d *DB) Has(ctx context.Context, reference string) (bool, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx, "SELECT id FROM transcripts WHERE reference = ?", reference).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// UpdateNormalized rewrites the normalized fields of an existing row in
// place. Used by the clean path to re-apply normalization rules to records
// persisted before those rules existed.
func (d *DB) UpdateNormalized(ctx context.Context, id int64, dialogue, speakersJSON string, wordCount, primaryWordCount int) error {
	_, err := d.sql.ExecContext(ctx, `
UPDATE transcripts
SET dialogue = ?, speakers_json = ?, word_count = ?, primary_word_count = ?,
    last_synced_at = CURRENT_TIMESTAMP
WHERE id = ?`, dialogue, nullIfEmpty(speakersJSON), wordCount, primaryWordCount, id)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (Record, error) {
	var rec Record
	var location, speakers sql.NullString
	var duration sql.NullInt64
	var syncedAt string
	err := row.Scan(&rec.ID, &rec.Reference, &rec.Title, &rec.EventDate, &rec.EventType,
		&location, &rec.WordCount, &rec.PrimaryWordCount, &duration,
		&rec.Dialogue, &speakers, &syncedAt)
	if err != nil {
		return Record{}, err
	}
	rec.Location = location.String
	rec.SpeakersJSON = speakers.String
	rec.DurationSeconds = int(duration.Int64)
	rec.LastSyncedAt = parseSQLiteTime(syncedAt)
	return rec, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfZero(n int) interface{} {
	if n == 0 {
		return nil
	}
	return n
}

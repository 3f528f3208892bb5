package archive

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"time"
)

var strictDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// LatestValidDate returns the maximum event date among valid records: those
// with a strict YYYY-MM-DD date, a positive word count, and non-empty
// dialogue. Invalid or empty records never advance the sync window, no
// matter how recent their raw dates claim to be. The boolean is false for an
// archive with no valid records.
func (d *DB) LatestValidDate(ctx context.Context) (time.Time, bool, error) {
	var dateStr sql.NullString
	err := d.sql.QueryRowContext(ctx, `
SELECT MAX(event_date) FROM transcripts
WHERE event_date GLOB '[0-9][0-9][0-9][0-9]-[0-9][0-9]-[0-9][0-9]'
  AND word_count > 0
  AND dialogue != ''`).Scan(&dateStr)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && !dateStr.Valid) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if !strictDate.MatchString(dateStr.String) {
		return time.Time{}, false, nil
	}
	t, err := time.Parse("2006-01-02", dateStr.String)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

// parseSQLiteTime handles the two timestamp formats SQLite hands back.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

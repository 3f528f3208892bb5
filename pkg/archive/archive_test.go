package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexmiron/podium/pkg/discover"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "podium.sqlite"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRecord(ref string) Record {
	return Record{
		Reference:        ref,
		Title:            "Remarks at a Test Event",
		EventDate:        "2025-11-20",
		EventType:        "Remarks",
		WordCount:        120,
		PrimaryWordCount: 100,
		Dialogue:         "Donald Trump\nWell, thank you very much.\n",
		SpeakersJSON:     `["Donald Trump"]`,
	}
}

func TestUpsertIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	rec := testRecord("https://example.com/transcript/remarks-november-20-2025")

	created, err := db.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Fatal("first upsert should create a row")
	}

	created, err = db.Upsert(ctx, rec)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Fatal("second upsert must update, not create")
	}

	var stats Stats
	if stats, err = db.Stats(ctx); err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalRecords != 1 {
		t.Fatalf("got %d rows after double upsert, want 1", stats.TotalRecords)
	}

	got, found, err := db.Lookup(ctx, rec.Reference)
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if got.Title != rec.Title || got.WordCount != rec.WordCount || got.Dialogue != rec.Dialogue {
		t.Errorf("fields differ after repeated upsert: %+v", got)
	}
}

func TestUpsertReplacesFields(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	rec := testRecord("https://example.com/transcript/a")
	if _, err := db.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	rec.Title = "Updated Title"
	rec.WordCount = 500
	if _, err := db.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	got, _, err := db.Lookup(ctx, rec.Reference)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Updated Title" || got.WordCount != 500 {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestLatestValidDateIgnoresInvalidRecords(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	valid := testRecord("https://example.com/t/valid")
	valid.EventDate = "2025-10-05"
	if _, err := db.Upsert(ctx, valid); err != nil {
		t.Fatal(err)
	}

	// Later-dated but empty: must not advance the window.
	empty := testRecord("https://example.com/t/empty")
	empty.EventDate = "2025-12-01"
	empty.WordCount = 0
	empty.Dialogue = ""
	if _, err := db.Upsert(ctx, empty); err != nil {
		t.Fatal(err)
	}

	// Later raw date but malformed: must not advance the window either.
	malformed := testRecord("https://example.com/t/malformed")
	malformed.EventDate = "December 5, 2025"
	if _, err := db.Upsert(ctx, malformed); err != nil {
		t.Fatal(err)
	}

	// Dashed and date-shaped but not numeric: lexically sorts above every
	// real date, so it would win MAX if the digit check let it through.
	garbled := testRecord("https://example.com/t/garbled")
	garbled.EventDate = "2025-xx-yy"
	if _, err := db.Upsert(ctx, garbled); err != nil {
		t.Fatal(err)
	}

	got, found, err := db.LatestValidDate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !found {
		t.Fatal("expected a valid date")
	}
	want := time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("latest valid date = %s, want %s", got.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestLatestValidDateEmptyArchive(t *testing.T) {
	db := testDB(t)
	_, found, err := db.LatestValidDate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("empty archive should report no valid date")
	}
}

func TestNeedsSync(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	day := time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC)

	clean := testRecord("https://example.com/t/clean")
	if _, err := db.Upsert(ctx, clean); err != nil {
		t.Fatal(err)
	}

	empty := testRecord("https://example.com/t/empty")
	empty.WordCount = 0
	empty.Dialogue = ""
	if _, err := db.Upsert(ctx, empty); err != nil {
		t.Fatal(err)
	}

	residual := testRecord("https://example.com/t/residual")
	residual.Dialogue = "Donald Trump\nNO STRESSLENS: Well, thank you very much.\n"
	if _, err := db.Upsert(ctx, residual); err != nil {
		t.Fatal(err)
	}

	candidates := []discover.Candidate{
		{Ref: "https://example.com/t/clean", Date: day},
		{Ref: "https://example.com/t/empty", Date: day},
		{Ref: "https://example.com/t/residual", Date: day},
		{Ref: "https://example.com/t/brand-new", Date: day},
	}

	got, err := db.NeedsSync(ctx, candidates)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{
		"https://example.com/t/empty":     true,
		"https://example.com/t/residual":  true,
		"https://example.com/t/brand-new": true,
	}
	if len(got) != len(want) {
		t.Fatalf("got %d candidates, want %d: %+v", len(got), len(want), got)
	}
	for _, c := range got {
		if !want[c.Ref] {
			t.Errorf("unexpected candidate %s", c.Ref)
		}
	}
}

func TestStats(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	a := testRecord("https://example.com/t/a")
	a.EventType = "Speech"
	b := testRecord("https://example.com/t/b")
	b.EventType = "Interview"
	b.SpeakersJSON = `["Donald Trump","Mark Levin"]`
	for _, rec := range []Record{a, b} {
		if _, err := db.Upsert(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 2 || stats.ValidRecords != 2 {
		t.Errorf("counts = %d/%d, want 2/2", stats.TotalRecords, stats.ValidRecords)
	}
	if stats.ByEventType["Speech"] != 1 || stats.ByEventType["Interview"] != 1 {
		t.Errorf("event type counts: %v", stats.ByEventType)
	}
	if len(stats.SpeakerCounts) == 0 || stats.SpeakerCounts[0].Speaker != "Donald Trump" || stats.SpeakerCounts[0].Count != 2 {
		t.Errorf("speaker counts: %+v", stats.SpeakerCounts)
	}
}

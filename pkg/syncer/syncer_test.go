package syncer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/browser"
	"github.com/alexmiron/podium/pkg/discover"
)

const searchURL = "https://example.com/search?speaker=donald-trump"

// goodPage wraps a body of dialogue in the markup shape the extractor
// understands.
func goodPage(title string) string {
	return fmt.Sprintf(`<html><body>
<h1>%s</h1>
<div class="transcript-content">
<p>Donald Trump 00</p>
<p>00:00-00:00:10 (10 sec)</p>
<p>NO STRESSLENS:</p>
<p>Well, thank you very much everybody. We are thrilled to welcome so many good
friends to this celebration tonight, and I want to thank each of you for coming.</p>
<p>Mark Levin 00</p>
<p>04:46-00:04:50 (4 sec)</p>
<p>NO STRESSLENS:</p>
<p>Hold on. And he loves this country too, very much, as everyone in this room knows.</p>
</div>
</body></html>`, title)
}

type fakeBrowser struct {
	listing      []string          // hrefs returned on the search page
	pages        map[string]string // url -> document html
	current      string
	navFail      map[string]int // url -> failures to inject before success
	blankRenders map[string]int // url -> empty renders before the page fills in
	navCalls     int
	htmlCalls    int
	restarts     int
	closed       bool
	sortCalled   bool
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.navCalls++
	if n := f.navFail[url]; n > 0 {
		f.navFail[url] = n - 1
		return fmt.Errorf("%w: websocket closed", browser.ErrSessionLost)
	}
	f.current = url
	return nil
}

func (f *fakeBrowser) HTML(ctx context.Context) (string, error) {
	f.htmlCalls++
	if n := f.blankRenders[f.current]; n > 0 {
		f.blankRenders[f.current] = n - 1
		return "<html><body><p>loading...</p></body></html>", nil
	}
	return f.pages[f.current], nil
}

func (f *fakeBrowser) Text(ctx context.Context, selector string) (string, error) {
	return "", nil
}

func (f *fakeBrowser) Links(ctx context.Context, selector string) ([]string, error) {
	if f.current == searchURL {
		return f.listing, nil
	}
	return nil, nil
}

func (f *fakeBrowser) ScrollBottom(ctx context.Context) error { return nil }

func (f *fakeBrowser) SelectNewestSort(ctx context.Context) error {
	f.sortCalled = true
	return errors.New("no sort control found")
}

func (f *fakeBrowser) Restart(ctx context.Context) error {
	f.restarts++
	return nil
}

func (f *fakeBrowser) Close() error {
	f.closed = true
	return nil
}

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func testArchive(t *testing.T) *archive.DB {
	t.Helper()
	db, err := archive.Open(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() Config {
	return Config{
		SearchURL:      searchURL,
		PrimarySpeaker: "Donald Trump",
		Epoch:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		MinWords:       10,
		StallScrolls:   2,
		ScrollPause:    time.Millisecond,
		Delay:          time.Millisecond,
		MaxRetries:     2,
		Log:            quietLog(),
	}
}

func newTestSyncer(db *archive.DB, fb *fakeBrowser) *Syncer {
	return New(db, testConfig(), func(ctx context.Context) (Browser, error) {
		return fb, nil
	})
}

func twoDocListing() *fakeBrowser {
	refA := "https://example.com/transcript/remarks-january-10-2025"
	refB := "https://example.com/transcript/interview-january-12-2025"
	// One link predates the window so discovery can converge.
	old := "https://example.com/transcript/speech-december-20-2024"
	return &fakeBrowser{
		listing: []string{refB, refA, old},
		pages: map[string]string{
			refA: goodPage("Remarks at the Economic Club"),
			refB: goodPage("Interview with Mark Levin"),
		},
	}
}

func TestRunSyncsNewDocuments(t *testing.T) {
	db := testArchive(t)
	fb := twoDocListing()
	s := newTestSyncer(db, fb)

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Added != 2 || sum.Failed != 0 {
		t.Fatalf("summary = %+v, want 2 added, 0 failed", sum)
	}
	if !fb.closed {
		t.Error("browser was not closed")
	}

	rec, found, err := db.Lookup(context.Background(), "https://example.com/transcript/interview-january-12-2025")
	if err != nil || !found {
		t.Fatalf("lookup: found=%v err=%v", found, err)
	}
	if rec.EventDate != "2025-01-12" {
		t.Errorf("event date = %q", rec.EventDate)
	}
	if rec.EventType != "Interview" {
		t.Errorf("event type = %q", rec.EventType)
	}
	if rec.WordCount == 0 || rec.PrimaryWordCount == 0 {
		t.Errorf("word counts = %d/%d", rec.WordCount, rec.PrimaryWordCount)
	}

	status := s.Status()
	if status.Running {
		t.Error("status still reports running")
	}
	if status.Added != 2 {
		t.Errorf("status added = %d", status.Added)
	}
}

func TestRunSecondPassFindsNothingNew(t *testing.T) {
	db := testArchive(t)
	s := newTestSyncer(db, twoDocListing())
	ctx := context.Background()

	if _, err := s.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// The window now opens after the newest archived date, so the same
	// listing yields no candidates.
	sum, err := s.Run(ctx)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if sum.Added != 0 || sum.Updated != 0 || sum.Failed != 0 {
		t.Fatalf("second pass summary = %+v, want all zero", sum)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalRecords != 2 {
		t.Errorf("archive grew to %d records across identical passes", stats.TotalRecords)
	}
}

func TestComputeWindowOpensAfterLatestValidDate(t *testing.T) {
	db := testArchive(t)
	s := newTestSyncer(db, &fakeBrowser{})
	ctx := context.Background()

	w, err := s.computeWindow(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Start.Equal(s.cfg.Epoch) {
		t.Errorf("empty archive window starts %s, want epoch", w.Start.Format("2006-01-02"))
	}

	rec := archive.Record{
		Reference: "https://example.com/t/x",
		Title:     "X",
		EventDate: "2025-03-15",
		EventType: "Speech",
		WordCount: 50,
		Dialogue:  "Donald Trump\nHello everyone.\n",
	}
	if _, err := db.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	w, err = s.computeWindow(ctx)
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(want) {
		t.Errorf("window start = %s, want %s", w.Start.Format("2006-01-02"), want.Format("2006-01-02"))
	}
}

func TestScrapeOneRejectsEmptyDialogue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))
	defer srv.Close()

	db := testArchive(t)
	ref := srv.URL + "/transcript/remarks-january-10-2025"
	fb := &fakeBrowser{pages: map[string]string{
		ref: "<html><body><p>loading...</p></body></html>",
	}}
	s := newTestSyncer(db, fb)

	cand := discover.Candidate{Ref: ref, Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	_, err := s.scrapeOne(context.Background(), fb, cand)
	if !errors.Is(err, ErrNoDialogue) {
		t.Fatalf("err = %v, want ErrNoDialogue", err)
	}

	// An empty extraction must never persist as a zero-word success.
	if has, _ := db.Has(context.Background(), ref); has {
		t.Fatal("empty document was persisted")
	}
}

func TestScrapeOneStaticFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, goodPage("Remarks at the Hanukkah Reception"))
	}))
	defer srv.Close()

	db := testArchive(t)
	ref := srv.URL + "/transcript/remarks-january-10-2025"
	// The rendered view never finishes loading; the raw response has the
	// transcript server-side.
	fb := &fakeBrowser{pages: map[string]string{
		ref: "<html><body><p>loading...</p></body></html>",
	}}
	s := newTestSyncer(db, fb)

	cand := discover.Candidate{Ref: ref, Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	rec, err := s.scrapeOne(context.Background(), fb, cand)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	if rec.WordCount == 0 {
		t.Fatal("static fallback produced no words")
	}
	if rec.Title != "Remarks at the Hanukkah Reception" {
		t.Errorf("title = %q", rec.Title)
	}
}

func TestSyncOneRestartsLostSession(t *testing.T) {
	db := testArchive(t)
	fb := twoDocListing()
	ref := "https://example.com/transcript/remarks-january-10-2025"
	fb.navFail = map[string]int{ref: 1}
	s := newTestSyncer(db, fb)

	cand := discover.Candidate{Ref: ref, Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	created, err := s.syncOne(context.Background(), fb, cand)
	if err != nil {
		t.Fatalf("syncOne: %v", err)
	}
	if !created {
		t.Error("expected a new record")
	}
	if fb.restarts != 1 {
		t.Errorf("restarts = %d, want 1", fb.restarts)
	}
}

func TestSyncOneRetriesEmptyExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	db := testArchive(t)
	ref := srv.URL + "/transcript/remarks-january-10-2025"
	// The first render comes back before the page has filled in; the
	// second attempt sees the full document.
	fb := &fakeBrowser{
		pages:        map[string]string{ref: goodPage("Remarks at the Economic Club")},
		blankRenders: map[string]int{ref: 1},
	}
	s := newTestSyncer(db, fb)

	cand := discover.Candidate{Ref: ref, Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	created, err := s.syncOne(context.Background(), fb, cand)
	if err != nil {
		t.Fatalf("syncOne: %v", err)
	}
	if !created {
		t.Error("expected a new record")
	}
	if fb.htmlCalls != 2 {
		t.Errorf("renders = %d, want 2", fb.htmlCalls)
	}
	if has, _ := db.Has(context.Background(), ref); !has {
		t.Error("record was not persisted after a successful retry")
	}
}

func TestSyncOneExhaustsAttemptsOnEmptyExtraction(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(http.NotFound))
	defer srv.Close()

	db := testArchive(t)
	ref := srv.URL + "/transcript/remarks-january-10-2025"
	// Every render is blank, so each configured attempt must be spent
	// before giving up.
	fb := &fakeBrowser{
		pages:        map[string]string{ref: goodPage("Remarks at the Economic Club")},
		blankRenders: map[string]int{ref: 100},
	}
	s := newTestSyncer(db, fb)

	cand := discover.Candidate{Ref: ref, Date: time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)}
	_, err := s.syncOne(context.Background(), fb, cand)
	if !errors.Is(err, ErrNoDialogue) {
		t.Fatalf("err = %v, want ErrNoDialogue", err)
	}
	if fb.htmlCalls != s.cfg.MaxRetries {
		t.Errorf("renders = %d, want %d", fb.htmlCalls, s.cfg.MaxRetries)
	}
	if has, _ := db.Has(context.Background(), ref); has {
		t.Error("failed document was persisted")
	}
}

func TestStartRefusesConcurrentRuns(t *testing.T) {
	db := testArchive(t)
	started := make(chan struct{})
	release := make(chan struct{})
	s := New(db, testConfig(), func(ctx context.Context) (Browser, error) {
		close(started)
		<-release
		return nil, errors.New("held for test")
	})

	if !s.Start(context.Background()) {
		t.Fatal("first Start returned false")
	}
	<-started
	if s.Start(context.Background()) {
		t.Fatal("second Start should refuse while a run is in progress")
	}
	close(release)

	deadline := time.After(5 * time.Second)
	for {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			break
		}
		select {
		case <-deadline:
			t.Fatal("run never cleared")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

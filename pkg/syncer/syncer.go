// Package syncer orchestrates one synchronization pass: compute the date
// window still missing from the archive, enumerate candidate documents from
// the remote listing, then fetch, extract, normalize, and persist each one.
package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/alexmiron/podium/pkg/archive"
	"github.com/alexmiron/podium/pkg/browser"
	"github.com/alexmiron/podium/pkg/discover"
	"github.com/alexmiron/podium/pkg/extract"
	"github.com/alexmiron/podium/pkg/normalize"
)

// Browser is the page-driving surface the syncer needs. *browser.Session
// satisfies it; tests substitute a fake.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	HTML(ctx context.Context) (string, error)
	Text(ctx context.Context, selector string) (string, error)
	Links(ctx context.Context, selector string) ([]string, error)
	ScrollBottom(ctx context.Context) error
	SelectNewestSort(ctx context.Context) error
	Restart(ctx context.Context) error
	Close() error
}

// BrowserFactory opens a fresh browser session.
type BrowserFactory func(ctx context.Context) (Browser, error)

// Config controls a sync run.
type Config struct {
	SearchURL      string
	PrimarySpeaker string
	Epoch          time.Time     // window floor for an empty archive
	MinWords       int           // below this, extraction counts as failed; default 50
	ScrollCap      int           // discovery scroll bound
	StallScrolls   int           // discovery convergence threshold
	ScrollPause    time.Duration // settle time between discovery scrolls
	Delay          time.Duration // pacing between documents; default 2s
	MaxRetries     int           // attempts per document; default 3
	RestartEvery   int           // proactive session restart interval; default 50
	Log            *logrus.Logger
}

func (c *Config) defaults() {
	if c.Epoch.IsZero() {
		c.Epoch = time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	}
	if c.MinWords <= 0 {
		c.MinWords = 50
	}
	if c.Delay <= 0 {
		c.Delay = 2 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RestartEvery <= 0 {
		c.RestartEvery = 50
	}
	if c.Log == nil {
		c.Log = logrus.New()
	}
}

// Summary is the outcome of one completed run.
type Summary struct {
	Window     discover.Window
	Discovered int
	Added      int
	Updated    int
	Skipped    int
	Failed     int
	Elapsed    time.Duration
}

// Syncer runs synchronization passes against one archive.
type Syncer struct {
	db         *archive.DB
	cfg        Config
	newBrowser BrowserFactory
	fetch      *retryablehttp.Client
	tracker    tracker

	mu      sync.Mutex
	running bool
	now     func() time.Time
}

// New builds a Syncer. The factory is called once per run, so each run gets
// a fresh browser process.
func New(db *archive.DB, cfg Config, factory BrowserFactory) *Syncer {
	cfg.defaults()
	return &Syncer{
		db:         db,
		cfg:        cfg,
		newBrowser: factory,
		fetch:      newFetchClient(),
		now:        time.Now,
	}
}

// NewSessionFactory adapts browser.NewSession to the BrowserFactory shape.
func NewSessionFactory(opts browser.Options) BrowserFactory {
	return func(ctx context.Context) (Browser, error) {
		return browser.NewSession(ctx, opts)
	}
}

// Status returns a snapshot of the current or most recent run.
func (s *Syncer) Status() Status {
	return s.tracker.Snapshot()
}

// Start launches a run in the background. Returns false when a run is
// already in progress.
func (s *Syncer) Start(ctx context.Context) bool {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return false
	}
	s.running = true
	s.mu.Unlock()

	go func() {
		defer s.clearRunning()
		if _, err := s.run(ctx); err != nil {
			s.cfg.Log.Errorf("sync run failed: %v", err)
		}
	}()
	return true
}

// Run executes one synchronous pass. Returns an error when a run is already
// in progress.
func (s *Syncer) Run(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Summary{}, errors.New("sync: run already in progress")
	}
	s.running = true
	s.mu.Unlock()
	defer s.clearRunning()

	return s.run(ctx)
}

func (s *Syncer) clearRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

func (s *Syncer) run(ctx context.Context) (Summary, error) {
	log := s.cfg.Log
	started := s.now()

	window, err := s.computeWindow(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("computing sync window: %w", err)
	}
	s.tracker.begin(window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	defer s.tracker.finish()

	if window.Start.After(window.End) {
		log.Infof("archive is current through %s, nothing to sync", window.End.Format("2006-01-02"))
		return Summary{Window: window, Elapsed: s.now().Sub(started)}, nil
	}
	log.Infof("syncing window %s .. %s", window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))

	b, err := s.newBrowser(ctx)
	if err != nil {
		s.tracker.fatal(err)
		return Summary{}, fmt.Errorf("opening browser: %w", err)
	}
	defer b.Close()

	candidates, err := discover.Run(ctx, b, window, discover.Config{
		SearchURL:    s.cfg.SearchURL,
		ScrollCap:    s.cfg.ScrollCap,
		StallScrolls: s.cfg.StallScrolls,
		ScrollPause:  s.cfg.ScrollPause,
		Log:          log,
	})
	if err != nil {
		s.tracker.fatal(err)
		return Summary{}, fmt.Errorf("discovery: %w", err)
	}

	pending, err := s.db.NeedsSync(ctx, candidates)
	if err != nil {
		s.tracker.fatal(err)
		return Summary{}, err
	}
	s.tracker.discovered(len(candidates), len(pending))
	log.Infof("discovered %d candidates, %d need syncing", len(candidates), len(pending))

	sum := Summary{Window: window, Discovered: len(candidates)}
	sum.Skipped = len(candidates) - len(pending)
	s.tracker.skipped(sum.Skipped)

	pagesSinceRestart := 0
	for i, cand := range pending {
		if err := ctx.Err(); err != nil {
			s.tracker.fatal(err)
			sum.Elapsed = s.now().Sub(started)
			return sum, err
		}

		if pagesSinceRestart >= s.cfg.RestartEvery {
			log.Infof("restarting browser session after %d pages", pagesSinceRestart)
			if err := b.Restart(ctx); err != nil {
				s.tracker.fatal(err)
				sum.Elapsed = s.now().Sub(started)
				return sum, fmt.Errorf("restarting browser: %w", err)
			}
			pagesSinceRestart = 0
		}

		s.tracker.working(cand.Ref)
		created, err := s.syncOne(ctx, b, cand)
		pagesSinceRestart++
		if err != nil {
			log.Warnf("failed %s: %v", cand.Ref, err)
			s.tracker.failed(cand.Ref, err)
			sum.Failed++
		} else {
			s.tracker.done(created)
			if created {
				sum.Added++
			} else {
				sum.Updated++
			}
		}

		if (i+1)%10 == 0 {
			log.Infof("progress: %d/%d processed, %d added, %d updated, %d failed",
				i+1, len(pending), sum.Added, sum.Updated, sum.Failed)
		}
		if i < len(pending)-1 {
			if err := pause(ctx, s.cfg.Delay); err != nil {
				sum.Elapsed = s.now().Sub(started)
				return sum, err
			}
		}
	}

	sum.Elapsed = s.now().Sub(started)
	log.Infof("sync complete: %d added, %d updated, %d skipped, %d failed in %s",
		sum.Added, sum.Updated, sum.Skipped, sum.Failed, sum.Elapsed.Round(time.Second))
	return sum, nil
}

// computeWindow derives the date range to sync. A valid archived record at
// date D means everything through D is settled, so the window opens the day
// after. An empty archive starts from the configured epoch.
func (s *Syncer) computeWindow(ctx context.Context) (discover.Window, error) {
	end := s.now().UTC().Truncate(24 * time.Hour)
	latest, found, err := s.db.LatestValidDate(ctx)
	if err != nil {
		return discover.Window{}, err
	}
	start := s.cfg.Epoch
	if found {
		start = latest.AddDate(0, 0, 1)
	}
	return discover.Window{Start: start, End: end}, nil
}

// syncOne fetches, extracts, and persists a single document, retrying
// transient failures with a growing delay and restarting the browser session
// when it is lost mid-fetch.
func (s *Syncer) syncOne(ctx context.Context, b Browser, cand discover.Candidate) (bool, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := pause(ctx, time.Duration(attempt)*s.cfg.Delay); err != nil {
				return false, err
			}
		}

		rec, err := s.scrapeOne(ctx, b, cand)
		if err == nil {
			return s.db.Upsert(ctx, rec)
		}
		lastErr = err

		if errors.Is(err, browser.ErrSessionLost) {
			s.cfg.Log.Warnf("browser session lost on %s, restarting", cand.Ref)
			if rerr := b.Restart(ctx); rerr != nil {
				return false, fmt.Errorf("restart after session loss: %w", rerr)
			}
			continue
		}
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		// Empty extraction included: a partially rendered page often fills
		// in on a fresh load, so it gets the full attempt budget too.
	}
	return false, lastErr
}

// scrapeOne loads a document and turns it into an archive record. The
// browser-rendered view is tried first; when it yields no dialogue, a static
// HTTP fetch of the same reference is tried before giving up.
func (s *Syncer) scrapeOne(ctx context.Context, b Browser, cand discover.Candidate) (archive.Record, error) {
	if err := b.Navigate(ctx, cand.Ref); err != nil {
		return archive.Record{}, err
	}
	html, err := b.HTML(ctx)
	if err != nil {
		return archive.Record{}, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return archive.Record{}, fmt.Errorf("parsing document: %w", err)
	}

	sections, strategy := extract.Dialogue(doc)
	if len(sections) == 0 {
		doc, sections, strategy, err = s.staticFallback(ctx, cand.Ref, doc)
		if err != nil {
			return archive.Record{}, err
		}
	}

	res := normalize.Assemble(sections, s.cfg.PrimarySpeaker)
	if res.WordCount < s.cfg.MinWords {
		return archive.Record{}, fmt.Errorf("%w: %d words via %q", ErrNoDialogue, res.WordCount, strategy)
	}
	s.cfg.Log.Debugf("extracted %s via %q: %d words, %d speakers",
		cand.Ref, strategy, res.WordCount, len(res.Speakers))

	title := pageTitle(doc, cand.Ref)
	header := doc.Find("header, .event-meta, .transcript-meta").Text()

	speakers, err := json.Marshal(res.Speakers)
	if err != nil {
		return archive.Record{}, err
	}
	return archive.Record{
		Reference:        cand.Ref,
		Title:            title,
		EventDate:        cand.Date.Format("2006-01-02"),
		EventType:        inferEventType(title),
		Location:         extractLocation(header),
		WordCount:        res.WordCount,
		PrimaryWordCount: res.PrimarySpeakerWordCount,
		DurationSeconds:  extractDuration(header),
		Dialogue:         res.DialogueText,
		SpeakersJSON:     string(speakers),
	}, nil
}

// staticFallback re-fetches the reference without the browser and re-runs
// extraction over the raw response.
func (s *Syncer) staticFallback(ctx context.Context, ref string, rendered *goquery.Document) (*goquery.Document, []extract.Section, string, error) {
	body, err := s.fetchStatic(ctx, ref)
	if err != nil {
		return rendered, nil, "", fmt.Errorf("%w: rendered view empty, static fetch failed: %v", ErrNoDialogue, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return rendered, nil, "", fmt.Errorf("%w: static response unparseable: %v", ErrNoDialogue, err)
	}
	sections, strategy := extract.Dialogue(doc)
	if len(sections) == 0 {
		return rendered, nil, "", ErrNoDialogue
	}
	return doc, sections, strategy + "+static", nil
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

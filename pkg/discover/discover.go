// Package discover enumerates candidate document references from the
// source's scroll-paginated listing page, keeping only those whose embedded
// dates fall inside the sync window.
package discover

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"time"

	"github.com/weppos/publicsuffix-go/publicsuffix"
)

// ErrNoDatesObserved means the listing never rendered a single dated link:
// the page likely failed to load. Fatal for the run.
var ErrNoDatesObserved = errors.New("discovery: listing rendered no dated links")

// Lister drives the remote listing view. *browser.Session satisfies it; tests
// substitute a scripted fake.
type Lister interface {
	Navigate(ctx context.Context, url string) error
	SelectNewestSort(ctx context.Context) error
	Links(ctx context.Context, selector string) ([]string, error)
	ScrollBottom(ctx context.Context) error
}

// Logger is the minimal logging surface this package needs; logrus satisfies
// it. A nil Logger disables logging.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

// Window is the date range a sync run attempts to cover, both ends inclusive.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether d falls inside the window.
func (w Window) Contains(d time.Time) bool {
	return !d.Before(w.Start) && !d.After(w.End)
}

// Candidate pairs a canonical reference with the date parsed out of it.
type Candidate struct {
	Ref  string
	Date time.Time
}

// Config controls one enumeration pass.
type Config struct {
	SearchURL    string
	LinkSelector string        // anchors to scan; default "a[href*='/transcript/']"
	ScrollCap    int           // hard bound on rendering steps; default 200
	StallScrolls int           // consecutive no-progress steps before stopping; default 10
	ScrollPause  time.Duration // settle time after each scroll; default 1500ms
	Log          Logger
}

func (c *Config) defaults() {
	if c.LinkSelector == "" {
		c.LinkSelector = "a[href*='/transcript/']"
	}
	if c.ScrollCap <= 0 {
		c.ScrollCap = 200
	}
	if c.StallScrolls <= 0 {
		c.StallScrolls = 10
	}
	if c.ScrollPause <= 0 {
		c.ScrollPause = 1500 * time.Millisecond
	}
	if c.Log == nil {
		c.Log = nopLogger{}
	}
}

// Run loads the listing, best-effort selects newest-first ordering, then
// scrolls and scans rendered anchors until enumeration converges: no new
// in-window candidates for StallScrolls consecutive steps while the oldest
// observed date has passed the window start. The ScrollCap bounds stalled or
// endless listings. Candidates are deduplicated by reference and returned
// newest first.
func Run(ctx context.Context, l Lister, window Window, cfg Config) ([]Candidate, error) {
	cfg.defaults()
	log := cfg.Log

	if err := l.Navigate(ctx, cfg.SearchURL); err != nil {
		return nil, err
	}
	if err := l.SelectNewestSort(ctx); err != nil {
		log.Warnf("could not select newest-first ordering: %v", err)
	}

	seen := make(map[string]Candidate)
	var oldest time.Time
	datesObserved := false
	stall := 0

	for step := 1; step <= cfg.ScrollCap; step++ {
		links, err := l.Links(ctx, cfg.LinkSelector)
		if err != nil {
			log.Warnf("scanning rendered links failed: %v", err)
		}

		added := 0
		for _, href := range links {
			ref := CanonicalRef(href)
			if ref == "" || !sameSite(ref, cfg.SearchURL) {
				continue
			}
			d, ok := ParseRefDate(ref)
			if !ok {
				continue
			}
			datesObserved = true
			if oldest.IsZero() || d.Before(oldest) {
				oldest = d
			}
			if !window.Contains(d) {
				continue
			}
			if _, dup := seen[ref]; !dup {
				seen[ref] = Candidate{Ref: ref, Date: d}
				added++
			}
		}

		if added == 0 {
			stall++
		} else {
			stall = 0
		}

		if stall >= cfg.StallScrolls {
			if !datesObserved {
				return nil, ErrNoDatesObserved
			}
			if oldest.Before(window.Start) {
				log.Infof("discovery converged after %d steps: %d candidates in window", step, len(seen))
				break
			}
			// Stalled but the listing has not yet rendered past the
			// window start; keep scrolling up to the cap.
		}

		if step%10 == 0 {
			log.Infof("scrolling... step %d, %d candidates in window", step, len(seen))
		}

		if err := l.ScrollBottom(ctx); err != nil {
			log.Warnf("scroll failed: %v", err)
		}
		if err := pause(ctx, cfg.ScrollPause); err != nil {
			return nil, err
		}
	}

	if !datesObserved {
		return nil, ErrNoDatesObserved
	}

	out := make([]Candidate, 0, len(seen))
	for _, c := range seen {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// sameSite guards against offsite links in the listing feed: both the
// candidate and the listing must share a registrable domain.
func sameSite(ref, searchURL string) bool {
	rh := hostOf(ref)
	sh := hostOf(searchURL)
	if rh == "" || sh == "" {
		return false
	}
	rd, err := publicsuffix.Domain(rh)
	if err != nil {
		return false
	}
	sd, err := publicsuffix.Domain(sh)
	if err != nil {
		return false
	}
	return rd == sd
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
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

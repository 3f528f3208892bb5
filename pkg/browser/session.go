// Package browser wraps a headless Chrome tab behind the small set of page
// operations the rest of the program needs. A session tracks its own health
// and can be restarted in place when the tab dies under it.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrSessionLost means the underlying tab or browser process is gone and the
// session must be restarted before further use.
var ErrSessionLost = errors.New("browser: session lost")

// State is the session lifecycle state.
type State int

const (
	// Healthy means the tab is responsive.
	Healthy State = iota
	// Degraded means the last operation failed in a way that suggests the
	// tab is gone; callers should Restart.
	Degraded
	// Restarting means a restart is in progress.
	Restarting
	// Closed means the session was shut down deliberately and will not be
	// restarted.
	Closed
)

func (s State) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Restarting:
		return "restarting"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session owns one Chrome tab. Methods are not safe for concurrent use; the
// sync loop drives a session from a single goroutine.
type Session struct {
	opts Options

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	mu    sync.Mutex
	state State
	pages int // navigations since last (re)start
}

// NewSession launches Chrome and opens a tab. Close must be called to release
// the browser process.
func NewSession(ctx context.Context, opts Options) (*Session, error) {
	opts.defaults()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	// Force the browser to actually start so launch failures surface here
	// rather than on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	return &Session{
		opts:        opts,
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		state:       Healthy,
	}, nil
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Pages returns the number of navigations since the last restart.
func (s *Session) Pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pages
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Navigate loads url and waits for the body element, bounded by NavTimeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, s.opts.NavTimeout)
	defer cancel()

	err := s.run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.pages++
	s.mu.Unlock()
	return nil
}

// HTML returns the full rendered document markup.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, chromedp.OuterHTML("html", &html))
	return html, err
}

// Text returns the rendered text of the first element matching selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.run(ctx, chromedp.Text(selector, &text, chromedp.ByQuery))
	return text, err
}

// Links returns the href of every anchor matching selector in document order.
func (s *Session) Links(ctx context.Context, selector string) ([]string, error) {
	var hrefs []string
	script := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(a => a.href)`, selector)
	err := s.run(ctx, chromedp.Evaluate(script, &hrefs))
	return hrefs, err
}

// ScrollBottom scrolls the page to its current bottom, which triggers the
// listing's lazy loader.
func (s *Session) ScrollBottom(ctx context.Context) error {
	return s.run(ctx,
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil))
}

// SelectNewestSort clicks the listing's date-descending sort control if one
// is present. Returns an error when no control was found, which callers treat
// as advisory.
func (s *Session) SelectNewestSort(ctx context.Context) error {
	var clicked bool
	script := `
(function() {
	const candidates = document.querySelectorAll(
		"select[name*='sort'], [data-sort], button[class*='sort'], a[class*='sort']");
	for (const el of candidates) {
		if (el.tagName === 'SELECT') {
			for (const opt of el.options) {
				const t = opt.textContent.toLowerCase();
				if (t.includes('newest') || t.includes('date') || t.includes('recent')) {
					el.value = opt.value;
					el.dispatchEvent(new Event('change', { bubbles: true }));
					return true;
				}
			}
			continue;
		}
		const t = (el.textContent || '').toLowerCase();
		if (t.includes('newest') || t.includes('recent')) {
			el.click();
			return true;
		}
	}
	return false;
})()`
	if err := s.run(ctx, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return errors.New("browser: no sort control found")
	}
	// Give the listing a moment to re-render in the new order.
	return s.run(ctx, chromedp.Sleep(1500*time.Millisecond))
}

// Restart tears down the current tab and opens a fresh one from the same
// browser process. Used both proactively, to shed accumulated tab state on
// long runs, and reactively after ErrSessionLost.
func (s *Session) Restart(ctx context.Context) error {
	s.setState(Restarting)

	s.tabCancel()
	tabCtx, tabCancel := chromedp.NewContext(s.allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		s.setState(Degraded)
		return fmt.Errorf("restarting browser tab: %w", err)
	}

	s.mu.Lock()
	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.pages = 0
	s.state = Healthy
	s.mu.Unlock()
	return nil
}

// Close shuts the tab and the browser process down.
func (s *Session) Close() error {
	s.tabCancel()
	s.allocCancel()
	s.setState(Closed)
	return nil
}

// run executes actions on the session tab, translating tab-death failures
// into ErrSessionLost and marking the session degraded.
func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	s.mu.Lock()
	tabCtx := s.tabCtx
	s.mu.Unlock()

	// Honor the caller's deadline while running against the tab context.
	runCtx := tabCtx
	var cancel context.CancelFunc
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(tabCtx, deadline)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := chromedp.Run(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if isSessionErr(err) {
		s.setState(Degraded)
		return fmt.Errorf("%w: %v", ErrSessionLost, err)
	}
	return err
}

// isSessionErr classifies errors that mean the tab or browser process itself
// is gone, as opposed to a page-level failure worth retrying in place.
func isSessionErr(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"websocket",
		"target closed",
		"session closed",
		"browser closed",
		"chrome failed to start",
		"connection refused",
		"broken pipe",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

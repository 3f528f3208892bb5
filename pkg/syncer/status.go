package syncer

import (
	"sync"
	"time"
)

const recentErrorCap = 50

// Status is a point-in-time snapshot of a sync run, served by the status
// endpoint and printed at the end of CLI runs.
type Status struct {
	Running          bool      `json:"running"`
	StartedAt        time.Time `json:"started_at,omitempty"`
	FinishedAt       time.Time `json:"finished_at,omitempty"`
	WindowStart      string    `json:"window_start,omitempty"`
	WindowEnd        string    `json:"window_end,omitempty"`
	Discovered       int       `json:"discovered"`
	Total            int       `json:"total"`
	Processed        int       `json:"processed"`
	Added            int       `json:"added"`
	Updated          int       `json:"updated"`
	Skipped          int       `json:"skipped"`
	Failed           int       `json:"failed"`
	CurrentReference string    `json:"current_reference,omitempty"`
	LastError        string    `json:"last_error,omitempty"`
	RecentErrors     []string  `json:"recent_errors,omitempty"`
}

// tracker guards the mutable run status. All writes go through its methods;
// Snapshot hands out copies.
type tracker struct {
	mu sync.Mutex
	s  Status
}

func (t *tracker) begin(windowStart, windowEnd string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s = Status{
		Running:     true,
		StartedAt:   time.Now().UTC(),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
}

func (t *tracker) discovered(total, pending int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Discovered = total
	t.s.Total = pending
}

func (t *tracker) working(ref string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.CurrentReference = ref
}

func (t *tracker) done(created bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Processed++
	if created {
		t.s.Added++
	} else {
		t.s.Updated++
	}
	t.s.CurrentReference = ""
}

func (t *tracker) skipped(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Skipped = n
}

func (t *tracker) failed(ref string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Processed++
	t.s.Failed++
	t.s.CurrentReference = ""
	t.s.LastError = err.Error()
	t.s.RecentErrors = append(t.s.RecentErrors, ref+": "+err.Error())
	if len(t.s.RecentErrors) > recentErrorCap {
		t.s.RecentErrors = t.s.RecentErrors[len(t.s.RecentErrors)-recentErrorCap:]
	}
}

func (t *tracker) fatal(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.LastError = err.Error()
}

func (t *tracker) finish() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Running = false
	t.s.FinishedAt = time.Now().UTC()
	t.s.CurrentReference = ""
}

// Snapshot returns a copy of the current status. The RecentErrors slice is
// copied so callers can't race the tracker.
func (t *tracker) Snapshot() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.s
	out.RecentErrors = append([]string(nil), t.s.RecentErrors...)
	return out
}

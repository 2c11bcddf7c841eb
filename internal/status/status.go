// Package status is the single user-facing status line. The last write
// wins; there is no history.
package status

import (
	"sync"
	"time"

	"github.com/felixgeelhaar/steamrec/internal/ui"
)

type Severity int

const (
	None Severity = iota
	Loading
	Success
	Error
)

func (s Severity) String() string {
	switch s {
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	}
	return "none"
}

// Status is what the presentation layer shows until it is overwritten.
type Status struct {
	Message  string
	Severity Severity
	At       time.Time
}

// Reporter holds the current status and forwards each write to a UI sink.
type Reporter struct {
	mu      sync.RWMutex
	current Status
	sink    ui.UI
	now     func() time.Time
}

func NewReporter(sink ui.UI) *Reporter {
	if sink == nil {
		sink = ui.SilentUI{}
	}
	return &Reporter{sink: sink, now: time.Now}
}

// SetSink swaps the UI that receives status writes.
func (r *Reporter) SetSink(u ui.UI) {
	if u == nil {
		u = ui.SilentUI{}
	}
	r.mu.Lock()
	r.sink = u
	r.mu.Unlock()
}

func (r *Reporter) Set(s Status) {
	if s.At.IsZero() {
		s.At = r.now()
	}
	r.mu.Lock()
	r.current = s
	sink := r.sink
	r.mu.Unlock()

	sink.UpdateStatus(s.Severity.String() + ": " + s.Message)
}

func (r *Reporter) Loading(msg string) { r.Set(Status{Message: msg, Severity: Loading}) }
func (r *Reporter) Success(msg string) { r.Set(Status{Message: msg, Severity: Success}) }
func (r *Reporter) Error(msg string)   { r.Set(Status{Message: msg, Severity: Error}) }

func (r *Reporter) Current() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Reset clears the status without notifying the sink.
func (r *Reporter) Reset() {
	r.mu.Lock()
	r.current = Status{}
	r.mu.Unlock()
}

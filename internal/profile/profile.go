// Package profile replaces the teacher's compile-time profiling gates with
// an observer interface: EnterStage/ExitStage hooks the orchestrator calls
// around ingest, merge, and write-back. The default is a no-op; -profile
// swaps in a timing collector that prints per-stage wall-clock duration to
// stderr once the run completes.
package profile

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Observer receives stage transition notifications from the orchestrator.
type Observer interface {
	EnterStage(name string)
	ExitStage(name string, err error)
}

// Noop implements Observer with no side effects; it's the orchestrator's
// default when profiling isn't requested.
type Noop struct{}

func (Noop) EnterStage(string)       {}
func (Noop) ExitStage(string, error) {}

// Timing collects wall-clock duration per stage and, on Report, prints a
// one-line summary per stage to its writer. Grounded in the same
// enter/exit-and-tally shape as Sorter.GetStats in the teacher, generalized
// from byte/row counters to stage durations.
type Timing struct {
	mu      sync.Mutex
	started map[string]time.Time
	elapsed map[string]time.Duration
	order   []string
	errs    map[string]error
}

// NewTiming creates an empty Timing collector.
func NewTiming() *Timing {
	return &Timing{
		started: make(map[string]time.Time),
		elapsed: make(map[string]time.Duration),
		errs:    make(map[string]error),
	}
}

func (t *Timing) EnterStage(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, seen := t.started[name]; !seen {
		t.order = append(t.order, name)
	}
	t.started[name] = time.Now()
}

func (t *Timing) ExitStage(name string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	start, ok := t.started[name]
	if !ok {
		return
	}
	t.elapsed[name] += time.Since(start)
	if err != nil {
		t.errs[name] = err
	}
}

// Report writes one line per stage, in the order stages were first entered.
func (t *Timing) Report(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, name := range t.order {
		status := "ok"
		if err := t.errs[name]; err != nil {
			status = fmt.Sprintf("error: %v", err)
		}
		fmt.Fprintf(w, "stage %-10s %12s  %s\n", name, t.elapsed[name].Round(time.Millisecond), status)
	}
}

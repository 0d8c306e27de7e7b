package batch

import (
	"sync"
	"time"
)

// Progress is a point-in-time view of a run.
type Progress struct {
	TotalItems       int
	ProcessedItems   int
	TotalBatches     int
	ProcessedBatches int
	Elapsed          time.Duration
}

// Percent returns completion in the range 0-100, by items.
func (p Progress) Percent() float64 {
	if p.TotalItems == 0 {
		return 0
	}
	return float64(p.ProcessedItems) / float64(p.TotalItems) * 100
}

// Complete reports whether every batch has finished.
func (p Progress) Complete() bool {
	return p.ProcessedBatches >= p.TotalBatches
}

type tracker struct {
	mu       sync.Mutex
	progress Progress
	start    time.Time
	fn       ProgressFunc
}

func newTracker(items, batches int, fn ProgressFunc) *tracker {
	return &tracker{
		progress: Progress{TotalItems: items, TotalBatches: batches},
		start:    time.Now(),
		fn:       fn,
	}
}

// done records a finished chunk and reports it. fn is called under the lock so
// snapshots arrive in order.
func (t *tracker) done(items int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.progress.ProcessedItems += items
	t.progress.ProcessedBatches++
	t.progress.Elapsed = time.Since(t.start)
	if t.fn != nil {
		t.fn(t.progress)
	}
}

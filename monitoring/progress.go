package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/rvwalk/sim"
)

// A ProgressBar counts how many of a known number of translations have
// started and finished. A nil bar ignores updates.
type ProgressBar struct {
	lock sync.Mutex

	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// NewProgressBar creates a bar that is not shown by any monitor.
func NewProgressBar(name string, total uint64) *ProgressBar {
	return &ProgressBar{
		ID:        sim.GetIDGenerator().Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}
}

// Start marks n items as in progress.
func (b *ProgressBar) Start(n uint64) {
	if b == nil {
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.InProgress += n
}

// Finish moves n in-progress items to finished. Items finished without being
// started count as finished only.
func (b *ProgressBar) Finish(n uint64) {
	if b == nil {
		return
	}

	b.lock.Lock()
	defer b.lock.Unlock()

	b.InProgress -= min(n, b.InProgress)
	b.Finished += n
}

// Counts returns the finished and in-progress counts.
func (b *ProgressBar) Counts() (finished, inProgress uint64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.Finished, b.InProgress
}

// snapshot copies the bar for serialization.
func (b *ProgressBar) snapshot() progressSnapshot {
	b.lock.Lock()
	defer b.lock.Unlock()

	return progressSnapshot{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
}

type progressSnapshot struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

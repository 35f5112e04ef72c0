package tracing

import (
	"sync"

	"github.com/sarchlab/rvwalk/sim"
)

// taskTimer measures how long tasks that pass a filter take.
type taskTimer struct {
	lock       sync.Mutex
	timeTeller sim.TimeTeller
	filter     TaskFilter
	startTimes map[string]sim.VTimeInSec
}

func newTaskTimer(timeTeller sim.TimeTeller, filter TaskFilter) taskTimer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return taskTimer{
		timeTeller: timeTeller,
		filter:     filter,
		startTimes: make(map[string]sim.VTimeInSec),
	}
}

func (t *taskTimer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.startTimes[task.ID] = t.timeTeller.CurrentTime()
	t.lock.Unlock()
}

func (t *taskTimer) StepTask(_ Task) {}

// stop returns the duration of a timed task. The caller must hold the lock.
func (t *taskTimer) stop(task Task) (d sim.VTimeInSec, ok bool) {
	start, ok := t.startTimes[task.ID]
	if !ok {
		return 0, false
	}

	delete(t.startTimes, task.ID)

	return t.timeTeller.CurrentTime() - start, true
}

// TotalTimeTracer adds up the time of tasks. Overlapping tasks are counted
// in full.
type TotalTimeTracer struct {
	taskTimer

	totalTime sim.VTimeInSec
}

// NewTotalTimeTracer creates a TotalTimeTracer. A nil filter traces every
// task.
func NewTotalTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *TotalTimeTracer {
	return &TotalTimeTracer{taskTimer: newTaskTimer(timeTeller, filter)}
}

// TotalTime returns the time spent in finished tasks.
func (t *TotalTimeTracer) TotalTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.totalTime
}

// EndTask adds the time of the task.
func (t *TotalTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	d, ok := t.stop(task)
	if !ok {
		return
	}

	t.totalTime += d
}

// AverageTimeTracer reports the mean and the maximum time of tasks.
type AverageTimeTracer struct {
	taskTimer

	totalTime sim.VTimeInSec
	maxTime   sim.VTimeInSec
	taskCount uint64
}

// NewAverageTimeTracer creates an AverageTimeTracer. A nil filter traces
// every task.
func NewAverageTimeTracer(
	timeTeller sim.TimeTeller,
	filter TaskFilter,
) *AverageTimeTracer {
	return &AverageTimeTracer{taskTimer: newTaskTimer(timeTeller, filter)}
}

// AverageTime returns the mean time of finished tasks.
func (t *AverageTimeTracer) AverageTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.taskCount == 0 {
		return 0
	}

	return t.totalTime / sim.VTimeInSec(t.taskCount)
}

// MaxTime returns the time of the longest finished task.
func (t *AverageTimeTracer) MaxTime() sim.VTimeInSec {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.maxTime
}

// TotalCount returns the number of finished tasks.
func (t *AverageTimeTracer) TotalCount() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.taskCount
}

// EndTask records the time of the task.
func (t *AverageTimeTracer) EndTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	d, ok := t.stop(task)
	if !ok {
		return
	}

	t.totalTime += d
	t.taskCount++

	if d > t.maxTime {
		t.maxTime = d
	}
}

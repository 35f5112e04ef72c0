package tracing

import "sync"

// StepCountTracer counts the steps of tasks by step name.
type StepCountTracer struct {
	lock   sync.Mutex
	filter TaskFilter

	// seen holds the step names each traced task has reached.
	seen      map[string]map[string]bool
	names     []string
	steps     map[string]uint64
	withSteps map[string]uint64
}

// NewStepCountTracer creates a StepCountTracer. A nil filter traces every
// task.
func NewStepCountTracer(filter TaskFilter) *StepCountTracer {
	if filter == nil {
		filter = func(Task) bool { return true }
	}

	return &StepCountTracer{
		filter:    filter,
		seen:      make(map[string]map[string]bool),
		steps:     make(map[string]uint64),
		withSteps: make(map[string]uint64),
	}
}

// StepNames returns the step names in the order they first occurred.
func (t *StepCountTracer) StepNames() []string {
	t.lock.Lock()
	defer t.lock.Unlock()

	return append([]string(nil), t.names...)
}

// StepCount returns how often a step occurred.
func (t *StepCountTracer) StepCount(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.steps[name]
}

// TaskCount returns how many tasks reached a step at least once.
func (t *StepCountTracer) TaskCount(name string) uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.withSteps[name]
}

// StartTask begins tracing a task.
func (t *StepCountTracer) StartTask(task Task) {
	if !t.filter(task) {
		return
	}

	t.lock.Lock()
	t.seen[task.ID] = make(map[string]bool)
	t.lock.Unlock()
}

// StepTask counts the steps of a traced task.
func (t *StepCountTracer) StepTask(task Task) {
	t.lock.Lock()
	defer t.lock.Unlock()

	seen, ok := t.seen[task.ID]
	if !ok {
		return
	}

	for _, step := range task.Steps {
		if _, known := t.steps[step.What]; !known {
			t.names = append(t.names, step.What)
		}

		t.steps[step.What]++

		if !seen[step.What] {
			seen[step.What] = true
			t.withSteps[step.What]++
		}
	}
}

// EndTask stops tracing a task.
func (t *StepCountTracer) EndTask(task Task) {
	t.lock.Lock()
	delete(t.seen, task.ID)
	t.lock.Unlock()
}

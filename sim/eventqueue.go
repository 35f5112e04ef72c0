package sim

import (
	"container/heap"
	"sync"
)

// EventQueue are a queue of event ordered by the time of events
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl provides a thread safe event queue
type EventQueueImpl struct {
	sync.Mutex
	events eventHeap
}

// NewEventQueue creates and returns a newly created EventQueue
func NewEventQueue() *EventQueueImpl {
	q := new(EventQueueImpl)
	q.events = eventHeap{items: make([]heapItem, 0)}
	heap.Init(&q.events)

	return q
}

// Push adds an event to the event queue
func (q *EventQueueImpl) Push(evt Event) {
	q.Lock()
	q.events.nextSeq++
	heap.Push(&q.events, heapItem{evt: evt, seq: q.events.nextSeq})
	q.Unlock()
}

// Pop returns the next earliest event
func (q *EventQueueImpl) Pop() Event {
	q.Lock()
	item := heap.Pop(&q.events).(heapItem)
	q.Unlock()

	return item.evt
}

// Len returns the number of event in the queue
func (q *EventQueueImpl) Len() int {
	q.Lock()
	l := q.events.Len()
	q.Unlock()

	return l
}

// Peek returns the event in front of the queue without removing it from the
// queue
func (q *EventQueueImpl) Peek() Event {
	q.Lock()
	evt := q.events.items[0].evt
	q.Unlock()

	return evt
}

// heapItem records the push order so that same-time events pop in the order
// they were scheduled.
type heapItem struct {
	evt Event
	seq uint64
}

type eventHeap struct {
	items   []heapItem
	nextSeq uint64
}

// Len returns the length of the event queue
func (h eventHeap) Len() int {
	return len(h.items)
}

// Less determines the order between two events. Less returns true if the i-th
// event happens before the j-th event.
func (h eventHeap) Less(i, j int) bool {
	ti, tj := h.items[i].evt.Time(), h.items[j].evt.Time()
	if ti != tj {
		return ti < tj
	}

	return h.items[i].seq < h.items[j].seq
}

// Swap changes the position of two events in the event queue
func (h eventHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
}

// Push adds an event into the event queue
func (h *eventHeap) Push(x interface{}) {
	h.items = append(h.items, x.(heapItem))
}

// Pop removes and returns the next event to happen
func (h *eventHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	item := old[n-1]
	h.items = old[0 : n-1]

	return item
}

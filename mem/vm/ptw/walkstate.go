package ptw

import (
	"fmt"
	"log"

	"github.com/sarchlab/rvwalk/mem/vm"
)

type execMode int

const (
	functionalMode execMode = iota
	atomicMode
	timingMode
)

// walkStep is the tagged progress of a walk. Exactly one of the step types
// below is current at any time.
type walkStep interface {
	stepName() string
}

// firstStagePending waits for the first-stage entry at level. slot is
// host-physical.
type firstStagePending struct {
	level int
	slot  uint64
}

func (s firstStagePending) stepName() string {
	return fmt.Sprintf("first-stage-l%d", s.level)
}

type resumeKind int

const (
	resumeFirstStage resumeKind = iota
	resumeFinalMerge
	resumeGStageOnly
)

// gStagePending waits for the G-stage entry at level while translating gpa.
// When the leaf is found, the walk resumes as resume says.
type gStagePending struct {
	level    int
	slot     uint64
	gpa      uint64
	resume   resumeKind
	resumeAt int
}

func (s gStagePending) stepName() string {
	return fmt.Sprintf("g-stage-l%d", s.level)
}

// awaitingFinalMerge holds a finished first stage whose leaf frame still
// needs its G-stage translation.
type awaitingFinalMerge struct {
	gpa uint64
}

func (awaitingFinalMerge) stepName() string { return "final-merge" }

type walkDone struct{}

func (walkDone) stepName() string { return "done" }

type walkState struct {
	walker *Walker
	handle handle
	req    *Request
	exec   execMode
	typ    vm.WalkType
	step   walkStep
	taskID string

	result Result

	fsLeaf     vm.PTE
	fsLevel    int
	fsLogBytes uint

	pendingRead   *Packet
	pendingWrites []*Packet
	inflight      int
	retrying      bool
	started       bool
	finished      bool
	orphaned      bool
}

func (s *walkState) isDone() bool {
	_, ok := s.step.(walkDone)
	return ok
}

// readAddr returns the host-physical slot the current step reads.
func (s *walkState) readAddr() uint64 {
	switch st := s.step.(type) {
	case firstStagePending:
		return st.slot
	case gStagePending:
		return st.slot
	default:
		log.Panicf("walk of %#x has nothing to read in step %s",
			s.req.VAddr, s.step.stepName())
	}

	return 0
}

// handle names a walk state in the arena. Stale handles resolve to nil.
type handle struct {
	index int32
	gen   uint32
}

type arenaSlot struct {
	state *walkState
	gen   uint32
	refs  int
}

// arena owns timing walk states. The in-flight queue holds one reference and
// every outstanding memory transaction holds another; a state is freed when
// the last reference goes away.
type arena struct {
	slots []arenaSlot
	free  []int32
	live  int
}

func (a *arena) alloc(s *walkState) handle {
	var idx int32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, arenaSlot{})
		idx = int32(len(a.slots) - 1)
	}

	slot := &a.slots[idx]
	slot.state = s
	slot.refs = 1
	a.live++

	h := handle{index: idx, gen: slot.gen}
	s.handle = h

	return h
}

func (a *arena) slot(h handle) *arenaSlot {
	if int(h.index) >= len(a.slots) {
		return nil
	}

	slot := &a.slots[h.index]
	if slot.gen != h.gen || slot.state == nil {
		return nil
	}

	return slot
}

func (a *arena) get(h handle) *walkState {
	slot := a.slot(h)
	if slot == nil {
		return nil
	}

	return slot.state
}

func (a *arena) retain(h handle) {
	slot := a.slot(h)
	if slot == nil {
		log.Panicf("retaining freed walk state %v", h)
	}

	slot.refs++
}

func (a *arena) release(h handle) {
	slot := a.slot(h)
	if slot == nil {
		log.Panicf("releasing freed walk state %v", h)
	}

	slot.refs--
	if slot.refs > 0 {
		return
	}

	slot.state = nil
	slot.gen++
	a.free = append(a.free, h.index)
	a.live--
}

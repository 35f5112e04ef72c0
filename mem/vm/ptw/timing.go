package ptw

import (
	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/tracing"
)

// StartTiming queues a request. The outcome is delivered through
// req.Translation at a later cycle.
func (w *Walker) StartTiming(req *Request) {
	w.requestMustBeValid(req, timingMode)
	w.stats.Timing++

	s := w.newWalkState(req, timingMode)
	h := w.arena.alloc(s)
	w.queue = append(w.queue, h)

	w.TickLater()
}

// Tick drains cancelled or TLB-satisfiable requests from the head of the
// queue and starts the walk of the head.
func (w *Walker) Tick() bool {
	madeProgress := false

	for i := 0; i < w.numSquashPerCycle && len(w.queue) > 0; i++ {
		s := w.head()

		if !s.finished && s.req.Translation.Squashed() {
			w.squash(s)
			madeProgress = true

			continue
		}

		if !s.started && w.finishFromTLB(s) {
			madeProgress = true
			continue
		}

		break
	}

	madeProgress = w.startHead() || madeProgress

	return madeProgress
}

func (w *Walker) head() *walkState {
	if len(w.queue) == 0 {
		return nil
	}

	return w.arena.get(w.queue[0])
}

// startHead begins the walk at the head of the queue once no transaction of
// a squashed walk is left on the port. A head the TLB can serve is left for
// the next cycle's drain.
func (w *Walker) startHead() bool {
	s := w.head()
	if s == nil || s.started || w.orphanInflight > 0 {
		return false
	}

	if _, hit := w.peekTLB(s.req); hit {
		w.TickLater()
		return true
	}

	s.started = true
	w.startTask(s)

	if err := s.begin(); err != nil {
		w.fail(s, err)
		return true
	}

	w.pump(s)

	return true
}

func (w *Walker) finishFromTLB(s *walkState) bool {
	res, hit := w.lookupTLB(s.req)
	if !hit {
		return false
	}

	s.finished = true
	w.remove(s)

	if err := w.checkData(s.req, res.PAddr); err != nil {
		w.stats.Faults++
		s.req.Translation.Finish(s.req, Result{}, err)

		return true
	}

	s.req.Translation.Finish(s.req, res, nil)

	return true
}

// pump sends whatever the state needs next. Reads go out one at a time and
// only when nothing else of the state is outstanding. A finished walk sends
// its entry updates and then reports.
func (w *Walker) pump(s *walkState) {
	if s.retrying || s.finished {
		return
	}

	if s.isDone() {
		for len(s.pendingWrites) > 0 {
			if !w.send(s, s.pendingWrites[0]) {
				return
			}

			tracing.AddTaskStep(s.taskID, w, stepWriteBack)
			s.pendingWrites = s.pendingWrites[1:]
			w.stats.PTEWrites++
		}

		w.succeed(s)

		return
	}

	if s.inflight > 0 {
		return
	}

	if s.pendingRead == nil {
		s.pendingRead = newReadPacket(w.nextPacketID(), s.readAddr())
		s.pendingRead.Task = s.taskID
	}

	if w.send(s, s.pendingRead) {
		tracing.AddTaskStep(s.taskID, w, s.step.stepName())
		s.pendingRead = nil
	}
}

func (w *Walker) send(s *walkState, pkt *Packet) bool {
	h := s.handle
	w.arena.retain(h)

	ok := w.port.SendTiming(pkt, func(p *Packet) {
		w.complete(h, p)
	})
	if !ok {
		w.arena.release(h)
		s.retrying = true
		w.stats.Retries++
		tracing.AddTaskStep(s.taskID, w, stepRetry)

		return false
	}

	s.inflight++

	return true
}

// RecvReqRetry tells the walker that the port can take packets again. The
// head resends exactly the packet that was refused.
func (w *Walker) RecvReqRetry() {
	s := w.head()
	if s == nil || !s.retrying {
		return
	}

	s.retrying = false
	w.pump(s)
}

// complete handles the completion of one transaction of the state behind h.
func (w *Walker) complete(h handle, pkt *Packet) {
	s := w.arena.get(h)
	defer w.arena.release(h)

	s.inflight--

	if s.orphaned {
		w.orphanInflight--
		if w.orphanInflight == 0 {
			w.TickLater()
		}

		return
	}

	if pkt.IsWrite {
		if s.finished && s.inflight == 0 {
			w.remove(s)
		}

		return
	}

	if s.req.Translation.Squashed() {
		w.squash(s)
		return
	}

	if err := s.consume(pkt); err != nil {
		w.fail(s, err)
		return
	}

	w.pump(s)
}

// squash reports the cancellation and takes the state off the queue. The
// state lives on until its outstanding transactions complete.
func (w *Walker) squash(s *walkState) {
	w.stats.Squashes++
	s.finished = true
	s.pendingWrites = nil
	s.pendingRead = nil

	if s.inflight > 0 {
		s.orphaned = true
		w.orphanInflight += s.inflight
	}

	w.remove(s)
	s.req.Translation.Finish(s.req, Result{}, vm.NewSquashFault(s.req.VAddr))
}

func (w *Walker) fail(s *walkState, err error) {
	w.stats.Faults++
	s.finished = true
	s.pendingWrites = nil

	if s.inflight == 0 {
		w.remove(s)
	}

	s.req.Translation.Finish(s.req, Result{NumReads: s.result.NumReads}, err)
}

// succeed fills the TLB and reports. The state stays at the head until the
// entry updates it sent complete.
func (w *Walker) succeed(s *walkState) {
	if s.req.Translation.Squashed() {
		w.squash(s)
		return
	}

	s.finished = true
	w.insertTLB(s)

	if s.inflight == 0 {
		w.remove(s)
	}

	s.req.Translation.Finish(s.req, s.result, nil)
}

// remove takes a state off the queue and drops the queue reference.
func (w *Walker) remove(s *walkState) {
	for i, h := range w.queue {
		if h != s.handle {
			continue
		}

		w.queue = append(w.queue[:i], w.queue[i+1:]...)
		if s.started {
			w.endTask(s)
		}

		w.arena.release(h)
		w.TickLater()

		return
	}
}

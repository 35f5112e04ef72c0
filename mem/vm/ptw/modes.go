package ptw

import "github.com/sarchlab/rvwalk/tracing"

// Trace step names besides the walk steps.
const (
	stepWriteBack = "write-back"
	stepRetry     = "retry"
)

// StartFunctional walks the tables without timing. It never updates
// accessed or dirty bits and never fills the TLB.
func (w *Walker) StartFunctional(req *Request) (Result, error) {
	w.requestMustBeValid(req, functionalMode)
	w.stats.Functional++

	return w.walkSync(w.newWalkState(req, functionalMode))
}

// StartAtomic walks the tables without timing but with all side effects.
// The result carries the latency the memory accesses sum up to.
func (w *Walker) StartAtomic(req *Request) (Result, error) {
	w.requestMustBeValid(req, atomicMode)
	w.stats.Atomic++

	if res, hit := w.lookupTLB(req); hit {
		if err := w.checkData(req, res.PAddr); err != nil {
			w.stats.Faults++
			return Result{}, err
		}

		return res, nil
	}

	return w.walkSync(w.newWalkState(req, atomicMode))
}

func (w *Walker) walkSync(s *walkState) (Result, error) {
	w.startTask(s)
	defer w.endTask(s)

	err := s.begin()
	for err == nil && !s.isDone() {
		pkt := newReadPacket(w.nextPacketID(), s.readAddr())
		pkt.Task = s.taskID
		tracing.AddTaskStep(s.taskID, w, s.step.stepName())
		w.sendSync(s, pkt)
		err = s.consume(pkt)
	}

	if err != nil {
		w.stats.Faults++
		return Result{Latency: s.result.Latency, NumReads: s.result.NumReads}, err
	}

	for _, pkt := range s.pendingWrites {
		tracing.AddTaskStep(s.taskID, w, stepWriteBack)
		w.sendSync(s, pkt)
		w.stats.PTEWrites++
	}
	s.pendingWrites = nil

	w.insertTLB(s)

	return s.result, nil
}

func (w *Walker) sendSync(s *walkState, pkt *Packet) {
	if s.exec == functionalMode {
		w.port.SendFunctional(pkt)
		return
	}

	s.result.Latency += w.port.SendAtomic(pkt)
}

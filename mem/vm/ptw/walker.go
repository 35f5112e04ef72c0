// Package ptw implements a page table walker for Sv39 with the hypervisor
// extension. It walks one-stage, two-stage and G-stage-only tables in
// functional, atomic, and timing modes.
package ptw

import (
	"log"

	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/sim"
	"github.com/sarchlab/rvwalk/tracing"
)

// TLB is the translation cache the walker consults and fills.
type TLB interface {
	Lookup(key vm.TLBKey) (vm.TLBEntry, bool)
	Insert(entry vm.TLBEntry)
	CheckPermissions(
		ctx vm.Context,
		mode vm.AccessMode,
		pte vm.PTE,
		stage vm.Stage,
	) error
	CheckEntry(
		ctx vm.Context,
		entry vm.TLBEntry,
		mode vm.AccessMode,
	) (vm.Stage, error)
}

// PhysChecker decides whether a physical access may proceed.
type PhysChecker interface {
	Check(paddr, size uint64, mode vm.AccessMode, priv vm.PrivilegeMode) error
}

// pageTableChecker is implemented by checkers with extra rules for page
// table accesses.
type pageTableChecker interface {
	CheckPageTable(paddr uint64, mode vm.AccessMode) error
}

// Walker translates addresses by walking page tables.
type Walker struct {
	*sim.TickingComponent

	tlb               TLB
	pmp               PhysChecker
	pma               PhysChecker
	port              MemPort
	numSquashPerCycle int

	arena          arena
	queue          []handle
	orphanInflight int
	stats          Stats
	nextPktID      uint64
}

// Stats returns a copy of the counters.
func (w *Walker) Stats() Stats {
	return w.stats
}

// NumInFlight returns the number of timing requests waiting or walking.
func (w *Walker) NumInFlight() int {
	return len(w.queue)
}

// NumLive returns the number of timing walk states not yet freed, including
// squashed ones whose transactions are still outstanding.
func (w *Walker) NumLive() int {
	return w.arena.live
}

func (w *Walker) nextPacketID() uint64 {
	w.nextPktID++
	return w.nextPktID
}

func (w *Walker) requestMustBeValid(req *Request, exec execMode) {
	if req.Mode < vm.Read || req.Mode > vm.Execute {
		log.Panicf("unknown access mode %d", int(req.Mode))
	}

	if !req.Ctx.NeedsTranslation() {
		log.Panicf("walk requested for untranslated access to %#x", req.VAddr)
	}

	if exec == timingMode && req.Translation == nil {
		log.Panicf("timing request for %#x has no translation", req.VAddr)
	}
}

func (w *Walker) newWalkState(req *Request, exec execMode) *walkState {
	s := &walkState{
		walker: w,
		req:    req,
		exec:   exec,
		typ:    req.Ctx.WalkType(),
		taskID: sim.GetIDGenerator().Generate(),
	}

	return s
}

// lookupTLB serves a request from the TLB when a cached entry grants the
// access.
func (w *Walker) lookupTLB(req *Request) (Result, bool) {
	entry, found := w.peekTLB(req)
	if !found {
		return Result{}, false
	}

	w.stats.TLBHits++

	return Result{
		PAddr:  entry.PAddr(req.VAddr),
		Entry:  entry,
		TLBHit: true,
	}, true
}

// peekTLB finds a cached entry that grants the access without counting a
// hit.
func (w *Walker) peekTLB(req *Request) (vm.TLBEntry, bool) {
	if req.BypassTLB {
		return vm.TLBEntry{}, false
	}

	entry, found := w.tlb.Lookup(req.Ctx.Key(req.VAddr))
	if !found {
		return vm.TLBEntry{}, false
	}

	if _, err := w.tlb.CheckEntry(req.Ctx, entry, req.Mode); err != nil {
		return vm.TLBEntry{}, false
	}

	return entry, true
}

// checkData runs protection and attribute checks on the translated access.
func (w *Walker) checkData(req *Request, paddr uint64) error {
	size := req.Size
	if size == 0 {
		size = 1
	}

	if w.pmp != nil {
		if err := w.pmp.Check(paddr, size, req.Mode, req.Ctx.Priv); err != nil {
			return vm.NewAccessFault(req.Mode, vm.FirstStage, req.VAddr, err)
		}
	}

	if w.pma != nil {
		if err := w.pma.Check(paddr, size, req.Mode, req.Ctx.Priv); err != nil {
			return vm.NewAccessFault(req.Mode, vm.FirstStage, req.VAddr, err)
		}
	}

	return nil
}

func (w *Walker) insertTLB(s *walkState) {
	if s.req.BypassTLB || s.exec == functionalMode {
		return
	}

	w.tlb.Insert(s.result.Entry)
}

func (w *Walker) startTask(s *walkState) {
	tracing.StartTask(s.taskID, s.req.ID, w, "walk", s.typ.String(), s.req)
}

func (w *Walker) endTask(s *walkState) {
	tracing.EndTask(s.taskID, w)
}

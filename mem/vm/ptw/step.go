package ptw

import (
	"log"

	"github.com/sarchlab/rvwalk/mem/vm"
)

// leafInfo is what a leaf entry resolves to.
type leafInfo struct {
	pte      vm.PTE
	ppn      uint64
	logBytes uint
}

func (s *walkState) ctx() vm.Context {
	return s.req.Ctx
}

func (s *walkState) pageFault(
	stage vm.Stage,
	class vm.FaultClass,
	level int,
	gpa uint64,
) *vm.Fault {
	return vm.NewPageFault(s.req.Mode, stage, class, s.req.VAddr, gpa, level)
}

// begin sets up the first read of the walk.
func (s *walkState) begin() error {
	switch s.typ {
	case vm.OneStage, vm.TwoStage:
		if !vm.IsCanonical(s.req.VAddr) {
			return s.pageFault(vm.FirstStage, vm.FaultAlignment, vm.TopLevel, 0)
		}

		root := s.ctx().FirstStageATP().Root()
		slot := root + vm.Index(s.req.VAddr, vm.TopLevel, false)*vm.PTESize

		return s.enterFirstStage(vm.TopLevel, slot)
	case vm.GStageOnly:
		return s.enterGStage(s.req.VAddr, resumeGStageOnly, 0)
	default:
		log.Panicf("unknown walk type %d", int(s.typ))
	}

	return nil
}

// enterFirstStage moves to reading the first-stage entry at addr. In
// two-stage walks addr is guest-physical and is translated first.
func (s *walkState) enterFirstStage(level int, addr uint64) error {
	if s.typ == vm.OneStage {
		s.step = firstStagePending{level: level, slot: addr}
		return nil
	}

	return s.enterGStage(addr, resumeFirstStage, level)
}

// consume processes the entry returned by the read of the current step.
func (s *walkState) consume(pkt *Packet) error {
	s.result.NumReads++
	s.walker.stats.PTEReads++

	pte := vm.PTE(pkt.Uint64())

	var err error
	switch st := s.step.(type) {
	case firstStagePending:
		err = s.consumeFirstStage(st, pte)
	case gStagePending:
		err = s.consumeGStage(st, pte)
	default:
		log.Panicf("walk of %#x got an entry in step %s",
			s.req.VAddr, s.step.stepName())
	}

	if err != nil {
		s.pendingWrites = nil
		return err
	}

	if _, ok := s.step.(awaitingFinalMerge); ok {
		err = s.advance()
	}

	if err == nil && s.isDone() {
		err = s.finalize()
	}

	if err != nil {
		s.pendingWrites = nil
	}

	return err
}

func (s *walkState) consumeFirstStage(st firstStagePending, pte vm.PTE) error {
	if err := s.checkTableAccess(st.slot, vm.FirstStage); err != nil {
		return err
	}

	leaf, next, err := s.inspect(
		pte, st.slot, st.level, vm.FirstStage, s.req.VAddr, s.req.Mode, 0)
	if err != nil {
		return err
	}

	if leaf == nil {
		return s.enterFirstStage(st.level-1, next)
	}

	if s.typ == vm.OneStage {
		s.fillEntry(*leaf, st.level)
		s.step = walkDone{}

		return nil
	}

	s.fsLeaf = leaf.pte
	s.fsLevel = st.level
	s.fsLogBytes = leaf.logBytes
	s.step = awaitingFinalMerge{
		gpa: leaf.ppn<<vm.PageShift | vm.PageOffset(s.req.VAddr, leaf.logBytes),
	}

	return nil
}

// advance starts the final G-stage pass of a two-stage walk.
func (s *walkState) advance() error {
	st := s.step.(awaitingFinalMerge)
	return s.enterGStage(st.gpa, resumeFinalMerge, 0)
}

// checkTableAccess runs protection and attribute checks on the read of a
// page table entry. Implicit table accesses are checked as supervisor
// accesses.
func (s *walkState) checkTableAccess(slot uint64, stage vm.Stage) error {
	w := s.walker

	if w.pmp != nil {
		err := w.pmp.Check(slot, vm.PTESize, vm.Read, vm.PrivS)
		if err != nil {
			return vm.NewAccessFault(s.req.Mode, stage, s.req.VAddr, err)
		}
	}

	if w.pma != nil {
		var err error
		if ptc, ok := w.pma.(pageTableChecker); ok {
			err = ptc.CheckPageTable(slot, vm.Read)
		} else {
			err = w.pma.Check(slot, vm.PTESize, vm.Read, vm.PrivS)
		}

		if err != nil {
			return vm.NewAccessFault(s.req.Mode, stage, s.req.VAddr, err)
		}
	}

	return nil
}

// checkWriteBack runs protection and attribute checks on an entry update,
// at the privilege of the access that caused it.
func (s *walkState) checkWriteBack(slot uint64, stage vm.Stage) error {
	w := s.walker
	priv := s.ctx().Priv

	if w.pmp != nil {
		if err := w.pmp.Check(slot, vm.PTESize, vm.Write, priv); err != nil {
			return vm.NewAccessFault(s.req.Mode, stage, s.req.VAddr, err)
		}
	}

	if w.pma != nil {
		if err := w.pma.Check(slot, vm.PTESize, vm.Write, priv); err != nil {
			return vm.NewAccessFault(s.req.Mode, stage, s.req.VAddr, err)
		}
	}

	return nil
}

// inspect applies the per-entry rules shared by both stages. It returns the
// leaf when the entry maps memory, or the address of the next slot in the
// same stage otherwise. target is the address the stage translates and
// mode the access the stage checks the leaf for.
func (s *walkState) inspect(
	pte vm.PTE,
	slot uint64,
	level int,
	stage vm.Stage,
	target uint64,
	mode vm.AccessMode,
	gpa uint64,
) (*leafInfo, uint64, error) {
	switch {
	case !pte.V():
		return nil, 0, s.pageFault(stage, vm.FaultPermission, level, gpa)
	case pte.W() && !pte.R():
		return nil, 0, s.pageFault(stage, vm.FaultProtocol, level, gpa)
	case pte.HasBadEncoding():
		return nil, 0, s.pageFault(stage, vm.FaultProtocol, level, gpa)
	}

	if !pte.IsLeaf() {
		if pte.N() {
			return nil, 0, s.pageFault(stage, vm.FaultProtocol, level, gpa)
		}

		if level == 0 {
			return nil, 0, s.pageFault(stage, vm.FaultAlignment, level, gpa)
		}

		next := pte.PPN()<<vm.PageShift +
			vm.Index(target, level-1, false)*vm.PTESize

		return nil, next, nil
	}

	err := s.walker.tlb.CheckPermissions(s.ctx(), mode, pte, stage)
	if err != nil {
		return nil, 0, s.pageFault(stage, vm.FaultPermission, level, gpa).Wrap(err)
	}

	if pte.HasMisalignedSuperpage(level) || pte.HasBadNapotEncoding(level) {
		return nil, 0, s.pageFault(stage, vm.FaultProtocol, level, gpa)
	}

	updated := pte.With(vm.PTEAccessed)
	if mode == vm.Write {
		updated = updated.With(vm.PTEDirty)
	}

	if updated != pte && s.exec != functionalMode {
		if err := s.checkWriteBack(slot, stage); err != nil {
			return nil, 0, err
		}

		s.queueWrite(slot, updated)
	}

	leaf := &leafInfo{
		pte:      updated,
		ppn:      updated.PPN(),
		logBytes: vm.LogBytesAtLevel(level),
	}
	if updated.N() {
		leaf.ppn &^= (1 << vm.NapotShift) - 1
		leaf.logBytes = vm.PageShift + vm.NapotShift
	}

	if !pte.D() && mode != vm.Write {
		leaf.pte = leaf.pte.Without(vm.PTEWrite)
	}

	return leaf, 0, nil
}

// queueWrite records an entry update. Updates of a slot already queued are
// merged so that each entry is written once per walk.
func (s *walkState) queueWrite(slot uint64, pte vm.PTE) {
	for _, pkt := range s.pendingWrites {
		if pkt.Addr == slot {
			pkt.SetUint64(pkt.Uint64() | uint64(pte))
			return
		}
	}

	pkt := newWritePacket(s.walker.nextPacketID(), slot, uint64(pte))
	pkt.Task = s.taskID
	s.pendingWrites = append(s.pendingWrites, pkt)
}

// fillEntry records the leaf of a one-stage or G-stage-only walk.
func (s *walkState) fillEntry(leaf leafInfo, level int) {
	ctx := s.ctx()

	s.result.Entry = vm.TLBEntry{
		VAddr:    vm.PageBase(s.req.VAddr, leaf.logBytes),
		PPN:      leaf.ppn,
		LogBytes: leaf.logBytes,
		Level:    level,
		ASID:     ctx.ASID(),
		VMID:     ctx.VMID(),
		Virt:     ctx.Virt,
		Type:     s.typ,
		PTE:      leaf.pte,
	}
}

// finalize turns the finished walk into a result.
func (s *walkState) finalize() error {
	entry := s.result.Entry
	s.result.PAddr = entry.PAddr(s.req.VAddr)

	if s.typ == vm.TwoStage {
		s.walker.stats.countLeaf(s.fsLogBytes)
	} else {
		s.walker.stats.countLeaf(entry.LogBytes)
	}

	if s.exec == functionalMode {
		return nil
	}

	return s.walker.checkData(s.req, s.result.PAddr)
}

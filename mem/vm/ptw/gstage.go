package ptw

import (
	"log"

	"github.com/sarchlab/rvwalk/mem/vm"
)

// enterGStage starts translating a guest physical address. The root table
// is 16KiB and indexed with the widened top level index.
func (s *walkState) enterGStage(gpa uint64, resume resumeKind, resumeAt int) error {
	if !vm.InGPARange(gpa) {
		return s.pageFault(vm.GStage, vm.FaultAlignment, vm.TopLevel, gpa)
	}

	root := s.ctx().HGATP.Root()
	s.step = gStagePending{
		level:    vm.TopLevel,
		slot:     root + vm.Index(gpa, vm.TopLevel, true)*vm.PTESize,
		gpa:      gpa,
		resume:   resume,
		resumeAt: resumeAt,
	}

	return nil
}

func (s *walkState) consumeGStage(st gStagePending, pte vm.PTE) error {
	if err := s.checkTableAccess(st.slot, vm.GStage); err != nil {
		return err
	}

	// Translating the address of a first-stage entry is an implicit read.
	mode := s.req.Mode
	if st.resume == resumeFirstStage {
		mode = vm.Read
	}

	leaf, next, err := s.inspect(
		pte, st.slot, st.level, vm.GStage, st.gpa, mode, st.gpa)
	if err != nil {
		return err
	}

	if leaf == nil {
		st.level--
		st.slot = next
		s.step = st

		return nil
	}

	hpa := leaf.ppn<<vm.PageShift | vm.PageOffset(st.gpa, leaf.logBytes)

	switch st.resume {
	case resumeFirstStage:
		s.step = firstStagePending{level: st.resumeAt, slot: hpa}
	case resumeFinalMerge:
		s.mergeTwoStage(leaf.pte, hpa)
		s.step = walkDone{}
	case resumeGStageOnly:
		s.fillEntry(*leaf, st.level)
		s.step = walkDone{}
	default:
		log.Panicf("unknown g-stage resume kind %d", int(st.resume))
	}

	return nil
}

// mergeTwoStage combines the first-stage leaf with the G-stage leaf of its
// frame. The combined entry always maps a single 4KiB page.
func (s *walkState) mergeTwoStage(gLeaf vm.PTE, hpa uint64) {
	ctx := s.ctx()

	s.result.Entry = vm.TLBEntry{
		VAddr:    vm.PageBase(s.req.VAddr, vm.PageShift),
		PPN:      hpa >> vm.PageShift,
		LogBytes: vm.PageShift,
		Level:    s.fsLevel,
		ASID:     ctx.ASID(),
		VMID:     ctx.VMID(),
		Virt:     true,
		Type:     vm.TwoStage,
		PTE:      gLeaf,
		GPTE:     s.fsLeaf,
	}
}

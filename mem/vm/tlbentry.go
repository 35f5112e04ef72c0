package vm

import "fmt"

// TLBKey identifies a translation in a TLB.
type TLBKey struct {
	VAddr uint64
	ASID  uint16
	VMID  uint16
	Virt  bool
}

// TLBEntry is a cached translation produced by a walk.
type TLBEntry struct {
	// VAddr is the page aligned virtual (or guest physical) address.
	VAddr uint64
	// PPN is the page number of the base of the mapped page.
	PPN      uint64
	LogBytes uint
	Level    int
	ASID     uint16
	VMID     uint16
	Virt     bool
	Type     WalkType

	// PTE is the leaf that grants the final access: the first-stage leaf for
	// one-stage walks, the G-stage leaf otherwise.
	PTE PTE
	// GPTE is the VS-stage leaf of a two-stage walk.
	GPTE PTE
}

// PageSize returns the size of the mapped page in bytes.
func (e TLBEntry) PageSize() uint64 {
	return uint64(1) << e.LogBytes
}

// Contains reports whether vaddr falls in the mapped page.
func (e TLBEntry) Contains(vaddr uint64) bool {
	return PageBase(vaddr, e.LogBytes) == e.VAddr
}

// PAddr translates vaddr.
func (e TLBEntry) PAddr(vaddr uint64) uint64 {
	return e.PPN<<PageShift | PageOffset(vaddr, e.LogBytes)
}

// FirstStagePTE returns the first-stage leaf, if the entry has one.
func (e TLBEntry) FirstStagePTE() (PTE, bool) {
	switch e.Type {
	case OneStage:
		return e.PTE, true
	case TwoStage:
		return e.GPTE, true
	default:
		return 0, false
	}
}

// GStagePTE returns the G-stage leaf, if the entry has one.
func (e TLBEntry) GStagePTE() (PTE, bool) {
	if e.Type == OneStage {
		return 0, false
	}

	return e.PTE, true
}

// Matches reports whether the entry serves key.
func (e TLBEntry) Matches(key TLBKey) bool {
	if e.Virt != key.Virt || e.VMID != key.VMID || !e.Contains(key.VAddr) {
		return false
	}

	if e.Type == GStageOnly {
		return true
	}

	pte, _ := e.FirstStagePTE()

	return pte.G() || e.ASID == key.ASID
}

func (e TLBEntry) String() string {
	return fmt.Sprintf("tlb{%s va:%#x ppn:%#x log:%d asid:%d vmid:%d %s}",
		e.Type, e.VAddr, e.PPN, e.LogBytes, e.ASID, e.VMID, e.PTE)
}

package vm

import (
	"errors"
	"fmt"
)

// PhysMem is memory that page tables live in.
type PhysMem interface {
	ReadUint64(addr uint64) (uint64, error)
	WriteUint64(addr uint64, value uint64) error
}

// FrameAllocator hands out physical frames for page table pages.
type FrameAllocator interface {
	// AllocFrames returns the PPN of n contiguous zeroed frames aligned to n
	// frames.
	AllocFrames(n uint64) uint64
}

// BumpAllocator allocates frames upward from a starting PPN.
type BumpAllocator struct {
	next uint64
}

// NewBumpAllocator creates an allocator whose first frame is startPPN.
func NewBumpAllocator(startPPN uint64) *BumpAllocator {
	return &BumpAllocator{next: startPPN}
}

// AllocFrames allocates n aligned contiguous frames.
func (a *BumpAllocator) AllocFrames(n uint64) uint64 {
	if rem := a.next % n; rem != 0 {
		a.next += n - rem
	}

	ppn := a.next
	a.next += n

	return ppn
}

// ErrAlreadyMapped is returned when a mapping overlaps an existing leaf.
var ErrAlreadyMapped = errors.New("address already mapped")

// ErrMisalignedMapping is returned when an address is not aligned to the
// page size it is mapped with.
var ErrMisalignedMapping = errors.New("mapping not aligned to page size")

// PageTable builds Sv39 (or Sv39x4) tables in memory.
type PageTable struct {
	mem     PhysMem
	alloc   FrameAllocator
	rootPPN uint64
	widened bool
}

// NewPageTable allocates a root table. A widened table is a 16KiB G-stage
// root.
func NewPageTable(mem PhysMem, alloc FrameAllocator, widened bool) *PageTable {
	frames := uint64(1)
	if widened {
		frames = 1 << WidenedBits
	}

	return &PageTable{
		mem:     mem,
		alloc:   alloc,
		rootPPN: alloc.AllocFrames(frames),
		widened: widened,
	}
}

// RootPPN returns the page number of the root table.
func (t *PageTable) RootPPN() uint64 {
	return t.rootPPN
}

// Root returns the address of the root table.
func (t *PageTable) Root() uint64 {
	return t.rootPPN << PageShift
}

// SlotAddr returns the address of the entry for addr in the table at
// tablePPN.
func (t *PageTable) SlotAddr(tablePPN, addr uint64, level int) uint64 {
	return tablePPN<<PageShift + Index(addr, level, t.widened)*PTESize
}

// Map installs a leaf at level that maps vaddr to paddr with the flags.
// PTEValid is always set.
func (t *PageTable) Map(vaddr, paddr uint64, level int, flags PTE) error {
	logBytes := LogBytesAtLevel(level)
	if PageOffset(vaddr, logBytes) != 0 || PageOffset(paddr, logBytes) != 0 {
		return ErrMisalignedMapping
	}

	slot, err := t.slotFor(vaddr, level)
	if err != nil {
		return err
	}

	return t.mem.WriteUint64(slot,
		uint64(MakePTE(paddr>>PageShift, flags|PTEValid)))
}

// MapNapot installs the 16 level-0 entries of a 64KiB page.
func (t *PageTable) MapNapot(vaddr, paddr uint64, flags PTE) error {
	logBytes := uint(PageShift + NapotShift)
	if PageOffset(vaddr, logBytes) != 0 || PageOffset(paddr, logBytes) != 0 {
		return ErrMisalignedMapping
	}

	ppn := paddr>>PageShift | napotEncoding
	for i := uint64(0); i < 1<<NapotShift; i++ {
		slot, err := t.slotFor(vaddr+i*PageSize, 0)
		if err != nil {
			return err
		}

		err = t.mem.WriteUint64(slot,
			uint64(MakePTE(ppn, flags|PTEValid|PTENapot)))
		if err != nil {
			return err
		}
	}

	return nil
}

// SetPTE overwrites the entry that covers vaddr at level, creating tables
// on the way.
func (t *PageTable) SetPTE(vaddr uint64, level int, pte PTE) error {
	slot, err := t.slotFor(vaddr, level)
	if err != nil {
		return err
	}

	return t.mem.WriteUint64(slot, uint64(pte))
}

// slotFor walks down to level, allocating missing tables, and returns the
// address of the entry.
func (t *PageTable) slotFor(vaddr uint64, level int) (uint64, error) {
	tablePPN := t.rootPPN

	for l := TopLevel; l > level; l-- {
		slot := t.SlotAddr(tablePPN, vaddr, l)

		raw, err := t.mem.ReadUint64(slot)
		if err != nil {
			return 0, err
		}

		pte := PTE(raw)
		switch {
		case !pte.V():
			tablePPN = t.alloc.AllocFrames(1)
			err = t.mem.WriteUint64(slot, uint64(MakePTE(tablePPN, PTEValid)))
			if err != nil {
				return 0, err
			}
		case pte.IsLeaf():
			return 0, fmt.Errorf("%w: leaf at level %d covers %#x",
				ErrAlreadyMapped, l, vaddr)
		default:
			tablePPN = pte.PPN()
		}
	}

	return t.SlotAddr(tablePPN, vaddr, level), nil
}

// Lookup walks the table without permission checks and returns the leaf
// that maps vaddr, its level, and the translated address.
func (t *PageTable) Lookup(vaddr uint64) (pte PTE, level int, paddr uint64, ok bool) {
	tablePPN := t.rootPPN

	for level = TopLevel; level >= 0; level-- {
		raw, err := t.mem.ReadUint64(t.SlotAddr(tablePPN, vaddr, level))
		if err != nil {
			return 0, 0, 0, false
		}

		pte = PTE(raw)
		if pte.IsInvalid() {
			return 0, 0, 0, false
		}

		if pte.IsLeaf() {
			logBytes := LogBytesAtLevel(level)
			ppn := pte.PPN()
			if pte.N() {
				logBytes = PageShift + NapotShift
				ppn &^= mask(NapotShift)
			}

			paddr = PageBase(ppn<<PageShift, logBytes) | PageOffset(vaddr, logBytes)

			return pte, level, paddr, true
		}

		tablePPN = pte.PPN()
	}

	return 0, 0, 0, false
}

// GuestPhysMem exposes guest physical memory of a virtual machine through
// the G-stage table.
type GuestPhysMem struct {
	Host   PhysMem
	GStage *PageTable
}

// ErrUnmappedGuestAddress is returned when a G-stage table does not map a
// guest physical address.
var ErrUnmappedGuestAddress = errors.New("guest physical address not mapped")

func (g GuestPhysMem) hostAddr(gpa uint64) (uint64, error) {
	_, _, hpa, ok := g.GStage.Lookup(gpa)
	if !ok {
		return 0, fmt.Errorf("%w: %#x", ErrUnmappedGuestAddress, gpa)
	}

	return hpa, nil
}

// ReadUint64 reads the guest physical address.
func (g GuestPhysMem) ReadUint64(gpa uint64) (uint64, error) {
	hpa, err := g.hostAddr(gpa)
	if err != nil {
		return 0, err
	}

	return g.Host.ReadUint64(hpa)
}

// WriteUint64 writes the guest physical address.
func (g GuestPhysMem) WriteUint64(gpa uint64, value uint64) error {
	hpa, err := g.hostAddr(gpa)
	if err != nil {
		return err
	}

	return g.Host.WriteUint64(hpa, value)
}

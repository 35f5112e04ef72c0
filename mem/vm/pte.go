package vm

import "fmt"

// PTE is a raw Sv39 page table entry.
type PTE uint64

// PTE flag bits.
const (
	PTEValid PTE = 1 << iota
	PTERead
	PTEWrite
	PTEExec
	PTEUser
	PTEGlobal
	PTEAccessed
	PTEDirty
)

// PTENapot marks a contiguous 64KiB mapping.
const PTENapot PTE = 1 << 63

const (
	ptePPNShift      = 10
	pteReservedShift = 54
	pteReservedBits  = 7
	ptePBMTShift     = 61
	napotEncoding    = 0x8
)

// MakePTE creates an entry pointing at ppn with the given flags.
func MakePTE(ppn uint64, flags PTE) PTE {
	return PTE((ppn&mask(PPNBits))<<ptePPNShift) | flags
}

func (p PTE) has(f PTE) bool { return p&f != 0 }

// V reports the valid bit.
func (p PTE) V() bool { return p.has(PTEValid) }

// R reports the readable bit.
func (p PTE) R() bool { return p.has(PTERead) }

// W reports the writable bit.
func (p PTE) W() bool { return p.has(PTEWrite) }

// X reports the executable bit.
func (p PTE) X() bool { return p.has(PTEExec) }

// U reports the user bit.
func (p PTE) U() bool { return p.has(PTEUser) }

// G reports the global bit.
func (p PTE) G() bool { return p.has(PTEGlobal) }

// A reports the accessed bit.
func (p PTE) A() bool { return p.has(PTEAccessed) }

// D reports the dirty bit.
func (p PTE) D() bool { return p.has(PTEDirty) }

// N reports the NAPOT bit.
func (p PTE) N() bool { return p.has(PTENapot) }

// RSW returns the two software bits.
func (p PTE) RSW() uint64 { return (uint64(p) >> 8) & 0x3 }

// PBMT returns the page-based memory type field.
func (p PTE) PBMT() uint64 { return (uint64(p) >> ptePBMTShift) & 0x3 }

// Reserved returns bits 60:54.
func (p PTE) Reserved() uint64 {
	return (uint64(p) >> pteReservedShift) & mask(pteReservedBits)
}

// PPN returns the full physical page number.
func (p PTE) PPN() uint64 { return (uint64(p) >> ptePPNShift) & mask(PPNBits) }

// PPNFragment returns PPN[i]. PPN[2] is 26 bits wide.
func (p PTE) PPNFragment(i int) uint64 {
	ppn := p.PPN()
	if i == TopLevel {
		return ppn >> (LevelBits * TopLevel)
	}

	return (ppn >> (LevelBits * i)) & mask(LevelBits)
}

// IsLeaf reports whether a valid entry maps memory rather than a table.
func (p PTE) IsLeaf() bool {
	return p.V() && (p.R() || p.X())
}

// IsInvalid reports whether the entry is not valid or is writable without
// being readable.
func (p PTE) IsInvalid() bool {
	return !p.V() || (p.W() && !p.R())
}

// HasBadEncoding reports reserved bits or memory types that must not be set.
func (p PTE) HasBadEncoding() bool {
	return p.Reserved() != 0 || p.PBMT() == 3
}

// HasMisalignedSuperpage reports whether a leaf at level carries non-zero
// PPN fragments that the page offset covers.
func (p PTE) HasMisalignedSuperpage(level int) bool {
	if level == 0 {
		return false
	}

	return p.PPN()&mask(uint(LevelBits*level)) != 0
}

// HasBadNapotEncoding reports whether a NAPOT entry fails to encode a 64KiB
// page at the given level.
func (p PTE) HasBadNapotEncoding(level int) bool {
	if !p.N() {
		return false
	}

	return level != 0 || p.PPN()&mask(NapotShift) != napotEncoding
}

// With returns the entry with the flags set.
func (p PTE) With(flags PTE) PTE { return p | flags }

// Without returns the entry with the flags cleared.
func (p PTE) Without(flags PTE) PTE { return p &^ flags }

func (p PTE) String() string {
	flags := []byte("--------")
	names := "VRWXUGAD"
	for i := range names {
		if p&(1<<i) != 0 {
			flags[i] = names[i]
		}
	}

	return fmt.Sprintf("pte{ppn:%#x %s n:%t}", p.PPN(), flags, p.N())
}

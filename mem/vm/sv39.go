// Package vm defines the address translation vocabulary of an Sv39 RISC-V
// hart with the hypervisor extension, including page table entries, address
// translation registers, faults, TLB entries, and translation messages.
package vm

// Sv39 and Sv39x4 geometry.
const (
	PageShift   = 12
	PageSize    = uint64(1) << PageShift
	LevelBits   = 9
	Levels      = 3
	PTESize     = 8
	VAddrBits   = 39
	WidenedBits = 2
	GPAddrBits  = VAddrBits + WidenedBits
	NapotShift  = 4
	PPNBits     = 44
	PAddrBits   = PageShift + PPNBits
)

// TopLevel is the level a walk starts at.
const TopLevel = Levels - 1

func mask(bits uint) uint64 {
	return (uint64(1) << bits) - 1
}

// LevelShift returns the number of address bits covered by one entry at the
// given level.
func LevelShift(level int) uint {
	return uint(PageShift + LevelBits*level)
}

// LogBytesAtLevel returns the log2 page size of a leaf found at the level.
func LogBytesAtLevel(level int) uint {
	return LevelShift(level)
}

// Index extracts the table index of addr at the given level. When widened is
// set, the top level index carries WidenedBits extra bits, as in the G-stage
// root table.
func Index(addr uint64, level int, widened bool) uint64 {
	bits := uint(LevelBits)
	if widened && level == TopLevel {
		bits += WidenedBits
	}

	return (addr >> LevelShift(level)) & mask(bits)
}

// IsCanonical reports whether bits 63 down to VAddrBits-1 of vaddr all equal
// bit VAddrBits-1.
func IsCanonical(vaddr uint64) bool {
	high := vaddr >> (VAddrBits - 1)

	return high == 0 || high == mask(64-(VAddrBits-1))
}

// InGPARange reports whether gpa fits in the Sv39x4 guest physical space.
func InGPARange(gpa uint64) bool {
	return gpa>>GPAddrBits == 0
}

// PageBase aligns addr down to a page of 1<<logBytes bytes.
func PageBase(addr uint64, logBytes uint) uint64 {
	return addr &^ mask(logBytes)
}

// PageOffset returns the offset of addr in a page of 1<<logBytes bytes.
func PageOffset(addr uint64, logBytes uint) uint64 {
	return addr & mask(logBytes)
}

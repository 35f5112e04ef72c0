package pmp

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rvwalk/mem/vm"
)

// ErrPMAViolation is returned when an access does not suit the attributes of
// the memory it touches.
var ErrPMAViolation = errors.New("pma violation")

// Range describes the attributes of a piece of the physical address space.
type Range struct {
	Base uint64
	Size uint64
	Perm Perm
	// IO ranges are device registers.
	IO bool
}

// PMA checks that accesses target main memory with suitable attributes.
type PMA struct {
	ranges []Range
}

// NewPMA creates a checker over the given ranges.
func NewPMA(ranges ...Range) *PMA {
	return &PMA{ranges: ranges}
}

// AddRange adds a range.
func (p *PMA) AddRange(r Range) {
	p.ranges = append(p.ranges, r)
}

// Check decides an access of size bytes at paddr. Privilege does not
// matter to attributes.
func (p *PMA) Check(
	paddr, size uint64,
	mode vm.AccessMode,
	_ vm.PrivilegeMode,
) error {
	if size == 0 {
		size = 1
	}

	for _, r := range p.ranges {
		if paddr < r.Base || paddr+size > r.Base+r.Size {
			continue
		}

		if !r.Perm.allows(mode) {
			return fmt.Errorf("%w: %s not supported at %#x",
				ErrPMAViolation, mode, paddr)
		}

		return nil
	}

	return fmt.Errorf("%w: %#x is not backed", ErrPMAViolation, paddr)
}

// CheckPageTable decides an implicit page table access. Page tables must
// live in main memory.
func (p *PMA) CheckPageTable(paddr uint64, mode vm.AccessMode) error {
	for _, r := range p.ranges {
		if paddr >= r.Base && paddr+vm.PTESize <= r.Base+r.Size && r.IO {
			return fmt.Errorf("%w: page table in io range at %#x",
				ErrPMAViolation, paddr)
		}
	}

	return p.Check(paddr, vm.PTESize, mode, vm.PrivS)
}

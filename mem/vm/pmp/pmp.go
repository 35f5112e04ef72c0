// Package pmp models physical memory protection and physical memory
// attribute checks.
package pmp

import (
	"errors"
	"fmt"

	"github.com/sarchlab/rvwalk/mem/vm"
)

// Perm is a set of access rights of a region.
type Perm uint8

// Access rights.
const (
	PermR Perm = 1 << iota
	PermW
	PermX
)

// PermRWX grants everything.
const PermRWX = PermR | PermW | PermX

func (p Perm) allows(mode vm.AccessMode) bool {
	switch mode {
	case vm.Read:
		return p&PermR != 0
	case vm.Write:
		return p&PermW != 0
	default:
		return p&PermX != 0
	}
}

// ParsePerm converts strings such as "rw" or "rwx".
func ParsePerm(s string) (Perm, error) {
	var p Perm
	for _, c := range s {
		switch c {
		case 'r':
			p |= PermR
		case 'w':
			p |= PermW
		case 'x':
			p |= PermX
		case '-':
		default:
			return 0, fmt.Errorf("bad permission %q", s)
		}
	}

	return p, nil
}

// Region is one PMP entry.
type Region struct {
	Base   uint64
	Size   uint64
	Perm   Perm
	Locked bool
}

func (r Region) overlaps(addr, size uint64) bool {
	return addr < r.Base+r.Size && r.Base < addr+size
}

func (r Region) covers(addr, size uint64) bool {
	return addr >= r.Base && addr+size <= r.Base+r.Size
}

// ErrPMPDenied is returned when protection forbids an access.
var ErrPMPDenied = errors.New("pmp denied")

// PMP checks accesses against ordered regions. The lowest numbered region
// that overlaps the access decides it.
type PMP struct {
	regions []Region
}

// NewPMP creates a checker. With no regions, every access is allowed.
func NewPMP(regions ...Region) *PMP {
	return &PMP{regions: regions}
}

// AddRegion appends a lower priority region.
func (p *PMP) AddRegion(r Region) {
	p.regions = append(p.regions, r)
}

// Check decides an access of size bytes at paddr.
func (p *PMP) Check(
	paddr, size uint64,
	mode vm.AccessMode,
	priv vm.PrivilegeMode,
) error {
	if len(p.regions) == 0 {
		return nil
	}

	if size == 0 {
		size = 1
	}

	for i, r := range p.regions {
		if !r.overlaps(paddr, size) {
			continue
		}

		if priv == vm.PrivM && !r.Locked {
			return nil
		}

		if !r.covers(paddr, size) {
			return fmt.Errorf("%w: access %#x+%d straddles region %d",
				ErrPMPDenied, paddr, size, i)
		}

		if !r.Perm.allows(mode) {
			return fmt.Errorf("%w: region %d forbids %s at %#x",
				ErrPMPDenied, i, mode, paddr)
		}

		return nil
	}

	if priv == vm.PrivM {
		return nil
	}

	return fmt.Errorf("%w: no region matches %#x", ErrPMPDenied, paddr)
}

package vm

// ATPMode is the MODE field of satp, vsatp or hgatp.
type ATPMode uint8

// Supported modes. Sv39 and Sv39x4 share the encoding.
const (
	ModeBare   ATPMode = 0
	ModeSv39   ATPMode = 8
	ModeSv39x4 ATPMode = 8
)

func (m ATPMode) String() string {
	switch m {
	case ModeBare:
		return "bare"
	case ModeSv39:
		return "sv39"
	default:
		return "unknown"
	}
}

// SATP is the supervisor (or virtual supervisor) address translation and
// protection register.
type SATP uint64

// MakeSATP packs a satp value.
func MakeSATP(mode ATPMode, asid uint16, ppn uint64) SATP {
	return SATP(uint64(mode)<<60 | uint64(asid)<<44 | ppn&mask(PPNBits))
}

// Mode returns bits 63:60.
func (s SATP) Mode() ATPMode { return ATPMode(uint64(s) >> 60) }

// ASID returns bits 59:44.
func (s SATP) ASID() uint16 { return uint16(uint64(s) >> 44) }

// PPN returns bits 43:0.
func (s SATP) PPN() uint64 { return uint64(s) & mask(PPNBits) }

// Root returns the address of the root page table.
func (s SATP) Root() uint64 { return s.PPN() << PageShift }

// HGATP is the hypervisor guest address translation and protection
// register.
type HGATP uint64

// MakeHGATP packs an hgatp value.
func MakeHGATP(mode ATPMode, vmid uint16, ppn uint64) HGATP {
	return HGATP(uint64(mode)<<60 |
		uint64(vmid&uint16(mask(14)))<<44 |
		ppn&mask(PPNBits))
}

// Mode returns bits 63:60.
func (h HGATP) Mode() ATPMode { return ATPMode(uint64(h) >> 60) }

// VMID returns bits 57:44.
func (h HGATP) VMID() uint16 { return uint16((uint64(h) >> 44) & mask(14)) }

// PPN returns bits 43:0.
func (h HGATP) PPN() uint64 { return uint64(h) & mask(PPNBits) }

// Root returns the address of the 16KiB root table. The two low PPN bits are
// ignored.
func (h HGATP) Root() uint64 { return (h.PPN() &^ 0x3) << PageShift }

package vm

import "log"

// Context is a snapshot of the CSR state that governs one translation.
type Context struct {
	Priv  PrivilegeMode
	Virt  bool
	SATP  SATP
	VSATP SATP
	HGATP HGATP

	// MXR and SUM come from mstatus (sstatus).
	MXR bool
	SUM bool

	// VSMXR and VSSUM come from vsstatus and only apply to VS-stage
	// translation.
	VSMXR bool
	VSSUM bool
}

// NeedsTranslation reports whether accesses under the context go through
// the page tables at all.
func (c Context) NeedsTranslation() bool {
	if c.Priv == PrivM {
		return false
	}

	if c.Virt {
		return c.VSATP.Mode() != ModeBare || c.HGATP.Mode() != ModeBare
	}

	return c.SATP.Mode() != ModeBare
}

// WalkType decides the shape of the walk. It panics if the register state
// names no walk, since callers are expected to check NeedsTranslation.
func (c Context) WalkType() WalkType {
	if c.Virt {
		if c.HGATP.Mode() != ModeSv39x4 {
			log.Panicf("unsupported hgatp mode %d", c.HGATP.Mode())
		}

		switch c.VSATP.Mode() {
		case ModeBare:
			return GStageOnly
		case ModeSv39:
			return TwoStage
		default:
			log.Panicf("unsupported vsatp mode %d", c.VSATP.Mode())
		}
	}

	switch c.SATP.Mode() {
	case ModeSv39:
		return OneStage
	case ModeBare:
		log.Panicf("page table walk requested with satp in bare mode")
	default:
		log.Panicf("unsupported satp mode %d", c.SATP.Mode())
	}

	return OneStage
}

// FirstStageATP returns the register that roots the first-stage table.
func (c Context) FirstStageATP() SATP {
	if c.Virt {
		return c.VSATP
	}

	return c.SATP
}

// ASID returns the address space identifier of the first stage.
func (c Context) ASID() uint16 {
	return c.FirstStageATP().ASID()
}

// VMID returns the virtual machine identifier, zero when not virtualized.
func (c Context) VMID() uint16 {
	if !c.Virt {
		return 0
	}

	return c.HGATP.VMID()
}

// EffectiveMXR returns whether executable pages are readable at the stage.
func (c Context) EffectiveMXR(stage Stage) bool {
	if stage == FirstStage && c.Virt {
		return c.MXR || c.VSMXR
	}

	return c.MXR
}

// EffectiveSUM returns whether supervisor may touch user pages.
func (c Context) EffectiveSUM() bool {
	if c.Virt {
		return c.VSSUM
	}

	return c.SUM
}

// Key returns the TLB key of vaddr under the context.
func (c Context) Key(vaddr uint64) TLBKey {
	return TLBKey{
		VAddr: vaddr,
		ASID:  c.ASID(),
		VMID:  c.VMID(),
		Virt:  c.Virt,
	}
}

// CSRs is the subset of a hart register file that translation reads.
type CSRs struct {
	Priv  PrivilegeMode
	Virt  bool
	SATP  SATP
	VSATP SATP
	HGATP HGATP

	MXR  bool
	SUM  bool
	MPRV bool
	MPP  PrivilegeMode
	MPV  bool

	VSMXR bool
	VSSUM bool

	// SPVP is hstatus.SPVP, the privilege of hypervisor virtual-machine
	// loads and stores.
	SPVP bool
}

// Context derives the effective translation context of an access.
// forceVirt marks hypervisor virtual-machine loads and stores, which
// translate as if the hart were virtualized.
func (r *CSRs) Context(mode AccessMode, forceVirt bool) Context {
	priv, virt := r.Priv, r.Virt

	switch {
	case forceVirt:
		virt = true
		priv = PrivU
		if r.SPVP {
			priv = PrivS
		}
	case r.Priv == PrivM && r.MPRV && mode != Execute:
		priv = r.MPP
		virt = r.MPV && r.MPP != PrivM
	}

	return Context{
		Priv:  priv,
		Virt:  virt,
		SATP:  r.SATP,
		VSATP: r.VSATP,
		HGATP: r.HGATP,
		MXR:   r.MXR,
		SUM:   r.SUM,
		VSMXR: r.VSMXR,
		VSSUM: r.VSSUM,
	}
}

package tlb

import (
	"log"

	"github.com/sarchlab/rvwalk/mem/vm"
)

// CheckPermissions decides whether a leaf grants the access at a stage. It
// returns one of the vm.Err* reasons on denial.
func (t *TLB) CheckPermissions(
	ctx vm.Context,
	mode vm.AccessMode,
	pte vm.PTE,
	stage vm.Stage,
) error {
	switch stage {
	case vm.FirstStage:
		if err := checkPrivilege(ctx, mode, pte); err != nil {
			return err
		}
	case vm.GStage:
		if !pte.U() {
			return vm.ErrGStageNotUser
		}
	default:
		log.Panicf("unknown stage %d", int(stage))
	}

	return checkAccess(mode, pte, ctx.EffectiveMXR(stage))
}

func checkPrivilege(ctx vm.Context, mode vm.AccessMode, pte vm.PTE) error {
	switch ctx.Priv {
	case vm.PrivU:
		if !pte.U() {
			return vm.ErrSupervisorPage
		}
	case vm.PrivS:
		if pte.U() && (mode == vm.Execute || !ctx.EffectiveSUM()) {
			return vm.ErrUserPage
		}
	default:
		log.Panicf("first-stage check at privilege %s", ctx.Priv)
	}

	return nil
}

func checkAccess(mode vm.AccessMode, pte vm.PTE, mxr bool) error {
	switch mode {
	case vm.Read:
		if !pte.R() && !(mxr && pte.X()) {
			return vm.ErrNotReadable
		}
	case vm.Write:
		if !pte.W() {
			return vm.ErrNotWritable
		}
	case vm.Execute:
		if !pte.X() {
			return vm.ErrNotExecutable
		}
	}

	return nil
}

// CheckEntry re-checks a cached entry against an access. Entries cached for
// reads of clean pages have W cleared, so a store to them fails here and
// walks again to set D.
func (t *TLB) CheckEntry(
	ctx vm.Context,
	entry vm.TLBEntry,
	mode vm.AccessMode,
) (vm.Stage, error) {
	if pte, ok := entry.FirstStagePTE(); ok {
		if err := t.CheckPermissions(ctx, mode, pte, vm.FirstStage); err != nil {
			return vm.FirstStage, err
		}
	}

	if pte, ok := entry.GStagePTE(); ok {
		if err := t.CheckPermissions(ctx, mode, pte, vm.GStage); err != nil {
			return vm.GStage, err
		}
	}

	return vm.FirstStage, nil
}

package vm

import (
	"errors"
	"fmt"
	"log"
)

// ExceptionCause is a RISC-V synchronous exception code.
type ExceptionCause uint8

// Exception codes raised by translation.
const (
	CauseNone                ExceptionCause = 0
	CauseInstAccessFault     ExceptionCause = 1
	CauseLoadAccessFault     ExceptionCause = 5
	CauseStoreAccessFault    ExceptionCause = 7
	CauseInstPageFault       ExceptionCause = 12
	CauseLoadPageFault       ExceptionCause = 13
	CauseStorePageFault      ExceptionCause = 15
	CauseInstGuestPageFault  ExceptionCause = 20
	CauseLoadGuestPageFault  ExceptionCause = 21
	CauseStoreGuestPageFault ExceptionCause = 23
)

// FaultClass groups faults by what went wrong.
type FaultClass int

// Fault classes.
const (
	// FaultAlignment is a non-canonical address, an out of range guest
	// physical address, or a walk that ran past the last level.
	FaultAlignment FaultClass = iota
	// FaultPermission is an entry that is invalid or does not grant the
	// access.
	FaultPermission
	// FaultProtocol is a malformed entry.
	FaultProtocol
	// FaultAccess is a physical memory protection or attribute violation.
	FaultAccess
	// FaultSquash marks a cancelled request.
	FaultSquash
)

func (c FaultClass) String() string {
	switch c {
	case FaultAlignment:
		return "alignment"
	case FaultPermission:
		return "permission"
	case FaultProtocol:
		return "protocol"
	case FaultAccess:
		return "access"
	case FaultSquash:
		return "squash"
	default:
		return "unknown"
	}
}

// Fault is the terminal error of a translation.
type Fault struct {
	Cause  ExceptionCause
	Class  FaultClass
	Stage  Stage
	VAddr  uint64
	GPAddr uint64
	Level  int
	Err    error
}

// NewPageFault creates a page fault, or a guest-page fault when the stage is
// the G-stage.
func NewPageFault(
	mode AccessMode,
	stage Stage,
	class FaultClass,
	vaddr, gpaddr uint64,
	level int,
) *Fault {
	return &Fault{
		Cause:  pageFaultCause(mode, stage),
		Class:  class,
		Stage:  stage,
		VAddr:  vaddr,
		GPAddr: gpaddr,
		Level:  level,
	}
}

// NewAccessFault creates an access fault.
func NewAccessFault(mode AccessMode, stage Stage, vaddr uint64, err error) *Fault {
	cause := CauseLoadAccessFault
	switch mode {
	case Write:
		cause = CauseStoreAccessFault
	case Execute:
		cause = CauseInstAccessFault
	}

	return &Fault{
		Cause: cause,
		Class: FaultAccess,
		Stage: stage,
		VAddr: vaddr,
		Err:   err,
	}
}

// NewSquashFault creates the outcome of a cancelled translation.
func NewSquashFault(vaddr uint64) *Fault {
	return &Fault{Class: FaultSquash, VAddr: vaddr}
}

func pageFaultCause(mode AccessMode, stage Stage) ExceptionCause {
	var causes [3]ExceptionCause

	switch stage {
	case FirstStage:
		causes = [3]ExceptionCause{
			CauseLoadPageFault, CauseStorePageFault, CauseInstPageFault}
	case GStage:
		causes = [3]ExceptionCause{
			CauseLoadGuestPageFault, CauseStoreGuestPageFault,
			CauseInstGuestPageFault}
	default:
		log.Panicf("unknown stage %d", int(stage))
	}

	return causes[mode]
}

// Wrap attaches the underlying reason and returns the fault.
func (f *Fault) Wrap(err error) *Fault {
	f.Err = err
	return f
}

func (f *Fault) Error() string {
	if f.Class == FaultSquash {
		return fmt.Sprintf("translation of %#x squashed", f.VAddr)
	}

	s := fmt.Sprintf("%s fault (cause %d) at %s level %d, vaddr %#x",
		f.Class, f.Cause, f.Stage, f.Level, f.VAddr)
	if f.Stage == GStage {
		s += fmt.Sprintf(", gpaddr %#x", f.GPAddr)
	}

	if f.Err != nil {
		s += ": " + f.Err.Error()
	}

	return s
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// AsFault extracts a *Fault from err.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	ok := errors.As(err, &f)

	return f, ok
}

// IsSquash reports whether err is the outcome of a cancelled translation.
func IsSquash(err error) bool {
	f, ok := AsFault(err)
	return ok && f.Class == FaultSquash
}

// Permission check reasons.
var (
	ErrNotReadable    = errors.New("page not readable")
	ErrNotWritable    = errors.New("page not writable")
	ErrNotExecutable  = errors.New("page not executable")
	ErrUserPage       = errors.New("supervisor access to user page")
	ErrSupervisorPage = errors.New("user access to supervisor page")
	ErrGStageNotUser  = errors.New("g-stage leaf without user bit")
)

package vm

import "log"

// AccessMode is the kind of access being translated.
type AccessMode int

// Access kinds.
const (
	Read AccessMode = iota
	Write
	Execute
)

func (m AccessMode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case Execute:
		return "execute"
	default:
		log.Panicf("unknown access mode %d", int(m))
	}

	return ""
}

// ParseAccessMode converts "read", "write" or "execute".
func ParseAccessMode(s string) (AccessMode, bool) {
	switch s {
	case "read", "r", "load":
		return Read, true
	case "write", "w", "store":
		return Write, true
	case "execute", "x", "fetch":
		return Execute, true
	}

	return Read, false
}

// PrivilegeMode is a RISC-V privilege level.
type PrivilegeMode uint8

// Privilege levels.
const (
	PrivU PrivilegeMode = 0
	PrivS PrivilegeMode = 1
	PrivM PrivilegeMode = 3
)

func (p PrivilegeMode) String() string {
	switch p {
	case PrivU:
		return "U"
	case PrivS:
		return "S"
	case PrivM:
		return "M"
	default:
		return "?"
	}
}

// Stage identifies which of the two translation stages is involved.
type Stage int

// Stages.
const (
	FirstStage Stage = iota
	GStage
)

func (s Stage) String() string {
	switch s {
	case FirstStage:
		return "first-stage"
	case GStage:
		return "g-stage"
	default:
		log.Panicf("unknown stage %d", int(s))
	}

	return ""
}

// WalkType is the shape of a page table walk.
type WalkType int

// Walk types.
const (
	OneStage WalkType = iota
	TwoStage
	GStageOnly
)

func (t WalkType) String() string {
	switch t {
	case OneStage:
		return "one-stage"
	case TwoStage:
		return "two-stage"
	case GStageOnly:
		return "g-stage-only"
	default:
		log.Panicf("unknown walk type %d", int(t))
	}

	return ""
}

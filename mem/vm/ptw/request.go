package ptw

import (
	"github.com/sarchlab/rvwalk/mem/vm"
)

// Translation is the requester side of a timing translation.
type Translation interface {
	// Squashed reports whether the requester no longer wants the result.
	Squashed() bool

	// Finish receives the outcome. It is called exactly once.
	Finish(req *Request, res Result, err error)
}

// A Request asks the walker to translate one access.
type Request struct {
	ID        string
	VAddr     uint64
	Size      uint64
	Mode      vm.AccessMode
	Ctx       vm.Context
	BypassTLB bool

	// Translation receives timing results. Unused in functional and atomic
	// modes.
	Translation Translation
}

// Result is a successful translation.
type Result struct {
	PAddr    uint64
	Entry    vm.TLBEntry
	TLBHit   bool
	Latency  int
	NumReads int
}

// TranslationFunc adapts plain functions to Translation.
type TranslationFunc struct {
	IsSquashed func() bool
	OnFinish   func(req *Request, res Result, err error)
}

// Squashed calls IsSquashed if it is set.
func (f TranslationFunc) Squashed() bool {
	return f.IsSquashed != nil && f.IsSquashed()
}

// Finish calls OnFinish.
func (f TranslationFunc) Finish(req *Request, res Result, err error) {
	f.OnFinish(req, res, err)
}

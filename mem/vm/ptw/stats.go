package ptw

import "github.com/sarchlab/rvwalk/mem/vm"

// Stats counts what the walker did.
type Stats struct {
	Walks4K    uint64 `json:"walks_4k"`
	Walks64K   uint64 `json:"walks_64k"`
	Walks2M    uint64 `json:"walks_2m"`
	Walks1G    uint64 `json:"walks_1g"`
	TLBHits    uint64 `json:"tlb_hits"`
	Squashes   uint64 `json:"squashes"`
	Retries    uint64 `json:"retries"`
	Faults     uint64 `json:"faults"`
	PTEReads   uint64 `json:"pte_reads"`
	PTEWrites  uint64 `json:"pte_writes"`
	Functional uint64 `json:"functional"`
	Atomic     uint64 `json:"atomic"`
	Timing     uint64 `json:"timing"`
}

func (s *Stats) countLeaf(logBytes uint) {
	switch logBytes {
	case vm.LogBytesAtLevel(0):
		s.Walks4K++
	case vm.PageShift + vm.NapotShift:
		s.Walks64K++
	case vm.LogBytesAtLevel(1):
		s.Walks2M++
	case vm.LogBytesAtLevel(2):
		s.Walks1G++
	}
}

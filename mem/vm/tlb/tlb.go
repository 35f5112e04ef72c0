// Package tlb provides a set-associative translation lookaside buffer that
// caches the results of page table walks.
package tlb

import (
	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/mem/vm/tlb/internal"
	"github.com/sarchlab/rvwalk/sim"
)

// HookPosLookup marks a TLB lookup. The detail is a LookupDetail.
var HookPosLookup = &sim.HookPos{Name: "TLB Lookup"}

// LookupDetail describes the outcome of a lookup.
type LookupDetail struct {
	Key   vm.TLBKey
	Entry vm.TLBEntry
	Hit   bool
}

// pageClasses lists the page sizes an entry can have.
var pageClasses = []uint{
	vm.LogBytesAtLevel(0),
	vm.PageShift + vm.NapotShift,
	vm.LogBytesAtLevel(1),
	vm.LogBytesAtLevel(2),
}

// TLB caches translations. It is not a component; owners call it
// synchronously.
type TLB struct {
	sim.HookableBase

	name    string
	numSets int
	numWays int
	sets    []internal.Set
}

// Name returns the name of the TLB.
func (t *TLB) Name() string {
	return t.name
}

func (t *TLB) reset() {
	t.sets = make([]internal.Set, t.numSets)
	for i := 0; i < t.numSets; i++ {
		t.sets[i] = internal.NewSet(t.numWays)
	}
}

func (t *TLB) setID(vaddr uint64, logBytes uint) int {
	return int((vaddr >> logBytes) % uint64(t.numSets))
}

// Lookup finds the entry that serves the key.
func (t *TLB) Lookup(key vm.TLBKey) (vm.TLBEntry, bool) {
	for _, logBytes := range pageClasses {
		set := t.sets[t.setID(key.VAddr, logBytes)]

		wayID, entry, found := set.Lookup(key, logBytes)
		if found {
			set.Visit(wayID)
			t.invokeLookupHook(key, entry, true)

			return entry, true
		}
	}

	t.invokeLookupHook(key, vm.TLBEntry{}, false)

	return vm.TLBEntry{}, false
}

func (t *TLB) invokeLookupHook(key vm.TLBKey, entry vm.TLBEntry, hit bool) {
	if t.NumHooks() == 0 {
		return
	}

	t.InvokeHook(sim.HookCtx{
		Domain: t,
		Pos:    HookPosLookup,
		Detail: LookupDetail{Key: key, Entry: entry, Hit: hit},
	})
}

// Insert places an entry, replacing the entry of the same page or the least
// recently used one.
func (t *TLB) Insert(entry vm.TLBEntry) {
	set := t.sets[t.setID(entry.VAddr, entry.LogBytes)]
	key := vm.TLBKey{
		VAddr: entry.VAddr,
		ASID:  entry.ASID,
		VMID:  entry.VMID,
		Virt:  entry.Virt,
	}

	wayID, _, found := set.Lookup(key, entry.LogBytes)
	if !found {
		var ok bool
		wayID, ok = set.Evict()
		if !ok {
			panic("failed to evict")
		}
	}

	set.Update(wayID, entry)
	set.Visit(wayID)
}

// FlushAll drops every entry.
func (t *TLB) FlushAll() {
	t.reset()
}

// Flush drops entries the way SFENCE.VMA (or HFENCE.VVMA when virt is set)
// does. A nil vaddr covers all addresses and a nil asid covers all address
// spaces. Global entries survive ASID flushes.
func (t *TLB) Flush(vaddr *uint64, asid *uint16, vmid uint16, virt bool) int {
	match := func(e vm.TLBEntry) bool {
		if e.Virt != virt || (virt && e.VMID != vmid) {
			return false
		}

		if vaddr != nil && !e.Contains(*vaddr) {
			return false
		}

		if asid != nil {
			pte, ok := e.FirstStagePTE()
			if !ok || pte.G() || e.ASID != *asid {
				return false
			}
		}

		return true
	}

	return t.invalidate(match)
}

// FlushGuest drops entries of a virtual machine the way HFENCE.GVMA does.
func (t *TLB) FlushGuest(vmid *uint16) int {
	return t.invalidate(func(e vm.TLBEntry) bool {
		return e.Virt && (vmid == nil || e.VMID == *vmid)
	})
}

func (t *TLB) invalidate(match func(vm.TLBEntry) bool) int {
	n := 0
	for _, set := range t.sets {
		for _, wayID := range set.WayIDs(match) {
			set.Invalidate(wayID)
			n++
		}
	}

	return n
}

// Entries lists valid entries.
func (t *TLB) Entries() []vm.TLBEntry {
	var entries []vm.TLBEntry
	for _, set := range t.sets {
		entries = append(entries, set.Entries()...)
	}

	return entries
}

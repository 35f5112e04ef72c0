// Package internal provides the definition required for defining TLB.
package internal

import (
	"sort"

	"github.com/sarchlab/rvwalk/mem/vm"
)

// A Set holds a certain number of entries.
type Set interface {
	Lookup(key vm.TLBKey, logBytes uint) (wayID int, entry vm.TLBEntry, found bool)
	Update(wayID int, entry vm.TLBEntry)
	Invalidate(wayID int)
	Evict() (wayID int, ok bool)
	Visit(wayID int)
	Entries() []vm.TLBEntry
	WayIDs(match func(vm.TLBEntry) bool) []int
}

// NewSet creates a new TLB set.
func NewSet(numWays int) Set {
	s := &setImpl{}
	s.blocks = make([]*block, numWays)
	s.visitList = make([]*block, 0, numWays)

	for i := range s.blocks {
		b := &block{}
		s.blocks[i] = b
		b.wayID = i
		s.Visit(i)
	}

	return s
}

type block struct {
	entry     vm.TLBEntry
	valid     bool
	wayID     int
	lastVisit uint64
}

type setImpl struct {
	blocks     []*block
	visitList  []*block
	visitCount uint64
}

func (s *setImpl) Lookup(
	key vm.TLBKey,
	logBytes uint,
) (wayID int, entry vm.TLBEntry, found bool) {
	for _, b := range s.blocks {
		if !b.valid || b.entry.LogBytes != logBytes {
			continue
		}

		if b.entry.Matches(key) {
			return b.wayID, b.entry, true
		}
	}

	return 0, vm.TLBEntry{}, false
}

func (s *setImpl) Update(wayID int, entry vm.TLBEntry) {
	b := s.blocks[wayID]
	b.entry = entry
	b.valid = true
}

// Invalidate drops the entry of a way and makes it the next to evict.
func (s *setImpl) Invalidate(wayID int) {
	b := s.blocks[wayID]
	b.valid = false
	b.entry = vm.TLBEntry{}
	b.lastVisit = 0

	s.removeFromVisitList(wayID)
	s.visitList = append([]*block{b}, s.visitList...)
}

func (s *setImpl) Evict() (wayID int, ok bool) {
	if len(s.visitList) == 0 {
		return 0, false
	}

	leastVisited := s.visitList[0]
	wayID = leastVisited.wayID
	s.visitList = s.visitList[1:]

	return wayID, true
}

func (s *setImpl) Visit(wayID int) {
	b := s.blocks[wayID]

	s.removeFromVisitList(wayID)

	s.visitCount++
	b.lastVisit = s.visitCount

	index := sort.Search(len(s.visitList), func(i int) bool {
		return s.visitList[i].lastVisit > b.lastVisit
	})
	s.visitList = append(s.visitList, nil)
	copy(s.visitList[index+1:], s.visitList[index:])
	s.visitList[index] = b
}

func (s *setImpl) removeFromVisitList(wayID int) {
	for i, b := range s.visitList {
		if b.wayID == wayID {
			s.visitList = append(s.visitList[:i], s.visitList[i+1:]...)
			return
		}
	}
}

func (s *setImpl) Entries() []vm.TLBEntry {
	entries := make([]vm.TLBEntry, 0, len(s.blocks))
	for _, b := range s.blocks {
		if b.valid {
			entries = append(entries, b.entry)
		}
	}

	return entries
}

func (s *setImpl) WayIDs(match func(vm.TLBEntry) bool) []int {
	var ids []int
	for _, b := range s.blocks {
		if b.valid && match(b.entry) {
			ids = append(ids, b.wayID)
		}
	}

	return ids
}

package tlb

import "log"

// A Builder can build TLBs
type Builder struct {
	numSets int
	numWays int
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numSets: 1,
		numWays: 32,
	}
}

// WithNumSets sets the number of sets in a TLB. Use 1 for fully associated
// TLBs.
func (b Builder) WithNumSets(n int) Builder {
	b.numSets = n
	return b
}

// WithNumWays sets the number of ways in a TLB.
func (b Builder) WithNumWays(n int) Builder {
	b.numWays = n
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *TLB {
	if b.numSets <= 0 || b.numWays <= 0 {
		log.Panicf("tlb %s needs positive sets and ways, got %d x %d",
			name, b.numSets, b.numWays)
	}

	t := &TLB{
		name:    name,
		numSets: b.numSets,
		numWays: b.numWays,
	}
	t.reset()

	return t
}

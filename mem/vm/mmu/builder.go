package mmu

import (
	"log"

	"github.com/sarchlab/rvwalk/mem/vm/ptw"
	"github.com/sarchlab/rvwalk/sim"
)

// A Builder can build MMU component
type Builder struct {
	engine            sim.Engine
	freq              sim.Freq
	tlb               ptw.TLB
	pmp               ptw.PhysChecker
	pma               ptw.PhysChecker
	memPort           ptw.MemPort
	numReqPerCycle    int
	maxNumReqInFlight int
	numSquashPerCycle int
	topBufSize        int
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		freq:              1 * sim.GHz,
		numReqPerCycle:    1,
		maxNumReqInFlight: 16,
		numSquashPerCycle: 4,
		topBufSize:        16,
	}
}

// WithEngine sets the engine to be used with the MMU
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency that the MMU to work at
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithTLB sets the TLB the walker consults and fills.
func (b Builder) WithTLB(tlb ptw.TLB) Builder {
	b.tlb = tlb
	return b
}

// WithPMP sets the physical memory protection checker.
func (b Builder) WithPMP(pmp ptw.PhysChecker) Builder {
	b.pmp = pmp
	return b
}

// WithPMA sets the physical memory attribute checker.
func (b Builder) WithPMA(pma ptw.PhysChecker) Builder {
	b.pma = pma
	return b
}

// WithMemPort sets where the walker reads page tables from.
func (b Builder) WithMemPort(port ptw.MemPort) Builder {
	b.memPort = port
	return b
}

// WithNumReqPerCycle sets the number of requests taken from the top port
// per cycle.
func (b Builder) WithNumReqPerCycle(n int) Builder {
	b.numReqPerCycle = n
	return b
}

// WithMaxNumReqInFlight sets the number of requests can be concurrently
// processed by the MMU.
func (b Builder) WithMaxNumReqInFlight(n int) Builder {
	b.maxNumReqInFlight = n
	return b
}

// WithNumSquashPerCycle sets how many requests the walker can drain per
// cycle.
func (b Builder) WithNumSquashPerCycle(n int) Builder {
	b.numSquashPerCycle = n
	return b
}

// WithTopBufSize sets the buffer size of the top port.
func (b Builder) WithTopBufSize(n int) Builder {
	b.topBufSize = n
	return b
}

// Build returns a newly created MMU component
func (b Builder) Build(name string) *Comp {
	if b.maxNumReqInFlight <= 0 || b.numReqPerCycle <= 0 {
		log.Panicf("mmu %s must accept requests", name)
	}

	c := &Comp{
		pmp:                 b.pmp,
		numReqPerCycle:      b.numReqPerCycle,
		maxRequestsInFlight: b.maxNumReqInFlight,
		inflight:            make(map[string]*transaction),
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, c)

	c.walker = ptw.MakeBuilder().
		WithEngine(b.engine).
		WithFreq(b.freq).
		WithTLB(b.tlb).
		WithPMP(b.pmp).
		WithPMA(b.pma).
		WithMemPort(b.memPort).
		WithNumSquashPerCycle(b.numSquashPerCycle).
		Build(name + ".PTW")

	b.createPorts(name, c)

	return c
}

func (b Builder) createPorts(name string, c *Comp) {
	c.topPort = sim.NewPort(c, b.topBufSize, b.topBufSize, name+".TopPort")
	c.AddPort("Top", c.topPort)
	c.topSender = sim.NewBufferedSender(
		c.topPort, sim.NewBuffer(name+".TopSenderBuffer", b.topBufSize))
}

package ptw

import (
	"log"

	"github.com/sarchlab/rvwalk/sim"
)

// RetryListener is told when a refused port can take packets again.
type RetryListener interface {
	RecvReqRetry()
}

// retryNotifier is implemented by ports that report retries.
type retryNotifier interface {
	SetRetryListener(l RetryListener)
}

// A Builder can build walkers.
type Builder struct {
	engine            sim.Engine
	freq              sim.Freq
	tlb               TLB
	pmp               PhysChecker
	pma               PhysChecker
	memPort           MemPort
	numSquashPerCycle int
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		freq:              1 * sim.GHz,
		numSquashPerCycle: 4,
	}
}

// WithEngine sets the engine.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the frequency.
func (b Builder) WithFreq(freq sim.Freq) Builder {
	b.freq = freq
	return b
}

// WithTLB sets the TLB to consult and fill.
func (b Builder) WithTLB(tlb TLB) Builder {
	b.tlb = tlb
	return b
}

// WithPMP sets the protection checker. Without one, every access is
// allowed.
func (b Builder) WithPMP(pmp PhysChecker) Builder {
	b.pmp = pmp
	return b
}

// WithPMA sets the attribute checker. Without one, every access is allowed.
func (b Builder) WithPMA(pma PhysChecker) Builder {
	b.pma = pma
	return b
}

// WithMemPort sets where page table accesses go.
func (b Builder) WithMemPort(port MemPort) Builder {
	b.memPort = port
	return b
}

// WithNumSquashPerCycle sets how many requests can be drained from the
// head of the queue per cycle.
func (b Builder) WithNumSquashPerCycle(n int) Builder {
	b.numSquashPerCycle = n
	return b
}

// Build creates a walker.
func (b Builder) Build(name string) *Walker {
	b.mustBeComplete(name)

	w := &Walker{
		tlb:               b.tlb,
		pmp:               b.pmp,
		pma:               b.pma,
		port:              b.memPort,
		numSquashPerCycle: b.numSquashPerCycle,
	}
	w.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, w)

	if n, ok := b.memPort.(retryNotifier); ok {
		n.SetRetryListener(w)
	}

	return w
}

func (b Builder) mustBeComplete(name string) {
	if name == "" {
		log.Panic("walker must have a name")
	}

	if b.engine == nil {
		log.Panicf("walker %s has no engine", name)
	}

	if b.tlb == nil {
		log.Panicf("walker %s has no tlb", name)
	}

	if b.memPort == nil {
		log.Panicf("walker %s has no memory port", name)
	}

	if b.numSquashPerCycle <= 0 {
		log.Panicf("walker %s must drain at least one request per cycle", name)
	}
}

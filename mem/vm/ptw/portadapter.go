package ptw

import (
	"log"
	"reflect"

	"github.com/sarchlab/rvwalk/mem/mem"
	"github.com/sarchlab/rvwalk/sim"
	"github.com/sarchlab/rvwalk/tracing"
)

type pendingAccess struct {
	msg  sim.Msg
	pkt  *Packet
	done Completion
}

// PortAdapter connects the walker to a memory system. Functional and atomic
// accesses go straight to the storage. Timing accesses travel as memory
// requests through a port.
type PortAdapter struct {
	*sim.TickingComponent

	storage       *mem.Storage
	atomicLatency int
	port          sim.Port
	memory        sim.RemotePort
	listener      RetryListener

	pending   map[string]pendingAccess
	needRetry bool
}

// SetRetryListener sets who hears about freed port capacity.
func (a *PortAdapter) SetRetryListener(l RetryListener) {
	a.listener = l
}

// SetMemory sets the port timing requests are sent to.
func (a *PortAdapter) SetMemory(p sim.RemotePort) {
	a.memory = p
}

// Port returns the port facing the memory.
func (a *PortAdapter) Port() sim.Port {
	return a.port
}

// NumPending returns the number of timing accesses not yet answered.
func (a *PortAdapter) NumPending() int {
	return len(a.pending)
}

func (a *PortAdapter) access(pkt *Packet) {
	if pkt.IsWrite {
		if err := a.storage.Write(pkt.Addr, pkt.Data); err != nil {
			log.Panicf("%s: %s: %v", a.Name(), pkt, err)
		}

		return
	}

	data, err := a.storage.Read(pkt.Addr, uint64(len(pkt.Data)))
	if err != nil {
		log.Panicf("%s: %s: %v", a.Name(), pkt, err)
	}

	copy(pkt.Data, data)
}

// SendFunctional accesses the storage directly.
func (a *PortAdapter) SendFunctional(pkt *Packet) {
	a.access(pkt)
}

// SendAtomic accesses the storage directly and reports a fixed latency.
func (a *PortAdapter) SendAtomic(pkt *Packet) int {
	a.access(pkt)
	return a.atomicLatency
}

// SendTiming sends the access as a memory request.
func (a *PortAdapter) SendTiming(pkt *Packet, done Completion) bool {
	var msg sim.Msg
	if pkt.IsWrite {
		msg = mem.WriteReqBuilder{}.
			WithSrc(a.port.AsRemote()).
			WithDst(a.memory).
			WithAddress(pkt.Addr).
			WithData(pkt.Data).
			WithInfo(pkt.ID).
			Build()
	} else {
		msg = mem.ReadReqBuilder{}.
			WithSrc(a.port.AsRemote()).
			WithDst(a.memory).
			WithAddress(pkt.Addr).
			WithByteSize(uint64(len(pkt.Data))).
			WithInfo(pkt.ID).
			Build()
	}

	if err := a.port.Send(msg); err != nil {
		a.needRetry = true
		return false
	}

	a.pending[msg.Meta().ID] = pendingAccess{msg: msg, pkt: pkt, done: done}
	tracing.TraceReqInitiate(msg, a, pkt.Task)

	return true
}

// Tick delivers responses and retry notices.
func (a *PortAdapter) Tick() bool {
	madeProgress := false

	if a.needRetry && a.port.CanSend() {
		a.needRetry = false
		if a.listener != nil {
			a.listener.RecvReqRetry()
		}

		madeProgress = true
	}

	for {
		msg := a.port.RetrieveIncoming()
		if msg == nil {
			break
		}

		a.handleRsp(msg)
		madeProgress = true
	}

	return madeProgress
}

func (a *PortAdapter) handleRsp(msg sim.Msg) {
	rsp, ok := msg.(mem.AccessRsp)
	if !ok {
		log.Panicf("cannot handle message of type %s", reflect.TypeOf(msg))
	}

	p, found := a.pending[rsp.GetRspTo()]
	if !found {
		log.Panicf("response to unknown request %s", rsp.GetRspTo())
	}

	delete(a.pending, rsp.GetRspTo())
	tracing.TraceReqFinalize(p.msg, a)

	if data, ok := msg.(*mem.DataReadyRsp); ok {
		copy(p.pkt.Data, data.Data)
	}

	p.done(p.pkt)
}

// A PortAdapterBuilder can build port adapters.
type PortAdapterBuilder struct {
	engine        sim.Engine
	freq          sim.Freq
	storage       *mem.Storage
	atomicLatency int
	bufSize       int
}

// MakePortAdapterBuilder returns a builder with default parameters.
func MakePortAdapterBuilder() PortAdapterBuilder {
	return PortAdapterBuilder{
		freq:          1 * sim.GHz,
		atomicLatency: 100,
		bufSize:       4,
	}
}

// WithEngine sets the engine.
func (b PortAdapterBuilder) WithEngine(e sim.Engine) PortAdapterBuilder {
	b.engine = e
	return b
}

// WithFreq sets the frequency.
func (b PortAdapterBuilder) WithFreq(f sim.Freq) PortAdapterBuilder {
	b.freq = f
	return b
}

// WithStorage sets the storage functional and atomic accesses use.
func (b PortAdapterBuilder) WithStorage(s *mem.Storage) PortAdapterBuilder {
	b.storage = s
	return b
}

// WithAtomicLatency sets the cycles an atomic access reports.
func (b PortAdapterBuilder) WithAtomicLatency(n int) PortAdapterBuilder {
	b.atomicLatency = n
	return b
}

// WithBufSize sets the buffer size of the port.
func (b PortAdapterBuilder) WithBufSize(n int) PortAdapterBuilder {
	b.bufSize = n
	return b
}

// Build creates a port adapter.
func (b PortAdapterBuilder) Build(name string) *PortAdapter {
	if b.storage == nil {
		log.Panicf("port adapter %s has no storage", name)
	}

	a := &PortAdapter{
		storage:       b.storage,
		atomicLatency: b.atomicLatency,
		pending:       make(map[string]pendingAccess),
	}
	a.TickingComponent = sim.NewTickingComponent(name, b.engine, b.freq, a)
	a.port = sim.NewPort(a, b.bufSize, b.bufSize, name+".MemPort")
	a.AddPort("Mem", a.port)

	return a
}

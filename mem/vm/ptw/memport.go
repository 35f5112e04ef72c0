package ptw

import (
	"encoding/binary"
	"fmt"
)

// A Packet is one page table access issued by the walker.
type Packet struct {
	ID      uint64
	Addr    uint64
	IsWrite bool
	Data    []byte

	// Task is the tracing task of the walk that issued the packet.
	Task string
}

func newReadPacket(id, addr uint64) *Packet {
	return &Packet{ID: id, Addr: addr, Data: make([]byte, 8)}
}

func newWritePacket(id, addr uint64, value uint64) *Packet {
	p := &Packet{ID: id, Addr: addr, IsWrite: true, Data: make([]byte, 8)}
	binary.LittleEndian.PutUint64(p.Data, value)

	return p
}

// Uint64 returns the entry carried by the packet.
func (p *Packet) Uint64() uint64 {
	return binary.LittleEndian.Uint64(p.Data)
}

// SetUint64 stores an entry into the packet.
func (p *Packet) SetUint64(v uint64) {
	binary.LittleEndian.PutUint64(p.Data, v)
}

func (p *Packet) String() string {
	kind := "read"
	if p.IsWrite {
		kind = "write"
	}

	return fmt.Sprintf("%s#%d@%#x", kind, p.ID, p.Addr)
}

// A Completion is called when a timing packet finishes. Reads carry the data
// in the packet.
type Completion func(pkt *Packet)

// MemPort is the memory side of the walker.
type MemPort interface {
	// SendFunctional performs the access immediately and without timing.
	SendFunctional(pkt *Packet)

	// SendAtomic performs the access immediately and returns its latency in
	// cycles.
	SendAtomic(pkt *Packet) int

	// SendTiming starts the access. It returns false if the port cannot take
	// the packet now, in which case the walker waits for RecvReqRetry.
	SendTiming(pkt *Packet, done Completion) bool
}

// Package idealmemcontroller provides a memory controller that responds to
// every request after a fixed latency.
package idealmemcontroller

import (
	"log"
	"reflect"

	"github.com/sarchlab/rvwalk/mem/mem"
	"github.com/sarchlab/rvwalk/sim"
	"github.com/sarchlab/rvwalk/tracing"
)

type readRespondEvent struct {
	sim.EventBase
	req *mem.ReadReq
}

func newReadRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *mem.ReadReq,
) *readRespondEvent {
	return &readRespondEvent{sim.MakeEventBase(time, handler), req}
}

type writeRespondEvent struct {
	sim.EventBase
	req *mem.WriteReq
}

func newWriteRespondEvent(
	time sim.VTimeInSec,
	handler sim.Handler,
	req *mem.WriteReq,
) *writeRespondEvent {
	return &writeRespondEvent{sim.MakeEventBase(time, handler), req}
}

// A Comp is an ideal memory controller that can perform read and write.
// It always responds to a request in a fixed number of cycles. Up to width
// requests are accepted per cycle and there is no limit on the number of
// requests being served.
type Comp struct {
	*sim.TickingComponent

	topPort sim.Port
	Storage *mem.Storage
	Latency int

	width int
}

// Handle defines how the Comp handles event
func (c *Comp) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *readRespondEvent:
		return c.handleReadRespondEvent(e)
	case *writeRespondEvent:
		return c.handleWriteRespondEvent(e)
	case sim.TickEvent:
		return c.TickingComponent.Handle(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}

// Tick accepts new requests from the top port.
func (c *Comp) Tick() bool {
	madeProgress := false

	for i := 0; i < c.width; i++ {
		madeProgress = c.takeReq() || madeProgress
	}

	return madeProgress
}

func (c *Comp) takeReq() bool {
	msg := c.topPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	tracing.TraceReqReceive(msg, c)

	timeToSchedule := c.Freq.NCyclesLater(c.Latency, c.CurrentTime())

	switch msg := msg.(type) {
	case *mem.ReadReq:
		c.Engine.Schedule(newReadRespondEvent(timeToSchedule, c, msg))
	case *mem.WriteReq:
		c.Engine.Schedule(newWriteRespondEvent(timeToSchedule, c, msg))
	default:
		log.Panicf("cannot handle request of type %s", reflect.TypeOf(msg))
	}

	return true
}

func (c *Comp) handleReadRespondEvent(e *readRespondEvent) error {
	req := e.req

	data, err := c.Storage.Read(req.Address, req.AccessByteSize)
	if err != nil {
		log.Panic(err)
	}

	rsp := mem.DataReadyRspBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		WithData(data).
		Build()

	networkErr := c.topPort.Send(rsp)
	if networkErr != nil {
		retry := newReadRespondEvent(c.Freq.NextTick(e.Time()), c, req)
		c.Engine.Schedule(retry)

		return nil
	}

	tracing.TraceReqComplete(req, c)
	c.TickLater()

	return nil
}

func (c *Comp) handleWriteRespondEvent(e *writeRespondEvent) error {
	req := e.req

	rsp := mem.WriteDoneRspBuilder{}.
		WithSrc(c.topPort.AsRemote()).
		WithDst(req.Src).
		WithRspTo(req.ID).
		Build()

	networkErr := c.topPort.Send(rsp)
	if networkErr != nil {
		retry := newWriteRespondEvent(c.Freq.NextTick(e.Time()), c, req)
		c.Engine.Schedule(retry)

		return nil
	}

	c.writeData(req)

	tracing.TraceReqComplete(req, c)
	c.TickLater()

	return nil
}

func (c *Comp) writeData(req *mem.WriteReq) {
	if req.DirtyMask == nil {
		err := c.Storage.Write(req.Address, req.Data)
		if err != nil {
			log.Panic(err)
		}

		return
	}

	data, err := c.Storage.Read(req.Address, uint64(len(req.Data)))
	if err != nil {
		log.Panic(err)
	}

	for i := 0; i < len(req.Data); i++ {
		if req.DirtyMask[i] {
			data[i] = req.Data[i]
		}
	}

	err = c.Storage.Write(req.Address, data)
	if err != nil {
		log.Panic(err)
	}
}

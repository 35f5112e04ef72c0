// Package mmu provides a memory management unit component that serves
// translation requests with a page table walker.
package mmu

import (
	"log"
	"reflect"

	"github.com/sarchlab/rvwalk/mem/vm"
	"github.com/sarchlab/rvwalk/mem/vm/ptw"
	"github.com/sarchlab/rvwalk/sim"
	"github.com/sarchlab/rvwalk/tracing"
)

type transaction struct {
	comp     *Comp
	req      *vm.TranslationReq
	squashed bool
	rsp      *vm.TranslationRsp
}

func (t *transaction) Squashed() bool {
	return t.squashed
}

func (t *transaction) Finish(_ *ptw.Request, res ptw.Result, err error) {
	t.comp.finish(t, res, err)
}

// Comp is the MMU. Translation requests arrive at the top port and are
// walked in timing mode. Requests whose context needs no translation are
// answered with the address itself.
type Comp struct {
	*sim.TickingComponent

	topPort   sim.Port
	topSender *sim.BufferedSender

	walker *ptw.Walker
	pmp    ptw.PhysChecker

	numReqPerCycle      int
	maxRequestsInFlight int

	inflight map[string]*transaction
	done     []*transaction
}

// Walker returns the walker that serves the MMU.
func (c *Comp) Walker() *ptw.Walker {
	return c.walker
}

// NumInFlight returns the number of requests being translated.
func (c *Comp) NumInFlight() int {
	return len(c.inflight)
}

// Squash cancels the translation of the request with the given ID. No
// response is sent for a squashed request.
func (c *Comp) Squash(reqID string) bool {
	t, found := c.inflight[reqID]
	if !found {
		return false
	}

	t.squashed = true
	c.walker.TickLater()

	return true
}

// Tick defines how the MMU update state each cycle
func (c *Comp) Tick() bool {
	madeProgress := false

	madeProgress = c.topSender.Tick() || madeProgress
	madeProgress = c.respond() || madeProgress

	for i := 0; i < c.numReqPerCycle; i++ {
		madeProgress = c.parseFromTop() || madeProgress
	}

	return madeProgress
}

func (c *Comp) parseFromTop() bool {
	if len(c.inflight) >= c.maxRequestsInFlight {
		return false
	}

	msg := c.topPort.RetrieveIncoming()
	if msg == nil {
		return false
	}

	tracing.TraceReqReceive(msg, c)

	switch req := msg.(type) {
	case *vm.TranslationReq:
		c.startTranslation(req)
	default:
		log.Panicf("MMU cannot handle request of type %s", reflect.TypeOf(msg))
	}

	return true
}

func (c *Comp) startTranslation(req *vm.TranslationReq) {
	t := &transaction{comp: c, req: req}

	if !req.Ctx.NeedsTranslation() {
		c.finishUntranslated(t)
		return
	}

	c.inflight[req.ID] = t
	c.walker.StartTiming(&ptw.Request{
		ID:          tracing.MsgIDAtReceiver(req, c),
		VAddr:       req.VAddr,
		Size:        req.Size,
		Mode:        req.Mode,
		Ctx:         req.Ctx,
		BypassTLB:   req.BypassTLB,
		Translation: t,
	})
}

func (c *Comp) finishUntranslated(t *transaction) {
	req := t.req

	var fault *vm.Fault
	if c.pmp != nil {
		err := c.pmp.Check(req.VAddr, req.Size, req.Mode, req.Ctx.Priv)
		if err != nil {
			fault = vm.NewAccessFault(req.Mode, vm.FirstStage, req.VAddr, err)
		}
	}

	paddr := req.VAddr
	if fault != nil {
		paddr = 0
	}

	t.rsp = req.GenerateRsp(paddr, vm.TLBEntry{}, fault)
	c.done = append(c.done, t)
}

func (c *Comp) finish(t *transaction, res ptw.Result, err error) {
	delete(c.inflight, t.req.ID)

	if vm.IsSquash(err) {
		tracing.TraceReqComplete(t.req, c)
		return
	}

	var fault *vm.Fault
	if err != nil {
		f, ok := vm.AsFault(err)
		if !ok {
			log.Panicf("translation of %#x failed: %v", t.req.VAddr, err)
		}

		fault = f
	}

	t.rsp = t.req.GenerateRsp(res.PAddr, res.Entry, fault)
	c.done = append(c.done, t)

	c.TickLater()
}

func (c *Comp) respond() bool {
	madeProgress := false

	for len(c.done) > 0 && c.topSender.CanSend(1) {
		t := c.done[0]
		c.done = c.done[1:]

		c.topSender.Send(t.rsp)
		tracing.TraceReqComplete(t.req, c)

		madeProgress = true
	}

	return madeProgress
}

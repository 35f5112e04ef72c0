package vm

import (
	"reflect"

	"github.com/sarchlab/rvwalk/sim"
)

// A TranslationReq asks the receiver component to translate an address.
type TranslationReq struct {
	sim.MsgMeta

	VAddr     uint64
	Size      uint64
	Mode      AccessMode
	Ctx       Context
	BypassTLB bool
}

// Meta returns the meta data associated with the message.
func (r *TranslationReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns cloned TranslationReq with different ID
func (r *TranslationReq) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// TranslationReqBuilder can build translation requests.
type TranslationReqBuilder struct {
	src, dst  sim.RemotePort
	vAddr     uint64
	size      uint64
	mode      AccessMode
	ctx       Context
	bypassTLB bool
}

// WithSrc sets the source of the request.
func (b TranslationReqBuilder) WithSrc(src sim.RemotePort) TranslationReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request.
func (b TranslationReqBuilder) WithDst(dst sim.RemotePort) TranslationReqBuilder {
	b.dst = dst
	return b
}

// WithVAddr sets the address to translate.
func (b TranslationReqBuilder) WithVAddr(vAddr uint64) TranslationReqBuilder {
	b.vAddr = vAddr
	return b
}

// WithSize sets the size of the access in bytes. Zero means one byte.
func (b TranslationReqBuilder) WithSize(size uint64) TranslationReqBuilder {
	b.size = size
	return b
}

// WithMode sets the access mode.
func (b TranslationReqBuilder) WithMode(mode AccessMode) TranslationReqBuilder {
	b.mode = mode
	return b
}

// WithContext sets the translation context.
func (b TranslationReqBuilder) WithContext(ctx Context) TranslationReqBuilder {
	b.ctx = ctx
	return b
}

// WithBypassTLB marks the request as one that does not fill the TLB.
func (b TranslationReqBuilder) WithBypassTLB() TranslationReqBuilder {
	b.bypassTLB = true
	return b
}

// Build creates a new TranslationReq
func (b TranslationReqBuilder) Build() *TranslationReq {
	r := &TranslationReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficClass = reflect.TypeOf(TranslationReq{}).String()
	r.TrafficBytes = 16
	r.VAddr = b.vAddr
	r.Size = b.size
	r.Mode = b.mode
	r.Ctx = b.ctx
	r.BypassTLB = b.bypassTLB

	return r
}

// GenerateRsp generates response to original translation request
func (r *TranslationReq) GenerateRsp(
	paddr uint64,
	entry TLBEntry,
	fault *Fault,
) *TranslationRsp {
	rsp := &TranslationRsp{
		RespondTo: r.ID,
		PAddr:     paddr,
		Entry:     entry,
		Fault:     fault,
	}
	rsp.ID = sim.GetIDGenerator().Generate()
	rsp.Src = r.Dst
	rsp.Dst = r.Src
	rsp.TrafficClass = reflect.TypeOf(TranslationRsp{}).String()
	rsp.TrafficBytes = 16

	return rsp
}

// A TranslationRsp is the respond for a TranslationReq. It carries the
// physical address or the fault.
type TranslationRsp struct {
	sim.MsgMeta

	RespondTo string
	PAddr     uint64
	Entry     TLBEntry
	Fault     *Fault
}

// Meta returns the meta data associated with the message.
func (r *TranslationRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// Clone returns cloned TranslationRsp with different ID
func (r *TranslationRsp) Clone() sim.Msg {
	cloneMsg := *r
	cloneMsg.ID = sim.GetIDGenerator().Generate()

	return &cloneMsg
}

// GetRspTo returns the request ID that the respond is responding to.
func (r *TranslationRsp) GetRspTo() string {
	return r.RespondTo
}

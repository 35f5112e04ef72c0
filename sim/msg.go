package sim

// A Msg is what components send to each other through ports.
type Msg interface {
	Meta() *MsgMeta
	// Clone returns a copy with a new ID.
	Clone() Msg
}

// MsgMeta is the header every message carries. TrafficClass and
// TrafficBytes describe the message to connections.
type MsgMeta struct {
	ID                 string
	Src, Dst           RemotePort
	SendTime, RecvTime VTimeInSec
	TrafficClass       string
	TrafficBytes       int
}

// Rsp is a message that answers a request.
type Rsp interface {
	Msg

	// GetRspTo returns the ID of the request answered.
	GetRspTo() string
}

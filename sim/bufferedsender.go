package sim

import "log"

// BufferedSender holds messages a component produced until its port takes
// them. Components push messages during a tick and drain them with Tick.
type BufferedSender struct {
	port   Port
	buffer Buffer
}

// NewBufferedSender creates a sender that sends to port through buffer.
func NewBufferedSender(port Port, buffer Buffer) *BufferedSender {
	return &BufferedSender{port: port, buffer: buffer}
}

// CanSend reports whether count more messages fit.
func (s *BufferedSender) CanSend(count int) bool {
	if count > s.buffer.Capacity() {
		log.Panicf("cannot send %d messages through a buffer of %d",
			count, s.buffer.Capacity())
	}

	return s.buffer.Size()+count <= s.buffer.Capacity()
}

// Send queues a message.
func (s *BufferedSender) Send(msg Msg) {
	s.buffer.Push(msg)
}

// Clear drops every queued message.
func (s *BufferedSender) Clear() {
	s.buffer.Clear()
}

// Tick sends the oldest message. It reports whether one was sent.
func (s *BufferedSender) Tick() bool {
	msg, ok := s.buffer.Peek().(Msg)
	if !ok {
		return false
	}

	if err := s.port.Send(msg); err != nil {
		return false
	}

	s.buffer.Pop()

	return true
}

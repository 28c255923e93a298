package websocket

import (
	"journal-live/domain/event"
	"journal-live/errors"
	"sync"
)

// Sink buffers the outbound events of one socket for its writer goroutine.
// Deliver never blocks: a full buffer means the client is not keeping up.
type Sink struct {
	events    chan event.Outbound
	done      chan struct{}
	closeOnce sync.Once
	reason    error
}

func NewSink(bufferSize int) *Sink {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Sink{
		events: make(chan event.Outbound, bufferSize),
		done:   make(chan struct{}),
	}
}

func (s *Sink) Deliver(e event.Outbound) error {
	select {
	case <-s.done:
		return errors.ErrSinkClosed
	default:
	}
	select {
	case s.events <- e:
		return nil
	default:
		return errors.ErrSlowConsumer
	}
}

// Close asks the writer to flush what is queued and terminate the socket.
// Only the first reason is kept.
func (s *Sink) Close(reason error) {
	s.closeOnce.Do(func() {
		s.reason = reason
		close(s.done)
	})
}

// Done is closed once Close has been called.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Reason is only meaningful after Done is closed.
func (s *Sink) Reason() error {
	<-s.done
	return s.reason
}

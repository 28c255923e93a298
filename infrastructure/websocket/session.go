package websocket

import (
	"context"
	"fmt"
	"journal-live/domain/event"
	"journal-live/errors"
	"journal-live/runtime"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

type inbound struct {
	event event.Inbound
	err   error
}

// session is one authenticated socket. The reader decodes frames into the
// bounded inbound queue, a single worker hands them to the dispatcher in
// arrival order, and the writer is the only goroutine writing data frames.
type session struct {
	log        *slog.Logger
	ws         *websocket.Conn
	sink       *Sink
	conn       *runtime.Connection
	dispatcher *runtime.Dispatcher
	config     Config
	inbound    chan inbound
}

func (s *session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop()
	}()

	if err := s.dispatcher.Welcome(s.conn); err != nil {
		s.sink.Close(err)
	}

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		s.work(ctx)
	}()

	s.readLoop()
	close(s.inbound)
	<-workerDone
	s.sink.Close(nil)
	<-writerDone
}

func (s *session) readLoop() {
	pongWait := s.config.pongWait()
	s.ws.SetReadLimit(s.config.MaxFrameBytes)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("Read failed", "error", err)
			}
			return
		}
		_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))

		var item inbound
		if messageType != websocket.TextMessage {
			item.err = fmt.Errorf("%w: only text frames are accepted", errors.ErrInvalidEvent)
		} else {
			item.event, item.err = event.Decode(data)
		}
		select {
		case s.inbound <- item:
		case <-s.sink.Done():
			return
		}
	}
}

// work drains the queue even after a fatal error so the reader never blocks.
func (s *session) work(ctx context.Context) {
	for item := range s.inbound {
		select {
		case <-s.sink.Done():
			continue
		default:
		}
		var err error
		if item.err != nil {
			err = s.dispatcher.Reject(ctx, s.conn, item.err)
		} else {
			err = s.dispatcher.Handle(ctx, s.conn, item.event)
		}
		if err != nil {
			s.sink.Close(err)
		}
	}
}

func (s *session) writeLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()
	defer s.ws.Close()

	for {
		select {
		case e := <-s.sink.events:
			if err := s.write(e); err != nil {
				s.log.Debug("Write failed", "error", err)
				s.sink.Close(err)
				return
			}
		case <-ticker.C:
			if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout)); err != nil {
				s.sink.Close(err)
				return
			}
		case <-s.sink.Done():
			s.flush()
			_ = s.ws.WriteControl(websocket.CloseMessage, closeMessage(s.sink.Reason()),
				time.Now().Add(s.config.WriteTimeout))
			return
		}
	}
}

// flush writes what was queued before the close, the final error frame included.
func (s *session) flush() {
	for {
		select {
		case e := <-s.sink.events:
			if err := s.write(e); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *session) write(e event.Outbound) error {
	data, err := event.Encode(e)
	if err != nil {
		s.log.Error("Event encoding failed", "event", e.Type, "error", err)
		return nil
	}
	if err = s.ws.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout)); err != nil {
		return err
	}
	return s.ws.WriteMessage(websocket.TextMessage, data)
}

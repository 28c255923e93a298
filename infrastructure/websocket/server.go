// Package websocket is the client-facing transport: it authenticates the
// upgrade request, then runs a reader, an inbound worker and a writer per socket.
package websocket

import (
	"context"
	stderrors "errors"
	"journal-live/auth"
	"journal-live/domain/event"
	"journal-live/errors"
	"journal-live/runtime"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var errShutdown = stderrors.New("server shutting down")

type Config struct {
	SendBufferSize   int
	InboundQueueSize int
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	MaxFrameBytes    int64
	AllowedOrigins   []string
}

func (c Config) withDefaults() Config {
	if c.SendBufferSize <= 0 {
		c.SendBufferSize = 64
	}
	if c.InboundQueueSize <= 0 {
		c.InboundQueueSize = 16
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.MaxFrameBytes <= 0 {
		c.MaxFrameBytes = 64 * 1024
	}
	return c
}

// pongWait is how long a silent client is kept before its read fails.
func (c Config) pongWait() time.Duration {
	return c.PingInterval * 2
}

type Server struct {
	log           *slog.Logger
	authenticator *auth.Authenticator
	registry      *runtime.Registry
	dispatcher    *runtime.Dispatcher
	upgrader      websocket.Upgrader
	config        Config

	sessions sync.Map // session id -> *Sink
	wg       sync.WaitGroup
}

func NewServer(log *slog.Logger, authenticator *auth.Authenticator, orchestrator *runtime.Orchestrator, config Config) *Server {
	config = config.withDefaults()
	s := &Server{
		log:           log,
		authenticator: authenticator,
		registry:      orchestrator.Registry(),
		dispatcher:    orchestrator.Dispatcher(),
		config:        config,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.config.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range s.config.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and blocks until the socket is gone.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	handshake := auth.HandshakeFromRequest(r)
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("Websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.wg.Add(1)
	defer s.wg.Done()

	credential, err := s.authenticator.Authenticate(r.Context(), handshake)
	if err != nil {
		s.log.Info("Connection rejected", "remote", r.RemoteAddr, "error", err)
		s.reject(ws, err)
		return
	}

	sink := NewSink(s.config.SendBufferSize)
	conn := s.registry.Connect(credential, sink)
	sessionID := uuid.NewString()
	s.sessions.Store(sessionID, sink)
	defer s.sessions.Delete(sessionID)

	sess := &session{
		log:        s.log.With("conn_id", conn.ID(), "user_id", conn.UserID()),
		ws:         ws,
		sink:       sink,
		conn:       conn,
		dispatcher: s.dispatcher,
		config:     s.config,
		inbound:    make(chan inbound, s.config.InboundQueueSize),
	}
	sess.log.Info("Client connected", "remote", r.RemoteAddr)
	sess.run(r.Context())
	s.registry.Disconnect(conn)
	sess.log.Info("Client disconnected", "reason", sink.Reason())
}

// reject sends the error frame then the close frame of a refused handshake.
func (s *Server) reject(ws *websocket.Conn, err error) {
	defer ws.Close()
	deadline := time.Now().Add(s.config.WriteTimeout)
	_ = ws.SetWriteDeadline(deadline)
	if data, encodeErr := event.Encode(event.NewError(err)); encodeErr == nil {
		_ = ws.WriteMessage(websocket.TextMessage, data)
	}
	_ = ws.WriteControl(websocket.CloseMessage, closeMessage(err), deadline)
}

// Shutdown closes every live socket with a going-away frame and waits for
// their sessions to end.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.Range(func(_, value any) bool {
		value.(*Sink).Close(errShutdown)
		return true
	})
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closeMessage(reason error) []byte {
	switch {
	case reason == nil:
		return websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	case stderrors.Is(reason, errShutdown):
		return websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutdown")
	case stderrors.Is(reason, errors.ErrSlowConsumer):
		return websocket.FormatCloseMessage(websocket.CloseTryAgainLater, errors.TypeSlowConsumer)
	case errors.IsConnectionFatal(reason):
		return websocket.FormatCloseMessage(websocket.ClosePolicyViolation, errors.TypeOf(reason))
	}
	return websocket.FormatCloseMessage(websocket.CloseInternalServerErr, errors.TypeInternal)
}

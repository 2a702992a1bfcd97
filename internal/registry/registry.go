// Package registry tracks live bidirectional streaming sessions and supports
// point-to-point sends and ordered broadcast.
package registry

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/bhupeshcoding/codecoach/models"
)

// Transport is the write side of one live connection. Implementations must
// be safe for use from a single session goroutine; the Session serializes
// concurrent writers itself.
type Transport interface {
	WriteText(ctx context.Context, data []byte) error
}

// Session is one open bidirectional channel with a client. The write mutex
// exists because websocket transports reject concurrent writes.
type Session struct {
	id     string
	conn   Transport
	mu     sync.Mutex
	closed bool
}

// NewSession wraps a transport with a fresh opaque identity.
func NewSession(conn Transport) *Session {
	return &Session{id: uuid.NewString(), conn: conn}
}

// ID returns the session's opaque handle.
func (s *Session) ID() string { return s.id }

func (s *Session) write(ctx context.Context, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.ErrSessionClosed
	}
	return s.conn.WriteText(ctx, data)
}

func (s *Session) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Registry is the process-wide set of live sessions, in registration order.
// All mutation is mutex-guarded: handlers run on preemptive goroutines.
type Registry struct {
	mu       sync.Mutex
	sessions []*Session
	logger   *log.Logger
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{logger: log.New(log.Writer(), "[WS] ", log.LstdFlags)}
}

// Register adds a session to the live set, making it a broadcast target.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = append(r.sessions, s)
	r.logger.Printf("session %s registered (%d live)", s.ID(), len(r.sessions))
}

// Unregister removes a session and marks it closed, so later sends fail with
// models.ErrSessionClosed. Removing a session that is not present is a no-op.
func (r *Registry) Unregister(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.sessions {
		if existing == s {
			r.sessions = append(r.sessions[:i], r.sessions[i+1:]...)
			s.markClosed()
			r.logger.Printf("session %s unregistered (%d live)", s.ID(), len(r.sessions))
			return
		}
	}
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Send delivers a framed text payload to exactly one session. A transport
// failure is returned as a *models.DeliveryError; the caller decides whether
// to unregister.
func (r *Registry) Send(ctx context.Context, s *Session, payload []byte) error {
	if err := s.write(ctx, payload); err != nil {
		return &models.DeliveryError{SessionID: s.ID(), Err: err}
	}
	return nil
}

// Broadcast delivers payload to every registered session in registration
// order. Per-recipient failures are isolated: a dead session is skipped,
// logged, and removed after the sweep so later sessions still receive the
// payload.
func (r *Registry) Broadcast(ctx context.Context, payload []byte) {
	r.mu.Lock()
	targets := make([]*Session, len(r.sessions))
	copy(targets, r.sessions)
	r.mu.Unlock()

	var failed []*Session
	for _, s := range targets {
		if err := s.write(ctx, payload); err != nil {
			r.logger.Printf("broadcast to %s failed: %v", s.ID(), err)
			failed = append(failed, s)
		}
	}
	for _, s := range failed {
		r.Unregister(s)
	}
}

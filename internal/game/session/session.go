// Package session tracks live client connections and the directory that maps
// authenticated actors to them.
package session

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// ErrSessionClosed is returned by Send once the session has been closed.
var ErrSessionClosed = errors.New("session closed")

// State is the authentication state of a session.
type State int32

const (
	StateUnauthenticated State = iota
	StateAuthenticated
)

// String returns the state name used in logs and metrics labels.
func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "pending"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Sender is the connection half a session writes to.
type Sender interface {
	WriteLine(text string) error
	Close() error
}

// Session is one client connection. It is owned by the goroutine servicing the
// connection; the Directory and the event queue only hold references.
type Session struct {
	id         uuid.UUID
	remoteAddr string
	conn       Sender

	state   atomic.Int32
	actorID atomic.Int64

	sendMu    sync.Mutex
	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error
}

// New wraps conn in an unauthenticated session with a fresh ID.
//
// Precondition: conn must be non-nil.
func New(conn Sender, remoteAddr string) *Session {
	return &Session{
		id:         uuid.New(),
		remoteAddr: remoteAddr,
		conn:       conn,
		closed:     make(chan struct{}),
	}
}

func (s *Session) ID() uuid.UUID      { return s.id }
func (s *Session) RemoteAddr() string { return s.remoteAddr }
func (s *Session) State() State       { return State(s.state.Load()) }

// ActorID returns the actor bound at login. ok is false before authentication.
func (s *Session) ActorID() (world.ActorID, bool) {
	if s.State() != StateAuthenticated {
		return 0, false
	}
	return world.ActorID(s.actorID.Load()), true
}

// Authenticate binds the session to id.
//
// Precondition: id must be > 0.
// Postcondition: State() == StateAuthenticated and ActorID() returns id.
func (s *Session) Authenticate(id world.ActorID) {
	s.actorID.Store(int64(id))
	s.state.Store(int32(StateAuthenticated))
}

// Send writes one line to the client. A write failure closes the session.
// Sends from different goroutines are serialized so lines never interleave.
func (s *Session) Send(msg string) error {
	select {
	case <-s.closed:
		return ErrSessionClosed
	default:
	}

	s.sendMu.Lock()
	err := s.conn.WriteLine(msg)
	s.sendMu.Unlock()
	if err != nil {
		_ = s.Close()
		return fmt.Errorf("sending to session %s: %w", s.id, err)
	}
	return nil
}

// Close closes the underlying connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// Done is closed once the session has been closed.
func (s *Session) Done() <-chan struct{} { return s.closed }

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

package session

import (
	"sort"
	"sync"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// Directory maps authenticated actors to their live sessions.
//
// Invariant: at most one session per actor.
// Writers are expected to be the server tick only; readers may be any goroutine.
type Directory struct {
	mu       sync.RWMutex
	sessions map[world.ActorID]*Session
}

// NewDirectory returns an empty Directory.
func NewDirectory() *Directory {
	return &Directory{sessions: make(map[world.ActorID]*Session)}
}

// Add registers an authenticated session under its actor and returns the
// session it displaced, if any.
//
// Precondition: s must be authenticated.
func (d *Directory) Add(s *Session) (*Session, bool) {
	id, ok := s.ActorID()
	if !ok {
		return nil, false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	prev, had := d.sessions[id]
	d.sessions[id] = s
	if had && prev == s {
		return nil, false
	}
	return prev, had
}

// Remove deletes s from the directory if it is still the session registered
// for its actor. Removing an absent session is a no-op.
func (d *Directory) Remove(s *Session) bool {
	id, ok := s.ActorID()
	if !ok {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if cur, found := d.sessions[id]; !found || cur != s {
		return false
	}
	delete(d.sessions, id)
	return true
}

// Get returns the live session for id.
func (d *Directory) Get(id world.ActorID) (*Session, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.sessions[id]
	return s, ok
}

// All returns a snapshot of every registered session ordered by actor id.
func (d *Directory) All() []*Session {
	d.mu.RLock()
	out := make([]*Session, 0, len(d.sessions))
	for _, s := range d.sessions {
		out = append(out, s)
	}
	d.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i].ActorID()
		b, _ := out[j].ActorID()
		return a < b
	})
	return out
}

// Len returns the number of registered sessions.
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

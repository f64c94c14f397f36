// Package gameserver runs the session runtime and the periodic tick that
// promotes logged-in sessions, evicts dead ones, and drains the event queue.
package gameserver

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/verbmud/internal/config"
	"github.com/cory-johannsen/verbmud/internal/game/auth"
	"github.com/cory-johannsen/verbmud/internal/game/command"
	"github.com/cory-johannsen/verbmud/internal/game/event"
	"github.com/cory-johannsen/verbmud/internal/game/session"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/observability"
)

type requestKind int

const (
	requestJoin requestKind = iota
	requestPromote
	requestLeave
)

// request is a session lifecycle change applied on the next tick.
type request struct {
	kind requestKind
	sess *session.Session
	done chan struct{}
}

// Server owns the session directory and event queue. The directory and the
// pending set are mutated only inside Tick.
type Server struct {
	cfg        config.TickConfig
	world      world.Store
	auth       auth.Validator
	dispatcher *command.Dispatcher
	directory  *session.Directory
	queue      *event.Queue
	metrics    *observability.Metrics
	logger     *zap.Logger

	mu       sync.Mutex
	requests []request

	pending map[uuid.UUID]*session.Session

	lastTick atomic.Int64
	stop     chan struct{}
	stopOnce sync.Once
	stopped  chan struct{}
}

// Deps groups the collaborators a Server needs.
type Deps struct {
	World      world.Store
	Auth       auth.Validator
	Dispatcher *command.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// NewServer builds a Server. Metrics may be nil.
//
// Precondition: cfg.Interval must be > 0; World, Auth, Dispatcher and Logger must be non-nil.
func NewServer(cfg config.TickConfig, deps Deps) *Server {
	if cfg.Interval <= 0 {
		panic("gameserver.NewServer: tick interval must be > 0")
	}
	return &Server{
		cfg:        cfg,
		world:      deps.World,
		auth:       deps.Auth,
		dispatcher: deps.Dispatcher,
		directory:  session.NewDirectory(),
		queue:      event.NewQueue(deps.Metrics, deps.Logger.Named("events")),
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		pending:    make(map[uuid.UUID]*session.Session),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

// Directory returns the live authenticated sessions.
func (s *Server) Directory() *session.Directory { return s.directory }

// Queue returns the event queue.
func (s *Server) Queue() *event.Queue { return s.queue }

// LastTick returns when the tick loop last completed, or the zero time.
func (s *Server) LastTick() time.Time {
	n := s.lastTick.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// PendingCount returns the number of connected sessions not yet promoted.
func (s *Server) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Server) enqueue(r request) {
	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.mu.Unlock()
}

// promote asks the tick to move sess into the directory and waits for it.
func (s *Server) promote(ctx context.Context, sess *session.Session) error {
	done := make(chan struct{})
	s.enqueue(request{kind: requestPromote, sess: sess, done: done})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.stopped:
		return ErrServerStopped
	}
}

// Tick applies queued session changes, then delivers every event due at now.
//
// Postcondition: every request enqueued before the call has been applied.
func (s *Server) Tick(ctx context.Context, now time.Time) event.Stats {
	start := time.Now()

	s.mu.Lock()
	reqs := s.requests
	s.requests = nil
	s.mu.Unlock()

	for _, r := range reqs {
		s.apply(r)
	}

	stats := s.queue.Tick(ctx, now, s.directory, s.world)

	s.mu.Lock()
	pending := len(s.pending)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.Sessions.WithLabelValues(observability.StatePending).Set(float64(pending))
		s.metrics.Sessions.WithLabelValues(observability.StateAuthenticated).Set(float64(s.directory.Len()))
		s.metrics.TickDuration.Observe(time.Since(start).Seconds())
	}
	s.lastTick.Store(now.UnixNano())

	if stats.Events > 0 || len(reqs) > 0 {
		s.logger.Debug("tick",
			zap.Int("requests", len(reqs)),
			zap.Int("events", stats.Events),
			zap.Int("delivered", stats.Delivered),
			zap.Int("skipped", stats.Skipped),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return stats
}

func (s *Server) apply(r request) {
	if r.done != nil {
		defer close(r.done)
	}

	switch r.kind {
	case requestJoin:
		s.mu.Lock()
		s.pending[r.sess.ID()] = r.sess
		s.mu.Unlock()
	case requestPromote:
		s.mu.Lock()
		delete(s.pending, r.sess.ID())
		s.mu.Unlock()
		if r.sess.IsClosed() {
			return
		}
		prev, replaced := s.directory.Add(r.sess)
		if replaced {
			id, _ := r.sess.ActorID()
			s.logger.Info("session replaced by new login",
				zap.Int64("actor_id", int64(id)),
				zap.String("old_session", prev.ID().String()),
				zap.String("new_session", r.sess.ID().String()),
			)
			_ = prev.Send(msgReplaced)
			_ = prev.Close()
		}
	case requestLeave:
		s.mu.Lock()
		delete(s.pending, r.sess.ID())
		s.mu.Unlock()
		s.directory.Remove(r.sess)
	}
}

// Run drives Tick every interval until Stop is called or ctx ends.
//
// Postcondition: the loop has exited and waiting logins have been released.
func (s *Server) Run(ctx context.Context) error {
	defer s.Stop()
	defer close(s.stopped)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.Info("tick loop started", zap.Duration("interval", s.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case now := <-ticker.C:
			s.Tick(ctx, now)
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Stopped is closed when Run returns.
func (s *Server) Stopped() <-chan struct{} { return s.stopped }

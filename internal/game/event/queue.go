// Package event holds the time-ordered queue that delivers broadcast messages
// to sessions on each server tick.
package event

import (
	"container/heap"
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/verbmud/internal/game/command"
	"github.com/cory-johannsen/verbmud/internal/game/session"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/observability"
)

// Event is a message scheduled for delivery at or after At.
//
// Audience is resolved at delivery time: a non-zero RoomID addresses the
// room's occupants at that moment, a non-zero TargetID addresses one actor,
// and neither addresses every session in the directory. Exclude is applied
// to room and global audiences.
type Event struct {
	At       time.Time
	Message  string
	RoomID   world.RoomID
	TargetID world.ActorID
	Exclude  []world.ActorID

	seq  uint64
	done chan struct{}
}

// FromResponse builds the room-or-global event carried by r.
// ok is false when r has no room part.
func FromResponse(r *command.Response) (Event, bool) {
	msg, room, ok := r.ToRoom()
	if !ok {
		return Event{}, false
	}
	return Event{Message: msg, RoomID: room, Exclude: r.Excluded()}, true
}

// Occupancy resolves the actors currently in a room.
type Occupancy interface {
	Occupants(ctx context.Context, id world.RoomID) ([]world.ActorID, error)
}

// Recipients resolves live sessions.
type Recipients interface {
	Get(id world.ActorID) (*session.Session, bool)
	All() []*session.Session
}

// Stats summarizes one Tick.
type Stats struct {
	Events    int
	Delivered int
	Skipped   int
}

// Queue is a priority queue of events keyed by (At, insertion order).
// Push is safe from any goroutine; Tick must be called by a single consumer.
type Queue struct {
	mu   sync.Mutex
	heap eventHeap
	seq  uint64
	now  func() time.Time

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewQueue returns an empty queue. metrics may be nil.
//
// Precondition: logger must be non-nil.
func NewQueue(metrics *observability.Metrics, logger *zap.Logger) *Queue {
	return &Queue{
		now:     time.Now,
		metrics: metrics,
		logger:  logger,
	}
}

// Push schedules e. A zero At means now.
func (q *Queue) Push(e Event) {
	q.push(e)
}

// PushAndWait schedules e and blocks until a tick has processed it or ctx ends.
// It waits outside the queue lock so the tick is never blocked by a waiter.
func (q *Queue) PushAndWait(ctx context.Context, e Event) error {
	done := make(chan struct{})
	e.done = done
	q.push(e)
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) push(e Event) {
	if e.At.IsZero() {
		e.At = q.now()
	}
	q.mu.Lock()
	q.seq++
	e.seq = q.seq
	heap.Push(&q.heap, &e)
	depth := q.heap.Len()
	q.mu.Unlock()

	if q.metrics != nil {
		q.metrics.QueueDepth.Set(float64(depth))
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.heap.Len()
}

// popDue removes and returns the earliest event with At <= now.
func (q *Queue) popDue(now time.Time) (*Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.heap.Len() == 0 || q.heap[0].At.After(now) {
		return nil, false
	}
	return heap.Pop(&q.heap).(*Event), true
}

// Tick delivers every event due at now, earliest first. Recipients missing
// from dir, or whose send fails, are skipped.
func (q *Queue) Tick(ctx context.Context, now time.Time, dir Recipients, occ Occupancy) Stats {
	var stats Stats
	for {
		e, ok := q.popDue(now)
		if !ok {
			break
		}
		stats.Events++
		delivered, skipped := q.deliver(ctx, e, dir, occ)
		stats.Delivered += delivered
		stats.Skipped += skipped
		if e.done != nil {
			close(e.done)
		}
	}

	if q.metrics != nil {
		q.metrics.EventsDelivered.Add(float64(stats.Delivered))
		q.metrics.EventsSkipped.Add(float64(stats.Skipped))
		q.metrics.QueueDepth.Set(float64(q.Len()))
	}
	return stats
}

func (q *Queue) deliver(ctx context.Context, e *Event, dir Recipients, occ Occupancy) (delivered, skipped int) {
	var targets []*session.Session
	switch {
	case e.RoomID != 0:
		ids, err := occ.Occupants(ctx, e.RoomID)
		if err != nil {
			q.logger.Warn("resolving room occupants",
				zap.Int64("room_id", int64(e.RoomID)),
				zap.Error(err),
			)
			return 0, 1
		}
		for _, id := range ids {
			if slices.Contains(e.Exclude, id) {
				continue
			}
			s, ok := dir.Get(id)
			if !ok {
				skipped++
				continue
			}
			targets = append(targets, s)
		}
	case e.TargetID != 0:
		s, ok := dir.Get(e.TargetID)
		if !ok {
			return 0, 1
		}
		targets = append(targets, s)
	default:
		for _, s := range dir.All() {
			if id, _ := s.ActorID(); slices.Contains(e.Exclude, id) {
				continue
			}
			targets = append(targets, s)
		}
	}

	for _, s := range targets {
		if err := s.Send(e.Message); err != nil {
			q.logger.Debug("event delivery failed",
				zap.String("session_id", s.ID().String()),
				zap.Error(err),
			)
			skipped++
			continue
		}
		delivered++
	}
	if skipped > 0 {
		q.logger.Debug("event recipients skipped",
			zap.Int64("room_id", int64(e.RoomID)),
			zap.Int64("target_id", int64(e.TargetID)),
			zap.Int("skipped", skipped),
		)
	}
	return delivered, skipped
}

type eventHeap []*Event

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].At.Equal(h[j].At) {
		return h[i].seq < h[j].seq
	}
	return h[i].At.Before(h[j].At)
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return e
}

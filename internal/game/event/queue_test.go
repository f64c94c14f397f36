package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/verbmud/internal/game/command"
	"github.com/cory-johannsen/verbmud/internal/game/session"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/observability"
)

const (
	alice world.ActorID = 10
	bob   world.ActorID = 11
	carol world.ActorID = 12
	hall  world.RoomID  = 1
	yard  world.RoomID  = 2
)

var epoch = time.Unix(0, 0)

func at(sec int) time.Time { return epoch.Add(time.Duration(sec) * time.Second) }

type recorder struct {
	mu      sync.Mutex
	lines   []string
	failing bool
}

func (r *recorder) WriteLine(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("connection reset")
	}
	r.lines = append(r.lines, text)
	return nil
}

func (r *recorder) Close() error { return nil }

func (r *recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// connect authenticates a recorded session for id and registers it in dir.
func connect(dir *session.Directory, id world.ActorID) *recorder {
	rec := &recorder{}
	s := session.New(rec, "")
	s.Authenticate(id)
	dir.Add(s)
	return rec
}

func newTestWorld(t *testing.T) *world.Manager {
	t.Helper()
	m, err := world.NewManager([]*world.Zone{{
		ID: "test",
		Rooms: []*world.Room{
			{ID: hall, ShortDesc: "Great Hall", Exits: []world.Exit{{Direction: world.North, Target: yard}}},
			{ID: yard, ShortDesc: "Courtyard", Exits: []world.Exit{{Direction: world.South, Target: hall}}},
		},
		Characters: []world.Character{
			{Actor: world.Actor{ID: alice, Name: "Alice", ShortDesc: "a tall woman", RoomID: hall}},
			{Actor: world.Actor{ID: bob, Name: "Bob", ShortDesc: "a short man", RoomID: hall}},
			{Actor: world.Actor{ID: carol, Name: "Carol", ShortDesc: "a stout dwarf", RoomID: yard}},
		},
	}})
	require.NoError(t, err)
	return m
}

func newTestQueue(t *testing.T, m *observability.Metrics) *Queue {
	return NewQueue(m, zaptest.NewLogger(t))
}

func TestTick_DeliversInTimestampOrder(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(10), Message: "e1", TargetID: alice})
	q.Push(Event{At: at(5), Message: "e2", TargetID: alice})

	stats := q.Tick(context.Background(), at(11), dir, w)
	assert.Equal(t, Stats{Events: 2, Delivered: 2}, stats)
	assert.Equal(t, []string{"e2", "e1"}, rec.Lines())
}

func TestTick_TiesKeepInsertionOrder(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q := newTestQueue(t, nil)

	for _, msg := range []string{"a", "b", "c"} {
		q.Push(Event{At: at(1), Message: msg, TargetID: alice})
	}
	q.Tick(context.Background(), at(1), dir, w)
	assert.Equal(t, []string{"a", "b", "c"}, rec.Lines())
}

func TestTick_LeavesFutureEvents(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(5), Message: "now", TargetID: alice})
	q.Push(Event{At: at(20), Message: "later", TargetID: alice})

	q.Tick(context.Background(), at(10), dir, w)
	assert.Equal(t, []string{"now"}, rec.Lines())
	assert.Equal(t, 1, q.Len())

	q.Tick(context.Background(), at(20), dir, w)
	assert.Equal(t, []string{"now", "later"}, rec.Lines())
	assert.Equal(t, 0, q.Len())
}

func TestTick_RoomAudienceResolvedAtDelivery(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t)
	dir := session.NewDirectory()
	recAlice := connect(dir, alice)
	recBob := connect(dir, bob)
	recCarol := connect(dir, carol)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(1), Message: "Someone laughs.", RoomID: hall})

	// Bob leaves the hall and Carol arrives before the tick.
	_, err := w.Move(ctx, bob, world.North)
	require.NoError(t, err)
	_, err = w.Move(ctx, carol, world.South)
	require.NoError(t, err)

	q.Tick(ctx, at(1), dir, w)
	assert.Equal(t, []string{"Someone laughs."}, recAlice.Lines())
	assert.Empty(t, recBob.Lines())
	assert.Equal(t, []string{"Someone laughs."}, recCarol.Lines())
}

func TestTick_RoomExcludesActorAndTarget(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	recAlice := connect(dir, alice)
	recBob := connect(dir, bob)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(1), Message: "Alice laughs at Bob!", RoomID: hall, Exclude: []world.ActorID{alice, bob}})
	stats := q.Tick(context.Background(), at(1), dir, w)
	assert.Empty(t, recAlice.Lines())
	assert.Empty(t, recBob.Lines())
	assert.Equal(t, 0, stats.Delivered)
}

func TestTick_AbsentRecipientsSkipped(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	recAlice := connect(dir, alice)
	m := observability.NewMetrics()
	q := newTestQueue(t, m)

	q.Push(Event{At: at(1), Message: "room", RoomID: hall})
	q.Push(Event{At: at(1), Message: "direct", TargetID: carol})

	stats := q.Tick(context.Background(), at(1), dir, w)
	assert.Equal(t, Stats{Events: 2, Delivered: 1, Skipped: 2}, stats)
	assert.Equal(t, []string{"room"}, recAlice.Lines())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsDelivered))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.EventsSkipped))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.QueueDepth))
}

func TestTick_GlobalBroadcast(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	recAlice := connect(dir, alice)
	recBob := connect(dir, bob)
	recCarol := connect(dir, carol)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(1), Message: "The bell tolls.", Exclude: []world.ActorID{bob}})
	q.Tick(context.Background(), at(1), dir, w)

	assert.Equal(t, []string{"The bell tolls."}, recAlice.Lines())
	assert.Empty(t, recBob.Lines())
	assert.Equal(t, []string{"The bell tolls."}, recCarol.Lines())
}

func TestTick_SendFailureIsAbsorbed(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	broken := connect(dir, alice)
	broken.failing = true
	recBob := connect(dir, bob)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(1), Message: "hello", RoomID: hall})
	stats := q.Tick(context.Background(), at(1), dir, w)
	assert.Equal(t, 1, stats.Delivered)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []string{"hello"}, recBob.Lines())
}

type failingOccupancy struct{}

func (failingOccupancy) Occupants(context.Context, world.RoomID) ([]world.ActorID, error) {
	return nil, errors.New("storage unavailable")
}

func TestTick_OccupancyErrorSkipsEvent(t *testing.T) {
	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q := newTestQueue(t, nil)

	q.Push(Event{At: at(1), Message: "lost", RoomID: hall})
	q.Push(Event{At: at(1), Message: "kept", TargetID: alice})
	stats := q.Tick(context.Background(), at(1), dir, failingOccupancy{})
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, []string{"kept"}, rec.Lines())
}

func TestPush_ZeroTimeMeansNow(t *testing.T) {
	q := newTestQueue(t, nil)
	q.now = func() time.Time { return at(42) }
	q.Push(Event{Message: "x", TargetID: alice})

	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q.Tick(context.Background(), at(41), dir, failingOccupancy{})
	assert.Empty(t, rec.Lines())
	q.Tick(context.Background(), at(42), dir, failingOccupancy{})
	assert.Equal(t, []string{"x"}, rec.Lines())
}

func TestPushAndWait_ReturnsAfterDelivery(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q := newTestQueue(t, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- q.PushAndWait(context.Background(), Event{At: at(1), Message: "sync", TargetID: alice})
	}()

	require.Eventually(t, func() bool { return q.Len() == 1 }, time.Second, time.Millisecond)
	select {
	case <-errCh:
		t.Fatal("PushAndWait returned before the tick")
	default:
	}

	q.Tick(context.Background(), at(1), dir, w)
	require.NoError(t, <-errCh)
	assert.Equal(t, []string{"sync"}, rec.Lines())
}

func TestPushAndWait_ContextCancelled(t *testing.T) {
	q := newTestQueue(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.PushAndWait(ctx, Event{At: at(1), Message: "never"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPush_Concurrent(t *testing.T) {
	w := newTestWorld(t)
	dir := session.NewDirectory()
	rec := connect(dir, alice)
	q := newTestQueue(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(Event{At: at(1), Message: "m", TargetID: alice})
		}()
	}
	wg.Wait()
	stats := q.Tick(context.Background(), at(1), dir, w)
	assert.Equal(t, 100, stats.Delivered)
	assert.Len(t, rec.Lines(), 100)
}

func TestFromResponse(t *testing.T) {
	r, err := command.NewResponse(command.ResponseSpec{
		ToActor: "You laugh at Bob!", ActorID: alice,
		ToTarget: "Alice laughs at you!", TargetID: bob,
		ToRoom: "Alice laughs at Bob!", RoomID: hall,
	})
	require.NoError(t, err)
	e, ok := FromResponse(r)
	require.True(t, ok)
	assert.Equal(t, "Alice laughs at Bob!", e.Message)
	assert.Equal(t, hall, e.RoomID)
	assert.ElementsMatch(t, []world.ActorID{alice, bob}, e.Exclude)

	r, err = command.NewResponse(command.ResponseSpec{ToActor: "Hi.", ActorID: alice})
	require.NoError(t, err)
	_, ok = FromResponse(r)
	assert.False(t, ok)
}

func TestPropertyTickDeliversSorted(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := newTestWorld(t)
		dir := session.NewDirectory()
		rec := connect(dir, alice)
		q := NewQueue(nil, zaptest.NewLogger(t))

		secs := rapid.SliceOfN(rapid.IntRange(0, 20), 1, 30).Draw(rt, "secs")
		for i, s := range secs {
			q.Push(Event{At: at(s), Message: string(rune('a'+s)) + string(rune('0'+i%10)), TargetID: alice})
		}
		q.Tick(context.Background(), at(20), dir, w)

		lines := rec.Lines()
		if len(lines) != len(secs) {
			rt.Fatalf("delivered %d of %d", len(lines), len(secs))
		}
		for i := 1; i < len(lines); i++ {
			if lines[i][0] < lines[i-1][0] {
				rt.Fatalf("out of order: %v", lines)
			}
		}
	})
}

package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recorder collects service events in the order they happen.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// blockingService runs until Stop is called.
type blockingService struct {
	name    string
	rec     *recorder
	started chan struct{}
	stop    chan struct{}
	once    sync.Once
}

func newBlockingService(name string, rec *recorder) *blockingService {
	return &blockingService{
		name:    name,
		rec:     rec,
		started: make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

func (b *blockingService) Start() error {
	close(b.started)
	<-b.stop
	return nil
}

func (b *blockingService) Stop() {
	b.once.Do(func() {
		b.rec.add("stop " + b.name)
		close(b.stop)
	})
}

func waitStarted(t *testing.T, svcs ...*blockingService) {
	t.Helper()
	for _, s := range svcs {
		select {
		case <-s.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("service %s did not start", s.name)
		}
	}
}

func runAsync(lc *Lifecycle, ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	return done
}

func awaitRun(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
		return nil
	}
}

func TestLifecycle_StopsInReverseOrderOnCancel(t *testing.T) {
	rec := &recorder{}
	lc := NewLifecycle(zaptest.NewLogger(t))
	storage := newBlockingService("storage", rec)
	tick := newBlockingService("tick", rec)
	listener := newBlockingService("telnet", rec)
	lc.Add("storage", storage)
	lc.Add("tick", tick)
	lc.Add("telnet", listener)

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)
	waitStarted(t, storage, tick, listener)

	cancel()
	require.NoError(t, awaitRun(t, done))
	assert.Equal(t, []string{"stop telnet", "stop tick", "stop storage"}, rec.all())
}

func TestLifecycle_ServiceFailureIsReturned(t *testing.T) {
	rec := &recorder{}
	lc := NewLifecycle(zaptest.NewLogger(t))
	other := newBlockingService("tick", rec)
	errBind := errors.New("address in use")
	lc.Add("tick", other)
	lc.Add("telnet", &FuncService{
		StartFn: func() error {
			<-other.started
			return errBind
		},
		StopFn: func() { rec.add("stop telnet") },
	})

	err := awaitRun(t, runAsync(lc, context.Background()))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBind)
	assert.Contains(t, err.Error(), "service telnet")
	assert.Equal(t, []string{"stop telnet", "stop tick"}, rec.all())
}

func TestLifecycle_CleanExitTriggersShutdown(t *testing.T) {
	rec := &recorder{}
	lc := NewLifecycle(zaptest.NewLogger(t))
	storage := newBlockingService("storage", rec)
	lc.Add("storage", storage)
	lc.Add("tick", &FuncService{
		StartFn: func() error {
			<-storage.started
			return nil
		},
	})

	require.NoError(t, awaitRun(t, runAsync(lc, context.Background())))
	assert.Equal(t, []string{"stop storage"}, rec.all())
}

func TestLifecycle_StopTimeoutBoundsShutdown(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))
	lc.SetStopTimeout(50 * time.Millisecond)

	stuck := make(chan struct{})
	defer close(stuck)
	lc.Add("stuck", &FuncService{
		StartFn: func() error {
			<-stuck
			return nil
		},
		StopFn: func() {},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := runAsync(lc, ctx)
	cancel()

	start := time.Now()
	require.NoError(t, awaitRun(t, done))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestFuncService(t *testing.T) {
	started := false
	stopped := false

	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() {
			stopped = true
		},
	}

	require.NoError(t, svc.Start())
	assert.True(t, started)
	svc.Stop()
	assert.True(t, stopped)

	assert.NotPanics(t, func() { (&FuncService{StartFn: func() error { return nil }}).Stop() })
}

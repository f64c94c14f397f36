package gameserver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/verbmud/internal/config"
	"github.com/cory-johannsen/verbmud/internal/frontend/telnet"
	"github.com/cory-johannsen/verbmud/internal/game/auth"
	"github.com/cory-johannsen/verbmud/internal/game/command"
	"github.com/cory-johannsen/verbmud/internal/game/tagger"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/observability"
	"github.com/cory-johannsen/verbmud/internal/testutil"
)

const (
	alice world.ActorID = 10
	bob   world.ActorID = 11
	carol world.ActorID = 12
	dave  world.ActorID = 13
	hall  world.RoomID  = 1
	yard  world.RoomID  = 2

	// sha256("1")
	oneHash = "6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b"

	readTimeout = 2 * time.Second
	quiet       = 200 * time.Millisecond
)

func newTestWorld(t *testing.T) *world.Manager {
	t.Helper()
	character := func(id world.ActorID, name string, room world.RoomID) world.Character {
		return world.Character{
			Actor:       world.Actor{ID: id, Name: name, ShortDesc: "a traveller named " + name, RoomID: room},
			AccountHash: oneHash,
		}
	}
	m, err := world.NewManager([]*world.Zone{{
		ID: "test",
		Rooms: []*world.Room{
			{ID: hall, ShortDesc: "Great Hall", LongDesc: "Banners hang from the rafters.",
				Exits: []world.Exit{{Direction: world.North, Target: yard}}},
			{ID: yard, ShortDesc: "Courtyard", LongDesc: "Rain falls.",
				Exits: []world.Exit{{Direction: world.South, Target: hall}}},
		},
		Things: []world.Thing{
			{Object: world.Object{ID: 100, Kind: world.KindMobile, ShortDesc: "a slimy green goblin"}, RoomID: hall},
		},
		Characters: []world.Character{
			character(alice, "Alice", hall),
			character(bob, "Bob", hall),
			character(carol, "Carol", yard),
			character(dave, "Dave", hall),
		},
	}})
	require.NoError(t, err)
	return m
}

type harness struct {
	server  *Server
	world   *world.Manager
	metrics *observability.Metrics
	addr    string
}

// newHarness runs a Server with a fast tick behind a loopback acceptor.
func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	w := newTestWorld(t)
	m := observability.NewMetrics()
	reg := command.DefaultRegistry()
	tg := tagger.NewLexicon(tagger.Options{Verbs: reg.Words(), Adverbs: command.Adverbs()})

	srv := NewServer(config.TickConfig{Interval: 10 * time.Millisecond}, Deps{
		World:      w,
		Auth:       auth.NewService(w, auth.SHA256Hasher{}, logger),
		Dispatcher: command.NewDispatcher(tg, reg, w, m, logger),
		Metrics:    m,
		Logger:     logger,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = srv.Run(ctx) }()

	acc := telnet.NewAcceptor(config.ListenConfig{Host: "127.0.0.1", WriteTimeout: time.Second}, srv, logger)
	go func() { _ = acc.ListenAndServe() }()
	require.Eventually(t, func() bool { return acc.Addr() != "" }, 2*time.Second, 5*time.Millisecond)

	t.Cleanup(func() {
		acc.Stop()
		cancel()
		<-srv.Stopped()
	})
	return &harness{server: srv, world: w, metrics: m, addr: acc.Addr()}
}

// login connects and authenticates name with the shared test secret.
func (h *harness) login(t *testing.T, name string) *testutil.LineClient {
	t.Helper()
	c := testutil.NewLineClient(t, h.addr)
	require.Equal(t, "Welcome "+name+"!", c.Login(name, "1"))
	return c
}

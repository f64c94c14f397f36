package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/verbmud/internal/game/tagger"
	"github.com/cory-johannsen/verbmud/internal/game/world"
)

const (
	alice world.ActorID = 10
	bob   world.ActorID = 11
	hall  world.RoomID  = 1
	yard  world.RoomID  = 2
)

func newTestWorld(t *testing.T) *world.Manager {
	t.Helper()
	m, err := world.NewManager([]*world.Zone{{
		ID: "test",
		Rooms: []*world.Room{
			{ID: hall, ShortDesc: "Great Hall", LongDesc: "Banners hang from the rafters.",
				Exits: []world.Exit{{Direction: world.North, Target: yard}}},
			{ID: yard, ShortDesc: "Courtyard", LongDesc: "Rain falls.",
				Exits: []world.Exit{{Direction: world.South, Target: hall}}},
		},
		Things: []world.Thing{
			{Object: world.Object{ID: 100, Kind: world.KindMobile, ShortDesc: "a slimy green goblin", LongDesc: "It drools on the flagstones."}, RoomID: hall},
			{Object: world.Object{ID: 101, Kind: world.KindItem, ShortDesc: "a shiny gold chest", LongDesc: "The lid is ajar."}, RoomID: hall},
			{Object: world.Object{ID: 102, Kind: world.KindItem, ShortDesc: "a big blue cracker"}, RoomID: hall},
		},
		Characters: []world.Character{
			{Actor: world.Actor{ID: alice, Name: "Alice", ShortDesc: "a tall woman", RoomID: hall}, LongDesc: "Alice looks determined."},
			{Actor: world.Actor{ID: bob, Name: "Bob", ShortDesc: "a short man", RoomID: hall}},
		},
	}})
	require.NoError(t, err)
	return m
}

func newTestTagger() *tagger.Lexicon {
	return tagger.NewLexicon(tagger.Options{
		Verbs:   DefaultRegistry().Words(),
		Adverbs: Adverbs(),
	})
}

// buildLine tags and builds line from hall.
func buildLine(t *testing.T, w world.Store, line string) (*Phrase, error) {
	t.Helper()
	tokens, err := newTestTagger().Tag(context.Background(), line)
	require.NoError(t, err)
	return NewBuilder(DefaultRegistry(), w).Build(context.Background(), tokens, hall)
}

func actorOf(t *testing.T, w world.Store, id world.ActorID) world.Actor {
	t.Helper()
	a, err := w.Actor(context.Background(), id)
	require.NoError(t, err)
	return a
}

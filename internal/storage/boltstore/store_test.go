package boltstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

const (
	hall  world.RoomID  = 1
	yard  world.RoomID  = 2
	alice world.ActorID = 10
	bob   world.ActorID = 11
)

func testZone() *world.Zone {
	return &world.Zone{
		ID: "test",
		Rooms: []*world.Room{
			{ID: hall, ShortDesc: "Great Hall", LongDesc: "Banners hang from the rafters.",
				Exits: []world.Exit{{Direction: world.North, Target: yard}}},
			{ID: yard, ShortDesc: "Courtyard",
				Exits: []world.Exit{{Direction: world.South, Target: hall}}},
		},
		Things: []world.Thing{
			{Object: world.Object{ID: 100, Kind: world.KindMobile, ShortDesc: "a slimy green goblin", LongDesc: "It drools."}, RoomID: hall},
			{Object: world.Object{ID: 101, Kind: world.KindItem, ShortDesc: "a shiny gold chest"}, RoomID: hall},
		},
		Characters: []world.Character{
			{Actor: world.Actor{ID: alice, Name: "Alice", ShortDesc: "a tall woman", RoomID: hall}, LongDesc: "Alice looks determined.", AccountHash: "h1"},
			{Actor: world.Actor{ID: bob, Name: "Bob", ShortDesc: "a short man", RoomID: yard}, AccountHash: "h2"},
		},
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ImportZones(context.Background(), []*world.Zone{testZone()}))
	return s
}

func TestStore_Room(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	room, err := s.Room(ctx, hall)
	require.NoError(t, err)
	assert.Equal(t, "Great Hall", room.ShortDesc)
	assert.Equal(t, []world.Exit{{Direction: world.North, Target: yard}}, room.Exits)

	exits, err := s.Exits(ctx, yard)
	require.NoError(t, err)
	assert.Equal(t, []world.Exit{{Direction: world.South, Target: hall}}, exits)

	_, err = s.Room(ctx, 42)
	assert.ErrorIs(t, err, world.ErrNotFound)

	n, err := s.RoomCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestStore_OccupantsAndActor(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	ids, err := s.Occupants(ctx, hall)
	require.NoError(t, err)
	assert.Equal(t, []world.ActorID{alice}, ids)

	_, err = s.Occupants(ctx, 42)
	assert.ErrorIs(t, err, world.ErrNotFound)

	a, err := s.Actor(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, world.Actor{ID: bob, Name: "Bob", ShortDesc: "a short man", RoomID: yard}, a)

	_, err = s.Actor(ctx, 100)
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestStore_Move(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	dest, err := s.Move(ctx, alice, world.North)
	require.NoError(t, err)
	assert.Equal(t, yard, dest)

	ids, err := s.Occupants(ctx, yard)
	require.NoError(t, err)
	assert.Equal(t, []world.ActorID{alice, bob}, ids)
	ids, err = s.Occupants(ctx, hall)
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = s.Move(ctx, alice, world.East)
	assert.ErrorIs(t, err, world.ErrNoSuchExit)
	room, err := s.ActorRoom(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, yard, room)
}

func TestStore_FindObjects(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	found, err := s.FindObjects(ctx, hall, "gold")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, world.ObjectID(101), found[0].ID)

	found, err = s.FindObjects(ctx, hall, "A")
	require.NoError(t, err)
	var ids []world.ObjectID
	for _, o := range found {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []world.ObjectID{world.ObjectID(alice), 100, 101}, ids)

	found, err = s.FindObjects(ctx, hall, "bob")
	require.NoError(t, err)
	assert.Empty(t, found, "Bob is in the courtyard")
}

func TestStore_ObjectDescription(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for id, want := range map[world.ObjectID]string{
		100:                   "It drools.",
		101:                   "a shiny gold chest",
		world.ObjectID(alice): "Alice looks determined.",
		world.ObjectID(bob):   "a short man",
	} {
		got, err := s.ObjectDescription(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := s.ObjectDescription(ctx, 999)
	assert.ErrorIs(t, err, world.ErrNotFound)
}

func TestStore_Characters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.CharacterByName(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice, c.ID)
	assert.Equal(t, "h1", c.AccountHash)

	_, err = s.CharacterByName(ctx, "Zed")
	assert.ErrorIs(t, err, world.ErrNotFound)

	created, err := s.CreateCharacter(ctx, world.Character{
		Actor:       world.Actor{Name: "Cal", ShortDesc: "a wiry youth", RoomID: hall},
		AccountHash: "h3",
	})
	require.NoError(t, err)
	assert.Equal(t, world.ActorID(102), created.ID, "ids continue past imported objects")

	ids, err := s.Occupants(ctx, hall)
	require.NoError(t, err)
	assert.Equal(t, []world.ActorID{alice, created.ID}, ids)

	_, err = s.CreateCharacter(ctx, world.Character{Actor: world.Actor{Name: "cal", RoomID: hall}})
	assert.ErrorIs(t, err, world.ErrCharacterExists)
	_, err = s.CreateCharacter(ctx, world.Character{Actor: world.Actor{Name: "Dee", RoomID: 42}})
	assert.ErrorIs(t, err, world.ErrNotFound)
	_, err = s.CreateCharacter(ctx, world.Character{Actor: world.Actor{ID: 100, Name: "Eve", RoomID: hall}})
	assert.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "world.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.ImportZones(ctx, []*world.Zone{testZone()}))
	_, err = s.Move(ctx, alice, world.North)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	room, err := s.ActorRoom(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, yard, room)
	assert.Equal(t, path, s.Path())
}

func TestImportZones_ReimportMovesIndex(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	z := testZone()
	z.Characters[0].RoomID = yard
	z.Characters[0].Name = "Alicia"
	require.NoError(t, s.ImportZones(ctx, []*world.Zone{z}))

	ids, err := s.Occupants(ctx, hall)
	require.NoError(t, err)
	assert.Empty(t, ids)
	_, err = s.CharacterByName(ctx, "Alice")
	assert.ErrorIs(t, err, world.ErrNotFound)
	c, err := s.CharacterByName(ctx, "alicia")
	require.NoError(t, err)
	assert.Equal(t, yard, c.RoomID)
}

func TestImportZones_RejectsDanglingExit(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	defer s.Close()

	z := testZone()
	z.Rooms[0].Exits = append(z.Rooms[0].Exits, world.Exit{Direction: world.West, Target: 77})
	assert.Error(t, s.ImportZones(context.Background(), []*world.Zone{z}))

	_, err = s.Room(context.Background(), hall)
	assert.ErrorIs(t, err, world.ErrNotFound, "failed import leaves nothing behind")
}

func TestPropertyMoveMatchesMemoryStore(t *testing.T) {
	s := openTestStore(t)
	mem, err := world.NewManager([]*world.Zone{testZone()})
	require.NoError(t, err)
	ctx := context.Background()

	rapid.Check(t, func(rt *rapid.T) {
		dir := rapid.SampledFrom(world.StandardDirections).Draw(rt, "dir")
		who := rapid.SampledFrom([]world.ActorID{alice, bob}).Draw(rt, "actor")

		gotDest, gotErr := s.Move(ctx, who, dir)
		wantDest, wantErr := mem.Move(ctx, who, dir)
		if (gotErr == nil) != (wantErr == nil) || gotDest != wantDest {
			rt.Fatalf("move %d %s: bolt=(%d,%v) memory=(%d,%v)", who, dir, gotDest, gotErr, wantDest, wantErr)
		}
	})
}

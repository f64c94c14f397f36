package world

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a room, actor, object, or character does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNoSuchExit is returned by Move when the actor's room has no exit in the direction.
	ErrNoSuchExit = errors.New("no such exit")
	// ErrAmbiguous is returned when a character name matches more than one character.
	ErrAmbiguous = errors.New("ambiguous name")
	// ErrCharacterExists is returned by CreateCharacter for a name already in use.
	ErrCharacterExists = errors.New("character exists")
)

// Store is the world storage collaborator. Every call is independently
// transactional; no lock is held across calls.
type Store interface {
	// Room returns the room's descriptions and exits.
	Room(ctx context.Context, id RoomID) (Room, error)
	// Exits returns the room's exits in a stable order.
	Exits(ctx context.Context, id RoomID) ([]Exit, error)
	// Occupants returns the ids of the actors currently in the room.
	Occupants(ctx context.Context, id RoomID) ([]ActorID, error)
	// Actor returns the latest persisted state of an actor.
	Actor(ctx context.Context, id ActorID) (Actor, error)
	// ActorRoom returns the room the actor currently occupies.
	ActorRoom(ctx context.Context, id ActorID) (RoomID, error)
	// Move relocates the actor through the exit in dir and returns the destination.
	// It returns ErrNoSuchExit when the actor's room has no such exit.
	Move(ctx context.Context, id ActorID, dir Direction) (RoomID, error)
	// FindObjects returns the objects in the room whose short description
	// contains substr, case-insensitively, ordered by id.
	FindObjects(ctx context.Context, room RoomID, substr string) ([]Object, error)
	// ObjectDescription returns the long description of an object.
	ObjectDescription(ctx context.Context, id ObjectID) (string, error)
}

// CharacterStore persists characters and their stored account hashes.
type CharacterStore interface {
	// CharacterByName looks a character up by case-insensitive name.
	// Returns ErrNotFound or ErrAmbiguous when the name does not identify exactly one character.
	CharacterByName(ctx context.Context, name string) (Character, error)
	// CreateCharacter stores a new character. A zero ID is assigned by the store.
	// Returns ErrCharacterExists when the name is taken.
	CreateCharacter(ctx context.Context, c Character) (Character, error)
}

// DescribeRoom renders a room as its short description followed by its long description.
func DescribeRoom(r Room) string {
	if r.LongDesc == "" {
		return r.ShortDesc
	}
	return r.ShortDesc + "\n" + r.LongDesc
}

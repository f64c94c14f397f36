// Package world defines the world storage contract consumed by the game core
// and ships an in-memory implementation loaded from YAML content.
package world

import (
	"fmt"
	"strings"
)

// ActorID identifies an actor (a player's character).
type ActorID int64

// RoomID identifies a room. The zero value means "no room".
type RoomID int64

// ObjectID identifies any placed thing: an item, a mobile, or an actor.
// Objects share one identifier space, so an actor's ObjectID equals its ActorID.
type ObjectID int64

// Direction is one of the eight compass directions.
type Direction string

// Compass directions.
const (
	North     Direction = "north"
	South     Direction = "south"
	East      Direction = "east"
	West      Direction = "west"
	Northeast Direction = "northeast"
	Northwest Direction = "northwest"
	Southeast Direction = "southeast"
	Southwest Direction = "southwest"
)

// StandardDirections lists the compass directions in display order.
var StandardDirections = []Direction{
	North, East, South, West,
	Northeast, Northwest, Southeast, Southwest,
}

var abbreviations = map[string]Direction{
	"n":  North,
	"s":  South,
	"e":  East,
	"w":  West,
	"ne": Northeast,
	"nw": Northwest,
	"se": Southeast,
	"sw": Southwest,
}

// Abbreviation returns the short form of d ("n", "ne", ...).
func (d Direction) Abbreviation() string {
	for abbr, dir := range abbreviations {
		if dir == d {
			return abbr
		}
	}
	return ""
}

// ParseDirection resolves a full direction name or its abbreviation, case-insensitively.
//
// Postcondition: Returns (dir, true) for a compass direction, or ("", false).
func ParseDirection(s string) (Direction, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := abbreviations[s]; ok {
		return d, true
	}
	d := Direction(s)
	return d, d.IsStandard()
}

// IsStandard reports whether d is one of the eight compass directions.
func (d Direction) IsStandard() bool {
	for _, sd := range StandardDirections {
		if d == sd {
			return true
		}
	}
	return false
}

// Opposite returns the opposite compass direction, or "" for unknown directions.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Northeast:
		return Southwest
	case Southwest:
		return Northeast
	case Northwest:
		return Southeast
	case Southeast:
		return Northwest
	default:
		return ""
	}
}

// Exit is a one-way passage out of a room.
type Exit struct {
	Direction Direction
	Target    RoomID
}

// Room is a location in the world.
type Room struct {
	ID        RoomID
	ShortDesc string
	LongDesc  string
	Exits     []Exit
}

// ExitForDirection returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (r *Room) ExitForDirection(dir Direction) (Exit, bool) {
	for _, e := range r.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// ObjectKind classifies a placed object.
type ObjectKind int

// Object kinds.
const (
	KindItem ObjectKind = iota + 1
	KindMobile
	KindActor
)

// String returns the lowercase kind name.
func (k ObjectKind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindMobile:
		return "mobile"
	case KindActor:
		return "actor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseObjectKind is the inverse of ObjectKind.String.
func ParseObjectKind(s string) (ObjectKind, error) {
	switch s {
	case "item":
		return KindItem, nil
	case "mobile":
		return KindMobile, nil
	case "actor":
		return KindActor, nil
	default:
		return 0, fmt.Errorf("unknown object kind %q", s)
	}
}

// Object is a thing that can be referred to by a noun chunk.
type Object struct {
	ID        ObjectID
	Kind      ObjectKind
	ShortDesc string
	LongDesc  string
}

// Actor returns the actor identity behind an actor object.
//
// Postcondition: Returns (id, true) only when o.Kind is KindActor.
func (o Object) Actor() (ActorID, bool) {
	if o.Kind != KindActor {
		return 0, false
	}
	return ActorID(o.ID), true
}

// Actor is the current persisted state of a player's character.
type Actor struct {
	ID        ActorID
	Name      string
	ShortDesc string
	RoomID    RoomID
}

// Character is an actor as authored in content or persisted by storage,
// including its stored account hash.
type Character struct {
	Actor
	LongDesc    string
	AccountHash string
}

// Thing is an item or mobile as authored in content, with its placement.
type Thing struct {
	Object
	RoomID RoomID
}

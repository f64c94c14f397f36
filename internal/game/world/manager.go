package world

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Manager is the in-memory world store. It indexes rooms, things, and
// characters across all zones and serializes every call behind one RWMutex,
// so each call is atomic.
type Manager struct {
	mu         sync.RWMutex
	rooms      map[RoomID]*Room
	things     map[ObjectID]*Thing
	characters map[ActorID]*Character
	nextID     int64
}

var (
	_ Store          = (*Manager)(nil)
	_ CharacterStore = (*Manager)(nil)
)

// NewManager creates a Manager from the given zones.
//
// Precondition: zones must each have passed Validate.
// Postcondition: Returns a Manager with every entity indexed, or an error on
// duplicate ids, duplicate character names, or dangling exits.
func NewManager(zones []*Zone) (*Manager, error) {
	m := &Manager{
		rooms:      make(map[RoomID]*Room),
		things:     make(map[ObjectID]*Thing),
		characters: make(map[ActorID]*Character),
	}

	objectIDs := make(map[ObjectID]string)
	claim := func(id int64, what string) error {
		if id <= 0 {
			return fmt.Errorf("%s: id must be positive, got %d", what, id)
		}
		if prev, taken := objectIDs[ObjectID(id)]; taken {
			return fmt.Errorf("%s: id %d already used by %s", what, id, prev)
		}
		objectIDs[ObjectID(id)] = what
		if id > m.nextID {
			m.nextID = id
		}
		return nil
	}

	names := make(map[string]bool)
	for _, z := range zones {
		for _, r := range z.Rooms {
			if _, exists := m.rooms[r.ID]; exists {
				return nil, fmt.Errorf("zone %q: duplicate room id %d", z.ID, r.ID)
			}
			room := *r
			room.Exits = append([]Exit(nil), r.Exits...)
			m.rooms[r.ID] = &room
		}
		for _, t := range z.Things {
			if err := claim(int64(t.ID), fmt.Sprintf("%s %q", t.Kind, t.ShortDesc)); err != nil {
				return nil, fmt.Errorf("zone %q: %w", z.ID, err)
			}
			thing := t
			m.things[t.ID] = &thing
		}
		for _, c := range z.Characters {
			if err := claim(int64(c.ID), fmt.Sprintf("character %q", c.Name)); err != nil {
				return nil, fmt.Errorf("zone %q: %w", z.ID, err)
			}
			key := strings.ToLower(c.Name)
			if names[key] {
				return nil, fmt.Errorf("zone %q: duplicate character name %q", z.ID, c.Name)
			}
			names[key] = true
			char := c
			m.characters[c.ID] = &char
		}
	}

	if err := m.validateExits(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) validateExits() error {
	for _, room := range m.rooms {
		for _, exit := range room.Exits {
			if _, ok := m.rooms[exit.Target]; !ok {
				return fmt.Errorf("room %d: exit %q targets unknown room %d", room.ID, exit.Direction, exit.Target)
			}
		}
	}
	return nil
}

// Room returns a copy of the room with the given id.
func (m *Manager) Room(_ context.Context, id RoomID) (Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return Room{}, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	room := *r
	room.Exits = append([]Exit(nil), r.Exits...)
	return room, nil
}

// Exits returns the exits of a room in authored order.
func (m *Manager) Exits(_ context.Context, id RoomID) ([]Exit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	return append([]Exit(nil), r.Exits...), nil
}

// Occupants returns the ids of the characters in a room, ascending.
func (m *Manager) Occupants(_ context.Context, id RoomID) ([]ActorID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.rooms[id]; !ok {
		return nil, fmt.Errorf("room %d: %w", id, ErrNotFound)
	}
	var ids []ActorID
	for _, c := range m.characters {
		if c.RoomID == id {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Actor returns the current state of a character.
func (m *Manager) Actor(_ context.Context, id ActorID) (Actor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.characters[id]
	if !ok {
		return Actor{}, fmt.Errorf("actor %d: %w", id, ErrNotFound)
	}
	return c.Actor, nil
}

// ActorRoom returns the room a character occupies.
func (m *Manager) ActorRoom(ctx context.Context, id ActorID) (RoomID, error) {
	a, err := m.Actor(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.RoomID, nil
}

// Move relocates a character through an exit of its current room.
//
// Postcondition: On success the character's room is the exit's target.
// Returns ErrNoSuchExit when the room has no exit in dir.
func (m *Manager) Move(_ context.Context, id ActorID, dir Direction) (RoomID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.characters[id]
	if !ok {
		return 0, fmt.Errorf("actor %d: %w", id, ErrNotFound)
	}
	from, ok := m.rooms[c.RoomID]
	if !ok {
		return 0, fmt.Errorf("room %d: %w", c.RoomID, ErrNotFound)
	}
	exit, ok := from.ExitForDirection(dir)
	if !ok {
		return 0, ErrNoSuchExit
	}
	if _, ok := m.rooms[exit.Target]; !ok {
		return 0, ErrNoSuchExit
	}
	c.RoomID = exit.Target
	return exit.Target, nil
}

// FindObjects returns the things and characters in a room whose short
// description (or, for characters, name) contains substr, ordered by id.
func (m *Manager) FindObjects(_ context.Context, room RoomID, substr string) ([]Object, error) {
	needle := strings.ToLower(strings.TrimSpace(substr))
	if needle == "" {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var found []Object
	for _, t := range m.things {
		if t.RoomID == room && strings.Contains(strings.ToLower(t.ShortDesc), needle) {
			found = append(found, t.Object)
		}
	}
	for _, c := range m.characters {
		if c.RoomID != room {
			continue
		}
		if strings.Contains(strings.ToLower(c.ShortDesc), needle) ||
			strings.Contains(strings.ToLower(c.Name), needle) {
			found = append(found, characterObject(c))
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].ID < found[j].ID })
	return found, nil
}

// ObjectDescription returns the long description of a thing or character,
// falling back to its short description.
func (m *Manager) ObjectDescription(_ context.Context, id ObjectID) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.things[id]; ok {
		return longOrShort(t.Object), nil
	}
	if c, ok := m.characters[ActorID(id)]; ok {
		return longOrShort(characterObject(c)), nil
	}
	return "", fmt.Errorf("object %d: %w", id, ErrNotFound)
}

// CharacterByName finds a character by case-insensitive name.
func (m *Manager) CharacterByName(_ context.Context, name string) (Character, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matches []*Character
	for _, c := range m.characters {
		if strings.EqualFold(c.Name, name) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return Character{}, fmt.Errorf("character %q: %w", name, ErrNotFound)
	case 1:
		return *matches[0], nil
	default:
		return Character{}, fmt.Errorf("character %q: %w", name, ErrAmbiguous)
	}
}

// CreateCharacter adds a character to the world.
//
// Precondition: c.RoomID must name a known room.
// Postcondition: Returns the stored character with its assigned id, or
// ErrCharacterExists if the name is taken.
func (m *Manager) CreateCharacter(_ context.Context, c Character) (Character, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.characters {
		if strings.EqualFold(existing.Name, c.Name) {
			return Character{}, fmt.Errorf("character %q: %w", c.Name, ErrCharacterExists)
		}
	}
	if _, ok := m.rooms[c.RoomID]; !ok {
		return Character{}, fmt.Errorf("room %d: %w", c.RoomID, ErrNotFound)
	}
	if c.ID == 0 {
		m.nextID++
		c.ID = ActorID(m.nextID)
	} else if _, taken := m.things[ObjectID(c.ID)]; taken || m.characters[c.ID] != nil {
		return Character{}, fmt.Errorf("character id %d already in use", c.ID)
	} else if int64(c.ID) > m.nextID {
		m.nextID = int64(c.ID)
	}
	stored := c
	m.characters[c.ID] = &stored
	return c, nil
}

// RoomCount returns the number of loaded rooms.
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

func characterObject(c *Character) Object {
	return Object{
		ID:        ObjectID(c.ID),
		Kind:      KindActor,
		ShortDesc: c.ShortDesc,
		LongDesc:  c.LongDesc,
	}
}

func longOrShort(o Object) string {
	if o.LongDesc != "" {
		return o.LongDesc
	}
	return o.ShortDesc
}

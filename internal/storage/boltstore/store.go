// Package boltstore keeps the world and its characters in a single bbolt file.
package boltstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// Store implements world.Store and world.CharacterStore over bbolt. Every
// method runs in one bbolt transaction.
type Store struct {
	bolt *bbolt.DB
}

var (
	_ world.Store          = (*Store)(nil)
	_ world.CharacterStore = (*Store)(nil)
)

// Open opens or creates the database file at path and ensures all buckets exist.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltstore: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMeta, bucketRooms, bucketThings, bucketCharacters, bucketNames, bucketContents} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltstore: create buckets: %w", err)
	}
	return &Store{bolt: db}, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.bolt.Close()
}

// Path returns the filesystem path of the database.
func (s *Store) Path() string {
	return s.bolt.Path()
}

func (s *Store) Room(_ context.Context, id world.RoomID) (world.Room, error) {
	var room world.Room
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		room, err = getRoom(tx, id)
		return err
	})
	return room, err
}

func (s *Store) Exits(ctx context.Context, id world.RoomID) ([]world.Exit, error) {
	room, err := s.Room(ctx, id)
	if err != nil {
		return nil, err
	}
	return room.Exits, nil
}

// Occupants returns the ids of the characters in a room, ascending.
func (s *Store) Occupants(_ context.Context, id world.RoomID) ([]world.ActorID, error) {
	var ids []world.ActorID
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketRooms).Get(idKey(int64(id))) == nil {
			return fmt.Errorf("room %d: %w", id, world.ErrNotFound)
		}
		return scanContents(tx, id, func(object int64, kind byte) error {
			if kind == contentActor {
				ids = append(ids, world.ActorID(object))
			}
			return nil
		})
	})
	return ids, err
}

func (s *Store) Actor(_ context.Context, id world.ActorID) (world.Actor, error) {
	var c world.Character
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		c, err = getCharacter(tx, id)
		return err
	})
	return c.Actor, err
}

func (s *Store) ActorRoom(ctx context.Context, id world.ActorID) (world.RoomID, error) {
	a, err := s.Actor(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.RoomID, nil
}

// Move relocates a character through an exit of its current room.
//
// Postcondition: Returns the destination, or world.ErrNoSuchExit with the
// character left in place.
func (s *Store) Move(_ context.Context, id world.ActorID, dir world.Direction) (world.RoomID, error) {
	var dest world.RoomID
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		c, err := getCharacter(tx, id)
		if err != nil {
			return err
		}
		from, err := getRoom(tx, c.RoomID)
		if err != nil {
			return err
		}
		exit, ok := from.ExitForDirection(dir)
		if !ok || tx.Bucket(bucketRooms).Get(idKey(int64(exit.Target))) == nil {
			return world.ErrNoSuchExit
		}

		contents := tx.Bucket(bucketContents)
		if err := contents.Delete(contentKey(int64(c.RoomID), int64(id))); err != nil {
			return err
		}
		c.RoomID = exit.Target
		if err := contents.Put(contentKey(int64(c.RoomID), int64(id)), []byte{contentActor}); err != nil {
			return err
		}
		dest = exit.Target
		return putCharacter(tx, c)
	})
	if err != nil {
		return 0, err
	}
	return dest, nil
}

// FindObjects returns the things and characters in a room whose short
// description (or, for characters, name) contains substr, ordered by id.
func (s *Store) FindObjects(_ context.Context, room world.RoomID, substr string) ([]world.Object, error) {
	needle := strings.ToLower(strings.TrimSpace(substr))
	if needle == "" {
		return nil, nil
	}
	var found []world.Object
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		return scanContents(tx, room, func(object int64, kind byte) error {
			switch kind {
			case contentThing:
				t, err := getThing(tx, world.ObjectID(object))
				if err != nil {
					return err
				}
				if strings.Contains(strings.ToLower(t.ShortDesc), needle) {
					found = append(found, t.Object)
				}
			case contentActor:
				c, err := getCharacter(tx, world.ActorID(object))
				if err != nil {
					return err
				}
				if strings.Contains(strings.ToLower(c.ShortDesc), needle) ||
					strings.Contains(strings.ToLower(c.Name), needle) {
					found = append(found, characterObject(c))
				}
			}
			return nil
		})
	})
	return found, err
}

// ObjectDescription returns the long description of a thing or character,
// falling back to its short description.
func (s *Store) ObjectDescription(_ context.Context, id world.ObjectID) (string, error) {
	var o world.Object
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		if t, err := getThing(tx, id); err == nil {
			o = t.Object
			return nil
		} else if !errors.Is(err, world.ErrNotFound) {
			return err
		}
		c, err := getCharacter(tx, world.ActorID(id))
		if err != nil {
			return fmt.Errorf("object %d: %w", id, world.ErrNotFound)
		}
		o = characterObject(c)
		return nil
	})
	if err != nil {
		return "", err
	}
	if o.LongDesc != "" {
		return o.LongDesc, nil
	}
	return o.ShortDesc, nil
}

// CharacterByName looks a character up by case-insensitive name.
func (s *Store) CharacterByName(_ context.Context, name string) (world.Character, error) {
	var c world.Character
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketNames).Get(nameKey(name))
		if v == nil {
			return fmt.Errorf("character %q: %w", name, world.ErrNotFound)
		}
		var err error
		c, err = getCharacter(tx, world.ActorID(keyID(v)))
		return err
	})
	return c, err
}

// CreateCharacter stores a new character. A zero ID takes the next free id.
//
// Postcondition: Returns the stored character, world.ErrCharacterExists if the
// name is taken, or world.ErrNotFound if the room does not exist.
func (s *Store) CreateCharacter(_ context.Context, c world.Character) (world.Character, error) {
	err := s.bolt.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(bucketNames).Get(nameKey(c.Name)) != nil {
			return fmt.Errorf("character %q: %w", c.Name, world.ErrCharacterExists)
		}
		if tx.Bucket(bucketRooms).Get(idKey(int64(c.RoomID))) == nil {
			return fmt.Errorf("room %d: %w", c.RoomID, world.ErrNotFound)
		}
		if c.ID == 0 {
			id, err := nextID(tx)
			if err != nil {
				return err
			}
			c.ID = world.ActorID(id)
		} else if objectExists(tx, int64(c.ID)) {
			return fmt.Errorf("character id %d already in use", c.ID)
		}
		return insertCharacter(tx, c)
	})
	if err != nil {
		return world.Character{}, err
	}
	return c, nil
}

// RoomCount returns the number of stored rooms.
func (s *Store) RoomCount() (int, error) {
	var n int
	err := s.bolt.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRooms).Stats().KeyN
		return nil
	})
	return n, err
}

func getRoom(tx *bbolt.Tx, id world.RoomID) (world.Room, error) {
	data := tx.Bucket(bucketRooms).Get(idKey(int64(id)))
	if data == nil {
		return world.Room{}, fmt.Errorf("room %d: %w", id, world.ErrNotFound)
	}
	r, err := decodeRoom(data)
	if err != nil {
		return world.Room{}, fmt.Errorf("boltstore: decode room %d: %w", id, err)
	}
	return r, nil
}

func getThing(tx *bbolt.Tx, id world.ObjectID) (world.Thing, error) {
	data := tx.Bucket(bucketThings).Get(idKey(int64(id)))
	if data == nil {
		return world.Thing{}, fmt.Errorf("object %d: %w", id, world.ErrNotFound)
	}
	t, err := decodeThing(data)
	if err != nil {
		return world.Thing{}, fmt.Errorf("boltstore: decode object %d: %w", id, err)
	}
	return t, nil
}

func getCharacter(tx *bbolt.Tx, id world.ActorID) (world.Character, error) {
	data := tx.Bucket(bucketCharacters).Get(idKey(int64(id)))
	if data == nil {
		return world.Character{}, fmt.Errorf("actor %d: %w", id, world.ErrNotFound)
	}
	c, err := decodeCharacter(data)
	if err != nil {
		return world.Character{}, fmt.Errorf("boltstore: decode character %d: %w", id, err)
	}
	return c, nil
}

func putCharacter(tx *bbolt.Tx, c world.Character) error {
	data, err := encode(c)
	if err != nil {
		return fmt.Errorf("boltstore: encode character %d: %w", c.ID, err)
	}
	return tx.Bucket(bucketCharacters).Put(idKey(int64(c.ID)), data)
}

func insertCharacter(tx *bbolt.Tx, c world.Character) error {
	if err := putCharacter(tx, c); err != nil {
		return err
	}
	if err := tx.Bucket(bucketNames).Put(nameKey(c.Name), idKey(int64(c.ID))); err != nil {
		return err
	}
	if err := tx.Bucket(bucketContents).Put(contentKey(int64(c.RoomID), int64(c.ID)), []byte{contentActor}); err != nil {
		return err
	}
	return bumpNextID(tx, int64(c.ID))
}

func scanContents(tx *bbolt.Tx, room world.RoomID, fn func(object int64, kind byte) error) error {
	prefix := idKey(int64(room))
	cur := tx.Bucket(bucketContents).Cursor()
	for k, v := cur.Seek(prefix); k != nil && len(k) == 16 && string(k[:8]) == string(prefix); k, v = cur.Next() {
		if len(v) != 1 {
			continue
		}
		if err := fn(keyID(k[8:]), v[0]); err != nil {
			return err
		}
	}
	return nil
}

func objectExists(tx *bbolt.Tx, id int64) bool {
	return tx.Bucket(bucketThings).Get(idKey(id)) != nil ||
		tx.Bucket(bucketCharacters).Get(idKey(id)) != nil
}

// nextID reserves the next unused object id.
func nextID(tx *bbolt.Tx) (int64, error) {
	meta := tx.Bucket(bucketMeta)
	var next int64 = 1
	if v := meta.Get(keyNextID); v != nil {
		next = keyID(v)
	}
	for objectExists(tx, next) {
		next++
	}
	return next, meta.Put(keyNextID, idKey(next+1))
}

// bumpNextID keeps the id counter past id.
func bumpNextID(tx *bbolt.Tx, id int64) error {
	meta := tx.Bucket(bucketMeta)
	if v := meta.Get(keyNextID); v != nil && keyID(v) > id {
		return nil
	}
	return meta.Put(keyNextID, idKey(id+1))
}

func nameKey(name string) []byte {
	return []byte(strings.ToLower(name))
}

func characterObject(c world.Character) world.Object {
	return world.Object{
		ID:        world.ObjectID(c.ID),
		Kind:      world.KindActor,
		ShortDesc: c.ShortDesc,
		LongDesc:  c.LongDesc,
	}
}

package boltstore

import (
	"context"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// ImportZones writes zones in one transaction, replacing any stored rooms,
// things and characters with the same ids.
//
// Precondition: each zone must pass Validate.
func (s *Store) ImportZones(_ context.Context, zones []*world.Zone) error {
	return s.bolt.Update(func(tx *bbolt.Tx) error {
		for _, z := range zones {
			for _, r := range z.Rooms {
				data, err := encode(r)
				if err != nil {
					return fmt.Errorf("boltstore: encode room %d: %w", r.ID, err)
				}
				if err := tx.Bucket(bucketRooms).Put(idKey(int64(r.ID)), data); err != nil {
					return err
				}
			}
		}

		for _, z := range zones {
			for _, r := range z.Rooms {
				for _, e := range r.Exits {
					if tx.Bucket(bucketRooms).Get(idKey(int64(e.Target))) == nil {
						return fmt.Errorf("zone %s: room %d exit %s targets unknown room %d", z.ID, r.ID, e.Direction, e.Target)
					}
				}
			}
			for _, t := range z.Things {
				if err := importThing(tx, t); err != nil {
					return fmt.Errorf("zone %s: %w", z.ID, err)
				}
			}
			for _, c := range z.Characters {
				if err := importCharacter(tx, c); err != nil {
					return fmt.Errorf("zone %s: %w", z.ID, err)
				}
			}
		}
		return nil
	})
}

func importThing(tx *bbolt.Tx, t world.Thing) error {
	id := int64(t.ID)
	if tx.Bucket(bucketCharacters).Get(idKey(id)) != nil {
		return fmt.Errorf("object id %d already used by a character", id)
	}
	if prev, err := getThing(tx, t.ID); err == nil {
		if err := tx.Bucket(bucketContents).Delete(contentKey(int64(prev.RoomID), id)); err != nil {
			return err
		}
	}
	data, err := encode(t)
	if err != nil {
		return fmt.Errorf("boltstore: encode object %d: %w", id, err)
	}
	if err := tx.Bucket(bucketThings).Put(idKey(id), data); err != nil {
		return err
	}
	if err := tx.Bucket(bucketContents).Put(contentKey(int64(t.RoomID), id), []byte{contentThing}); err != nil {
		return err
	}
	return bumpNextID(tx, id)
}

func importCharacter(tx *bbolt.Tx, c world.Character) error {
	id := int64(c.ID)
	if tx.Bucket(bucketThings).Get(idKey(id)) != nil {
		return fmt.Errorf("character id %d already used by an object", id)
	}
	if owner := tx.Bucket(bucketNames).Get(nameKey(c.Name)); owner != nil && keyID(owner) != id {
		return fmt.Errorf("character %q: %w", c.Name, world.ErrCharacterExists)
	}
	if prev, err := getCharacter(tx, c.ID); err == nil {
		if err := tx.Bucket(bucketContents).Delete(contentKey(int64(prev.RoomID), id)); err != nil {
			return err
		}
		if err := tx.Bucket(bucketNames).Delete(nameKey(prev.Name)); err != nil {
			return err
		}
	}
	return insertCharacter(tx, c)
}

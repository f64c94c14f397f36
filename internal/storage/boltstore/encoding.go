package boltstore

import (
	"bytes"
	"encoding/gob"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRoom(data []byte) (world.Room, error) {
	var r world.Room
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&r)
	return r, err
}

func decodeThing(data []byte) (world.Thing, error) {
	var t world.Thing
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&t)
	return t, err
}

func decodeCharacter(data []byte) (world.Character, error) {
	var c world.Character
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&c)
	return c, err
}

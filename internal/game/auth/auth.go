// Package auth validates login credentials against stored character hashes.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

var (
	// ErrNoSuchActor is returned when a name is unknown or matches more than one character.
	ErrNoSuchActor = errors.New("no such actor")
	// ErrBadProof is returned when the presented secret does not match the stored hash.
	ErrBadProof = errors.New("bad proof")
	// ErrMalformedEnvelope is returned when a login line is not a valid credential envelope.
	ErrMalformedEnvelope = errors.New("malformed credential envelope")
)

// Envelope is the first line a client sends.
type Envelope struct {
	CharacterName string `json:"character_name"`
	AccountHash   string `json:"account_hash"`
}

// DecodeEnvelope parses a login line.
//
// Postcondition: Returns an envelope with a non-empty name, or an error wrapping ErrMalformedEnvelope.
func DecodeEnvelope(line string) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(strings.NewReader(line))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	if dec.More() {
		return Envelope{}, fmt.Errorf("%w: trailing data", ErrMalformedEnvelope)
	}
	if strings.TrimSpace(env.CharacterName) == "" {
		return Envelope{}, fmt.Errorf("%w: character_name is required", ErrMalformedEnvelope)
	}
	return env, nil
}

// Validator is the authentication collaborator consumed by the session runtime.
type Validator interface {
	Validate(ctx context.Context, name, proof string) (world.ActorID, error)
}

// Service validates credentials and registers characters.
type Service struct {
	characters world.CharacterStore
	hasher     Hasher
	logger     *zap.Logger
}

var _ Validator = (*Service)(nil)

// NewService creates an auth Service.
//
// Precondition: characters, hasher, and logger must be non-nil.
func NewService(characters world.CharacterStore, hasher Hasher, logger *zap.Logger) *Service {
	return &Service{characters: characters, hasher: hasher, logger: logger}
}

// Validate resolves name to an actor and checks proof against its stored hash.
//
// Postcondition: Returns the actor id, ErrNoSuchActor, ErrBadProof, or a storage error.
func (s *Service) Validate(ctx context.Context, name, proof string) (world.ActorID, error) {
	c, err := s.characters.CharacterByName(ctx, name)
	if err != nil {
		if errors.Is(err, world.ErrNotFound) || errors.Is(err, world.ErrAmbiguous) {
			s.logger.Debug("character lookup failed", zap.String("character", name), zap.Error(err))
			return 0, ErrNoSuchActor
		}
		return 0, fmt.Errorf("looking up character %q: %w", name, err)
	}
	if !s.hasher.Verify(c.AccountHash, proof) {
		return 0, ErrBadProof
	}
	return c.ID, nil
}

// CreateCharacter hashes secret and stores a new character.
//
// Precondition: name and secret must be non-empty.
// Postcondition: Returns the stored character, or world.ErrCharacterExists if name is taken.
func (s *Service) CreateCharacter(ctx context.Context, name, secret, shortDesc string, room world.RoomID) (world.Character, error) {
	if strings.TrimSpace(name) == "" || secret == "" {
		return world.Character{}, errors.New("name and secret must not be empty")
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return world.Character{}, fmt.Errorf("hashing secret: %w", err)
	}
	c, err := s.characters.CreateCharacter(ctx, world.Character{
		Actor: world.Actor{
			Name:      strings.TrimSpace(name),
			ShortDesc: shortDesc,
			RoomID:    room,
		},
		AccountHash: hash,
	})
	if err != nil {
		return world.Character{}, err
	}
	s.logger.Info("character created", zap.String("character", c.Name), zap.Int64("actor_id", int64(c.ID)))
	return c, nil
}

package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// sha256("1")
const oneHash = "6b86b273ff34fce19d6b804eff5a3f5747ada4eaa22f1d49c01e52ddb7875b4b"

// mockCharacterStore is an in-memory world.CharacterStore for testing.
type mockCharacterStore struct {
	chars  []world.Character
	err    error
	nextID world.ActorID
}

func (m *mockCharacterStore) CharacterByName(_ context.Context, name string) (world.Character, error) {
	if m.err != nil {
		return world.Character{}, m.err
	}
	var found []world.Character
	for _, c := range m.chars {
		if c.Name == name {
			found = append(found, c)
		}
	}
	switch len(found) {
	case 0:
		return world.Character{}, world.ErrNotFound
	case 1:
		return found[0], nil
	default:
		return world.Character{}, world.ErrAmbiguous
	}
}

func (m *mockCharacterStore) CreateCharacter(_ context.Context, c world.Character) (world.Character, error) {
	for _, existing := range m.chars {
		if existing.Name == c.Name {
			return world.Character{}, world.ErrCharacterExists
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.chars = append(m.chars, c)
	return c, nil
}

func newTestService(t *testing.T, store *mockCharacterStore) *Service {
	t.Helper()
	return NewService(store, SHA256Hasher{}, zaptest.NewLogger(t))
}

func TestSHA256Hasher(t *testing.T) {
	h := SHA256Hasher{}
	got, err := h.Hash("1")
	require.NoError(t, err)
	assert.Equal(t, oneHash, got)
	assert.True(t, h.Verify(oneHash, "1"))
	assert.False(t, h.Verify(oneHash, "2"))
	assert.False(t, h.Verify(oneHash, oneHash), "the stored hash itself is not a valid proof")
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}
	stored, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", stored)
	assert.True(t, h.Verify(stored, "hunter2"))
	assert.False(t, h.Verify(stored, "hunter3"))
	assert.False(t, h.Verify(oneHash, "1"), "bcrypt does not accept sha256 digests")
}

func TestNewHasher(t *testing.T) {
	h, err := NewHasher("sha256")
	require.NoError(t, err)
	assert.IsType(t, SHA256Hasher{}, h)

	h, err = NewHasher("bcrypt")
	require.NoError(t, err)
	assert.IsType(t, BcryptHasher{}, h)

	_, err = NewHasher("md5")
	assert.Error(t, err)
}

func TestPropertySHA256VerifiesOwnHash(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		secret := rapid.String().Draw(t, "secret")
		other := rapid.String().Draw(t, "other")
		h := SHA256Hasher{}
		stored, _ := h.Hash(secret)
		if !h.Verify(stored, secret) {
			t.Fatalf("hash of %q does not verify", secret)
		}
		if other != secret && h.Verify(stored, other) {
			t.Fatalf("%q verified against hash of %q", other, secret)
		}
	})
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := DecodeEnvelope(`{"character_name": "Alice", "account_hash": "1"}`)
	require.NoError(t, err)
	assert.Equal(t, "Alice", env.CharacterName)
	assert.Equal(t, "1", env.AccountHash)
}

func TestDecodeEnvelope_Malformed(t *testing.T) {
	for _, line := range []string{
		"",
		"look",
		`{"character_name": "Alice"`,
		`{"account_hash": "1"}`,
		`{"character_name": "  ", "account_hash": "1"}`,
		`{"character_name": "Alice", "account_hash": "1", "role": "admin"}`,
		`{"character_name": "Alice", "account_hash": "1"} {}`,
		`["Alice", "1"]`,
	} {
		_, err := DecodeEnvelope(line)
		assert.ErrorIs(t, err, ErrMalformedEnvelope, "line %q", line)
	}
}

func TestValidate_Success(t *testing.T) {
	store := &mockCharacterStore{chars: []world.Character{
		{Actor: world.Actor{ID: 7, Name: "Alice"}, AccountHash: oneHash},
	}}
	svc := newTestService(t, store)

	id, err := svc.Validate(context.Background(), "Alice", "1")
	require.NoError(t, err)
	assert.Equal(t, world.ActorID(7), id)
}

func TestValidate_BadProof(t *testing.T) {
	store := &mockCharacterStore{chars: []world.Character{
		{Actor: world.Actor{ID: 7, Name: "Alice"}, AccountHash: oneHash},
	}}
	svc := newTestService(t, store)

	_, err := svc.Validate(context.Background(), "Alice", "wrong")
	assert.ErrorIs(t, err, ErrBadProof)
}

func TestValidate_UnknownOrAmbiguous(t *testing.T) {
	store := &mockCharacterStore{chars: []world.Character{
		{Actor: world.Actor{ID: 1, Name: "Twin"}, AccountHash: oneHash},
		{Actor: world.Actor{ID: 2, Name: "Twin"}, AccountHash: oneHash},
	}}
	svc := newTestService(t, store)

	_, err := svc.Validate(context.Background(), "Nobody", "1")
	assert.ErrorIs(t, err, ErrNoSuchActor)

	_, err = svc.Validate(context.Background(), "Twin", "1")
	assert.ErrorIs(t, err, ErrNoSuchActor)
}

func TestValidate_StorageError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := newTestService(t, &mockCharacterStore{err: boom})

	_, err := svc.Validate(context.Background(), "Alice", "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNoSuchActor)
}

func TestCreateCharacter(t *testing.T) {
	store := &mockCharacterStore{}
	svc := newTestService(t, store)
	ctx := context.Background()

	c, err := svc.CreateCharacter(ctx, "Alice", "1", "a tall woman", 3)
	require.NoError(t, err)
	assert.Equal(t, oneHash, c.AccountHash)
	assert.Equal(t, world.RoomID(3), c.RoomID)

	id, err := svc.Validate(ctx, "Alice", "1")
	require.NoError(t, err)
	assert.Equal(t, c.ID, id)

	_, err = svc.CreateCharacter(ctx, "Alice", "2", "", 3)
	assert.ErrorIs(t, err, world.ErrCharacterExists)

	_, err = svc.CreateCharacter(ctx, "", "2", "", 3)
	assert.Error(t, err)
}

func TestCreateCharacter_AgainstManager(t *testing.T) {
	m, err := world.NewManager([]*world.Zone{{
		ID:    "z",
		Rooms: []*world.Room{{ID: 1, ShortDesc: "Hall"}},
	}})
	require.NoError(t, err)
	svc := NewService(m, BcryptHasher{Cost: 4}, zaptest.NewLogger(t))
	ctx := context.Background()

	created, err := svc.CreateCharacter(ctx, "Bob", "secret", "a short man", 1)
	require.NoError(t, err)

	id, err := svc.Validate(ctx, "bob", "secret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)

	_, err = svc.Validate(ctx, "Bob", "nope")
	assert.ErrorIs(t, err, ErrBadProof)
}

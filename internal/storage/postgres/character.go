package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// CharacterRepository implements world.CharacterStore over PostgreSQL.
type CharacterRepository struct {
	db *pgxpool.Pool
}

var _ world.CharacterStore = (*CharacterRepository)(nil)

// NewCharacterRepository creates a CharacterRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewCharacterRepository(db *pgxpool.Pool) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// CharacterByName looks a character up by case-insensitive name.
//
// Postcondition: Returns the character, world.ErrNotFound, or world.ErrAmbiguous.
func (r *CharacterRepository) CharacterByName(ctx context.Context, name string) (world.Character, error) {
	rows, err := r.db.Query(ctx,
		`SELECT o.id, c.name, o.short_desc, o.long_desc, coalesce(o.room_id, 0), c.account_hash
		 FROM characters c JOIN objects o ON o.id = c.object_id
		 WHERE lower(c.name) = lower($1)
		 LIMIT 2`, name)
	if err != nil {
		return world.Character{}, fmt.Errorf("querying character %q: %w", name, err)
	}
	chars, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (world.Character, error) {
		var c world.Character
		err := row.Scan(&c.ID, &c.Name, &c.ShortDesc, &c.LongDesc, &c.RoomID, &c.AccountHash)
		return c, err
	})
	if err != nil {
		return world.Character{}, fmt.Errorf("scanning character %q: %w", name, err)
	}

	switch len(chars) {
	case 0:
		return world.Character{}, fmt.Errorf("character %q: %w", name, world.ErrNotFound)
	case 1:
		return chars[0], nil
	default:
		return world.Character{}, fmt.Errorf("character %q: %w", name, world.ErrAmbiguous)
	}
}

// CreateCharacter inserts a character object and its credentials in one
// transaction. A zero ID takes the next object id.
//
// Postcondition: Returns the stored character, world.ErrCharacterExists if the
// name is taken, or world.ErrNotFound if the room does not exist.
func (r *CharacterRepository) CreateCharacter(ctx context.Context, c world.Character) (world.Character, error) {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return insertCharacter(ctx, tx, &c)
	})
	if err != nil {
		return world.Character{}, err
	}
	return c, nil
}

func insertCharacter(ctx context.Context, tx pgx.Tx, c *world.Character) error {
	err := tx.QueryRow(ctx,
		`INSERT INTO objects (id, kind, short_desc, long_desc, room_id)
		 VALUES (coalesce(nullif($1, 0), nextval(pg_get_serial_sequence('objects', 'id'))), 'actor', $2, $3, $4)
		 RETURNING id`,
		int64(c.ID), c.ShortDesc, c.LongDesc, c.RoomID,
	).Scan(&c.ID)
	if err != nil {
		if hasSQLState(err, sqlStateForeignKeyViolation) {
			return fmt.Errorf("room %d: %w", c.RoomID, world.ErrNotFound)
		}
		if hasSQLState(err, sqlStateUniqueViolation) {
			return fmt.Errorf("character id %d already in use", c.ID)
		}
		return fmt.Errorf("inserting character object: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO characters (object_id, name, account_hash) VALUES ($1, $2, $3)`,
		c.ID, c.Name, c.AccountHash)
	if err != nil {
		if hasSQLState(err, sqlStateUniqueViolation) {
			return fmt.Errorf("character %q: %w", c.Name, world.ErrCharacterExists)
		}
		return fmt.Errorf("inserting character: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// WorldRepository implements world.Store over PostgreSQL. Each method is one
// statement or one transaction.
type WorldRepository struct {
	db *pgxpool.Pool
}

var _ world.Store = (*WorldRepository)(nil)

// NewWorldRepository creates a WorldRepository backed by db.
//
// Precondition: db must be a valid, open connection pool.
func NewWorldRepository(db *pgxpool.Pool) *WorldRepository {
	return &WorldRepository{db: db}
}

// Room returns a room with its exits.
func (r *WorldRepository) Room(ctx context.Context, id world.RoomID) (world.Room, error) {
	room := world.Room{ID: id}
	err := r.db.QueryRow(ctx,
		`SELECT short_desc, long_desc FROM rooms WHERE id = $1`, id,
	).Scan(&room.ShortDesc, &room.LongDesc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return world.Room{}, fmt.Errorf("room %d: %w", id, world.ErrNotFound)
		}
		return world.Room{}, fmt.Errorf("querying room %d: %w", id, err)
	}

	room.Exits, err = r.exits(ctx, id)
	if err != nil {
		return world.Room{}, err
	}
	return room, nil
}

// Exits returns a room's exits in authored order.
func (r *WorldRepository) Exits(ctx context.Context, id world.RoomID) ([]world.Exit, error) {
	if err := r.roomExists(ctx, id); err != nil {
		return nil, err
	}
	return r.exits(ctx, id)
}

func (r *WorldRepository) exits(ctx context.Context, id world.RoomID) ([]world.Exit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT direction, target_id FROM exits WHERE room_id = $1 ORDER BY position, direction`, id)
	if err != nil {
		return nil, fmt.Errorf("querying exits of room %d: %w", id, err)
	}
	exits, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (world.Exit, error) {
		var e world.Exit
		err := row.Scan(&e.Direction, &e.Target)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning exits of room %d: %w", id, err)
	}
	return exits, nil
}

func (r *WorldRepository) roomExists(ctx context.Context, id world.RoomID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM rooms WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("querying room %d: %w", id, err)
	}
	if !exists {
		return fmt.Errorf("room %d: %w", id, world.ErrNotFound)
	}
	return nil
}

// Occupants returns the ids of the characters in a room, ascending.
func (r *WorldRepository) Occupants(ctx context.Context, id world.RoomID) ([]world.ActorID, error) {
	if err := r.roomExists(ctx, id); err != nil {
		return nil, err
	}
	rows, err := r.db.Query(ctx,
		`SELECT id FROM objects WHERE room_id = $1 AND kind = 'actor' ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("querying occupants of room %d: %w", id, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[world.ActorID])
	if err != nil {
		return nil, fmt.Errorf("scanning occupants of room %d: %w", id, err)
	}
	return ids, nil
}

// Actor returns a character's current state.
func (r *WorldRepository) Actor(ctx context.Context, id world.ActorID) (world.Actor, error) {
	a := world.Actor{ID: id}
	var room *int64
	err := r.db.QueryRow(ctx,
		`SELECT c.name, o.short_desc, o.room_id
		 FROM objects o JOIN characters c ON c.object_id = o.id
		 WHERE o.id = $1`, id,
	).Scan(&a.Name, &a.ShortDesc, &room)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return world.Actor{}, fmt.Errorf("actor %d: %w", id, world.ErrNotFound)
		}
		return world.Actor{}, fmt.Errorf("querying actor %d: %w", id, err)
	}
	if room != nil {
		a.RoomID = world.RoomID(*room)
	}
	return a, nil
}

// ActorRoom returns the room a character occupies.
func (r *WorldRepository) ActorRoom(ctx context.Context, id world.ActorID) (world.RoomID, error) {
	a, err := r.Actor(ctx, id)
	if err != nil {
		return 0, err
	}
	return a.RoomID, nil
}

// Move relocates a character through an exit in a single transaction.
//
// Postcondition: Returns the destination, or world.ErrNoSuchExit with the
// character left in place.
func (r *WorldRepository) Move(ctx context.Context, id world.ActorID, dir world.Direction) (world.RoomID, error) {
	var dest world.RoomID
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		var from *int64
		err := tx.QueryRow(ctx,
			`SELECT room_id FROM objects WHERE id = $1 AND kind = 'actor' FOR UPDATE`, id,
		).Scan(&from)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("actor %d: %w", id, world.ErrNotFound)
			}
			return fmt.Errorf("locking actor %d: %w", id, err)
		}
		if from == nil {
			return world.ErrNoSuchExit
		}

		err = tx.QueryRow(ctx,
			`SELECT target_id FROM exits WHERE room_id = $1 AND direction = $2`, *from, dir,
		).Scan(&dest)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return world.ErrNoSuchExit
			}
			return fmt.Errorf("querying exit %s of room %d: %w", dir, *from, err)
		}

		if _, err := tx.Exec(ctx, `UPDATE objects SET room_id = $2 WHERE id = $1`, id, dest); err != nil {
			return fmt.Errorf("moving actor %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return dest, nil
}

// FindObjects returns the objects in a room whose short description, or
// character name, contains substr case-insensitively, ordered by id.
func (r *WorldRepository) FindObjects(ctx context.Context, room world.RoomID, substr string) ([]world.Object, error) {
	if substr == "" {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT o.id, o.kind, o.short_desc, o.long_desc
		 FROM objects o LEFT JOIN characters c ON c.object_id = o.id
		 WHERE o.room_id = $1
		   AND (strpos(lower(o.short_desc), lower($2)) > 0
		        OR strpos(lower(coalesce(c.name, '')), lower($2)) > 0)
		 ORDER BY o.id`, room, substr)
	if err != nil {
		return nil, fmt.Errorf("searching room %d for %q: %w", room, substr, err)
	}
	objects, err := pgx.CollectRows(rows, scanObject)
	if err != nil {
		return nil, fmt.Errorf("scanning objects in room %d: %w", room, err)
	}
	return objects, nil
}

func scanObject(row pgx.CollectableRow) (world.Object, error) {
	var (
		o    world.Object
		kind string
	)
	if err := row.Scan(&o.ID, &kind, &o.ShortDesc, &o.LongDesc); err != nil {
		return world.Object{}, err
	}
	k, err := world.ParseObjectKind(kind)
	if err != nil {
		return world.Object{}, err
	}
	o.Kind = k
	return o, nil
}

// ObjectDescription returns an object's long description, falling back to
// its short description.
func (r *WorldRepository) ObjectDescription(ctx context.Context, id world.ObjectID) (string, error) {
	var desc string
	err := r.db.QueryRow(ctx,
		`SELECT CASE WHEN long_desc <> '' THEN long_desc ELSE short_desc END
		 FROM objects WHERE id = $1`, id,
	).Scan(&desc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("object %d: %w", id, world.ErrNotFound)
		}
		return "", fmt.Errorf("querying object %d: %w", id, err)
	}
	return desc, nil
}

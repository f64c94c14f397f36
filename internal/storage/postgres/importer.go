package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// ImportZones writes zones into the database in one transaction. Rooms,
// objects and characters are upserted by id; a room's exits are replaced.
//
// Precondition: each zone must pass Validate and exits may only target
// rooms in zones or already in the database.
// Postcondition: the object id sequence is past every imported id.
func (r *WorldRepository) ImportZones(ctx context.Context, zones []*world.Zone) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		for _, z := range zones {
			for _, room := range z.Rooms {
				_, err := tx.Exec(ctx,
					`INSERT INTO rooms (id, short_desc, long_desc) VALUES ($1, $2, $3)
					 ON CONFLICT (id) DO UPDATE SET short_desc = EXCLUDED.short_desc, long_desc = EXCLUDED.long_desc`,
					room.ID, room.ShortDesc, room.LongDesc)
				if err != nil {
					return fmt.Errorf("zone %s: upserting room %d: %w", z.ID, room.ID, err)
				}
			}
		}

		for _, z := range zones {
			for _, room := range z.Rooms {
				if _, err := tx.Exec(ctx, `DELETE FROM exits WHERE room_id = $1`, room.ID); err != nil {
					return fmt.Errorf("zone %s: clearing exits of room %d: %w", z.ID, room.ID, err)
				}
				for i, e := range room.Exits {
					_, err := tx.Exec(ctx,
						`INSERT INTO exits (room_id, direction, target_id, position) VALUES ($1, $2, $3, $4)`,
						room.ID, string(e.Direction), e.Target, i)
					if err != nil {
						return fmt.Errorf("zone %s: exit %s of room %d: %w", z.ID, e.Direction, room.ID, err)
					}
				}
			}

			for _, t := range z.Things {
				_, err := tx.Exec(ctx,
					`INSERT INTO objects (id, kind, short_desc, long_desc, room_id) VALUES ($1, $2, $3, $4, $5)
					 ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, short_desc = EXCLUDED.short_desc,
					     long_desc = EXCLUDED.long_desc, room_id = EXCLUDED.room_id`,
					t.ID, t.Kind.String(), t.ShortDesc, t.LongDesc, t.RoomID)
				if err != nil {
					return fmt.Errorf("zone %s: upserting object %d: %w", z.ID, t.ID, err)
				}
			}

			for i := range z.Characters {
				if err := upsertCharacter(ctx, tx, &z.Characters[i]); err != nil {
					return fmt.Errorf("zone %s: %w", z.ID, err)
				}
			}
		}

		_, err := tx.Exec(ctx,
			`SELECT setval(pg_get_serial_sequence('objects', 'id'), (SELECT coalesce(max(id), 0) + 1 FROM objects), false)`)
		if err != nil {
			return fmt.Errorf("advancing object id sequence: %w", err)
		}
		return nil
	})
}

func upsertCharacter(ctx context.Context, tx pgx.Tx, c *world.Character) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO objects (id, kind, short_desc, long_desc, room_id) VALUES ($1, 'actor', $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE SET short_desc = EXCLUDED.short_desc,
		     long_desc = EXCLUDED.long_desc, room_id = EXCLUDED.room_id`,
		c.ID, c.ShortDesc, c.LongDesc, c.RoomID)
	if err != nil {
		return fmt.Errorf("upserting character object %d: %w", c.ID, err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO characters (object_id, name, account_hash) VALUES ($1, $2, $3)
		 ON CONFLICT (object_id) DO UPDATE SET name = EXCLUDED.name, account_hash = EXCLUDED.account_hash`,
		c.ID, c.Name, c.AccountHash)
	if err != nil {
		if hasSQLState(err, sqlStateUniqueViolation) {
			return fmt.Errorf("character %q: %w", c.Name, world.ErrCharacterExists)
		}
		return fmt.Errorf("upserting character %d: %w", c.ID, err)
	}
	return nil
}

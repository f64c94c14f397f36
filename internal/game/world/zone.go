package world

import (
	"errors"
	"fmt"
	"strings"
)

// Zone is a unit of authored world content: rooms plus the things and
// characters placed in them.
type Zone struct {
	ID         string
	Name       string
	Rooms      []*Room
	Things     []Thing
	Characters []Character
}

// Validate checks zone-local invariants.
//
// Postcondition: Returns nil if the zone is internally consistent, or an error describing all violations.
func (z *Zone) Validate() error {
	var errs []error
	if z.ID == "" {
		errs = append(errs, errors.New("zone id must not be empty"))
	}
	if len(z.Rooms) == 0 {
		errs = append(errs, fmt.Errorf("zone %q must contain at least one room", z.ID))
	}

	rooms := make(map[RoomID]bool, len(z.Rooms))
	for _, r := range z.Rooms {
		if r.ID <= 0 {
			errs = append(errs, fmt.Errorf("room id must be positive, got %d", r.ID))
			continue
		}
		if rooms[r.ID] {
			errs = append(errs, fmt.Errorf("duplicate room id %d", r.ID))
		}
		rooms[r.ID] = true
		if strings.TrimSpace(r.ShortDesc) == "" {
			errs = append(errs, fmt.Errorf("room %d: short_desc must not be empty", r.ID))
		}
		seen := make(map[Direction]bool, len(r.Exits))
		for _, e := range r.Exits {
			if !e.Direction.IsStandard() {
				errs = append(errs, fmt.Errorf("room %d: unknown exit direction %q", r.ID, e.Direction))
			}
			if seen[e.Direction] {
				errs = append(errs, fmt.Errorf("room %d: duplicate exit %q", r.ID, e.Direction))
			}
			seen[e.Direction] = true
		}
	}

	for _, t := range z.Things {
		if t.Kind != KindItem && t.Kind != KindMobile {
			errs = append(errs, fmt.Errorf("object %d: kind must be item or mobile", t.ID))
		}
		if strings.TrimSpace(t.ShortDesc) == "" {
			errs = append(errs, fmt.Errorf("object %d: short_desc must not be empty", t.ID))
		}
		if !rooms[t.RoomID] {
			errs = append(errs, fmt.Errorf("object %d: room %d is not in zone %q", t.ID, t.RoomID, z.ID))
		}
	}

	names := make(map[string]bool, len(z.Characters))
	for _, c := range z.Characters {
		key := strings.ToLower(c.Name)
		if key == "" {
			errs = append(errs, fmt.Errorf("character %d: name must not be empty", c.ID))
		}
		if names[key] {
			errs = append(errs, fmt.Errorf("duplicate character name %q", c.Name))
		}
		names[key] = true
		if !rooms[c.RoomID] {
			errs = append(errs, fmt.Errorf("character %q: room %d is not in zone %q", c.Name, c.RoomID, z.ID))
		}
	}

	return errors.Join(errs...)
}

package world

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlZoneFile is the top-level YAML structure for zone files.
type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

type yamlZone struct {
	ID         string          `yaml:"id"`
	Name       string          `yaml:"name"`
	Rooms      []yamlRoom      `yaml:"rooms"`
	Objects    []yamlObject    `yaml:"objects"`
	Characters []yamlCharacter `yaml:"characters"`
}

type yamlRoom struct {
	ID        int64      `yaml:"id"`
	ShortDesc string     `yaml:"short_desc"`
	LongDesc  string     `yaml:"long_desc"`
	Exits     []yamlExit `yaml:"exits"`
}

// yamlExit is a passage out of a room. Bidirectional exits also create the
// opposite exit in the target room.
type yamlExit struct {
	Direction     string `yaml:"direction"`
	Target        int64  `yaml:"target"`
	Bidirectional bool   `yaml:"bidirectional"`
}

type yamlObject struct {
	ID        int64  `yaml:"id"`
	Kind      string `yaml:"kind"`
	ShortDesc string `yaml:"short_desc"`
	LongDesc  string `yaml:"long_desc"`
	Room      int64  `yaml:"room"`
}

type yamlCharacter struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	ShortDesc   string `yaml:"short_desc"`
	LongDesc    string `yaml:"long_desc"`
	Room        int64  `yaml:"room"`
	AccountHash string `yaml:"account_hash"`
}

// LoadZoneFromFile reads and validates a single zone YAML file.
//
// Precondition: path must point to a valid YAML zone file.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %s: %w", path, err)
	}
	return LoadZoneFromBytes(data)
}

// LoadZoneFromBytes parses and validates a zone from YAML bytes.
//
// Precondition: data must be valid YAML conforming to the zone schema.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromBytes(data []byte) (*Zone, error) {
	var file yamlZoneFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}

	zone, err := convertYAMLZone(file.Zone)
	if err != nil {
		return nil, fmt.Errorf("converting zone: %w", err)
	}
	if err := zone.Validate(); err != nil {
		return nil, fmt.Errorf("validating zone: %w", err)
	}
	return zone, nil
}

// LoadZonesFromDir loads all YAML files in a directory as zones, in file name order.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated zones or the first error encountered.
func LoadZonesFromDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading zone directory %s: %w", dir, err)
	}

	var zones []*Zone
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		zone, err := LoadZoneFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading zone from %s: %w", name, err)
		}
		zones = append(zones, zone)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", dir)
	}
	return zones, nil
}

func convertYAMLZone(yz yamlZone) (*Zone, error) {
	zone := &Zone{
		ID:    yz.ID,
		Name:  yz.Name,
		Rooms: make([]*Room, 0, len(yz.Rooms)),
	}

	byID := make(map[RoomID]*Room, len(yz.Rooms))
	for _, yr := range yz.Rooms {
		room := &Room{
			ID:        RoomID(yr.ID),
			ShortDesc: strings.TrimSpace(yr.ShortDesc),
			LongDesc:  strings.TrimSpace(yr.LongDesc),
		}
		zone.Rooms = append(zone.Rooms, room)
		byID[room.ID] = room
	}

	for _, yr := range yz.Rooms {
		room := byID[RoomID(yr.ID)]
		for _, ye := range yr.Exits {
			dir, ok := ParseDirection(ye.Direction)
			if !ok {
				return nil, fmt.Errorf("room %d: unknown exit direction %q", yr.ID, ye.Direction)
			}
			if err := ConnectRooms(room, RoomID(ye.Target), dir); err != nil {
				return nil, fmt.Errorf("room %d: %w", yr.ID, err)
			}
			if !ye.Bidirectional {
				continue
			}
			target, ok := byID[RoomID(ye.Target)]
			if !ok {
				return nil, fmt.Errorf("room %d: bidirectional exit %s targets room %d outside zone %q",
					yr.ID, dir, ye.Target, yz.ID)
			}
			if err := ConnectRooms(target, room.ID, dir.Opposite()); err != nil {
				return nil, fmt.Errorf("room %d: %w", ye.Target, err)
			}
		}
	}

	for _, yo := range yz.Objects {
		kind, err := ParseObjectKind(yo.Kind)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", yo.ID, err)
		}
		zone.Things = append(zone.Things, Thing{
			Object: Object{
				ID:        ObjectID(yo.ID),
				Kind:      kind,
				ShortDesc: strings.TrimSpace(yo.ShortDesc),
				LongDesc:  strings.TrimSpace(yo.LongDesc),
			},
			RoomID: RoomID(yo.Room),
		})
	}

	for _, yc := range yz.Characters {
		zone.Characters = append(zone.Characters, Character{
			Actor: Actor{
				ID:        ActorID(yc.ID),
				Name:      strings.TrimSpace(yc.Name),
				ShortDesc: strings.TrimSpace(yc.ShortDesc),
				RoomID:    RoomID(yc.Room),
			},
			LongDesc:    strings.TrimSpace(yc.LongDesc),
			AccountHash: yc.AccountHash,
		})
	}

	return zone, nil
}

// ConnectRooms adds an exit from room toward target in dir.
//
// Postcondition: Returns an error if room already has an exit in dir.
func ConnectRooms(room *Room, target RoomID, dir Direction) error {
	if _, exists := room.ExitForDirection(dir); exists {
		return fmt.Errorf("duplicate exit %q", dir)
	}
	room.Exits = append(room.Exits, Exit{Direction: dir, Target: target})
	return nil
}

// Package command turns tagged command lines into phrases, dispatches them to
// verb handlers, and models the three-audience response.
package command

import "github.com/cory-johannsen/verbmud/internal/game/world"

// Categories for organizing commands.
const (
	CategoryMovement = "movement"
	CategoryWorld    = "world"
	CategoryCombat   = "combat"
	CategoryEmote    = "emote"
)

// BuiltinCommands returns all built-in commands for the game.
func BuiltinCommands() []Command {
	cmds := make([]Command, 0, len(world.StandardDirections)+4+len(emoteCatalog))

	for _, dir := range world.StandardDirections {
		cmds = append(cmds, Command{
			Verb:     moveVerb{dir: dir},
			Aliases:  []string{dir.Abbreviation()},
			Help:     "Move " + string(dir),
			Category: CategoryMovement,
		})
	}

	cmds = append(cmds,
		Command{Verb: lookVerb{}, Aliases: []string{"l"}, Help: "Look around the room or at something in it", Category: CategoryWorld},
		Command{Verb: exitsVerb{}, Help: "List available exits", Category: CategoryWorld},
		Command{Verb: putVerb{}, Help: "Put something in or on something else", Category: CategoryWorld},
		Command{Verb: killVerb{}, Aliases: []string{"attack"}, Help: "Attack a target", Category: CategoryCombat},
	)

	for _, e := range emoteCatalog {
		cmds = append(cmds, Command{
			Verb:     e,
			Help:     "Emote: " + e.name,
			Category: CategoryEmote,
		})
	}
	return cmds
}

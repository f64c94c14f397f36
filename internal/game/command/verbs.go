package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

const (
	msgNoExit      = "There's no exit in that direction."
	msgGoWhere     = "Go where?"
	msgNotHere     = "You don't see that here."
	msgKillWhat    = "Kill what?"
	msgOneAtATime  = "One at a time, bucko."
	msgCantReach   = "You can't reach that."
	msgXRay        = "You don't have x-ray vision! Try taking stuff out first."
	msgTooManyEyes = "You don't have enough eyes for that!"
	msgPutWhat     = "Put what?"
	msgNoExits     = "There are no obvious exits."
	msgExitsUsage  = "Just type exits."
)

// moveVerb moves the actor through the exit named by dir. All eight compass
// verbs share it.
type moveVerb struct {
	dir world.Direction
}

func (v moveVerb) Name() string { return string(v.dir) }
func (moveVerb) Kind() Kind     { return KindAction }

func (moveVerb) Validate(p *Phrase) error {
	if len(p.NounChunks) > 0 || len(p.Prepositions) > 0 {
		return badArguments(msgGoWhere)
	}
	return nil
}

// Execute replies to the actor only: the new room on success, a fixed
// message when there is no exit. Bystanders are not told.
func (v moveVerb) Execute(ctx context.Context, w world.Store, actor world.Actor, _ *Phrase) (*Response, error) {
	dest, err := w.Move(ctx, actor.ID, v.dir)
	if errors.Is(err, world.ErrNoSuchExit) {
		return ActorMessage(actor.ID, msgNoExit)
	}
	if err != nil {
		return nil, fmt.Errorf("moving actor %d %s: %w", actor.ID, v.dir, err)
	}
	room, err := w.Room(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("describing room %d: %w", dest, err)
	}
	return ActorMessage(actor.ID, world.DescribeRoom(room))
}

type lookVerb struct{}

func (lookVerb) Name() string { return "look" }
func (lookVerb) Kind() Kind   { return KindAction }

func (lookVerb) Validate(p *Phrase) error {
	if len(p.Prepositions) > 1 {
		return badArguments(msgXRay)
	}
	if len(p.NounChunks) > 1 {
		return badArguments(msgTooManyEyes)
	}
	return nil
}

// Execute describes the resolved target, or the actor's room when no object was named.
func (lookVerb) Execute(ctx context.Context, w world.Store, actor world.Actor, p *Phrase) (*Response, error) {
	if p.Target != nil {
		desc, err := w.ObjectDescription(ctx, p.Target.ID)
		if errors.Is(err, world.ErrNotFound) {
			return ActorMessage(actor.ID, msgNotHere)
		}
		if err != nil {
			return nil, fmt.Errorf("describing object %d: %w", p.Target.ID, err)
		}
		return ActorMessage(actor.ID, desc)
	}
	if len(p.NounChunks) > 0 {
		return ActorMessage(actor.ID, msgNotHere)
	}
	room, err := w.Room(ctx, actor.RoomID)
	if err != nil {
		return nil, fmt.Errorf("describing room %d: %w", actor.RoomID, err)
	}
	return ActorMessage(actor.ID, world.DescribeRoom(room))
}

type exitsVerb struct{}

func (exitsVerb) Name() string { return "exits" }
func (exitsVerb) Kind() Kind   { return KindAction }

func (exitsVerb) Validate(p *Phrase) error {
	if len(p.NounChunks) > 0 || len(p.Prepositions) > 0 {
		return badArguments(msgExitsUsage)
	}
	return nil
}

func (exitsVerb) Execute(ctx context.Context, w world.Store, actor world.Actor, _ *Phrase) (*Response, error) {
	exits, err := w.Exits(ctx, actor.RoomID)
	if err != nil {
		return nil, fmt.Errorf("listing exits of room %d: %w", actor.RoomID, err)
	}
	if len(exits) == 0 {
		return ActorMessage(actor.ID, msgNoExits)
	}
	names := make([]string, len(exits))
	for i, e := range exits {
		names[i] = string(e.Direction)
	}
	return ActorMessage(actor.ID, "Obvious exits: "+strings.Join(names, ", ")+".")
}

// putVerb establishes the placement pattern; it validates and returns a fixed prompt.
type putVerb struct{}

func (putVerb) Name() string { return "put" }
func (putVerb) Kind() Kind   { return KindAction }

func (putVerb) Validate(p *Phrase) error {
	if len(p.NounChunks) == 0 {
		return badArguments(msgPutWhat)
	}
	if len(p.Prepositions) == 0 || len(p.Prepositions) != len(p.NounChunks)-1 {
		return badArguments(fmt.Sprintf("Put %s where?", p.NounChunks[0]))
	}
	return nil
}

func (putVerb) Execute(_ context.Context, _ world.Store, actor world.Actor, _ *Phrase) (*Response, error) {
	return ActorMessage(actor.ID, msgPutWhat)
}

// killVerb establishes the combat pattern; it validates and returns a fixed prompt.
type killVerb struct{}

func (killVerb) Name() string { return "kill" }
func (killVerb) Kind() Kind   { return KindAction }

func (killVerb) Validate(p *Phrase) error {
	if len(p.NounChunks) == 0 {
		return badArguments(msgKillWhat)
	}
	if len(p.NounChunks) > 1 {
		return badArguments(msgOneAtATime)
	}
	if len(p.Prepositions) > 0 {
		return badArguments(msgCantReach)
	}
	return nil
}

func (killVerb) Execute(_ context.Context, _ world.Store, actor world.Actor, _ *Phrase) (*Response, error) {
	return ActorMessage(actor.ID, msgKillWhat)
}

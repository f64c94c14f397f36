package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// emoteText is one message per audience. Placeholders {actor}, {target},
// and {adverb} are substituted at execution.
type emoteText struct {
	actor  string
	target string
	room   string
}

// emote is an expressive verb with four precomputed template sets.
type emote struct {
	name             string
	plain            emoteText
	modified         emoteText
	targeted         emoteText
	targetedModified emoteText
}

// newEmote precomputes an emote's templates from its verb forms. idle is
// appended when there is neither adverb nor target ("out loud"), prep joins
// the verb to its target, and mark ends every sentence.
func newEmote(name, third, idle, prep, mark string) *emote {
	tail := ""
	if idle != "" {
		tail = " " + idle
	}
	return &emote{
		name: name,
		plain: emoteText{
			actor: "You " + name + tail + mark,
			room:  "{actor} " + third + tail + mark,
		},
		modified: emoteText{
			actor: "You " + name + " {adverb}" + mark,
			room:  "{actor} " + third + " {adverb}" + mark,
		},
		targeted: emoteText{
			actor:  "You " + name + " " + prep + " {target}" + mark,
			target: "{actor} " + third + " " + prep + " you" + mark,
			room:   "{actor} " + third + " " + prep + " {target}" + mark,
		},
		targetedModified: emoteText{
			actor:  "You " + name + " {adverb} " + prep + " {target}" + mark,
			target: "{actor} " + third + " {adverb} " + prep + " you" + mark,
			room:   "{actor} " + third + " {adverb} " + prep + " {target}" + mark,
		},
	}
}

var emoteCatalog = []*emote{
	newEmote("laugh", "laughs", "out loud", "at", "!"),
	newEmote("smile", "smiles", "", "at", "."),
	newEmote("grin", "grins", "", "at", "."),
	newEmote("nod", "nods", "", "at", "."),
	newEmote("sigh", "sighs", "", "at", "."),
	newEmote("shrug", "shrugs", "", "at", "."),
	newEmote("wave", "waves", "", "at", "."),
}

func (e *emote) Name() string { return e.name }
func (e *emote) Kind() Kind   { return KindEmote }

func (e *emote) Validate(p *Phrase) error {
	if len(p.NounChunks) > 1 {
		return badArguments(fmt.Sprintf("You can only %s at one thing at a time.", e.name))
	}
	if len(p.Descriptors) > 1 {
		return badArguments(fmt.Sprintf("You can only %s one way at a time.", e.name))
	}
	return nil
}

// Execute always messages the actor and the room. A resolved target other
// than the actor selects the targeted templates; an actor target also
// receives the to-target message.
func (e *emote) Execute(ctx context.Context, w world.Store, actor world.Actor, p *Phrase) (*Response, error) {
	adverb := p.Descriptor()

	target := p.Target
	if target != nil {
		if id, ok := target.Actor(); ok && id == actor.ID {
			target = nil
		}
	}

	if target == nil {
		text := e.plain
		if adverb != "" {
			text = e.modified
		}
		r := strings.NewReplacer("{actor}", actor.Name, "{adverb}", adverb)
		return NewResponse(ResponseSpec{
			ToActor: r.Replace(text.actor),
			ActorID: actor.ID,
			ToRoom:  r.Replace(text.room),
			RoomID:  actor.RoomID,
		})
	}

	text := e.targeted
	if adverb != "" {
		text = e.targetedModified
	}
	targetName := target.ShortDesc
	targetID, isActor := target.Actor()
	if isActor {
		other, err := w.Actor(ctx, targetID)
		switch {
		case err == nil:
			targetName = other.Name
		case !errors.Is(err, world.ErrNotFound):
			return nil, fmt.Errorf("loading target actor %d: %w", targetID, err)
		}
	}

	r := strings.NewReplacer("{actor}", actor.Name, "{adverb}", adverb, "{target}", targetName)
	spec := ResponseSpec{
		ToActor: r.Replace(text.actor),
		ActorID: actor.ID,
		ToRoom:  r.Replace(text.room),
		RoomID:  actor.RoomID,
	}
	if isActor {
		spec.ToTarget = r.Replace(text.target)
		spec.TargetID = targetID
	}
	return NewResponse(spec)
}

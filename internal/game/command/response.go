package command

import (
	"fmt"

	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// ResponseSpec describes the three audiences of a Response. A zero id means
// the recipient is unset. A zero RoomID with a non-empty ToRoom addresses
// every connected actor.
type ResponseSpec struct {
	ToActor  string
	ActorID  world.ActorID
	ToTarget string
	TargetID world.ActorID
	ToRoom   string
	RoomID   world.RoomID
}

// Response is the immutable result of executing a verb.
type Response struct {
	spec ResponseSpec
}

// NewResponse validates spec and returns a Response.
//
// Postcondition: Returns an error wrapping ErrBadResponse when a message is
// present without its recipient, a recipient without its message, or when
// nothing is addressed at all.
func NewResponse(spec ResponseSpec) (*Response, error) {
	if (spec.ToActor != "") != (spec.ActorID != 0) {
		return nil, fmt.Errorf("%w: to_actor and actor_id must be set together", ErrBadResponse)
	}
	if (spec.ToTarget != "") != (spec.TargetID != 0) {
		return nil, fmt.Errorf("%w: to_target and target_id must be set together", ErrBadResponse)
	}
	if spec.ToRoom == "" && spec.RoomID != 0 {
		return nil, fmt.Errorf("%w: room_id set without to_room", ErrBadResponse)
	}
	if spec.ToActor == "" && spec.ToTarget == "" && spec.ToRoom == "" {
		return nil, fmt.Errorf("%w: response addresses no one", ErrBadResponse)
	}
	return &Response{spec: spec}, nil
}

// ActorMessage returns a response addressed to the actor only.
func ActorMessage(actor world.ActorID, msg string) (*Response, error) {
	return NewResponse(ResponseSpec{ToActor: msg, ActorID: actor})
}

// ToActor returns the actor message and recipient, if set.
func (r *Response) ToActor() (string, world.ActorID, bool) {
	return r.spec.ToActor, r.spec.ActorID, r.spec.ToActor != ""
}

// ToTarget returns the target message and recipient, if set.
func (r *Response) ToTarget() (string, world.ActorID, bool) {
	return r.spec.ToTarget, r.spec.TargetID, r.spec.ToTarget != ""
}

// ToRoom returns the room-audience message and room, if set. A zero room
// means the message is global.
func (r *Response) ToRoom() (string, world.RoomID, bool) {
	return r.spec.ToRoom, r.spec.RoomID, r.spec.ToRoom != ""
}

// Excluded returns the actors that must not receive the room-audience message.
func (r *Response) Excluded() []world.ActorID {
	var ids []world.ActorID
	if r.spec.ActorID != 0 {
		ids = append(ids, r.spec.ActorID)
	}
	if r.spec.TargetID != 0 && r.spec.TargetID != r.spec.ActorID {
		ids = append(ids, r.spec.TargetID)
	}
	return ids
}

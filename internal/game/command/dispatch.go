package command

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/cory-johannsen/verbmud/internal/game/tagger"
	"github.com/cory-johannsen/verbmud/internal/game/world"
	"github.com/cory-johannsen/verbmud/internal/observability"
)

// PhraseErrors are the replies to a line whose first word is not a command.
var PhraseErrors = []string{
	"I'm sorry, what?",
	"I don't understand what you want.",
	"Come again?",
	"Please try to be more coherent.",
}

// Dispatcher runs a command line through tagging, phrase building, and the
// resolved verb.
type Dispatcher struct {
	tagger   tagger.Tagger
	builder  *Builder
	registry *Registry
	world    world.Store
	metrics  *observability.Metrics
	logger   *zap.Logger
	pick     func(n int) int
}

// NewDispatcher creates a Dispatcher. metrics may be nil.
//
// Precondition: tg, registry, w, and logger must be non-nil.
func NewDispatcher(tg tagger.Tagger, registry *Registry, w world.Store, metrics *observability.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		tagger:   tg,
		builder:  NewBuilder(registry, w),
		registry: registry,
		world:    w,
		metrics:  metrics,
		logger:   logger,
		pick:     rand.Intn,
	}
}

// Dispatch interprets line for actor. Unknown verbs and bad arguments are
// answered with an actor-only response rather than an error.
//
// Postcondition: Returns a valid Response, or an error for storage failures
// and for verbs that built an invalid response (wrapping ErrBadResponse).
func (d *Dispatcher) Dispatch(ctx context.Context, actor world.Actor, line string) (*Response, error) {
	tokens, err := d.tagger.Tag(ctx, line)
	if err != nil {
		d.observe(observability.OutcomeError)
		return nil, fmt.Errorf("tagging line: %w", err)
	}

	phrase, err := d.builder.Build(ctx, tokens, actor.RoomID)
	if err != nil {
		var unknown *UnknownVerbError
		var bad *BadArgumentsError
		switch {
		case errors.As(err, &unknown):
			d.logger.Debug("unknown verb", zap.Int64("actor_id", int64(actor.ID)), zap.String("verb", unknown.Verb))
			d.observe(observability.OutcomeUnknownVerb)
			return ActorMessage(actor.ID, PhraseErrors[d.pick(len(PhraseErrors))])
		case errors.As(err, &bad):
			d.logger.Debug("bad arguments", zap.Int64("actor_id", int64(actor.ID)), zap.String("reason", bad.Message))
			d.observe(observability.OutcomeBadArguments)
			return ActorMessage(actor.ID, bad.Message)
		default:
			d.observe(observability.OutcomeError)
			return nil, err
		}
	}

	cmd, _ := d.registry.Resolve(phrase.Verb)
	resp, err := cmd.Verb.Execute(ctx, d.world, actor, phrase)
	if err != nil {
		d.observe(observability.OutcomeError)
		if errors.Is(err, ErrBadResponse) {
			d.logger.Error("verb produced an invalid response",
				zap.String("verb", phrase.Verb),
				zap.Int64("actor_id", int64(actor.ID)),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("executing %s: %w", phrase.Verb, err)
	}
	d.observe(observability.OutcomeOK)
	return resp, nil
}

func (d *Dispatcher) observe(outcome string) {
	if d.metrics != nil {
		d.metrics.Commands.WithLabelValues(outcome).Inc()
	}
}

package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/cory-johannsen/verbmud/internal/game/tagger"
	"github.com/cory-johannsen/verbmud/internal/game/world"
)

// Builder turns tagged tokens into validated phrases.
type Builder struct {
	registry *Registry
	world    world.Store
}

// NewBuilder creates a Builder.
//
// Precondition: registry and w must be non-nil.
func NewBuilder(registry *Registry, w world.Store) *Builder {
	return &Builder{registry: registry, world: w}
}

// Build resolves the verb, the target object, the noun chunks, the
// prepositions, and for emotes the descriptor, then validates the result
// against the verb.
//
// Postcondition: Returns a phrase, an *UnknownVerbError when the first token
// is not a command, a *BadArgumentsError when the verb rejects the shape, or
// a storage error from target resolution.
func (b *Builder) Build(ctx context.Context, tokens []tagger.Token, room world.RoomID) (*Phrase, error) {
	if len(tokens) == 0 {
		return nil, &UnknownVerbError{}
	}
	cmd, ok := b.registry.Resolve(tokens[0].Text)
	if !ok {
		return nil, &UnknownVerbError{Verb: tokens[0].Text}
	}

	p := &Phrase{Verb: cmd.Name(), Kind: cmd.Verb.Kind()}
	tail := tokens[1:]

	targetWord := -1
	if n := len(tail); n > 0 && isContent(tail[n-1].Category) {
		found, err := b.world.FindObjects(ctx, room, tail[n-1].Text)
		if err != nil {
			return nil, fmt.Errorf("resolving %q in room %d: %w", tail[n-1].Text, room, err)
		}
		if len(found) > 0 {
			target := found[0]
			p.Target = &target
			targetWord = n - 1
		}
	}

	if p.IsEmote() && len(tail) > 0 && targetWord != 0 {
		if adverb, ok := descriptor(tail[0]); ok {
			p.Descriptors = []string{adverb}
			tail = tail[1:]
		}
	}

	p.NounChunks, p.Prepositions = chunk(tail)
	if p.IsEmote() {
		p.Prepositions = nil
	}

	if err := cmd.Verb.Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

// descriptor completes an emote's second word to an adverb when possible.
func descriptor(tok tagger.Token) (string, bool) {
	switch tok.Category {
	case tagger.Preposition, tagger.Determiner, tagger.Conjunction:
		return "", false
	}
	return CompleteAdverb(tok.Text)
}

// chunk groups content words into noun chunks, dropping determiners and
// adverbs and collecting prepositions in order.
func chunk(tokens []tagger.Token) (chunks, prepositions []string) {
	var current []string
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
		}
	}
	for _, tok := range tokens {
		switch tok.Category {
		case tagger.Determiner, tagger.Adverb:
		case tagger.Conjunction:
			flush()
		case tagger.Preposition:
			flush()
			prepositions = append(prepositions, tok.Text)
		case tagger.Noun:
			current = append(current, tok.Text)
			flush()
		default:
			current = append(current, tok.Text)
		}
	}
	flush()
	return chunks, prepositions
}

func isContent(c tagger.Category) bool {
	switch c {
	case tagger.Noun, tagger.Adjective, tagger.Other:
		return true
	}
	return false
}

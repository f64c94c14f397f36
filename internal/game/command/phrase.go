package command

import "github.com/cory-johannsen/verbmud/internal/game/world"

// Kind classifies a verb as an action or an emote.
type Kind int

// Verb kinds.
const (
	KindAction Kind = iota + 1
	KindEmote
)

func (k Kind) String() string {
	switch k {
	case KindAction:
		return "action"
	case KindEmote:
		return "emote"
	default:
		return "unknown"
	}
}

// Phrase is one structured command line.
type Phrase struct {
	// Verb is the canonical name of the resolved verb.
	Verb string
	Kind Kind
	// NounChunks are object references, determiners removed, in input order.
	NounChunks []string
	// Prepositions are connectors; the Nth sits between chunk N and chunk N+1.
	Prepositions []string
	// Descriptors holds at most one adverb and is only populated for emotes.
	Descriptors []string
	// Target is the first room object matching the line's last word, if any.
	Target *world.Object
}

// IsAction reports whether the phrase was built for an action verb.
func (p *Phrase) IsAction() bool { return p.Kind == KindAction }

// IsEmote reports whether the phrase was built for an emote.
func (p *Phrase) IsEmote() bool { return p.Kind == KindEmote }

// Descriptor returns the phrase's adverb, or "".
func (p *Phrase) Descriptor() string {
	if len(p.Descriptors) == 0 {
		return ""
	}
	return p.Descriptors[0]
}

// Parts returns the phrase's words in reading order. Actions interleave
// chunks and prepositions; emotes yield verb, descriptor, then the first
// chunk, with prepositions omitted.
func (p *Phrase) Parts() []string {
	parts := []string{p.Verb}
	if p.IsEmote() {
		parts = append(parts, p.Descriptors...)
		if len(p.NounChunks) > 0 {
			parts = append(parts, p.NounChunks[0])
		}
		return parts
	}
	for i, chunk := range p.NounChunks {
		parts = append(parts, chunk)
		if i < len(p.Prepositions) {
			parts = append(parts, p.Prepositions[i])
		}
	}
	if extra := len(p.Prepositions) - len(p.NounChunks); extra > 0 {
		parts = append(parts, p.Prepositions[len(p.Prepositions)-extra:]...)
	}
	return parts
}

package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhrase_PartsAction(t *testing.T) {
	p := &Phrase{
		Verb:         "put",
		Kind:         KindAction,
		NounChunks:   []string{"big blue cracker", "shiny gold chest"},
		Prepositions: []string{"in"},
	}
	assert.Equal(t, []string{"put", "big blue cracker", "in", "shiny gold chest"}, p.Parts())
}

func TestPhrase_PartsTrailingPreposition(t *testing.T) {
	p := &Phrase{Verb: "look", Kind: KindAction, Prepositions: []string{"at"}}
	assert.Equal(t, []string{"look", "at"}, p.Parts())
}

func TestPhrase_PartsEmote(t *testing.T) {
	p := &Phrase{
		Verb:        "laugh",
		Kind:        KindEmote,
		NounChunks:  []string{"bob"},
		Descriptors: []string{"maniacally"},
	}
	assert.Equal(t, []string{"laugh", "maniacally", "bob"}, p.Parts())
	assert.Equal(t, "maniacally", p.Descriptor())
}

func TestPhrase_Kind(t *testing.T) {
	assert.True(t, (&Phrase{Kind: KindAction}).IsAction())
	assert.False(t, (&Phrase{Kind: KindAction}).IsEmote())
	assert.Equal(t, "emote", KindEmote.String())
	assert.Equal(t, "", (&Phrase{}).Descriptor())
}

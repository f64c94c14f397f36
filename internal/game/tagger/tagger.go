// Package tagger defines the part-of-speech tagging collaborator and a
// lexicon-driven implementation sufficient for command lines.
package tagger

import (
	"context"
	"strings"
	"unicode"
)

// Category is a lexical category.
type Category int

// Lexical categories.
const (
	Other Category = iota
	Verb
	Noun
	Adjective
	Adverb
	Preposition
	Determiner
	Conjunction
)

var categoryNames = map[Category]string{
	Other:       "other",
	Verb:        "verb",
	Noun:        "noun",
	Adjective:   "adjective",
	Adverb:      "adverb",
	Preposition: "preposition",
	Determiner:  "determiner",
	Conjunction: "conjunction",
}

func (c Category) String() string {
	if s, ok := categoryNames[c]; ok {
		return s
	}
	return "unknown"
}

// Token is one tagged word.
type Token struct {
	Text     string
	Category Category
}

// Tagger splits text into ordered, categorized tokens.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Token, error)
}

// DefaultPrepositions are the connectors recognized by the lexicon tagger.
var DefaultPrepositions = []string{
	"about", "above", "across", "at", "behind", "below", "beneath", "beside",
	"between", "by", "for", "from", "in", "inside", "into", "near", "of",
	"off", "on", "onto", "out", "over", "through", "to", "toward", "towards",
	"under", "underneath", "upon", "with", "within",
}

// DefaultDeterminers are the determiners recognized by the lexicon tagger.
var DefaultDeterminers = []string{
	"a", "an", "the", "this", "that", "these", "those", "my", "your", "his",
	"her", "its", "our", "their", "some", "every", "each", "any",
}

// DefaultConjunctions separate noun chunks ("goblin and troll").
var DefaultConjunctions = []string{"and", "or", "but", "nor"}

// Options configures a Lexicon.
type Options struct {
	// Verbs are the command names; only the first word of a line is checked against them.
	Verbs []string
	// Adverbs are words always tagged as adverbs.
	Adverbs []string
	// Prepositions defaults to DefaultPrepositions when nil.
	Prepositions []string
	// Determiners defaults to DefaultDeterminers when nil.
	Determiners []string
	// Conjunctions defaults to DefaultConjunctions when nil.
	Conjunctions []string
}

// Lexicon tags words by table lookup. A run of untagged words is read as
// modifiers followed by a head noun, so "slimy green goblin" yields two
// adjectives and a noun.
type Lexicon struct {
	verbs        map[string]bool
	adverbs      map[string]bool
	prepositions map[string]bool
	determiners  map[string]bool
	conjunctions map[string]bool
}

var _ Tagger = (*Lexicon)(nil)

// NewLexicon creates a Lexicon from opts.
func NewLexicon(opts Options) *Lexicon {
	if opts.Prepositions == nil {
		opts.Prepositions = DefaultPrepositions
	}
	if opts.Determiners == nil {
		opts.Determiners = DefaultDeterminers
	}
	if opts.Conjunctions == nil {
		opts.Conjunctions = DefaultConjunctions
	}
	return &Lexicon{
		verbs:        toSet(opts.Verbs),
		adverbs:      toSet(opts.Adverbs),
		prepositions: toSet(opts.Prepositions),
		determiners:  toSet(opts.Determiners),
		conjunctions: toSet(opts.Conjunctions),
	}
}

// Tag lowercases and splits text on whitespace, trims surrounding
// punctuation, and categorizes every word.
//
// Postcondition: Returns one token per non-empty word, in input order.
func (l *Lexicon) Tag(_ context.Context, text string) ([]Token, error) {
	var tokens []Token
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) && r != '-' && r != '\''
		})
		if word == "" {
			continue
		}
		tokens = append(tokens, Token{Text: word, Category: l.lookup(word, len(tokens) == 0)})
	}

	// Close each run of content words with a noun.
	for i := range tokens {
		if tokens[i].Category != Adjective {
			continue
		}
		if i == len(tokens)-1 || tokens[i+1].Category != Adjective {
			tokens[i].Category = Noun
		}
	}
	return tokens, nil
}

func (l *Lexicon) lookup(word string, first bool) Category {
	switch {
	case first && l.verbs[word]:
		return Verb
	case l.prepositions[word]:
		return Preposition
	case l.determiners[word]:
		return Determiner
	case l.conjunctions[word]:
		return Conjunction
	case l.adverbs[word]:
		return Adverb
	case isNumber(word):
		return Other
	default:
		return Adjective
	}
}

func isNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

package command

import (
	"sort"
	"strings"
)

// minCompletionLen is the shortest fragment eligible for adverb completion.
const minCompletionLen = 3

var adverbs = []string{
	"accidentally", "angrily", "anxiously", "awkwardly", "badly", "beautifully",
	"blindly", "boldly", "bravely", "brightly", "busily", "calmly", "carefully",
	"carelessly", "cautiously", "cheerfully", "clearly", "closely", "correctly",
	"courageously", "cruelly", "daringly", "deliberately", "doubtfully", "eagerly",
	"easily", "elegantly", "enormously", "enthusiastically", "equally", "eventually",
	"exactly", "faithfully", "fiercely", "fondly", "foolishly", "fortunately",
	"frankly", "frantically", "generously", "gently", "gladly", "gracefully",
	"greedily", "happily", "hard", "hastily", "healthily", "honestly", "hungrily",
	"hurriedly", "inadequately", "ingeniously", "innocently", "inquisitively",
	"irritably", "joyfully", "joyously", "justly", "kindly", "lazily", "loosely",
	"loudly", "madly", "maniacally", "mysteriously", "neatly", "nervously",
	"noisily", "obediently", "openly", "painfully", "patiently", "perfectly",
	"politely", "poorly", "powerfully", "promptly", "punctually", "quickly",
	"quietly", "rapidly", "rarely", "really", "recklessly", "regularly",
	"reluctantly", "repeatedly", "rightfully", "roughly", "rudely", "sadly",
	"safely", "selfishly", "sensibly", "seriously", "sharply", "shyly", "silently",
	"sleepily", "slowly", "smoothly", "softly", "solemnly", "speedily",
	"stealthily", "sternly", "straight", "stupidly", "successfully", "suddenly",
	"suspiciously", "swiftly", "tenderly", "tensely", "thoughtfully", "tightly",
	"truthfully", "unexpectedly", "victoriously", "violently", "vivaciously",
	"warmly", "weakly", "wearily", "wildly", "wisely",
}

// Adverbs returns a sorted copy of the emote adverb lexicon.
func Adverbs() []string {
	out := append([]string(nil), adverbs...)
	sort.Strings(out)
	return out
}

// CompleteAdverb resolves word against the adverb lexicon: an exact match
// wins, otherwise word must be a prefix of exactly one adverb and at least
// three letters long.
//
// Postcondition: Returns (adverb, true) on a unique match, or ("", false).
func CompleteAdverb(word string) (string, bool) {
	word = strings.ToLower(word)
	if len(word) < minCompletionLen {
		return "", false
	}
	for _, adverb := range adverbs {
		if adverb == word {
			return adverb, true
		}
	}
	var match string
	for _, adverb := range adverbs {
		if strings.HasPrefix(adverb, word) {
			if match != "" {
				return "", false
			}
			match = adverb
		}
	}
	return match, match != ""
}

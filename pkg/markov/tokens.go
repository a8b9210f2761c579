package markov

import (
	"fmt"
	"strings"
)

// TokenID identifies a token by its index in a Model's vocabulary.
type TokenID uint32

const (
	// StartTokenID is the reserved ID for the Start-Of-Word token.
	StartTokenID TokenID = 0
	// EndTokenID is the reserved ID for the End-Of-Word token.
	EndTokenID TokenID = 1
	// StartTokenText is the reserved text for the Start-Of-Word token.
	StartTokenText = "<START>"
	// EndTokenText is the reserved text for the End-Of-Word token.
	EndTokenText = "<END>"
)

// Granularity selects what a single token is: one character of a corpus entry,
// or one whitespace-separated word of it.
type Granularity string

const (
	// Character treats every rune of an entry as a token. Output tokens are
	// joined without a separator.
	Character Granularity = "character"
	// Word treats every whitespace-separated word of an entry as a token.
	// Output tokens are joined with a single space.
	Word Granularity = "word"
)

// Tokenizer splits a single corpus entry into tokens and knows how tokens are
// joined back together when building generated output.
type Tokenizer interface {
	// Split returns the tokens of one corpus entry.
	Split(entry string) []string
	// Separator returns the string placed between two consecutive tokens.
	Separator() string
}

// NewTokenizer returns the Tokenizer for a granularity.
func NewTokenizer(g Granularity) (Tokenizer, error) {
	switch g {
	case Character, "":
		return CharacterTokenizer{}, nil
	case Word:
		return WordTokenizer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown granularity %q", ErrInvalidParameters, g)
	}
}

// CharacterTokenizer splits entries into runes.
type CharacterTokenizer struct{}

// Split returns each rune of entry as its own token.
func (CharacterTokenizer) Split(entry string) []string {
	tokens := make([]string, 0, len(entry))
	for _, r := range entry {
		tokens = append(tokens, string(r))
	}
	return tokens
}

// Separator returns the empty string.
func (CharacterTokenizer) Separator() string { return "" }

// WordTokenizer splits entries on whitespace.
type WordTokenizer struct{}

// Split returns the whitespace-separated fields of entry.
func (WordTokenizer) Split(entry string) []string {
	return strings.Fields(entry)
}

// Separator returns a single space.
func (WordTokenizer) Separator() string { return " " }

// vocabularyBuilder assigns token IDs in first-seen order, which keeps IDs
// stable for a given corpus regardless of map iteration order. Sentinels are
// never looked up by text, so a corpus word spelled like one stays ordinary.
type vocabularyBuilder struct {
	ids   map[string]TokenID
	texts []string
}

func newVocabularyBuilder() *vocabularyBuilder {
	return &vocabularyBuilder{
		ids:   make(map[string]TokenID),
		texts: []string{StartTokenText, EndTokenText},
	}
}

// id returns the ID for text, assigning the next free one on first sight.
func (v *vocabularyBuilder) id(text string) TokenID {
	if id, ok := v.ids[text]; ok {
		return id
	}
	id := TokenID(len(v.texts))
	v.ids[text] = id
	v.texts = append(v.texts, text)
	return id
}

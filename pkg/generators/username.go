package generators

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SimpleUsername returns a pronounceable name of n letters that alternates
// between consonants and vowels, starting with either.
func SimpleUsername(rng *rand.Rand, capitalize bool, n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, n)
	vowel := rng.IntN(2) == 0
	for i := range out {
		if vowel {
			out[i] = pick(rng, vowelChars)
		} else {
			out[i] = pick(rng, consonantChars)
		}
		vowel = !vowel
	}
	if capitalize {
		out[0] -= 'a' - 'A'
	}
	return out
}

// ComplexUsername joins two random words from words and two random digits,
// then cuts the result to at most n characters. With capitalize set each word
// starts with an upper-case letter. n <= 0 means no limit.
func ComplexUsername(rng *rand.Rand, words []string, capitalize bool, n int) ([]byte, error) {
	if len(words) == 0 {
		return nil, ErrEmptyWordlist
	}
	first := words[rng.IntN(len(words))]
	second := words[rng.IntN(len(words))]
	if capitalize {
		caser := cases.Title(language.Und)
		first = caser.String(first)
		second = caser.String(second)
	}

	var builder strings.Builder
	builder.Grow(len(first) + len(second) + 2)
	builder.WriteString(first)
	builder.WriteString(second)
	builder.WriteString(strconv.Itoa(rng.IntN(10)))
	builder.WriteString(strconv.Itoa(rng.IntN(10)))

	name := builder.String()
	if n > 0 && utf8.RuneCountInString(name) > n {
		name = string([]rune(name)[:n])
	}
	return []byte(name), nil
}

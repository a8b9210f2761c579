package generators

import (
	"math/rand/v2"
	"unicode/utf8"
)

const (
	upperAlphabetChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerAlphabetChars = "abcdefghijklmnopqrstuvwxyz"
	alphabetChars      = upperAlphabetChars + lowerAlphabetChars
	numericChars       = "0123456789"
	symbolChars        = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	vowelChars         = "aeiou"
	consonantChars     = "bcdfghjklmnpqrstvwxyz"
)

// Charset returns the password alphabet: ASCII letters, plus digits and ASCII
// punctuation when requested.
func Charset(numbers, symbols bool) string {
	charset := alphabetChars
	if numbers {
		charset += numericChars
	}
	if symbols {
		charset += symbolChars
	}
	return charset
}

// Password returns n characters drawn uniformly from charset.
func Password(rng *rand.Rand, charset string, n int) ([]byte, error) {
	if charset == "" {
		return nil, ErrEmptyCharset
	}
	if n <= 0 {
		return []byte{}, nil
	}

	// ASCII alphabets index bytes directly; anything else goes through runes.
	if utf8.RuneCountInString(charset) == len(charset) {
		out := make([]byte, n)
		for i := range out {
			out[i] = charset[rng.IntN(len(charset))]
		}
		return out, nil
	}

	runes := []rune(charset)
	out := make([]byte, 0, n*utf8.UTFMax)
	for i := 0; i < n; i++ {
		out = utf8.AppendRune(out, runes[rng.IntN(len(runes))])
	}
	return out, nil
}

// pick returns one random byte of an ASCII alphabet.
func pick(rng *rand.Rand, alphabet string) byte {
	return alphabet[rng.IntN(len(alphabet))]
}

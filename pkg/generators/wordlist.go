package generators

import (
	_ "embed"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/CTAG07/fabricate/pkg/markov"
)

//go:embed wordlist.txt
var defaultWordlistText string

var (
	defaultWordlist     []string
	loadDefaultWordlist sync.Once
)

// DefaultWordlist returns the built-in list of common English words. The
// returned slice is shared and must not be modified.
func DefaultWordlist() []string {
	loadDefaultWordlist.Do(func() {
		defaultWordlist = strings.Fields(defaultWordlistText)
	})
	return defaultWordlist
}

// entryTokenizer keeps every corpus entry whole.
type entryTokenizer struct{}

func (entryTokenizer) Split(entry string) []string { return []string{entry} }
func (entryTokenizer) Separator() string            { return "" }

// LoadWordlist reads a wordlist split on delimiter, with the same trimming
// and normalization as a Markov corpus. An empty path returns the built-in
// list. Errors are those of markov.LoadCorpus.
func LoadWordlist(path, delimiter string) ([]string, error) {
	if path == "" {
		return DefaultWordlist(), nil
	}
	if delimiter == "" {
		delimiter = markov.DefaultDelimiter
	}
	corpus, err := markov.LoadCorpus(path, delimiter, entryTokenizer{})
	if err != nil {
		return nil, err
	}
	words := make([]string, len(corpus.Entries))
	for i, entry := range corpus.Entries {
		words[i] = entry[0]
	}
	return words, nil
}

// Passphrase joins n words drawn uniformly from words with separator.
func Passphrase(rng *rand.Rand, words []string, separator string, n int) ([]byte, error) {
	if len(words) == 0 {
		return nil, ErrEmptyWordlist
	}
	var builder strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			builder.WriteString(separator)
		}
		builder.WriteString(words[rng.IntN(len(words))])
	}
	return []byte(builder.String()), nil
}

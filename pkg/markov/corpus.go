package markov

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// DefaultDelimiter separates corpus entries when no delimiter is configured.
const DefaultDelimiter = "\n"

// Corpus is a loaded wordlist: the raw file bytes, which feed the cache
// fingerprint, and the tokenized entries, which feed training.
type Corpus struct {
	Raw     []byte
	Entries [][]string
}

// LoadCorpus reads the wordlist at path, splits it on delimiter and tokenizes
// each non-empty entry. Entries are trimmed and NFC-normalized so that
// composed and decomposed spellings of a character count as one token. An
// unreadable path yields an *IOError; a corpus without a single token yields
// ErrFormat.
func LoadCorpus(path, delimiter string, tokenizer Tokenizer) (*Corpus, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	entries, err := ParseCorpus(bytes.NewReader(raw), delimiter, tokenizer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &Corpus{Raw: raw, Entries: entries}, nil
}

// MaxEntryBytes is the longest single entry ParseCorpus accepts.
const MaxEntryBytes = 16 * 1024 * 1024

// ParseCorpus splits r into entries on delimiter and tokenizes them. An entry
// longer than MaxEntryBytes yields ErrFormat.
func ParseCorpus(r io.Reader, delimiter string, tokenizer Tokenizer) ([][]string, error) {
	if delimiter == "" {
		return nil, fmt.Errorf("%w: empty delimiter", ErrFormat)
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), MaxEntryBytes)
	scanner.Split(splitOn([]byte(delimiter)))

	var entries [][]string
	for scanner.Scan() {
		entry := strings.TrimSpace(norm.NFC.String(scanner.Text()))
		if entry == "" {
			continue
		}
		tokens := tokenizer.Split(entry)
		if len(tokens) == 0 {
			continue
		}
		entries = append(entries, tokens)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: corpus contains no entries", ErrFormat)
	}
	return entries, nil
}

// splitOn is a bufio.SplitFunc that cuts tokens at every occurrence of sep.
func splitOn(sep []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, sep); i >= 0 {
			return i + len(sep), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}

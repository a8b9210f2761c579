package markov

import (
	"go/build"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// writeCorpus writes content to a file in a fresh temporary directory and
// returns its path.
func writeCorpus(t testing.TB, content string) string {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write corpus: %v", err)
	}
	return path
}

// trainString tokenizes content and trains a model on it, failing the test on
// any error.
func trainString(t testing.TB, content string, params Parameters) *Model {
	tokenizer, err := NewTokenizer(params.Granularity)
	if err != nil {
		t.Fatalf("NewTokenizer() error = %v", err)
	}
	entries, err := ParseCorpus(strings.NewReader(content), DefaultDelimiter, tokenizer)
	if err != nil {
		t.Fatalf("ParseCorpus() error = %v", err)
	}
	model, err := Train(entries, params)
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	return model
}

// newRand returns a deterministic generator for tests.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

const namesCorpus = `ann
anna
anne
annabel
hannah
joanna
susanna
diana
dana
nadia
`

var (
	benchmarkCorpus string
	corpusOnce      sync.Once
)

// createBenchmarkCorpus collects identifiers from Go source files to create a
// wordlist for benchmarking.
func createBenchmarkCorpus() string {
	corpusOnce.Do(func() {
		var sb strings.Builder
		goRoot := build.Default.GOROOT
		filesToRead := []string{
			filepath.Join(goRoot, "src/net/http/server.go"),
			filepath.Join(goRoot, "src/go/parser/parser.go"),
			filepath.Join(goRoot, "src/encoding/json/encode.go"),
		}

		seen := make(map[string]struct{})
		for _, file := range filesToRead {
			content, err := os.ReadFile(file)
			if err != nil {
				continue
			}
			words := strings.FieldsFunc(string(content), func(r rune) bool {
				return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
			})
			for _, w := range words {
				w = strings.ToLower(w)
				if len(w) < 3 {
					continue
				}
				if _, ok := seen[w]; ok {
					continue
				}
				seen[w] = struct{}{}
				sb.WriteString(w)
				sb.WriteString("\n")
			}
		}
		if sb.Len() == 0 {
			sb.WriteString(strings.Repeat(namesCorpus, 10))
		}
		benchmarkCorpus = sb.String()
	})
	return benchmarkCorpus
}

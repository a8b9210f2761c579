package markov

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is matched (via errors.Is) by every *IOError.
	ErrIO = errors.New("markov: corpus unreadable")
	// ErrFormat reports an empty or otherwise unusable corpus.
	ErrFormat = errors.New("markov: invalid corpus")
	// ErrInvalidParameters reports training parameters outside their domain.
	ErrInvalidParameters = errors.New("markov: invalid model parameters")
	// ErrCacheMiss is returned by a Cache that holds no entry for a key.
	ErrCacheMiss = errors.New("markov: cache miss")
	// ErrCacheCorrupt reports a cache entry with the wrong version or
	// fingerprint, or one that fails to decode. It is always treated as a miss.
	ErrCacheCorrupt = errors.New("markov: cache entry corrupt")
	// ErrGenerationExhausted is returned when no sample satisfied the length
	// bounds within the attempt budget.
	ErrGenerationExhausted = errors.New("markov: generation attempts exhausted")
	// ErrInvalidLength reports unsatisfiable length bounds.
	ErrInvalidLength = errors.New("markov: invalid length bounds")
)

// IOError records a failure to read the corpus at Path.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("markov: could not read corpus %q: %v", e.Path, e.Err)
}

// Unwrap exposes the underlying filesystem error.
func (e *IOError) Unwrap() error { return e.Err }

// Is reports ErrIO as a match so callers don't need errors.As for the kind.
func (e *IOError) Is(target error) bool { return target == ErrIO }

package generators

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
)

// Digits returns n random decimal digits. Leading zeros are kept.
func Digits(rng *rand.Rand, n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, n)
	for i := range out {
		out[i] = pick(rng, numericChars)
	}
	return out
}

// Number returns a uniformly distributed integer in [minimum, maximum] in
// decimal.
func Number(rng *rand.Rand, minimum, maximum int64) ([]byte, error) {
	if minimum > maximum {
		return nil, fmt.Errorf("%w: %d > %d", ErrInvalidRange, minimum, maximum)
	}
	// Two's complement subtraction gives the width even when it overflows int64.
	span := uint64(maximum) - uint64(minimum)
	var offset uint64
	if span == math.MaxUint64 {
		offset = rng.Uint64()
	} else {
		offset = rng.Uint64N(span + 1)
	}
	return strconv.AppendInt(nil, int64(uint64(minimum)+offset), 10), nil
}

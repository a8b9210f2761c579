package generators

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/google/uuid"
)

// randReader adapts a *rand.Rand to io.Reader.
type randReader struct {
	rng *rand.Rand
}

func (r randReader) Read(p []byte) (int, error) {
	for i := 0; i < len(p); i += 8 {
		var chunk [8]byte
		binary.LittleEndian.PutUint64(chunk[:], r.rng.Uint64())
		copy(p[i:], chunk[:])
	}
	return len(p), nil
}

// UUID returns a random (version 4) UUID in its canonical string form, drawing
// its bits from rng.
func UUID(rng *rand.Rand) ([]byte, error) {
	id, err := uuid.NewRandomFromReader(randReader{rng: rng})
	if err != nil {
		return nil, err
	}
	return []byte(id.String()), nil
}

package generators

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"math/rand/v2"
)

// Bytes returns n random bytes.
func Bytes(rng *rand.Rand, n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	out := make([]byte, n)
	i := 0
	for ; i+8 <= n; i += 8 {
		binary.LittleEndian.PutUint64(out[i:], rng.Uint64())
	}
	if i < n {
		var tail [8]byte
		binary.LittleEndian.PutUint64(tail[:], rng.Uint64())
		copy(out[i:], tail[:])
	}
	return out
}

// Hex returns n random bytes as hexadecimal, so the result is 2n characters.
func Hex(rng *rand.Rand, upper bool, n int) []byte {
	raw := Bytes(rng, n)
	out := make([]byte, hex.EncodedLen(len(raw)))
	hex.Encode(out, raw)
	if upper {
		out = bytes.ToUpper(out)
	}
	return out
}

// Base64 returns n random bytes in padded base64, using the URL-safe alphabet
// when urlSafe is set.
func Base64(rng *rand.Rand, urlSafe bool, n int) []byte {
	encoding := base64.StdEncoding
	if urlSafe {
		encoding = base64.URLEncoding
	}
	raw := Bytes(rng, n)
	out := make([]byte, encoding.EncodedLen(len(raw)))
	encoding.Encode(out, raw)
	return out
}

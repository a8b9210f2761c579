package markov

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/pierrec/lz4/v4"
	"lukechampine.com/blake3"
)

// FormatVersion is bumped whenever the cache entry layout or the meaning of a
// trained model changes. Entries written under another version are misses.
const FormatVersion uint16 = 1

// entryMagic opens every cache entry.
var entryMagic = [4]byte{'F', 'B', 'M', 'K'}

// entryHeaderSize covers magic, version and fingerprint.
const entryHeaderSize = 4 + 2 + 32

// Fingerprint identifies a (corpus, parameters) pair. Equal fingerprints
// guarantee that training reproduces an identical Model.
type Fingerprint [32]byte

// String returns the fingerprint as lowercase hex.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// ComputeFingerprint hashes the corpus bytes together with every input that
// influences training. Variable-length fields are length-prefixed so that no
// two distinct inputs share an encoding.
func ComputeFingerprint(corpus []byte, params Parameters, delimiter string) Fingerprint {
	params = params.normalized()
	h := blake3.New(32, nil)

	var scratch [8]byte
	writeBytes := func(b []byte) {
		binary.BigEndian.PutUint64(scratch[:], uint64(len(b)))
		_, _ = h.Write(scratch[:])
		_, _ = h.Write(b)
	}
	writeUint := func(v uint64) {
		binary.BigEndian.PutUint64(scratch[:], v)
		_, _ = h.Write(scratch[:])
	}

	writeBytes([]byte("fabricate/markov"))
	writeUint(uint64(FormatVersion))
	writeBytes(corpus)
	writeUint(uint64(params.Order))
	writeUint(math.Float64bits(params.Prior))
	if params.Backoff {
		writeUint(1)
	} else {
		writeUint(0)
	}
	writeBytes([]byte(delimiter))
	writeBytes([]byte(params.Granularity))

	var fp Fingerprint
	copy(fp[:], h.Sum(nil))
	return fp
}

// CacheKey addresses one cache entry.
type CacheKey struct {
	// Source is the corpus path. It only names the entry; validity is decided
	// by Fingerprint alone.
	Source      string
	Fingerprint Fingerprint
}

// CacheControl selects how a Generator uses its Cache for one invocation.
type CacheControl struct {
	// NoCache neither reads nor writes the cache.
	NoCache bool
	// RebuildCache skips reading but still writes the fresh model.
	RebuildCache bool
}

// Cache persists trained models. Load returns ErrCacheMiss when no entry
// exists and an error wrapping ErrCacheCorrupt when one exists but cannot be
// used; callers treat both as a miss.
type Cache interface {
	Load(ctx context.Context, key CacheKey) (*Model, error)
	Store(ctx context.Context, key CacheKey, model *Model) error
}

// Locker is implemented by caches that can serialize resolution of one key
// across processes. The returned function releases the lock.
type Locker interface {
	Lock(ctx context.Context, key CacheKey) (func(), error)
}

// CacheEntryInfo describes a stored cache entry.
type CacheEntryInfo struct {
	Location      string
	Source        string
	Fingerprint   string
	FormatVersion uint16
	Size          int64
	ModTime       time.Time
}

// encodedModel is the serialized form of a Model. Field numbers are stable
// across releases; FormatVersion guards their meaning.
type encodedModel struct {
	Order       int            `cbor:"1,keyasint"`
	Prior       float64        `cbor:"2,keyasint"`
	Backoff     bool           `cbor:"3,keyasint"`
	Granularity string         `cbor:"4,keyasint"`
	Vocabulary  []string       `cbor:"5,keyasint"`
	Tables      []encodedTable `cbor:"6,keyasint"`
}

type encodedTable struct {
	Level    int              `cbor:"1,keyasint"`
	Contexts []encodedContext `cbor:"2,keyasint"`
}

type encodedContext struct {
	Context []TokenID `cbor:"1,keyasint"`
	Tokens  []TokenID `cbor:"2,keyasint"`
	Counts  []uint32  `cbor:"3,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		MaxArrayElements: math.MaxInt32,
		MaxMapPairs:      math.MaxInt32,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// EncodeEntry writes a cache entry for model to w: magic, format version,
// fingerprint, then the LZ4-compressed deterministic CBOR encoding of the
// model. Equal models always encode to identical bytes.
func EncodeEntry(w io.Writer, fp Fingerprint, model *Model) error {
	payload, err := encMode.Marshal(model.encode())
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	var header [entryHeaderSize]byte
	copy(header[:4], entryMagic[:])
	binary.BigEndian.PutUint16(header[4:6], FormatVersion)
	copy(header[6:], fp[:])
	if _, err = w.Write(header[:]); err != nil {
		return err
	}

	zw := lz4.NewWriter(w)
	if _, err = zw.Write(payload); err != nil {
		return fmt.Errorf("compression failed: %w", err)
	}
	return zw.Close()
}

// DecodeEntry reads a cache entry from r and returns its model if, and only
// if, the entry carries the current FormatVersion and exactly fp. Every
// failure wraps ErrCacheCorrupt.
func DecodeEntry(r io.Reader, fp Fingerprint) (*Model, error) {
	var header [entryHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCacheCorrupt, err)
	}
	if !bytes.Equal(header[:4], entryMagic[:]) {
		return nil, fmt.Errorf("%w: bad magic", ErrCacheCorrupt)
	}
	if v := binary.BigEndian.Uint16(header[4:6]); v != FormatVersion {
		return nil, fmt.Errorf("%w: format version %d, want %d", ErrCacheCorrupt, v, FormatVersion)
	}
	if !bytes.Equal(header[6:], fp[:]) {
		return nil, fmt.Errorf("%w: fingerprint mismatch", ErrCacheCorrupt)
	}

	payload, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: decompression failed: %v", ErrCacheCorrupt, err)
	}
	var encoded encodedModel
	if err = decMode.Unmarshal(payload, &encoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	model, err := encoded.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheCorrupt, err)
	}
	return model, nil
}

// readEntryHeader returns the version and fingerprint of an entry without
// decoding its payload.
func readEntryHeader(r io.Reader) (uint16, Fingerprint, error) {
	var header [entryHeaderSize]byte
	var fp Fingerprint
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, fp, err
	}
	if !bytes.Equal(header[:4], entryMagic[:]) {
		return 0, fp, fmt.Errorf("%w: bad magic", ErrCacheCorrupt)
	}
	copy(fp[:], header[6:])
	return binary.BigEndian.Uint16(header[4:6]), fp, nil
}

func (m *Model) encode() encodedModel {
	encoded := encodedModel{
		Order:       m.params.Order,
		Prior:       m.params.Prior,
		Backoff:     m.params.Backoff,
		Granularity: string(m.params.Granularity),
		Vocabulary:  m.vocabulary,
	}
	for k, t := range m.tables {
		if t == nil {
			continue
		}
		table := encodedTable{Level: k, Contexts: make([]encodedContext, 0, len(t))}
		for _, c := range t.sortedContexts() {
			d := t[c]
			table.Contexts = append(table.Contexts, encodedContext{
				Context: slices.Clone(c[:k]),
				Tokens:  d.tokens,
				Counts:  d.counts,
			})
		}
		encoded.Tables = append(encoded.Tables, table)
	}
	return encoded
}

// decode rebuilds a Model and checks every invariant a trained model holds,
// so a well-formed but inconsistent payload is still rejected.
func (e encodedModel) decode() (*Model, error) {
	params := Parameters{
		Order:       e.Order,
		Prior:       e.Prior,
		Backoff:     e.Backoff,
		Granularity: Granularity(e.Granularity),
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(e.Vocabulary) <= int(EndTokenID)+1 {
		return nil, fmt.Errorf("vocabulary has %d entries", len(e.Vocabulary))
	}

	candidates := len(e.Vocabulary) - 1
	want := params.levels()
	if len(e.Tables) != len(want) {
		return nil, fmt.Errorf("model has %d tables, want %d", len(e.Tables), len(want))
	}

	model := &Model{
		params:     params,
		vocabulary: e.Vocabulary,
		tables:     make([]Table, params.Order+1),
	}
	for i, et := range e.Tables {
		if et.Level != want[i] {
			return nil, fmt.Errorf("table %d has level %d, want %d", i, et.Level, want[i])
		}
		table := make(Table, len(et.Contexts))
		for _, ec := range et.Contexts {
			if len(ec.Context) != et.Level {
				return nil, fmt.Errorf("context of length %d in level %d", len(ec.Context), et.Level)
			}
			if len(ec.Tokens) == 0 && params.Prior == 0 {
				return nil, fmt.Errorf("empty distribution in level %d", et.Level)
			}
			if len(ec.Tokens) != len(ec.Counts) {
				return nil, fmt.Errorf("distribution has %d tokens and %d counts", len(ec.Tokens), len(ec.Counts))
			}
			for j, t := range ec.Tokens {
				if t == StartTokenID || int(t) > candidates || (j > 0 && ec.Tokens[j-1] >= t) {
					return nil, fmt.Errorf("invalid successor %d in level %d", t, et.Level)
				}
				if ec.Counts[j] == 0 {
					return nil, fmt.Errorf("zero count in level %d", et.Level)
				}
			}
			var c Context
			for j, t := range ec.Context {
				if int(t) > candidates {
					return nil, fmt.Errorf("invalid context token %d in level %d", t, et.Level)
				}
				c[j] = t
			}
			if _, dup := table[c]; dup {
				return nil, fmt.Errorf("duplicate context in level %d", et.Level)
			}
			table[c] = newDistribution(ec.Tokens, ec.Counts, params.Prior, candidates)
		}
		model.tables[et.Level] = table
	}
	if model.tables[params.Order] == nil || len(model.tables[params.Order]) == 0 {
		return nil, fmt.Errorf("missing order %d table", params.Order)
	}
	if !params.Backoff && params.Prior > 0 {
		model.smoothing = newDistribution(nil, nil, params.Prior, candidates)
	}
	return model, nil
}

package emit

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

var errOdd = errors.New("odd task")

func TestSerial(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Serial(&buf, func() ([]byte, error) { return []byte("hello"), nil }))
	require.Equal(t, "hello", buf.String())

	buf.Reset()
	err := Serial(&buf, func() ([]byte, error) { return nil, errOdd })
	require.ErrorIs(t, err, errOdd)
	require.Zero(t, buf.Len())
}

func TestParallel_Separator(t *testing.T) {
	for _, count := range []int{1, 2, 7, 100} {
		var buf bytes.Buffer
		err := Parallel(context.Background(), &buf, count, Options{Workers: 4}, func(*rand.Rand) ([]byte, error) {
			return []byte("x"), nil
		})
		require.NoError(t, err)
		require.Equal(t, strings.TrimSuffix(strings.Repeat("x\n", count), "\n"), buf.String())
	}
}

func TestParallel_CustomSeparator(t *testing.T) {
	var buf bytes.Buffer
	err := Parallel(context.Background(), &buf, 3, Options{Separator: []byte(", ")}, func(*rand.Rand) ([]byte, error) {
		return []byte("ab"), nil
	})
	require.NoError(t, err)
	require.Equal(t, "ab, ab, ab", buf.String())
}

func TestParallel_Zero(t *testing.T) {
	var buf bytes.Buffer
	called := false
	err := Parallel(context.Background(), &buf, 0, Options{}, func(*rand.Rand) ([]byte, error) {
		called = true
		return nil, nil
	})
	require.NoError(t, err)
	require.False(t, called)
	require.Zero(t, buf.Len())
}

func TestParallel_FailuresDoNotStopSiblings(t *testing.T) {
	var buf bytes.Buffer
	var calls atomic.Int64
	err := Parallel(context.Background(), &buf, 10, Options{Workers: 3}, func(*rand.Rand) ([]byte, error) {
		if n := calls.Add(1); n%2 == 1 {
			return nil, errOdd
		}
		return []byte("ok"), nil
	})
	require.ErrorIs(t, err, errOdd)
	require.EqualValues(t, 10, calls.Load())
	require.Equal(t, "ok\nok\nok\nok\nok", buf.String())
}

func TestParallel_AllFail(t *testing.T) {
	var buf bytes.Buffer
	err := Parallel(context.Background(), &buf, 4, Options{}, func(*rand.Rand) ([]byte, error) {
		return nil, errOdd
	})
	require.ErrorIs(t, err, errOdd)
	require.Zero(t, buf.Len())
}

func TestParallel_Seeded(t *testing.T) {
	run := func(seed uint64, workers int) []string {
		var buf bytes.Buffer
		err := Parallel(context.Background(), &buf, 50, Options{Workers: workers, Seed: &seed}, func(rng *rand.Rand) ([]byte, error) {
			return []byte(strconv.FormatUint(rng.Uint64(), 16)), nil
		})
		require.NoError(t, err)
		lines := strings.Split(buf.String(), "\n")
		slices.Sort(lines)
		return lines
	}

	first := run(7, 8)
	require.Len(t, first, 50)
	require.Equal(t, first, run(7, 1), "same seed must give the same records regardless of workers")
	require.NotEqual(t, first, run(8, 8))
	require.Len(t, slices.Compact(slices.Clone(first)), 50, "tasks must not share a random source")
}

func TestParallel_Unseeded(t *testing.T) {
	var buf bytes.Buffer
	err := Parallel(context.Background(), &buf, 20, Options{}, func(rng *rand.Rand) ([]byte, error) {
		return []byte(strconv.FormatUint(rng.Uint64(), 16)), nil
	})
	require.NoError(t, err)
	lines := strings.Split(buf.String(), "\n")
	slices.Sort(lines)
	require.Len(t, slices.Compact(lines), 20)
}

func TestParallel_LargeRecords(t *testing.T) {
	record := bytes.Repeat([]byte("z"), BufferSize+123)
	var buf bytes.Buffer
	err := Parallel(context.Background(), &buf, 3, Options{Workers: 2}, func(*rand.Rand) ([]byte, error) {
		return record, nil
	})
	require.NoError(t, err)
	require.Equal(t, 3*len(record)+2, buf.Len())
}

func TestParallel_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := Parallel(ctx, &buf, 5, Options{}, func(*rand.Rand) ([]byte, error) {
		return []byte("late"), nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, buf.Len())
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestParallel_WriteError(t *testing.T) {
	err := Parallel(context.Background(), brokenWriter{}, 5, Options{}, func(*rand.Rand) ([]byte, error) {
		return bytes.Repeat([]byte("w"), BufferSize), nil
	})
	require.ErrorContains(t, err, "broken pipe")
}

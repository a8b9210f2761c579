// Package emit runs output-producing tasks and streams their results to a
// writer. Parallel fans a task out over a bounded worker pool in which every
// task owns its random source; results are written by a single consumer as
// they arrive, separated by a separator that never trails the last record.
package emit

import (
	"bufio"
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BufferSize is the size of the buffer placed in front of the output writer.
const BufferSize = 64 * 1024

// Task produces one record using rng. rng belongs to the task alone.
type Task func(rng *rand.Rand) ([]byte, error)

// Options configures Parallel.
type Options struct {
	// Workers bounds how many tasks run at once. Zero or less means
	// runtime.GOMAXPROCS(0).
	Workers int
	// Seed makes every task's random source a pure function of the seed and the
	// task's index. Nil seeds every task from crypto/rand.
	Seed *uint64
	// Separator is written between consecutive records. Nil means "\n".
	Separator []byte
	// Logger receives per-task failures at debug level. Nil discards them.
	Logger *slog.Logger
}

type result struct {
	index int
	data  []byte
	err   error
}

// Serial runs fn once and writes its result to w.
func Serial(w io.Writer, fn func() ([]byte, error)) error {
	data, err := fn()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Parallel runs fn count times with at most opts.Workers tasks in flight and
// writes every successful record to w. Output order follows completion order.
//
// A failing task never stops its siblings. Once all tasks have finished, the
// failures are returned joined together, alongside any error from writing to w.
// Cancelling ctx stops tasks that have not started yet; they report ctx.Err().
func Parallel(ctx context.Context, w io.Writer, count int, opts Options, fn Task) error {
	if count <= 0 {
		return nil
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, count)
	separator := opts.Separator
	if separator == nil {
		separator = []byte("\n")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	results := make(chan result, workers)

	var g errgroup.Group
	g.SetLimit(workers)
	go func() {
		for i := 0; i < count; i++ {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					results <- result{index: i, err: err}
					return nil
				}
				rng, err := newRand(opts.Seed, i)
				if err != nil {
					results <- result{index: i, err: err}
					return nil
				}
				data, err := fn(rng)
				results <- result{index: i, data: data, err: err}
				return nil
			})
		}
	}()

	out := bufio.NewWriterSize(w, BufferSize)
	var (
		failures []error
		writeErr error
		written  int
	)
	// Every task sends exactly one result, so the consumer stops after count
	// receives without needing the channel to be closed.
	for n := 0; n < count; n++ {
		r := <-results
		if r.err != nil {
			logger.Debug("Task failed", slog.Int("task", r.index), slog.String("error", r.err.Error()))
			failures = append(failures, fmt.Errorf("task %d: %w", r.index, r.err))
			continue
		}
		if writeErr != nil {
			continue
		}
		if written > 0 {
			if _, writeErr = out.Write(separator); writeErr != nil {
				continue
			}
		}
		if _, writeErr = out.Write(r.data); writeErr == nil {
			written++
		}
	}
	_ = g.Wait()

	if writeErr == nil {
		writeErr = out.Flush()
	}
	if writeErr != nil {
		failures = append(failures, fmt.Errorf("write output: %w", writeErr))
	}
	return errors.Join(failures...)
}

// newRand returns the random source for task index. With a seed the source is
// derived from the seed and the index alone.
func newRand(seed *uint64, index int) (*rand.Rand, error) {
	var key [32]byte
	if seed != nil {
		binary.LittleEndian.PutUint64(key[0:8], *seed)
		binary.LittleEndian.PutUint64(key[8:16], uint64(index))
		copy(key[16:], "fabricate/emit\x00\x00")
	} else if _, err := crand.Read(key[:]); err != nil {
		return nil, fmt.Errorf("seed random source: %w", err)
	}
	return rand.New(rand.NewChaCha8(key)), nil
}

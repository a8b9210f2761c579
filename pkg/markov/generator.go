package markov

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"
)

// generatorOptions Is used by NewGenerator to configure default options.
type generatorOptions struct {
	cache     Cache
	logger    *slog.Logger
	delimiter string
}

// Option is a function that configures NewGenerator.
type Option func(*generatorOptions)

// WithCache sets the cache used to load and store models. Without one every
// invocation trains from scratch.
func WithCache(c Cache) Option {
	return func(o *generatorOptions) { o.cache = c }
}

// WithLogger sets the logger. By default, all logs are discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *generatorOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithDelimiter sets the corpus entry delimiter.
// Default: "\n"
func WithDelimiter(delimiter string) Option {
	return func(o *generatorOptions) { o.delimiter = delimiter }
}

// Generator is the main entry point for generating pseudo-words. It holds a
// resolved, immutable Model; Generate may be called concurrently from any
// number of goroutines.
type Generator struct {
	model       *Model
	fingerprint Fingerprint
	fromCache   bool
	logger      *slog.Logger
}

// NewGenerator resolves a Model for the corpus at path and returns a Generator
// bound to it. It fingerprints the corpus and parameters, consults the cache
// unless cc suppresses it, trains on a miss, and stores the result unless
// cc.NoCache is set. Cache problems of any kind are logged and never fatal;
// an unreadable or empty corpus is.
func NewGenerator(ctx context.Context, path string, params Parameters, cc CacheControl, opts ...Option) (*Generator, error) {
	options := &generatorOptions{
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		delimiter: DefaultDelimiter,
	}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	params = params.normalized()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	tokenizer, err := NewTokenizer(params.Granularity)
	if err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}

	fp := ComputeFingerprint(raw, params, options.delimiter)
	key := CacheKey{Source: path, Fingerprint: fp}
	g := &Generator{fingerprint: fp, logger: logger}

	useCache := options.cache != nil && !cc.NoCache
	if useCache {
		if locker, ok := options.cache.(Locker); ok {
			unlock, err := locker.Lock(ctx, key)
			if err != nil {
				logger.WarnContext(ctx, "Proceeding without cache lock", slog.String("error", err.Error()))
			} else {
				defer unlock()
			}
		}
	}

	if useCache && !cc.RebuildCache {
		model, err := options.cache.Load(ctx, key)
		switch {
		case err == nil:
			logger.DebugContext(ctx, "Model loaded from cache",
				slog.String("source", path),
				slog.String("fingerprint", fp.String()),
			)
			g.model = model
			g.fromCache = true
			return g, nil
		case errors.Is(err, ErrCacheMiss):
			logger.DebugContext(ctx, "Model cache miss",
				slog.String("source", path),
				slog.String("fingerprint", fp.String()),
			)
		default:
			logger.WarnContext(ctx, "Discarding unusable cache entry",
				slog.String("source", path),
				slog.String("error", err.Error()),
			)
		}
	}

	start := time.Now()
	entries, err := ParseCorpus(bytes.NewReader(raw), options.delimiter, tokenizer)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	model, err := Train(entries, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.model = model

	logger.InfoContext(ctx, "Training completed",
		slog.String("source", path),
		slog.Int("entries", len(entries)),
		slog.Int("vocabulary", model.VocabularySize()-2),
		slog.Int("order", params.Order),
		slog.Bool("backoff", params.Backoff),
		slog.Duration("elapsed", time.Since(start)),
	)

	if useCache {
		if err := options.cache.Store(ctx, key, model); err != nil {
			logger.WarnContext(ctx, "Failed to store model in cache",
				slog.String("source", path),
				slog.String("error", err.Error()),
			)
		} else {
			logger.DebugContext(ctx, "Model stored in cache",
				slog.String("source", path),
				slog.String("fingerprint", fp.String()),
			)
		}
	}

	return g, nil
}

// NewGeneratorFromModel wraps an already resolved model, e.g. one decoded
// with DecodeEntry. Its Fingerprint is the zero value.
func NewGeneratorFromModel(model *Model) *Generator {
	return &Generator{
		model:  model,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Generate produces one pseudo-word using rng. rng must not be shared with
// other goroutines; the model is.
func (g *Generator) Generate(rng *rand.Rand, opts ...GenerateOption) ([]byte, error) {
	word, err := g.model.Sample(rng, opts...)
	if errors.Is(err, ErrGenerationExhausted) {
		g.logger.Debug("Generation exhausted",
			slog.String("fingerprint", g.fingerprint.String()),
			slog.String("error", err.Error()),
		)
	}
	return word, err
}

// Model returns the resolved model.
func (g *Generator) Model() *Model { return g.model }

// Fingerprint returns the fingerprint the model was resolved under.
func (g *Generator) Fingerprint() Fingerprint { return g.fingerprint }

// FromCache reports whether the model was loaded rather than trained.
func (g *Generator) FromCache() bool { return g.fromCache }

// SetLogger sets the logger for the Generator. It must not be called while
// Generate is running.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

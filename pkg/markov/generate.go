package markov

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultMaxAttempts bounds how many walks Sample makes before giving up on
// satisfying the minimum length.
const DefaultMaxAttempts = 1000

// generateOptions Is used by the generate functions to configure default options.
type generateOptions struct {
	minLength   int
	maxLength   int
	maxAttempts int
	capitalize  bool
	temperature float64
	topK        int
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument in Model.Sample and Generator.Generate.
type GenerateOption func(*generateOptions)

// WithMinLength sets the minimum number of tokens a result must contain.
// Shorter walks are discarded and retried.
func WithMinLength(n int) GenerateOption {
	return func(o *generateOptions) { o.minLength = n }
}

// WithMaxLength sets the maximum number of tokens to generate. A walk that
// reaches it is truncated there.
func WithMaxLength(n int) GenerateOption {
	return func(o *generateOptions) { o.maxLength = n }
}

// WithCapitalize upper-cases the first token of the result.
func WithCapitalize(capitalize bool) GenerateOption {
	return func(o *generateOptions) { o.capitalize = capitalize }
}

// WithTemperature adjusts the randomness of the token selection.
// A value of 1.0 is standard weighted random selection.
// Values > 1.0 flatten the distribution, making rare successors more likely.
// Values < 1.0 sharpen it toward the most frequent successors.
// A value of 0 or less always picks the most frequent successor.
func WithTemperature(t float64) GenerateOption {
	return func(o *generateOptions) { o.temperature = t }
}

// WithTopK restricts every draw to the k heaviest successors of the current
// context. A value of 0 disables Top-K sampling.
func WithTopK(k int) GenerateOption {
	return func(o *generateOptions) { o.topK = k }
}

// WithMaxAttempts overrides DefaultMaxAttempts.
func WithMaxAttempts(n int) GenerateOption {
	return func(o *generateOptions) { o.maxAttempts = n }
}

// Sample performs weighted random walks over the model until one produces
// between the minimum and maximum number of tokens, and returns it rendered
// as bytes. Each walk starts from the all-START context, resolves the longest
// built suffix of the current context, and draws the next token from it,
// stopping at END or at the maximum length.
//
// Sample only reads the model, so concurrent calls are safe as long as each
// caller supplies its own rng.
func (m *Model) Sample(rng *rand.Rand, opts ...GenerateOption) ([]byte, error) {
	options := &generateOptions{
		minLength:   1,
		maxLength:   100,
		maxAttempts: DefaultMaxAttempts,
		temperature: 1.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.minLength < 0 || options.maxLength < 1 || options.minLength > options.maxLength {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrInvalidLength, options.minLength, options.maxLength)
	}
	if math.IsNaN(options.temperature) || math.IsInf(options.temperature, 0) {
		return nil, fmt.Errorf("%w: temperature %v must be finite", ErrInvalidParameters, options.temperature)
	}
	if options.topK < 0 {
		return nil, fmt.Errorf("%w: top-k %d must be >= 0", ErrInvalidParameters, options.topK)
	}
	if options.maxAttempts < 1 {
		options.maxAttempts = 1
	}

	tokens := make([]TokenID, 0, options.maxLength)
	for attempt := 0; attempt < options.maxAttempts; attempt++ {
		tokens = m.walk(rng, options, tokens)
		if len(tokens) >= options.minLength {
			return m.render(tokens, options.capitalize), nil
		}
	}
	return nil, fmt.Errorf("%w: no result of length [%d, %d] in %d attempts",
		ErrGenerationExhausted, options.minLength, options.maxLength, options.maxAttempts)
}

// walk generates one token sequence into out, reusing its storage.
func (m *Model) walk(rng *rand.Rand, options *generateOptions, out []TokenID) []TokenID {
	order := m.params.Order
	shaped := options.temperature != 1 || options.topK > 0
	var window Context // all START
	out = out[:0]

	for len(out) < options.maxLength {
		d := m.resolve(&window)
		if d == nil { // Dead end, only possible in a flat model without a prior.
			break
		}
		var next TokenID
		if shaped {
			next = d.shapedDraw(rng, options.temperature, options.topK)
		} else {
			next = d.draw(rng)
		}
		if next == EndTokenID {
			break
		}
		out = append(out, next)

		copy(window[:order-1], window[1:order])
		window[order-1] = next
	}
	return out
}

// render joins tokens with the granularity's separator.
func (m *Model) render(tokens []TokenID, capitalize bool) []byte {
	separator := ""
	if tokenizer, err := NewTokenizer(m.params.Granularity); err == nil {
		separator = tokenizer.Separator()
	}

	var builder strings.Builder
	for i, id := range tokens {
		if i > 0 {
			builder.WriteString(separator)
		}
		text := m.vocabulary[id]
		if i == 0 && capitalize {
			// Casers are stateful, so one per call keeps Sample goroutine-safe.
			text = cases.Title(language.Und, cases.NoLower).String(text)
		}
		builder.WriteString(text)
	}
	return []byte(builder.String())
}

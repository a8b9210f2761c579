package markov

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// MaxOrder is the largest supported model order. Contexts are fixed-size
// arrays of this length so they can be used directly as map keys.
const MaxOrder = 16

// Parameters are the training inputs that, together with the corpus bytes and
// delimiter, fully determine a Model.
type Parameters struct {
	// Order is the number of preceding tokens used as context.
	Order int
	// Prior is the additive smoothing weight given to every successor
	// candidate of every context.
	Prior float64
	// Backoff builds every table from 0 to Order so that unseen contexts fall
	// back to shorter ones. Without it only the Order table is built.
	Backoff bool
	// Granularity selects character or word tokens.
	Granularity Granularity
}

// Validate reports whether the parameters can be trained.
func (p Parameters) Validate() error {
	if p.Order < 1 || p.Order > MaxOrder {
		return fmt.Errorf("%w: order %d outside [1, %d]", ErrInvalidParameters, p.Order, MaxOrder)
	}
	if p.Prior < 0 || math.IsNaN(p.Prior) || math.IsInf(p.Prior, 0) {
		return fmt.Errorf("%w: prior %v must be a finite value >= 0", ErrInvalidParameters, p.Prior)
	}
	if _, err := NewTokenizer(p.Granularity); err != nil {
		return err
	}
	return nil
}

// normalized fills in defaults that must not change the fingerprint.
func (p Parameters) normalized() Parameters {
	if p.Granularity == "" {
		p.Granularity = Character
	}
	return p
}

// levels returns the table levels trained under these parameters.
func (p Parameters) levels() []int {
	if !p.Backoff {
		return []int{p.Order}
	}
	levels := make([]int, 0, p.Order+1)
	for k := 0; k <= p.Order; k++ {
		levels = append(levels, k)
	}
	return levels
}

// Context is an immutable tuple of preceding token IDs. A table at level k
// only holds contexts whose first k slots are meaningful; the rest are zero.
type Context [MaxOrder]TokenID

// compareContexts orders two contexts of the same level lexicographically.
func compareContexts(a, b Context) int {
	for i := range a {
		if c := cmp.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// Distribution is the weighted set of successors for one context. Observed
// successors carry their count plus the prior; every other successor candidate
// carries the prior alone.
type Distribution struct {
	// tokens are the observed successors in ascending ID order.
	tokens []TokenID
	// counts are the observation counts, parallel to tokens.
	counts []uint32

	prior      float64
	candidates int
	cumulative []float64
}

func newDistribution(tokens []TokenID, counts []uint32, prior float64, candidates int) *Distribution {
	d := &Distribution{
		tokens:     tokens,
		counts:     counts,
		prior:      prior,
		candidates: candidates,
		cumulative: make([]float64, len(tokens)),
	}
	var running float64
	for i, c := range counts {
		running += float64(c) + prior
		d.cumulative[i] = running
	}
	return d
}

// Successors returns a copy of the observed successors in ascending ID order.
func (d *Distribution) Successors() []TokenID {
	return slices.Clone(d.tokens)
}

// Count returns how many times t was observed after this context.
func (d *Distribution) Count(t TokenID) uint32 {
	if i, ok := slices.BinarySearch(d.tokens, t); ok {
		return d.counts[i]
	}
	return 0
}

// Weight returns the sampling weight of token t.
func (d *Distribution) Weight(t TokenID) float64 {
	if t == StartTokenID || int(t) > d.candidates {
		return 0
	}
	if i, ok := slices.BinarySearch(d.tokens, t); ok {
		return float64(d.counts[i]) + d.prior
	}
	return d.prior
}

// Total returns the sum of all weights, including the prior mass of
// unobserved successors.
func (d *Distribution) Total() float64 {
	return d.observedMass() + d.prior*float64(d.candidates-len(d.tokens))
}

func (d *Distribution) observedMass() float64 {
	if len(d.cumulative) == 0 {
		return 0
	}
	return d.cumulative[len(d.cumulative)-1]
}

// draw picks a successor with probability proportional to its weight.
func (d *Distribution) draw(rng *rand.Rand) TokenID {
	observed := d.observedMass()
	r := rng.Float64() * d.Total()

	unobserved := d.candidates - len(d.tokens)
	if r < observed || unobserved <= 0 || d.prior == 0 {
		i := sort.Search(len(d.cumulative), func(i int) bool { return d.cumulative[i] > r })
		if i == len(d.cumulative) {
			i--
		}
		return d.tokens[i]
	}

	j := int((r - observed) / d.prior)
	if j >= unobserved {
		j = unobserved - 1
	}
	return d.unobservedID(j)
}

// unobservedID returns the j-th candidate ID, counting up from EndTokenID,
// that was never observed after this context.
func (d *Distribution) unobservedID(j int) TokenID {
	id := EndTokenID + TokenID(j)
	for _, t := range d.tokens {
		if t > id {
			break
		}
		id++
	}
	return id
}

// shapedDraw picks a successor from the topK heaviest candidates (all of them
// when topK <= 0) with every weight raised to the power 1/temperature. A
// temperature <= 0 always picks the heaviest candidate, lowest ID first.
//
// Observed successors always outweigh prior-only ones, so the pool is the
// heaviest observed successors followed by the lowest unobserved IDs.
func (d *Distribution) shapedDraw(rng *rand.Rand, temperature float64, topK int) TokenID {
	pool := make([]int, len(d.tokens))
	for i := range pool {
		pool[i] = i
	}
	unobserved := 0
	if d.prior > 0 {
		unobserved = d.candidates - len(d.tokens)
	}
	if topK > 0 {
		slices.SortStableFunc(pool, func(a, b int) int { return cmp.Compare(d.counts[b], d.counts[a]) })
		if len(pool) > topK {
			pool = pool[:topK]
		}
		unobserved = min(unobserved, topK-len(pool))
	}

	if temperature <= 0 {
		if len(pool) == 0 {
			return d.unobservedID(0)
		}
		best := pool[0]
		for _, i := range pool[1:] {
			if d.counts[i] > d.counts[best] {
				best = i
			}
		}
		return d.tokens[best]
	}

	// Weights are shaped in log space and scaled by the largest one, which
	// keeps w^(1/temperature) finite for small temperatures.
	exponent := 1 / temperature
	logs := make([]float64, len(pool))
	maxLog := math.Inf(-1)
	for n, i := range pool {
		logs[n] = math.Log(float64(d.counts[i])+d.prior) * exponent
		maxLog = max(maxLog, logs[n])
	}
	var priorLog float64
	if unobserved > 0 {
		priorLog = math.Log(d.prior) * exponent
		maxLog = max(maxLog, priorLog)
	}

	cumulative := make([]float64, len(pool))
	var running float64
	for n, l := range logs {
		running += math.Exp(l - maxLog)
		cumulative[n] = running
	}
	var priorWeight float64
	if unobserved > 0 {
		priorWeight = math.Exp(priorLog - maxLog)
	}

	r := rng.Float64() * (running + priorWeight*float64(unobserved))
	if r < running || unobserved == 0 {
		n := sort.Search(len(cumulative), func(n int) bool { return cumulative[n] > r })
		if n == len(cumulative) {
			n--
		}
		return d.tokens[pool[n]]
	}
	j := min(int((r-running)/priorWeight), unobserved-1)
	return d.unobservedID(j)
}

func (d *Distribution) equal(o *Distribution) bool {
	return d.prior == o.prior &&
		d.candidates == o.candidates &&
		slices.Equal(d.tokens, o.tokens) &&
		slices.Equal(d.counts, o.counts)
}

// Table maps contexts of one length to their distributions.
type Table map[Context]*Distribution

// sortedContexts returns the table's contexts in a stable order.
func (t Table) sortedContexts() []Context {
	contexts := make([]Context, 0, len(t))
	for c := range t {
		contexts = append(contexts, c)
	}
	slices.SortFunc(contexts, compareContexts)
	return contexts
}

// Model is a trained Markov model. It is never modified after Train or a
// cache decode returns it, so one *Model may be shared by any number of
// goroutines.
type Model struct {
	params     Parameters
	vocabulary []string
	tables     []Table
	// smoothing answers contexts missing from a flat (non-backoff) model when
	// the prior is positive. It has no observations.
	smoothing *Distribution
}

// Parameters returns the parameters the model was trained with.
func (m *Model) Parameters() Parameters { return m.params }

// Order returns the model order.
func (m *Model) Order() int { return m.params.Order }

// VocabularySize returns the number of tokens, sentinels included.
func (m *Model) VocabularySize() int { return len(m.vocabulary) }

// TokenText returns the text of a token ID.
func (m *Model) TokenText(id TokenID) string {
	if int(id) >= len(m.vocabulary) {
		return ""
	}
	return m.vocabulary[id]
}

// TokenID looks up the ID of an ordinary token.
func (m *Model) TokenID(text string) (TokenID, bool) {
	for i := int(EndTokenID) + 1; i < len(m.vocabulary); i++ {
		if m.vocabulary[i] == text {
			return TokenID(i), true
		}
	}
	return 0, false
}

// Table returns the table for contexts of length k, or nil if that level was
// not built.
func (m *Model) Table(k int) Table {
	if k < 0 || k >= len(m.tables) {
		return nil
	}
	return m.tables[k]
}

// Lookup returns the distribution recorded for the given context tokens at
// level len(tokens).
func (m *Model) Lookup(tokens ...TokenID) (*Distribution, bool) {
	t := m.Table(len(tokens))
	if t == nil {
		return nil, false
	}
	var c Context
	copy(c[:], tokens)
	d, ok := t[c]
	return d, ok
}

// resolve returns the distribution for the longest built suffix of window.
// window holds the last Order tokens, oldest first.
func (m *Model) resolve(window *Context) *Distribution {
	order := m.params.Order
	for k := order; k >= 0; k-- {
		t := m.tables[k]
		if t == nil {
			continue
		}
		var c Context
		copy(c[:k], window[order-k:order])
		if d, ok := t[c]; ok {
			return d
		}
	}
	return m.smoothing
}

// Equal reports whether two models hold identical parameters, vocabularies
// and distributions.
func (m *Model) Equal(o *Model) bool {
	if m.params != o.params || !slices.Equal(m.vocabulary, o.vocabulary) || len(m.tables) != len(o.tables) {
		return false
	}
	for k := range m.tables {
		a, b := m.tables[k], o.tables[k]
		if (a == nil) != (b == nil) || len(a) != len(b) {
			return false
		}
		for c, d := range a {
			od, ok := b[c]
			if !ok || !d.equal(od) {
				return false
			}
		}
	}
	return true
}

// ModelStats holds aggregated statistics for a Model.
type ModelStats struct {
	VocabularySize int   // Number of ordinary tokens, sentinels excluded.
	Contexts       []int // Number of contexts per table level; -1 for levels not built.
	Transitions    int   // Number of unique context->token links across all tables.
	Observations   int   // Sum of counts in the highest-order table.
	StartingTokens int   // Number of distinct tokens that can open a word.
}

// Stats returns a snapshot of statistics for the model.
func (m *Model) Stats() ModelStats {
	stats := ModelStats{
		VocabularySize: len(m.vocabulary) - 2,
		Contexts:       make([]int, len(m.tables)),
	}
	for k, t := range m.tables {
		if t == nil {
			stats.Contexts[k] = -1
			continue
		}
		stats.Contexts[k] = len(t)
		for _, d := range t {
			stats.Transitions += len(d.tokens)
			if k == m.params.Order {
				for _, c := range d.counts {
					stats.Observations += int(c)
				}
			}
		}
	}
	// All-START context at the top level.
	if d, ok := m.tables[m.params.Order][Context{}]; ok {
		stats.StartingTokens = len(d.tokens)
	}
	return stats
}

// ExportedModel is the human-readable JSON representation of a Model.
type ExportedModel struct {
	Order       int             `json:"order"`
	Prior       float64         `json:"prior"`
	Backoff     bool            `json:"backoff"`
	Granularity Granularity     `json:"granularity"`
	Vocabulary  []string        `json:"vocabulary"`
	Tables      []ExportedTable `json:"tables"`
}

// ExportedTable is one level of an ExportedModel.
type ExportedTable struct {
	Level    int               `json:"level"`
	Contexts []ExportedContext `json:"contexts"`
}

// ExportedContext is a single context and its observed successors.
type ExportedContext struct {
	Context    []string            `json:"context"`
	Successors []ExportedSuccessor `json:"successors"`
	Total      float64             `json:"total_weight"`
}

// ExportedSuccessor is one observed successor with its count and weight.
type ExportedSuccessor struct {
	Token  string  `json:"token"`
	Count  uint32  `json:"count"`
	Weight float64 `json:"weight"`
}

// Export writes the model as indented JSON to w. Contexts and successors are
// written in a stable order so exports of equal models are byte-identical.
func (m *Model) Export(w io.Writer) error {
	exported := ExportedModel{
		Order:       m.params.Order,
		Prior:       m.params.Prior,
		Backoff:     m.params.Backoff,
		Granularity: m.params.Granularity,
		Vocabulary:  m.vocabulary,
	}
	for k, t := range m.tables {
		if t == nil {
			continue
		}
		table := ExportedTable{Level: k}
		for _, c := range t.sortedContexts() {
			d := t[c]
			ctx := make([]string, k)
			for i := 0; i < k; i++ {
				ctx[i] = m.TokenText(c[i])
			}
			successors := make([]ExportedSuccessor, len(d.tokens))
			for i, tok := range d.tokens {
				successors[i] = ExportedSuccessor{
					Token:  m.TokenText(tok),
					Count:  d.counts[i],
					Weight: float64(d.counts[i]) + d.prior,
				}
			}
			table.Contexts = append(table.Contexts, ExportedContext{
				Context:    ctx,
				Successors: successors,
				Total:      d.Total(),
			})
		}
		exported.Tables = append(exported.Tables, table)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exported)
}

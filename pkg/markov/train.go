package markov

import (
	"fmt"
	"slices"
)

// Train builds a Model from tokenized corpus entries.
//
// Every entry is bracketed by Order START tokens and one END token. For each
// level k being built, the k tokens preceding every position form the context
// whose count for the token at that position is incremented. Vocabulary IDs
// follow first occurrence and successors are kept sorted by ID, so the same
// entries and parameters always produce an identical Model.
func Train(entries [][]string, params Parameters) (*Model, error) {
	params = params.normalized()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: corpus contains no entries", ErrFormat)
	}

	order := params.Order
	levels := params.levels()
	vocab := newVocabularyBuilder()

	counts := make([]map[Context]map[TokenID]uint32, order+1)
	for _, k := range levels {
		counts[k] = make(map[Context]map[TokenID]uint32)
	}

	var padded []TokenID
	for _, entry := range entries {
		padded = padded[:0]
		for i := 0; i < order; i++ {
			padded = append(padded, StartTokenID)
		}
		for _, text := range entry {
			padded = append(padded, vocab.id(text))
		}
		padded = append(padded, EndTokenID)

		for i := order; i < len(padded); i++ {
			next := padded[i]
			for _, k := range levels {
				var c Context
				copy(c[:k], padded[i-k:i])
				successors, ok := counts[k][c]
				if !ok {
					successors = make(map[TokenID]uint32)
					counts[k][c] = successors
				}
				successors[next]++
			}
		}
	}

	if len(vocab.texts) <= int(EndTokenID)+1 {
		return nil, fmt.Errorf("%w: corpus contains no tokens", ErrFormat)
	}

	// Every ordinary token plus END can follow any context.
	candidates := len(vocab.texts) - 1

	model := &Model{
		params:     params,
		vocabulary: slices.Clip(vocab.texts),
		tables:     make([]Table, order+1),
	}
	for _, k := range levels {
		table := make(Table, len(counts[k]))
		for c, successors := range counts[k] {
			tokens := make([]TokenID, 0, len(successors))
			for t := range successors {
				tokens = append(tokens, t)
			}
			slices.Sort(tokens)
			tokenCounts := make([]uint32, len(tokens))
			for i, t := range tokens {
				tokenCounts[i] = successors[t]
			}
			table[c] = newDistribution(tokens, tokenCounts, params.Prior, candidates)
		}
		model.tables[k] = table
	}
	if !params.Backoff && params.Prior > 0 {
		model.smoothing = newDistribution(nil, nil, params.Prior, candidates)
	}

	return model, nil
}

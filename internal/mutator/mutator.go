// Package mutator derives pseudo-randomly corrupted variants of a seed
// buffer by uniform byte substitution. Mutation never grows or shrinks the
// buffer; the seed itself is never written to.
package mutator

import (
	"errors"
	"fmt"

	"browserfuzz/internal/randsrc"
)

// ErrEmptySeed is returned when there is no byte range to mutate over.
var ErrEmptySeed = errors.New("mutator: empty seed")

// CountBounds narrows how many substitutions one plan applies. The zero
// value keeps the default range [1, len(seed)]. Bounds wider than the seed
// are clamped at mutation time.
type CountBounds struct {
	Min int
	Max int
}

func (b CountBounds) clamp(n int) (lo, hi int) {
	lo, hi = 1, n
	if b.Min > 0 {
		lo = b.Min
	}
	if b.Max > 0 && b.Max < hi {
		hi = b.Max
	}
	if lo > hi {
		lo = hi
	}
	return lo, hi
}

type Mutator struct {
	alphabet Alphabet
	bounds   CountBounds
}

func New(alphabet Alphabet, bounds CountBounds) (*Mutator, error) {
	if len(alphabet) == 0 {
		return nil, errors.New("mutator: empty alphabet")
	}
	if bounds.Min < 0 || bounds.Max < 0 {
		return nil, fmt.Errorf("mutator: negative count bounds [%d, %d]", bounds.Min, bounds.Max)
	}
	if bounds.Max > 0 && bounds.Min > bounds.Max {
		return nil, fmt.Errorf("mutator: inverted count bounds [%d, %d]", bounds.Min, bounds.Max)
	}
	return &Mutator{alphabet: alphabet, bounds: bounds}, nil
}

// Mutate copies seed and overwrites k positions, k drawn uniformly from the
// clamped count bounds. Index selection may repeat within one plan; only the
// last write at a position is observable. A replacement that happens to
// equal the original byte is kept, not redrawn.
func (m *Mutator) Mutate(rng randsrc.Rand, seed []byte) ([]byte, error) {
	n := len(seed)
	if n == 0 {
		return nil, ErrEmptySeed
	}

	lo, hi := m.bounds.clamp(n)
	k := lo + rng.IntN(hi-lo+1)

	out := make([]byte, n)
	copy(out, seed)
	for i := 0; i < k; i++ {
		idx := rng.IntN(n)
		out[idx] = m.alphabet[rng.IntN(len(m.alphabet))]
	}
	return out, nil
}

// Package payload turns random draws into complete documents a browser
// will render: a fragment (either freshly generated noise or a mutated
// seed) embedded into a fixed HTML envelope. Fragments are deliberately
// left unescaped; malformed script content is the product, not a bug.
package payload

import (
	"errors"
	"fmt"

	"browserfuzz/internal/mutator"
	"browserfuzz/internal/randsrc"
)

// ErrLengthRange is returned when the fragment length range is empty or
// inverted.
var ErrLengthRange = errors.New("payload: invalid fragment length range")

// Envelope pieces surrounding the single substitution point.
const (
	EnvelopePrefix = "<html><head><script>"
	EnvelopeSuffix = "</script></head><body></body></html>"
)

// FragmentSource produces the raw bytes placed at the envelope's
// substitution point. Implementations draw only from the supplied source;
// they carry no state across calls.
type FragmentSource interface {
	Fragment(rng randsrc.Rand) ([]byte, error)
}

// Generator draws a fragment of uniform length in [minLen, maxLen], each
// byte picked independently from the alphabet.
type Generator struct {
	minLen   int
	maxLen   int
	alphabet mutator.Alphabet
}

func NewGenerator(minLen, maxLen int, alphabet mutator.Alphabet) (*Generator, error) {
	if minLen < 1 || minLen > maxLen {
		return nil, fmt.Errorf("%w: [%d, %d]", ErrLengthRange, minLen, maxLen)
	}
	if len(alphabet) == 0 {
		return nil, errors.New("payload: empty alphabet")
	}
	return &Generator{minLen: minLen, maxLen: maxLen, alphabet: alphabet}, nil
}

func (g *Generator) Fragment(rng randsrc.Rand) ([]byte, error) {
	n := g.minLen + rng.IntN(g.maxLen-g.minLen+1)
	frag := make([]byte, n)
	for i := range frag {
		frag[i] = g.alphabet[rng.IntN(len(g.alphabet))]
	}
	return frag, nil
}

// SeedMutation emits a freshly mutated copy of a fixed seed on every call.
type SeedMutation struct {
	mut  *mutator.Mutator
	seed []byte
}

func NewSeedMutation(mut *mutator.Mutator, seed []byte) (*SeedMutation, error) {
	if len(seed) == 0 {
		return nil, mutator.ErrEmptySeed
	}
	// Private copy; the caller may reuse its buffer.
	return &SeedMutation{mut: mut, seed: append([]byte(nil), seed...)}, nil
}

func (s *SeedMutation) Fragment(rng randsrc.Rand) ([]byte, error) {
	return s.mut.Mutate(rng, s.seed)
}

// Synthesizer wraps fragments into the document envelope. The document is
// well-formed by construction even when the fragment is garbage.
type Synthesizer struct {
	source FragmentSource
}

func NewSynthesizer(source FragmentSource) *Synthesizer {
	return &Synthesizer{source: source}
}

func (s *Synthesizer) Document(rng randsrc.Rand) ([]byte, error) {
	frag, err := s.source.Fragment(rng)
	if err != nil {
		return nil, err
	}
	doc := make([]byte, 0, len(EnvelopePrefix)+len(frag)+len(EnvelopeSuffix))
	doc = append(doc, EnvelopePrefix...)
	doc = append(doc, frag...)
	doc = append(doc, EnvelopeSuffix...)
	return doc, nil
}

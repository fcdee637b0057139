package randsrc

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Rand is the subset of *rand.Rand the generation code draws from. Mutation
// and synthesis take it as an explicit parameter so tests can substitute a
// scripted source instead of reseeding a process-wide generator.
type Rand interface {
	IntN(n int) int
}

// New returns a PCG generator seeded from the OS entropy pool.
func New() *rand.Rand {
	var buf [16]byte
	if _, err := crand.Read(buf[:]); err != nil {
		// No useful fallback exists if the entropy pool is unreadable.
		panic("randsrc: read entropy: " + err.Error())
	}
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(buf[:8]),
		binary.LittleEndian.Uint64(buf[8:]),
	))
}

// Pool hands out one generator per worker. A *rand.Rand is not safe for
// concurrent use, so concurrent request handlers each borrow their own
// generator instead of contending on a shared locked one.
type Pool struct {
	p sync.Pool
}

func NewPool() *Pool {
	return &Pool{p: sync.Pool{New: func() any { return New() }}}
}

func (p *Pool) Get() *rand.Rand { return p.p.Get().(*rand.Rand) }

func (p *Pool) Put(r *rand.Rand) { p.p.Put(r) }

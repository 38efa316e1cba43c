// Package rng provides the small deterministic generator used to pick
// animation colors.
package rng

import "math/bits"

const (
	wyIncrement = 0xa0761d6478bd642f
	wyMix       = 0xe7037ed1a0b428db
)

// Wyrand is a wyrand generator. The zero value is a valid generator seeded
// with 0. It is not safe for concurrent use; it is meant to be owned by a
// single task.
type Wyrand struct {
	state uint64
}

// New returns a generator seeded with seed.
func New(seed uint64) *Wyrand {
	return &Wyrand{state: seed}
}

// Uint64 returns the next pseudo-random value.
func (r *Wyrand) Uint64() uint64 {
	r.state += wyIncrement
	hi, lo := bits.Mul64(r.state, r.state^wyMix)
	return hi ^ lo
}

// Uint16n returns a uniformly distributed value in [0, n), drawn from the
// low 16 bits of each output with Lemire's multiply-and-reject reduction.
// It panics if n is zero.
func (r *Wyrand) Uint16n(n uint16) uint16 {
	if n == 0 {
		panic("rng: Uint16n called with n == 0")
	}
	full := uint32(uint16(r.Uint64())) * uint32(n)
	if uint16(full) < n {
		thresh := -n % n
		for uint16(full) < thresh {
			full = uint32(uint16(r.Uint64())) * uint32(n)
		}
	}
	return uint16(full >> 16)
}

// Package rng provides the seedable pseudo-random generator shared by weight
// initialization and training-set shuffling.
//
// The generator is a 32-bit Mersenne Twister (MT19937). The package-level
// functions draw from one process-wide source that behaves as if seeded with
// DefaultSeed until Seed is called, so a fixed seed always reproduces the same
// permutations and initial weights.
package rng

import (
	"sync"
	"time"
)

// DefaultSeed seeds the process-wide source until Seed is called.
const DefaultSeed = 342

const (
	stateSize = 624
	period    = 397
	diff      = stateSize - period
	magic     = 0x9908b0df
	upperMask = 0x80000000
	lowerMask = 0x7fffffff
	initMult  = 0x6c078965
)

// Source is an MT19937 generator. The zero value is not usable; use New.
// A Source is not safe for concurrent use.
type Source struct {
	mt       [stateSize]uint32
	tempered [stateSize]uint32
	index    int
}

// New returns a source seeded with seed.
func New(seed uint32) *Source {
	s := &Source{}
	s.Seed(seed)
	return s
}

// Seed resets the source from a single word.
func (s *Source) Seed(seed uint32) {
	s.mt[0] = seed
	for i := 1; i < stateSize; i++ {
		s.mt[i] = initMult*(s.mt[i-1]^s.mt[i-1]>>30) + uint32(i)
	}
	s.index = stateSize
}

// Seed2 resets the source from two words, for callers that want more entropy
// than a single seed carries.
func (s *Source) Seed2(a, b uint32) {
	s.mt[0] = a
	s.mt[1] = b
	for i := 2; i < stateSize; i++ {
		s.mt[i] = initMult*(s.mt[i-1]^s.mt[i-1]>>30) + uint32(i)
	}
	s.index = stateSize
}

func (s *Source) twist() {
	var y uint32
	i := 0
	for ; i < diff; i++ {
		y = s.mt[i]&upperMask | s.mt[i+1]&lowerMask
		s.mt[i] = s.mt[i+period] ^ y>>1 ^ (-(y & 1) & magic)
	}
	for ; i < stateSize-1; i++ {
		y = s.mt[i]&upperMask | s.mt[i+1]&lowerMask
		s.mt[i] = s.mt[i-diff] ^ y>>1 ^ (-(y & 1) & magic)
	}
	y = s.mt[stateSize-1]&upperMask | s.mt[0]&lowerMask
	s.mt[stateSize-1] = s.mt[period-1] ^ y>>1 ^ (-(y & 1) & magic)

	for i := range s.mt {
		y = s.mt[i]
		y ^= y >> 11
		y ^= y << 7 & 0x9d2c5680
		y ^= y << 15 & 0xefc60000
		y ^= y >> 18
		s.tempered[i] = y
	}
	s.index = 0
}

// Uint32 returns the next raw 32-bit output.
func (s *Source) Uint32() uint32 {
	if s.index >= stateSize {
		s.twist()
	}
	v := s.tempered[s.index]
	s.index++
	return v
}

// Float returns a value in [0, 1], both ends included.
func (s *Source) Float() float32 {
	return float32(float64(s.Uint32()) / float64(^uint32(0)))
}

// Float64 returns a value in [0, 1] with the full precision of one draw.
func (s *Source) Float64() float64 {
	return float64(s.Uint32()) / float64(^uint32(0))
}

// U32 returns a uniform value in [0, max], max included.
// It masks draws to the next power of two and rejects values above max, so the
// result carries no modulo bias.
func (s *Source) U32(max uint32) uint32 {
	mask := max
	mask |= mask >> 1
	mask |= mask >> 2
	mask |= mask >> 4
	mask |= mask >> 8
	mask |= mask >> 16
	for {
		if r := s.Uint32() & mask; r <= max {
			return r
		}
	}
}

// I32 returns a uniform value in [min, max], both included.
// It panics if max < min.
func (s *Source) I32(min, max int32) int32 {
	if max < min {
		panic("rng: I32 called with max < min")
	}
	return int32(s.U32(uint32(max-min))) + min
}

// Permutation returns a shuffled [0, n) index table. Every position i is
// swapped with a position drawn from U32(n-1), in order.
func (s *Source) Permutation(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if n < 2 {
		return perm
	}
	for i := range perm {
		j := int(s.U32(uint32(n - 1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

var (
	mu     sync.Mutex
	global = New(DefaultSeed)
)

// Seed reseeds the process-wide source.
func Seed(seed uint32) {
	mu.Lock()
	global.Seed(seed)
	mu.Unlock()
}

// Seed2 reseeds the process-wide source from two words.
func Seed2(a, b uint32) {
	mu.Lock()
	global.Seed2(a, b)
	mu.Unlock()
}

// SeedTime reseeds the process-wide source from the wall clock in
// milliseconds. Runs seeded this way are not reproducible.
func SeedTime() {
	Seed(uint32(time.Now().UnixMilli()))
}

// Float draws from the process-wide source. See Source.Float.
func Float() float32 {
	mu.Lock()
	defer mu.Unlock()
	return global.Float()
}

// Random is an alias of Float.
func Random() float32 {
	return Float()
}

// U32 draws from the process-wide source. See Source.U32.
func U32(max uint32) uint32 {
	mu.Lock()
	defer mu.Unlock()
	return global.U32(max)
}

// I32 draws from the process-wide source. See Source.I32.
func I32(min, max int32) int32 {
	mu.Lock()
	defer mu.Unlock()
	return global.I32(min, max)
}

// Permutation draws from the process-wide source. See Source.Permutation.
func Permutation(n int) []int {
	mu.Lock()
	defer mu.Unlock()
	return global.Permutation(n)
}

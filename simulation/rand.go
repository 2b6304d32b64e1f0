package simulation

import (
	"golang.org/x/exp/rand"
)

// NewRand returns a generator seeded with seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Substream returns the generator for chunk i of a run seeded with seed. The
// chunk index is mixed through splitmix64 so neighbouring chunks do not share
// correlated PCG states.
func Substream(seed uint64, i int) *rand.Rand {
	return NewRand(splitmix64(seed + uint64(i+1)*0x9e3779b97f4a7c15))
}

func splitmix64(x uint64) uint64 {
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

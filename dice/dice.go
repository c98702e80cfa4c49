// Package dice provides the seed-replayable two-die source used by matches.
package dice

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Sides is the number of faces on each die.
const Sides = 6

// Pair returns the index-th roll of two dice for seed. The same seed and
// index always give the same pair, so a match replays from its seed and
// the count of rolls made so far.
func Pair(seed int64, index int) [2]int {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(index)))
	return [2]int{rng.IntN(Sides) + 1, rng.IntN(Sides) + 1}
}

// NewSeed generates a random match seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

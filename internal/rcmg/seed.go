package rcmg

import "math/rand/v2"

// SeedScheme names the seed derivation used by SplitSeed. Datasets record it
// so that trajectories can be regenerated from their seeds.
const SeedScheme = "splitmix64-v1"

const golden = 0x9E3779B97F4A7C15

// SplitSeed derives the seed of sub-stream i from seed. Lane i of a batch,
// body i of a system and batch i of a stream all draw from
// SplitSeed(parent, i).
func SplitSeed(seed, i uint64) uint64 {
	z := seed + (i+1)*golden
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func newSource(seed, stream uint64) *rand.PCG {
	return rand.NewPCG(seed, stream)
}

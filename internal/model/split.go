package model

import (
	"math"
	"math/rand/v2"
	"sort"
)

// Split partitions row indices 0..n-1 into training and test sets. The test
// set holds ceil(n*testFraction) rows picked by a permutation seeded only by
// seed, so the same (n, testFraction, seed) always yields the same split.
// Both returned slices are sorted ascending.
func Split(n int, testFraction float64, seed uint64) (train, test []int) {
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest > n {
		nTest = n
	}
	if nTest < 0 {
		nTest = 0
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	perm := rng.Perm(n)

	test = append([]int(nil), perm[:nTest]...)
	train = append([]int(nil), perm[nTest:]...)
	sort.Ints(test)
	sort.Ints(train)
	return train, test
}

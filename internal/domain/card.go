package domain

import "math/rand"

// PoolSize is the number of values in the calling pool.
const PoolSize = 75

// NewNumberPool returns the ordered pool 1..75.
func NewNumberPool() []int {
	pool := make([]int, 0, PoolSize)
	for n := 1; n <= PoolSize; n++ {
		pool = append(pool, n)
	}
	return pool
}

// NewCard mints a card whose layout is a uniformly-random permutation of the
// number pool. rng.Perm runs a Fisher-Yates shuffle, unlike the biased
// sort-by-random-comparator trick this replaces.
func NewCard(id int, rng *rand.Rand) *Card {
	layout := make([]int, PoolSize)
	for i, p := range rng.Perm(PoolSize) {
		layout[i] = p + 1
	}
	return &Card{
		ID:     id,
		Layout: layout,
		Marked: make(map[int]bool),
	}
}

package rng_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hollowmoon/etherclash/internal/game/rng"
)

func TestCryptoSource_Intn_Range(t *testing.T) {
	src := rng.NewCryptoSource()
	for i := 0; i < 100; i++ {
		v := src.Intn(6)
		assert.GreaterOrEqual(t, v, 0, "Intn must return >= 0")
		assert.Less(t, v, 6, "Intn must return < n")
	}
}

func TestCryptoSource_Intn_PanicsOnZero(t *testing.T) {
	src := rng.NewCryptoSource()
	assert.Panics(t, func() { src.Intn(0) }, "Intn(0) must panic")
}

func TestSeqSource_ReplaysSequence(t *testing.T) {
	src := rng.NewSeqSource(0, 3, 1)
	assert.Equal(t, 0, src.Intn(10))
	assert.Equal(t, 3, src.Intn(10))
	assert.Equal(t, 1, src.Intn(10))
	// Wraps around once exhausted.
	assert.Equal(t, 0, src.Intn(10))
}

func TestSeqSource_ReducesModuloN(t *testing.T) {
	src := rng.NewSeqSource(7)
	assert.Equal(t, 1, src.Intn(3), "7 mod 3 = 1")
}

func TestWeightedIndex_SkipsZeroWeights(t *testing.T) {
	src := rng.NewSeqSource(0, 1, 2)
	for i := 0; i < 3; i++ {
		idx := rng.WeightedIndex(src, []int{0, 1, 0, 2})
		assert.Contains(t, []int{1, 3}, idx, "zero-weight entries must never be picked")
	}
}

func TestWeightedIndex_AllZero(t *testing.T) {
	src := rng.NewSeqSource(0)
	assert.Equal(t, -1, rng.WeightedIndex(src, []int{0, 0}), "no selectable entry returns -1")
}

// TestWeightedIndex_Property verifies the postcondition weights[i] > 0
// for arbitrary weight vectors containing at least one positive entry.
func TestWeightedIndex_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		weights := rapid.SliceOfN(rapid.IntRange(0, 20), 1, 16).Draw(rt, "weights")
		roll := rapid.IntRange(0, 1<<30).Draw(rt, "roll")

		hasPositive := false
		for _, w := range weights {
			if w > 0 {
				hasPositive = true
			}
		}

		idx := rng.WeightedIndex(rng.NewSeqSource(roll), weights)
		if !hasPositive {
			assert.Equal(rt, -1, idx)
			return
		}
		require.GreaterOrEqual(rt, idx, 0)
		assert.Greater(rt, weights[idx], 0, "selected index must carry positive weight")
	})
}

func TestShuffle_PreservesElements(t *testing.T) {
	src := rng.NewSeqSource(0, 1, 2, 1, 0)
	items := []int{1, 2, 3, 4, 5}
	rng.Shuffle(src, items)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, items, "shuffle must not drop or duplicate items")
}

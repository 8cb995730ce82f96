package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRanksTableIsWellFormed(t *testing.T) {
	require.NotEmpty(t, Ranks)
	assert.Equal(t, 0, Ranks[0].Threshold, "starting rank must cost nothing")

	for i := 1; i < len(Ranks); i++ {
		assert.Greater(t, Ranks[i].Threshold, Ranks[i-1].Threshold,
			"thresholds must be strictly increasing at index %d", i)
	}
	for i, def := range Ranks {
		assert.NotEmpty(t, def.Title, "rank %d has no title", i)
		assert.NotEmpty(t, def.Psyche, "rank %d has no psyche line", i)
	}
}

func TestRankForStardust(t *testing.T) {
	assert.Equal(t, 0, RankForStardust(0))
	assert.Equal(t, 0, RankForStardust(9))
	assert.Equal(t, 1, RankForStardust(10))
	assert.Equal(t, 1, RankForStardust(29))
	assert.Equal(t, 2, RankForStardust(30))
	assert.Equal(t, len(Ranks)-1, RankForStardust(Ranks[len(Ranks)-1].Threshold))
	assert.Equal(t, len(Ranks)-1, RankForStardust(1_000_000))
}

func TestRankForStardustMatchesTable(t *testing.T) {
	// Exactly at each threshold the index must be that rank; one below,
	// the previous rank.
	for i, def := range Ranks {
		assert.Equal(t, i, RankForStardust(def.Threshold), "at threshold of %s", def.Title)
		if i > 0 {
			assert.Equal(t, i-1, RankForStardust(def.Threshold-1), "just below %s", def.Title)
		}
	}
}

func TestGetRankMetaClamps(t *testing.T) {
	assert.Equal(t, 0, GetRankMeta(-5).Index)
	assert.Equal(t, len(Ranks)-1, GetRankMeta(len(Ranks)+10).Index)
}

func TestGetRankMetaNextThreshold(t *testing.T) {
	meta := GetRankMeta(0)
	assert.Equal(t, Ranks[1].Threshold, meta.NextThreshold)

	top := GetRankMeta(len(Ranks) - 1)
	assert.Equal(t, top.Threshold, top.NextThreshold, "top rank repeats its own threshold")
}

func TestAllRanksReturnsCopy(t *testing.T) {
	all := AllRanks()
	require.Len(t, all, len(Ranks))
	all[0].Title = "mutated"
	assert.NotEqual(t, "mutated", Ranks[0].Title)
}

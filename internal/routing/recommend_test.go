package routing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_NoViableOption(t *testing.T) {
	rec, err := Recommend(nil, nil, DefaultConfig())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, ErrNoViableOption)
}

func TestRecommend_SingleWhenNoSplitExists(t *testing.T) {
	best := multiOption("s1", 0, map[string]int64{"a": 500})

	rec, err := Recommend(best, nil, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "single", rec.Choice)
	assert.Contains(t, rec.Reasoning, "s1")
}

func TestRecommend_MultiAboveBothThresholds(t *testing.T) {
	cfg := DefaultConfig() // 100 minor units and 2%
	best := multiOption("s1", 0, map[string]int64{"a": 5000})
	multi := &MultiStoreOption{
		Stops:          []*StoreStop{{}, {}},
		TotalCost:      4800,
		Savings:        200,
		SavingsPercent: 4.0,
	}

	rec, err := Recommend(best, multi, cfg)
	require.NoError(t, err)
	assert.Equal(t, "multi", rec.Choice)
}

func TestRecommend_SingleWhenSavingsTooSmall(t *testing.T) {
	cfg := DefaultConfig()
	best := multiOption("s1", 0, map[string]int64{"a": 5000})

	// Absolute savings below the 100 threshold.
	tiny := &MultiStoreOption{Stops: []*StoreStop{{}, {}}, TotalCost: 4950, Savings: 50, SavingsPercent: 1.0}
	rec, err := Recommend(best, tiny, cfg)
	require.NoError(t, err)
	assert.Equal(t, "single", rec.Choice)

	// Absolute threshold met but percentage too low on a large basket.
	bigBasket := multiOption("s1", 0, map[string]int64{"a": 20000})
	small := &MultiStoreOption{Stops: []*StoreStop{{}, {}}, TotalCost: 19850, Savings: 150, SavingsPercent: 0.75}
	rec, err = Recommend(bigBasket, small, cfg)
	require.NoError(t, err)
	assert.Equal(t, "single", rec.Choice)
}

func TestRecommend_MultiWhenNoSingleCoversList(t *testing.T) {
	multi := &MultiStoreOption{Stops: []*StoreStop{{}, {}}, TotalCost: 900}

	rec, err := Recommend(nil, multi, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, "multi", rec.Choice)
}

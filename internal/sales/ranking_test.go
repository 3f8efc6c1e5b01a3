package sales

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func agg(key string, revenue int64) Aggregate {
	return Aggregate{Key: key, Revenue: decimal.NewFromInt(revenue), Quantity: decimal.NewFromInt(1)}
}

func TestTopN(t *testing.T) {
	aggs := []Aggregate{agg("A", 10), agg("B", 30), agg("C", 20), agg("D", 5)}

	r := TopN(aggs, 2)
	require.Len(t, r.Ranked, 2)
	assert.Equal(t, "B", r.Ranked[0].Key)
	assert.Equal(t, "C", r.Ranked[1].Key)

	require.NotNil(t, r.Others)
	assert.Equal(t, OthersKey, r.Others.Key)
	assert.True(t, r.Others.Revenue.Equal(decimal.NewFromInt(15)))
	assert.True(t, r.Others.Quantity.Equal(decimal.NewFromInt(2)))
}

func TestTopNLargerThanInput(t *testing.T) {
	aggs := []Aggregate{agg("A", 10), agg("B", 30)}

	r := TopN(aggs, 10)
	require.Len(t, r.Ranked, 2)
	assert.Nil(t, r.Others)
}

func TestTopNStableTies(t *testing.T) {
	// Equal revenue keeps the input (first-seen grouping) order.
	aggs := []Aggregate{agg("First", 10), agg("Second", 10), agg("Third", 10)}

	r := TopN(aggs, 3)
	assert.Equal(t, "First", r.Ranked[0].Key)
	assert.Equal(t, "Second", r.Ranked[1].Key)
	assert.Equal(t, "Third", r.Ranked[2].Key)
}

func TestTopNZeroRemainderOmitsOthers(t *testing.T) {
	aggs := []Aggregate{agg("A", 10), agg("B", 0), agg("C", 0)}

	r := TopN(aggs, 1)
	require.Len(t, r.Ranked, 1)
	assert.Nil(t, r.Others, "zero-revenue remainder must not produce an Others bucket")
}

func TestTopNDoesNotMutateInput(t *testing.T) {
	aggs := []Aggregate{agg("A", 10), agg("B", 30)}
	TopN(aggs, 1)
	assert.Equal(t, "A", aggs[0].Key)
	assert.Equal(t, "B", aggs[1].Key)
}

func TestTopNEmpty(t *testing.T) {
	r := TopN(nil, 5)
	assert.Empty(t, r.Ranked)
	assert.Nil(t, r.Others)
}

func TestRankOf(t *testing.T) {
	r := TopN([]Aggregate{agg("A", 10), agg("B", 30), agg("C", 20)}, 3)
	ranks := r.RankOf()
	assert.Equal(t, 1, ranks["B"])
	assert.Equal(t, 2, ranks["C"])
	assert.Equal(t, 3, ranks["A"])
}

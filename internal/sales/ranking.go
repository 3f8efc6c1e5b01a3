package sales

import (
	"sort"

	"github.com/shopspring/decimal"
)

// OthersKey labels the synthetic remainder aggregate in a ranking.
const OthersKey = "Others"

// Ranking is a revenue-ordered truncation of a set of aggregates. Others
// holds the summed remainder beyond the top N; it is nil when nothing was
// truncated or the remainder sums to zero.
type Ranking struct {
	Ranked []Aggregate `json:"ranked"`
	Others *Aggregate  `json:"others,omitempty"`
}

// TopN sorts the aggregates descending by revenue and keeps the first n.
// The sort is stable: ties keep the aggregates' original grouping order.
// The input slice is not modified.
func TopN(aggs []Aggregate, n int) Ranking {
	sorted := make([]Aggregate, len(aggs))
	copy(sorted, aggs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Revenue.GreaterThan(sorted[j].Revenue)
	})

	if n < 0 {
		n = 0
	}
	if n >= len(sorted) {
		return Ranking{Ranked: sorted}
	}

	ranked := sorted[:n]
	others := Aggregate{Key: OthersKey, Revenue: decimal.Zero, Quantity: decimal.Zero}
	for _, a := range sorted[n:] {
		others.Revenue = others.Revenue.Add(a.Revenue)
		others.Quantity = others.Quantity.Add(a.Quantity)
	}

	r := Ranking{Ranked: ranked}
	if !others.Revenue.IsZero() {
		r.Others = &others
	}
	return r
}

// RankOf maps each ranked key to its 1-based position.
func (r Ranking) RankOf() map[string]int {
	ranks := make(map[string]int, len(r.Ranked))
	for i, a := range r.Ranked {
		ranks[a.Key] = i + 1
	}
	return ranks
}

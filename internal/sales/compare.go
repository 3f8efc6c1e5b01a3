package sales

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Rank change sentinels for entities that cannot carry a numeric movement.
const (
	RankChangeNew       = "NEW"
	RankChangeUnchanged = "unchanged"
)

// topComparisonSize is how many products each period ranks independently.
const topComparisonSize = 10

// PeriodTotals compares the summed revenue and quantity of two periods.
// Percent deltas fall back to 0 when the period-1 baseline is zero.
type PeriodTotals struct {
	Period1Revenue   decimal.Decimal `json:"period1_revenue"`
	Period2Revenue   decimal.Decimal `json:"period2_revenue"`
	DeltaRevenue     decimal.Decimal `json:"delta_revenue"`
	DeltaRevenuePct  float64         `json:"delta_revenue_pct"`
	Period1Quantity  decimal.Decimal `json:"period1_quantity"`
	Period2Quantity  decimal.Decimal `json:"period2_quantity"`
	DeltaQuantity    decimal.Decimal `json:"delta_quantity"`
	DeltaQuantityPct float64         `json:"delta_quantity_pct"`
}

// CompareTotals computes the headline deltas between two record sets.
func CompareTotals(p1, p2 RecordSet) PeriodTotals {
	t := PeriodTotals{
		Period1Revenue:  p1.TotalRevenue(),
		Period2Revenue:  p2.TotalRevenue(),
		Period1Quantity: p1.TotalQuantity(),
		Period2Quantity: p2.TotalQuantity(),
	}
	t.DeltaRevenue = t.Period2Revenue.Sub(t.Period1Revenue)
	t.DeltaQuantity = t.Period2Quantity.Sub(t.Period1Quantity)
	t.DeltaRevenuePct = baselinePct(t.Period1Revenue, t.DeltaRevenue)
	t.DeltaQuantityPct = baselinePct(t.Period1Quantity, t.DeltaQuantity)
	return t
}

// baselinePct is delta/baseline*100, defined as 0 on a zero baseline rather
// than infinite.
func baselinePct(baseline, delta decimal.Decimal) float64 {
	if baseline.IsZero() {
		return 0
	}
	pct, _ := delta.Div(baseline).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// RankedProduct is one period-2 top-10 entry annotated with its movement
// relative to period 1: "NEW" when absent from period 1's top 10,
// "unchanged" at the same rank, otherwise the signed rank delta
// (positive = moved up).
type RankedProduct struct {
	Aggregate
	Rank       int    `json:"rank"`
	RankChange string `json:"rank_change"`
}

// TopComparison holds the independently ranked top products of two periods.
type TopComparison struct {
	Period1 []Aggregate     `json:"period1"`
	Period2 []RankedProduct `json:"period2"`
}

// CompareTopProducts ranks each period's products by revenue (top 10, no
// Others bucket) and annotates period 2 with rank movement.
func CompareTopProducts(p1, p2 RecordSet) TopComparison {
	r1 := TopN(GroupBy(p1, GroupProduct), topComparisonSize)
	r2 := TopN(GroupBy(p2, GroupProduct), topComparisonSize)
	p1Ranks := r1.RankOf()

	out := TopComparison{Period1: r1.Ranked}
	for i, a := range r2.Ranked {
		rank := i + 1
		entry := RankedProduct{Aggregate: a, Rank: rank}
		prev, present := p1Ranks[a.Key]
		switch {
		case !present:
			entry.RankChange = RankChangeNew
		case prev == rank:
			entry.RankChange = RankChangeUnchanged
		default:
			entry.RankChange = fmt.Sprintf("%+d", prev-rank)
		}
		out.Period2 = append(out.Period2, entry)
	}
	return out
}

// DiffRow is one key in the full outer-join comparison table.
type DiffRow struct {
	Key       string          `json:"key"`
	Period1   decimal.Decimal `json:"period1"`
	Period2   decimal.Decimal `json:"period2"`
	ChangeAbs decimal.Decimal `json:"change_abs"`
	ChangePct float64         `json:"change_pct"`
}

// DiffTable outer-joins two aggregate lists on key: every key seen in either
// period appears, with the missing side filled with zero. The percent change
// clamps to +100 when the period-1 value is zero and period 2 is not (an
// explicit edge-case policy, not a true percent), and to 0 when both are
// zero. Rows come back sorted by percent change descending, ties by key.
func DiffTable(p1Aggs, p2Aggs []Aggregate) []DiffRow {
	index := make(map[string]int)
	var rows []DiffRow
	for _, a := range p1Aggs {
		index[a.Key] = len(rows)
		rows = append(rows, DiffRow{Key: a.Key, Period1: a.Revenue, Period2: decimal.Zero})
	}
	for _, a := range p2Aggs {
		if i, seen := index[a.Key]; seen {
			rows[i].Period2 = a.Revenue
			continue
		}
		index[a.Key] = len(rows)
		rows = append(rows, DiffRow{Key: a.Key, Period1: decimal.Zero, Period2: a.Revenue})
	}

	for i := range rows {
		r := &rows[i]
		r.ChangeAbs = r.Period2.Sub(r.Period1)
		switch {
		case r.Period1.IsZero() && r.Period2.IsZero():
			r.ChangePct = 0
		case r.Period1.IsZero():
			r.ChangePct = 100
		default:
			pct, _ := r.ChangeAbs.Div(r.Period1).Mul(decimal.NewFromInt(100)).Float64()
			r.ChangePct = pct
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ChangePct != rows[j].ChangePct {
			return rows[i].ChangePct > rows[j].ChangePct
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// Comparison is the full side-by-side view of two periods. The caller is
// responsible for applying identical filters to both record sets before
// comparing; the engine does not enforce that.
type Comparison struct {
	Totals PeriodTotals  `json:"totals"`
	Top    TopComparison `json:"top_products"`
	Diff   []DiffRow     `json:"diff"`
}

// ComparePeriods assembles totals, top-product movement and the full diff
// table over the given dimension (category-level or product-level).
func ComparePeriods(p1, p2 RecordSet, dim GroupKey) Comparison {
	return Comparison{
		Totals: CompareTotals(p1, p2),
		Top:    CompareTopProducts(p1, p2),
		Diff:   DiffTable(GroupBy(p1, dim), GroupBy(p2, dim)),
	}
}

package sales

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// GroupKey names a dimension records can be grouped by.
type GroupKey string

const (
	GroupCategory GroupKey = "category"
	GroupProduct  GroupKey = "product"
	GroupDate     GroupKey = "date"
	GroupHour     GroupKey = "hour"
	GroupWeek     GroupKey = "week"  // ISO week, "2024-W23"
	GroupMonth    GroupKey = "month" // calendar month, "2024-06"
)

// Aggregate is one group with summed revenue and quantity. Key joins the
// requested dimension values with " / " for display; Parts keeps them
// addressable per dimension.
type Aggregate struct {
	Key      string              `json:"key"`
	Parts    map[GroupKey]string `json:"parts,omitempty"`
	Revenue  decimal.Decimal     `json:"revenue"`
	Quantity decimal.Decimal     `json:"quantity"`
}

// AvgPrice is revenue divided by quantity, zero when the group sold nothing.
func (a Aggregate) AvgPrice() decimal.Decimal {
	if a.Quantity.IsZero() || a.Quantity.IsNegative() {
		return decimal.Zero
	}
	return a.Revenue.Div(a.Quantity)
}

// GroupBy groups the records by the Cartesian combination of the requested
// keys and sums revenue and quantity per group. Groups come back in
// first-seen record order, which downstream ranking relies on for stable tie
// breaks. With no keys the whole set collapses into a single group. Records
// missing a requested date-derived key are excluded from that grouping.
func GroupBy(rs RecordSet, keys ...GroupKey) []Aggregate {
	index := make(map[string]int)
	var out []Aggregate
	for _, r := range rs {
		parts, ok := groupValues(r, keys)
		if !ok {
			continue
		}
		key := strings.Join(parts, " / ")
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			partMap := make(map[GroupKey]string, len(keys))
			for j, k := range keys {
				partMap[k] = parts[j]
			}
			out = append(out, Aggregate{
				Key:      key,
				Parts:    partMap,
				Revenue:  decimal.Zero,
				Quantity: decimal.Zero,
			})
		}
		out[i].Revenue = out[i].Revenue.Add(r.Revenue)
		out[i].Quantity = out[i].Quantity.Add(r.Quantity)
	}
	return out
}

// groupValues resolves the key values for one record. ok is false when the
// record cannot supply a requested key (no usable date).
func groupValues(r SaleRecord, keys []GroupKey) ([]string, bool) {
	values := make([]string, len(keys))
	for i, k := range keys {
		switch k {
		case GroupCategory:
			values[i] = string(r.Category)
		case GroupProduct:
			values[i] = r.Product
		case GroupHour:
			values[i] = strconv.Itoa(r.Hour)
		case GroupDate:
			if r.Timestamp == nil {
				return nil, false
			}
			values[i] = r.Timestamp.Format("2006-01-02")
		case GroupWeek:
			if r.Timestamp == nil {
				return nil, false
			}
			values[i] = r.WeekYear
		case GroupMonth:
			if r.Timestamp == nil {
				return nil, false
			}
			values[i] = r.Timestamp.Format("2006-01")
		}
	}
	return values, true
}

// ShareOfTotal computes each aggregate's revenue share of the combined total
// as a percentage, zero across the board when the total is zero.
func ShareOfTotal(aggs []Aggregate) []float64 {
	total := decimal.Zero
	for _, a := range aggs {
		total = total.Add(a.Revenue)
	}
	shares := make([]float64, len(aggs))
	if total.IsZero() {
		return shares
	}
	for i, a := range aggs {
		shares[i], _ = a.Revenue.Div(total).Mul(decimal.NewFromInt(100)).Float64()
	}
	return shares
}

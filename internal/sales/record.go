package sales

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData is returned when a batch yields zero usable records. It is an
// expected terminal outcome for an empty date range, not a failure.
var ErrNoData = errors.New("no data for range")

// Category is the fixed taxonomy label assigned to every product.
type Category string

const (
	CategoryIgnore         Category = "Ignore"
	CategoryBakeAtHome     Category = "Bake at Home"
	CategoryWeekendSpecial Category = "Weekend Special"
	CategoryXLLoaves       Category = "XL Loaves"
	CategoryStandardLoaves Category = "Standard Loaves"
	CategoryPastries       Category = "Pastries"
	CategoryFMT            Category = "FMT"
	CategoryRetailItems    Category = "Retail Items"
	CategoryBunsAndRolls   Category = "Buns & Rolls"
	CategoryOther          Category = "Other"
)

// SaleRecord is one canonical POS line item after building. Records are
// immutable once built; the calendar bucket fields are derived from
// Timestamp at build time and never recomputed.
type SaleRecord struct {
	// Timestamp is the sale date. Nil when neither a structured Saledate
	// column nor a filename date was available; such records are kept but
	// excluded from every date-bucketed view.
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// Hour is the hour-of-day bucket (0-23), taken from the raw Hour_ID
	// code. Non-numeric codes coerce to 0.
	Hour int `json:"hour"`

	ProductRaw string   `json:"product_raw"`
	Product    string   `json:"product"`
	Category   Category `json:"category"`

	// Revenue keeps its sign: refunds come through as negative amounts.
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`

	ISOWeek  int    `json:"iso_week"`
	ISOYear  int    `json:"iso_year"`
	Month    int    `json:"month"`
	Year     int    `json:"year"`
	WeekYear string `json:"week_year"` // "2024-W23"

	// MonthWeek is the month-relative week number: days 1-7 are week 1,
	// 8-14 week 2, and so on. Deliberately distinct from ISOWeek; the two
	// drive different views and are never interchanged.
	MonthWeek int `json:"month_week"`
}

// RecordSet is an in-memory batch of sale records. All analytics operate on
// record sets and never mutate them.
type RecordSet []SaleRecord

// TotalRevenue sums revenue across the set.
func (rs RecordSet) TotalRevenue() decimal.Decimal {
	total := decimal.Zero
	for _, r := range rs {
		total = total.Add(r.Revenue)
	}
	return total
}

// TotalQuantity sums quantity across the set.
func (rs RecordSet) TotalQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, r := range rs {
		total = total.Add(r.Quantity)
	}
	return total
}

// DateRange returns the earliest and latest sale dates in the set. ok is
// false when no record carries a date.
func (rs RecordSet) DateRange() (min, max time.Time, ok bool) {
	for _, r := range rs {
		if r.Timestamp == nil {
			continue
		}
		t := *r.Timestamp
		if !ok {
			min, max, ok = t, t, true
			continue
		}
		if t.Before(min) {
			min = t
		}
		if t.After(max) {
			max = t
		}
	}
	return min, max, ok
}

// SpanDays is the inclusive day count between the earliest and latest sale
// dates, or 0 when the set has no dated records.
func (rs RecordSet) SpanDays() int {
	min, max, ok := rs.DateRange()
	if !ok {
		return 0
	}
	return int(max.Sub(min).Hours()/24) + 1
}

// DistinctDates counts the unique sale dates present in the set.
func (rs RecordSet) DistinctDates() int {
	seen := make(map[string]struct{})
	for _, r := range rs {
		if r.Timestamp == nil {
			continue
		}
		seen[r.Timestamp.Format("2006-01-02")] = struct{}{}
	}
	return len(seen)
}

// FilterCategory returns the records belonging to the given category.
func (rs RecordSet) FilterCategory(c Category) RecordSet {
	var out RecordSet
	for _, r := range rs {
		if r.Category == c {
			out = append(out, r)
		}
	}
	return out
}

// FilterProduct returns the records for the given normalized product name.
func (rs RecordSet) FilterProduct(name string) RecordSet {
	var out RecordSet
	for _, r := range rs {
		if r.Product == name {
			out = append(out, r)
		}
	}
	return out
}

// Categories lists the distinct categories in the set, sorted.
func (rs RecordSet) Categories() []Category {
	seen := make(map[Category]struct{})
	var out []Category
	for _, r := range rs {
		if _, dup := seen[r.Category]; dup {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Products lists the distinct normalized product names in the set, sorted.
func (rs RecordSet) Products() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rs {
		if _, dup := seen[r.Product]; dup {
			continue
		}
		seen[r.Product] = struct{}{}
		out = append(out, r.Product)
	}
	sort.Strings(out)
	return out
}

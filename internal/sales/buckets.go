package sales

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// enrichBuckets derives every calendar bucket key from the record's
// timestamp. Called once while the record is built; records without a date
// keep zero-valued buckets and are skipped by the bucketed views.
func enrichBuckets(r *SaleRecord) {
	if r.Timestamp == nil {
		return
	}
	t := *r.Timestamp
	isoYear, isoWeek := t.ISOWeek()
	r.ISOWeek = isoWeek
	r.ISOYear = isoYear
	r.Month = int(t.Month())
	r.Year = t.Year()
	r.WeekYear = fmt.Sprintf("%d-W%02d", isoYear, isoWeek)
	r.MonthWeek = (t.Day()-1)/7 + 1
}

// HourBucket is one hour-of-day slot with summed revenue and quantity.
type HourBucket struct {
	Hour     int             `json:"hour"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`
}

// HourlyPattern groups a record set by hour of day, sorted ascending.
// Hours with no sales are absent rather than zero-filled.
func HourlyPattern(rs RecordSet) []HourBucket {
	sums := make(map[int]*HourBucket)
	for _, r := range rs {
		b, ok := sums[r.Hour]
		if !ok {
			b = &HourBucket{Hour: r.Hour, Revenue: decimal.Zero, Quantity: decimal.Zero}
			sums[r.Hour] = b
		}
		b.Revenue = b.Revenue.Add(r.Revenue)
		b.Quantity = b.Quantity.Add(r.Quantity)
	}
	out := make([]HourBucket, 0, len(sums))
	for _, b := range sums {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hour < out[j].Hour })
	return out
}

// ClipBusinessHours keeps the buckets falling inside [start, end] inclusive.
func ClipBusinessHours(buckets []HourBucket, start, end int) []HourBucket {
	var out []HourBucket
	for _, b := range buckets {
		if b.Hour >= start && b.Hour <= end {
			out = append(out, b)
		}
	}
	return out
}

// PeakHour returns the hour with the highest revenue. ok is false for an
// empty pattern.
func PeakHour(buckets []HourBucket) (int, bool) {
	if len(buckets) == 0 {
		return 0, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Revenue.GreaterThan(best.Revenue) {
			best = b
		}
	}
	return best.Hour, true
}

// DayBucket is one sale date with summed revenue and quantity. Label is
// rendered as "Jun 01 (Saturday)" for the day-by-day breakdown.
type DayBucket struct {
	Date     time.Time       `json:"date"`
	Label    string          `json:"label"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DailyBreakdown groups a record set by sale date, sorted chronologically.
// Records without a date are excluded.
func DailyBreakdown(rs RecordSet) []DayBucket {
	sums := make(map[string]*DayBucket)
	for _, r := range rs {
		if r.Timestamp == nil {
			continue
		}
		key := r.Timestamp.Format("2006-01-02")
		b, ok := sums[key]
		if !ok {
			t := *r.Timestamp
			b = &DayBucket{
				Date:     t,
				Label:    fmt.Sprintf("%s (%s)", t.Format("Jan 02"), t.Weekday()),
				Revenue:  decimal.Zero,
				Quantity: decimal.Zero,
			}
			sums[key] = b
		}
		b.Revenue = b.Revenue.Add(r.Revenue)
		b.Quantity = b.Quantity.Add(r.Quantity)
	}
	out := make([]DayBucket, 0, len(sums))
	for _, b := range sums {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// MonthWeekBucket is one month-relative week (days 1-7, 8-14, ...) with
// summed revenue and quantity. Label covers the actual sale dates that fell
// in the bucket, e.g. "Jun 1-7" or "Jun 29-30", not a fixed 7-day window.
type MonthWeekBucket struct {
	Year     int             `json:"year"`
	Month    int             `json:"month"`
	Week     int             `json:"week"`
	Label    string          `json:"label"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`
}

// MonthWeekBuckets groups a record set by month-relative week for the
// monthly weekly-performance view. This bucketing is intentionally distinct
// from the ISO week carried on each record.
func MonthWeekBuckets(rs RecordSet) []MonthWeekBucket {
	type span struct {
		bucket   *MonthWeekBucket
		min, max int // day of month
	}
	sums := make(map[[3]int]*span)
	for _, r := range rs {
		if r.Timestamp == nil {
			continue
		}
		key := [3]int{r.Year, r.Month, r.MonthWeek}
		s, ok := sums[key]
		if !ok {
			s = &span{
				bucket: &MonthWeekBucket{
					Year:     r.Year,
					Month:    r.Month,
					Week:     r.MonthWeek,
					Revenue:  decimal.Zero,
					Quantity: decimal.Zero,
				},
				min: r.Timestamp.Day(),
				max: r.Timestamp.Day(),
			}
			sums[key] = s
		}
		day := r.Timestamp.Day()
		if day < s.min {
			s.min = day
		}
		if day > s.max {
			s.max = day
		}
		s.bucket.Revenue = s.bucket.Revenue.Add(r.Revenue)
		s.bucket.Quantity = s.bucket.Quantity.Add(r.Quantity)
	}
	out := make([]MonthWeekBucket, 0, len(sums))
	for _, s := range sums {
		month := time.Month(s.bucket.Month).String()[:3]
		s.bucket.Label = fmt.Sprintf("%s %d-%d", month, s.min, s.max)
		out = append(out, *s.bucket)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Month != b.Month {
			return a.Month < b.Month
		}
		return a.Week < b.Week
	})
	return out
}

// AverageDailyRevenue is the mean of the per-date revenue sums, zero when
// the set has no dated records.
func AverageDailyRevenue(rs RecordSet) decimal.Decimal {
	days := DailyBreakdown(rs)
	if len(days) == 0 {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, d := range days {
		total = total.Add(d.Revenue)
	}
	return total.Div(decimal.NewFromInt(int64(len(days))))
}

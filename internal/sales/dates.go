package sales

import (
	"regexp"
	"time"
)

var filenameDatePattern = regexp.MustCompile(`\d{8}`)

// DateFromFilename derives a calendar date from a filename containing an
// 8-digit YYYYMMDD run, e.g. "sales_20240601.xlsx". The second return is
// false when no 8-digit run exists or the digits do not form a valid date
// ("99999999"); absence of a date is not an error.
func DateFromFilename(name string) (time.Time, bool) {
	match := filenameDatePattern.FindString(name)
	if match == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("20060102", match)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

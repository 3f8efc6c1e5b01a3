package sales

import (
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawTable is one parsed source table: the rows of a single POS export file
// plus the filename it came from. Cell values are untyped strings; the
// builder owns all coercion.
type RawTable struct {
	SourceName string
	Columns    []string
	Rows       [][]string
}

// columnIndices maps the POS export columns the builder needs. -1 means the
// column is absent from this table.
type columnIndices struct {
	description int
	netAmount   int
	quantity    int
	hourID      int
	saleDate    int
}

// findColumns resolves the header positions for one table. Header matching
// is case-insensitive and tolerates BOM and surrounding whitespace.
func findColumns(header []string) columnIndices {
	cols := columnIndices{
		description: -1,
		netAmount:   -1,
		quantity:    -1,
		hourID:      -1,
		saleDate:    -1,
	}
	for i, raw := range header {
		name := strings.TrimPrefix(strings.TrimSpace(raw), "\ufeff")
		switch strings.ToLower(name) {
		case "description":
			cols.description = i
		case "extendednetamount", "extended_net_amount":
			cols.netAmount = i
		case "quantity":
			cols.quantity = i
		case "hour_id", "hourid":
			cols.hourID = i
		case "saledate", "sale_date":
			cols.saleDate = i
		}
	}
	return cols
}

// usable reports whether the table carries the required columns.
func (c columnIndices) usable() bool {
	return c.description != -1 && c.netAmount != -1 && c.quantity != -1
}

// saleDateLayouts are the structured date formats accepted from the
// Saledate column, tried in order.
var saleDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"01/02/2006",
	"1/2/06",
	"20060102",
}

// BuildRecords maps raw tables into a canonical record set.
//
// Per table, the sale date prefers the structured Saledate column over the
// filename-derived date. Rows without a product label are dropped silently,
// as are rows whose label classifies as Ignore. Revenue, quantity and hour
// coerce to zero when non-numeric; negative revenue (refunds) passes
// through unchanged. Tables missing required columns are skipped with a
// warning. Returns ErrNoData when nothing usable remains.
func BuildRecords(tables []RawTable, logger *slog.Logger) (RecordSet, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var records RecordSet
	usableTables := 0
	for _, table := range tables {
		cols := findColumns(table.Columns)
		if !cols.usable() {
			logger.Warn("skipping table with missing required columns",
				slog.String("source", table.SourceName),
				slog.Any("header", table.Columns))
			continue
		}
		usableTables++

		fileDate, hasFileDate := DateFromFilename(table.SourceName)
		dropped := 0
		for _, row := range table.Rows {
			r, ok := buildRecord(row, cols, fileDate, hasFileDate)
			if !ok {
				dropped++
				continue
			}
			records = append(records, r)
		}

		logger.Debug("built records from table",
			slog.String("source", table.SourceName),
			slog.Int("rows", len(table.Rows)),
			slog.Int("dropped", dropped))
	}

	if usableTables == 0 || len(records) == 0 {
		return nil, ErrNoData
	}
	return records, nil
}

// buildRecord maps one raw row. ok is false when the row must be dropped
// (no product label, or the label classifies as Ignore).
func buildRecord(row []string, cols columnIndices, fileDate time.Time, hasFileDate bool) (SaleRecord, bool) {
	label := cell(row, cols.description)
	if strings.TrimSpace(label) == "" {
		return SaleRecord{}, false
	}

	name := NormalizeName(label)
	category := Categorize(name)
	if category == CategoryIgnore {
		return SaleRecord{}, false
	}

	r := SaleRecord{
		ProductRaw: label,
		Product:    name,
		Category:   category,
		Revenue:    coerceDecimal(cell(row, cols.netAmount)),
		Quantity:   coerceDecimal(cell(row, cols.quantity)),
		Hour:       coerceHour(cell(row, cols.hourID)),
	}

	if t, ok := parseSaleDate(cell(row, cols.saleDate)); ok {
		r.Timestamp = &t
	} else if hasFileDate {
		t := fileDate
		r.Timestamp = &t
	}
	enrichBuckets(&r)
	return r, true
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// coerceDecimal parses a numeric cell, tolerating thousands separators.
// Non-numeric values coerce to zero; the sign is preserved.
func coerceDecimal(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// coerceHour parses a raw hour code, defaulting to 0 when non-numeric.
// Exports sometimes carry the code as a float ("9.0").
func coerceHour(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}

// parseSaleDate parses the structured Saledate column.
func parseSaleDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range saleDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			// Normalize to midnight; the hour bucket comes from Hour_ID.
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

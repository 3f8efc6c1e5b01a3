package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakesales/internal/config"
	"bakesales/internal/ingest"
	"bakesales/internal/sales"
)

// stubLoader serves a fixed set of sources regardless of range.
type stubLoader struct {
	sources []ingest.Source
	err     error
	gotFrom time.Time
	gotTo   time.Time
}

func (s *stubLoader) FetchRange(_ context.Context, start, end time.Time) ([]ingest.Source, error) {
	s.gotFrom, s.gotTo = start, end
	return s.sources, s.err
}

func csvSource(name string, rows ...string) ingest.Source {
	data := "Description,ExtendedNetAmount,Quantity,Hour_ID\n"
	for _, r := range rows {
		data += r + "\n"
	}
	return ingest.Source{Name: name, Data: []byte(data)}
}

func testConfig() config.AnalyticsConfig {
	return config.AnalyticsConfig{
		FirstSaleDate:      "2024-05-29",
		BusinessHoursStart: 8,
		BusinessHoursEnd:   22,
		PieSlices:          6,
	}
}

func newTestService(t *testing.T, loader SourceLoader) *Analytics {
	t.Helper()
	svc, err := NewAnalytics(loader, nil, testConfig())
	require.NoError(t, err)
	return svc
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadRangeClampsToFirstSale(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv", "Croissant,3.00,1,9"),
	}}
	svc := newTestService(t, loader)

	_, err := svc.LoadRange(context.Background(), day(2024, 1, 1), day(2024, 6, 30), Filter{})
	require.NoError(t, err)
	assert.True(t, loader.gotFrom.Equal(day(2024, 5, 29)), "range start must clamp to the first sale date")
}

func TestLoadRangeBeforeFirstSale(t *testing.T) {
	svc := newTestService(t, &stubLoader{})
	_, err := svc.LoadRange(context.Background(), day(2024, 1, 1), day(2024, 2, 1), Filter{})
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestLoadRangeInvalidRange(t *testing.T) {
	svc := newTestService(t, &stubLoader{})
	_, err := svc.LoadRange(context.Background(), day(2024, 6, 30), day(2024, 6, 1), Filter{})
	assert.Error(t, err)
}

func TestLoadRangeAppliesFilters(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv",
			"Croissant,3.00,1,9",
			"Sourdough,8.00,1,10",
			"Danish,4.00,1,9"),
	}}
	svc := newTestService(t, loader)

	records, err := svc.LoadRange(context.Background(), day(2024, 6, 1), day(2024, 6, 1),
		Filter{Category: string(sales.CategoryPastries)})
	require.NoError(t, err)
	assert.Len(t, records, 2)

	records, err = svc.LoadRange(context.Background(), day(2024, 6, 1), day(2024, 6, 1),
		Filter{Product: "Croissant"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Croissant", records[0].Product)
}

func TestGetSummaryDailyMode(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv",
			"Croissant,3.00,1,9",
			"Croissant,6.00,2,9",
			"Sourdough,8.00,1,14",
			"Sourdough XL,12.50,1,2"), // outside business hours
	}}
	svc := newTestService(t, loader)

	summary, err := svc.GetSummary(context.Background(), day(2024, 6, 1), day(2024, 6, 1), Filter{})
	require.NoError(t, err)

	assert.Equal(t, sales.ModeDaily, summary.Mode)
	assert.Equal(t, 4, summary.RecordCount)
	assert.Equal(t, 1, summary.DaysActive)
	assert.True(t, summary.TotalRevenue.Equal(decimal.RequireFromString("29.50")))

	// Hourly pattern is clipped to business hours; the 2am sale drops out.
	require.Len(t, summary.Hourly, 2)
	assert.Equal(t, 9, summary.Hourly[0].Hour)
	assert.Equal(t, 14, summary.Hourly[1].Hour)
	assert.Empty(t, summary.Daily)
	assert.Empty(t, summary.MonthWeek)

	// Daily mode ranks up to 7 products.
	require.NotEmpty(t, summary.TopProducts)
	assert.Equal(t, "Sourdough XL", summary.TopProducts[0].Key)
}

func TestGetSummaryWeeklyMode(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv", "Croissant,3.00,1,9"),
		csvSource("sales_20240608.csv", "Croissant,4.00,1,9"),
	}}
	svc := newTestService(t, loader)

	summary, err := svc.GetSummary(context.Background(), day(2024, 6, 1), day(2024, 6, 8), Filter{})
	require.NoError(t, err)

	assert.Equal(t, sales.ModeWeekly, summary.Mode)
	assert.Len(t, summary.Daily, 2)
	assert.Empty(t, summary.Hourly)
	assert.Equal(t, 2, summary.DaysActive)
	assert.Equal(t, 8, summary.SpanDays)
}

func TestGetSummaryMonthlyMode(t *testing.T) {
	var sources []ingest.Source
	for d := 1; d <= 30; d++ {
		sources = append(sources, csvSource(
			fmt.Sprintf("sales_202406%02d.csv", d), "Croissant,3.00,1,9"))
	}
	svc := newTestService(t, &stubLoader{sources: sources})

	summary, err := svc.GetSummary(context.Background(), day(2024, 6, 1), day(2024, 6, 30), Filter{})
	require.NoError(t, err)

	assert.Equal(t, sales.ModeMonthly, summary.Mode)
	require.Len(t, summary.MonthWeek, 5)
	assert.Equal(t, "Jun 1-7", summary.MonthWeek[0].Label)
	assert.True(t, summary.AvgDailyRevenue.Equal(decimal.NewFromInt(3)))
}

func TestGetSummaryMixUsesProductsUnderCategoryFilter(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv",
			"Croissant,3.00,1,9",
			"Danish,4.00,1,9",
			"Sourdough,8.00,1,10"),
	}}
	svc := newTestService(t, loader)

	summary, err := svc.GetSummary(context.Background(), day(2024, 6, 1), day(2024, 6, 1),
		Filter{Category: string(sales.CategoryPastries)})
	require.NoError(t, err)

	require.Len(t, summary.Mix.Ranked, 2)
	assert.Equal(t, "Danish", summary.Mix.Ranked[0].Key)
	assert.Equal(t, "Croissant", summary.Mix.Ranked[1].Key)
}

func TestGetSummaryNoData(t *testing.T) {
	svc := newTestService(t, &stubLoader{})
	_, err := svc.GetSummary(context.Background(), day(2024, 6, 1), day(2024, 6, 1), Filter{})
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestCompareSingleDaysUseHourlyPattern(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv", "Croissant,3.00,1,9"),
		csvSource("sales_20240608.csv", "Croissant,4.00,1,11"),
	}}
	svc := newTestService(t, loader)

	// The stub returns both files for either period; pattern selection is
	// what is under test here.
	view, err := svc.Compare(context.Background(),
		day(2024, 6, 1), day(2024, 6, 1),
		day(2024, 6, 8), day(2024, 6, 8), Filter{})
	require.NoError(t, err)

	assert.Equal(t, PatternDaily, view.Pattern)
	assert.NotEmpty(t, view.Period1.Daily)
}

func TestCompareTotalsAndDiff(t *testing.T) {
	p1 := []ingest.Source{csvSource("sales_20240601.csv", "Croissant,10.00,2,9")}
	p2 := []ingest.Source{csvSource("sales_20240608.csv", "Croissant,15.00,3,9")}

	loader := &switchLoader{byStart: map[string][]ingest.Source{
		"2024-06-01": p1,
		"2024-06-08": p2,
	}}
	svc := newTestService(t, loader)

	view, err := svc.Compare(context.Background(),
		day(2024, 6, 1), day(2024, 6, 1),
		day(2024, 6, 8), day(2024, 6, 8), Filter{})
	require.NoError(t, err)

	assert.Equal(t, PatternHourly, view.Pattern)
	assert.True(t, view.Totals.DeltaRevenue.Equal(decimal.NewFromInt(5)))
	assert.InDelta(t, 50.0, view.Totals.DeltaRevenuePct, 0.001)

	require.Len(t, view.Diff, 1)
	assert.Equal(t, "Pastries", view.Diff[0].Key)
	assert.Nil(t, view.Period1.PeakHour, "peak hours only surface for product comparisons")
}

func TestCompareProductFilterReportsPeakHours(t *testing.T) {
	p1 := []ingest.Source{csvSource("sales_20240601.csv",
		"Croissant,10.00,2,9",
		"Croissant,2.00,1,15")}
	p2 := []ingest.Source{csvSource("sales_20240608.csv",
		"Croissant,1.00,1,9",
		"Croissant,20.00,4,16")}

	loader := &switchLoader{byStart: map[string][]ingest.Source{
		"2024-06-01": p1,
		"2024-06-08": p2,
	}}
	svc := newTestService(t, loader)

	view, err := svc.Compare(context.Background(),
		day(2024, 6, 1), day(2024, 6, 1),
		day(2024, 6, 8), day(2024, 6, 8),
		Filter{Product: "Croissant"})
	require.NoError(t, err)

	require.NotNil(t, view.Period1.PeakHour)
	assert.Equal(t, 9, *view.Period1.PeakHour)
	require.NotNil(t, view.Period2.PeakHour)
	assert.Equal(t, 16, *view.Period2.PeakHour)
}

// switchLoader serves different sources per requested start date.
type switchLoader struct {
	byStart map[string][]ingest.Source
}

func (s *switchLoader) FetchRange(_ context.Context, start, _ time.Time) ([]ingest.Source, error) {
	return s.byStart[start.Format("2006-01-02")], nil
}

func TestListProductsAndCategories(t *testing.T) {
	loader := &stubLoader{sources: []ingest.Source{
		csvSource("sales_20240601.csv",
			"Croissant,3.00,1,9",
			"Danish,4.00,1,9",
			"Sourdough,8.00,1,10"),
	}}
	svc := newTestService(t, loader)

	products, err := svc.ListProducts(context.Background(), day(2024, 6, 1), day(2024, 6, 1), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Croissant", "Danish", "Sourdough"}, products)

	products, err = svc.ListProducts(context.Background(), day(2024, 6, 1), day(2024, 6, 1),
		string(sales.CategoryPastries))
	require.NoError(t, err)
	assert.Equal(t, []string{"Croissant", "Danish"}, products)

	categories, err := svc.ListCategories(context.Background(), day(2024, 6, 1), day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, []sales.Category{sales.CategoryPastries, sales.CategoryStandardLoaves}, categories)
}

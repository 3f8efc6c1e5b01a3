package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"bakesales/internal/config"
	"bakesales/internal/drive"
	"bakesales/internal/files"
	"bakesales/internal/ingest"
	"bakesales/internal/sales"
)

// SourceLoader retrieves the raw export files covering a date range. The
// Drive folder and the local data directory both satisfy it.
type SourceLoader interface {
	FetchRange(ctx context.Context, start, end time.Time) ([]ingest.Source, error)
}

// DriveSource loads exports from a Google Drive folder.
type DriveSource struct {
	Client   *drive.Client
	FolderID string
}

// FetchRange implements SourceLoader.
func (d DriveSource) FetchRange(ctx context.Context, start, end time.Time) ([]ingest.Source, error) {
	return d.Client.FetchRange(ctx, d.FolderID, start, end)
}

// LocalSource loads exports from a directory on disk.
type LocalSource struct {
	Discovery *files.Discovery
	Dir       string
}

// FetchRange implements SourceLoader.
func (l LocalSource) FetchRange(ctx context.Context, start, end time.Time) ([]ingest.Source, error) {
	found, err := l.Discovery.FindExportFiles(l.Dir)
	if err != nil {
		return nil, err
	}
	var sources []ingest.Source
	for _, f := range files.FilterByDateRange(found, start, end) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		sources = append(sources, ingest.Source{Name: f.Name, Data: data})
	}
	return sources, nil
}

// Filter narrows a record set to one category and/or one product. The same
// filter must be applied to both periods of a comparison; the analytics
// engines themselves do not enforce that.
type Filter struct {
	Category string
	Product  string
}

func (f Filter) apply(rs sales.RecordSet) sales.RecordSet {
	if f.Category != "" {
		rs = rs.FilterCategory(sales.Category(f.Category))
	}
	if f.Product != "" {
		rs = rs.FilterProduct(f.Product)
	}
	return rs
}

// active reports whether any filter dimension is set.
func (f Filter) active() bool {
	return f.Category != "" || f.Product != ""
}

// Analytics loads record sets for date ranges and derives the dashboard
// views from them. The service is stateless: every call re-derives its view
// from freshly loaded records.
type Analytics struct {
	loader    SourceLoader
	processor *ingest.Processor
	logger    *slog.Logger
	cfg       config.AnalyticsConfig
	firstSale time.Time
}

// NewAnalytics creates the analytics service.
func NewAnalytics(loader SourceLoader, logger *slog.Logger, cfg config.AnalyticsConfig) (*Analytics, error) {
	if logger == nil {
		logger = slog.Default()
	}
	firstSale, err := cfg.FirstSale()
	if err != nil {
		return nil, err
	}
	return &Analytics{
		loader:    loader,
		processor: ingest.NewProcessor(logger),
		logger:    logger.With(slog.String("component", "analytics_service")),
		cfg:       cfg,
		firstSale: firstSale,
	}, nil
}

// LoadRange fetches, parses and builds the records for an inclusive date
// range, then applies the filter. The range is clamped to the first sale
// date; a range ending before it has no data by definition.
func (s *Analytics) LoadRange(ctx context.Context, from, to time.Time, filter Filter) (sales.RecordSet, error) {
	if to.Before(s.firstSale) {
		return nil, sales.ErrNoData
	}
	if from.Before(s.firstSale) {
		from = s.firstSale
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s after %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	sources, err := s.loader.FetchRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch exports: %w", err)
	}

	records, report, err := s.processor.Process(ctx, sources)
	if err != nil {
		return nil, err
	}

	s.logger.Info("range loaded",
		slog.String("batch_id", report.BatchID),
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Int("records", report.RecordCount))

	return filter.apply(records), nil
}

// topSizes is the leaderboard size per analysis mode.
var topSizes = map[sales.AnalysisMode]int{
	sales.ModeDaily:   7,
	sales.ModeWeekly:  5,
	sales.ModeMonthly: 10,
}

// ShareRow is one line of the performance summary table.
type ShareRow struct {
	Key      string          `json:"key"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity decimal.Decimal `json:"quantity"`
	AvgPrice decimal.Decimal `json:"avg_price"`
	SharePct float64         `json:"share_pct"`
}

// Summary is the full single-period analytics view. The breakdown slice
// matching the mode is populated; the others stay empty.
type Summary struct {
	Mode        sales.AnalysisMode `json:"mode"`
	From        string             `json:"from"`
	To          string             `json:"to"`
	SpanDays    int                `json:"span_days"`
	DaysActive  int                `json:"days_active"`
	RecordCount int                `json:"record_count"`

	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	AvgPrice        decimal.Decimal `json:"avg_price"`
	AvgDailyRevenue decimal.Decimal `json:"avg_daily_revenue"`

	Hourly    []sales.HourBucket      `json:"hourly,omitempty"`
	Daily     []sales.DayBucket       `json:"daily,omitempty"`
	MonthWeek []sales.MonthWeekBucket `json:"month_week,omitempty"`

	TopProducts []sales.Aggregate `json:"top_products"`
	Mix         sales.Ranking     `json:"mix"`
	ShareTable  []ShareRow        `json:"share_table"`
}

// Summarize derives the single-period view for a loaded record set.
func (s *Analytics) Summarize(records sales.RecordSet, filter Filter) *Summary {
	mode := records.Mode()
	min, max, hasDates := records.DateRange()

	out := &Summary{
		Mode:          mode,
		SpanDays:      records.SpanDays(),
		DaysActive:    records.DistinctDates(),
		RecordCount:   len(records),
		TotalRevenue:  records.TotalRevenue(),
		TotalQuantity: records.TotalQuantity(),
	}
	if hasDates {
		out.From = min.Format("2006-01-02")
		out.To = max.Format("2006-01-02")
	}

	total := sales.Aggregate{Revenue: out.TotalRevenue, Quantity: out.TotalQuantity}
	out.AvgPrice = total.AvgPrice()
	out.AvgDailyRevenue = sales.AverageDailyRevenue(records)

	switch mode {
	case sales.ModeDaily:
		out.Hourly = sales.ClipBusinessHours(sales.HourlyPattern(records),
			s.cfg.BusinessHoursStart, s.cfg.BusinessHoursEnd)
	case sales.ModeWeekly:
		out.Daily = sales.DailyBreakdown(records)
	default:
		out.MonthWeek = sales.MonthWeekBuckets(records)
	}

	out.TopProducts = sales.TopN(sales.GroupBy(records, sales.GroupProduct), topSizes[mode]).Ranked

	// Mix breaks down by category, or by product when a category filter is
	// already active.
	mixDim := sales.GroupCategory
	if filter.Category != "" {
		mixDim = sales.GroupProduct
	}
	out.Mix = sales.TopN(sales.GroupBy(records, mixDim), s.cfg.PieSlices)

	out.ShareTable = shareTable(sales.GroupBy(records, mixDim))
	return out
}

// shareTable renders aggregates as a revenue-ranked share-of-total table.
func shareTable(aggs []sales.Aggregate) []ShareRow {
	ranked := sales.TopN(aggs, len(aggs)).Ranked
	shares := sales.ShareOfTotal(ranked)
	rows := make([]ShareRow, len(ranked))
	for i, a := range ranked {
		rows[i] = ShareRow{
			Key:      a.Key,
			Revenue:  a.Revenue,
			Quantity: a.Quantity,
			AvgPrice: a.AvgPrice(),
			SharePct: shares[i],
		}
	}
	return rows
}

// GetSummary loads a range and summarizes it.
func (s *Analytics) GetSummary(ctx context.Context, from, to time.Time, filter Filter) (*Summary, error) {
	records, err := s.LoadRange(ctx, from, to, filter)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, sales.ErrNoData
	}
	return s.Summarize(records, filter), nil
}

// PatternType names the side-by-side pattern chart a comparison gets.
type PatternType string

const (
	PatternHourly    PatternType = "hourly"
	PatternDaily     PatternType = "daily"
	PatternMonthWeek PatternType = "month_week"
)

// PeriodView is one period's half of a comparison.
type PeriodView struct {
	From        string                  `json:"from"`
	To          string                  `json:"to"`
	SpanDays    int                     `json:"span_days"`
	RecordCount int                     `json:"record_count"`
	Hourly      []sales.HourBucket      `json:"hourly,omitempty"`
	Daily       []sales.DayBucket       `json:"daily,omitempty"`
	MonthWeek   []sales.MonthWeekBucket `json:"month_week,omitempty"`
	PeakHour    *int                    `json:"peak_hour,omitempty"`
}

// ComparisonView is the full two-period comparison response.
type ComparisonView struct {
	sales.Comparison
	Pattern PatternType `json:"pattern"`
	Period1 PeriodView  `json:"period1"`
	Period2 PeriodView  `json:"period2"`
}

// Compare loads both periods with the same filter and compares them. The
// diff table dimension is category-level normally, product-level once a
// filter narrows the set.
func (s *Analytics) Compare(ctx context.Context, p1From, p1To, p2From, p2To time.Time, filter Filter) (*ComparisonView, error) {
	p1, err := s.LoadRange(ctx, p1From, p1To, filter)
	if err != nil {
		return nil, fmt.Errorf("period 1: %w", err)
	}
	p2, err := s.LoadRange(ctx, p2From, p2To, filter)
	if err != nil {
		return nil, fmt.Errorf("period 2: %w", err)
	}

	dim := sales.GroupCategory
	if filter.active() {
		dim = sales.GroupProduct
	}

	view := &ComparisonView{
		Comparison: sales.ComparePeriods(p1, p2, dim),
		Period1:    s.periodView(p1, p1From, p1To),
		Period2:    s.periodView(p2, p2From, p2To),
	}

	p1Days := p1.SpanDays()
	p2Days := p2.SpanDays()
	switch {
	case p1Days == 1 && p2Days == 1:
		view.Pattern = PatternHourly
		view.Period1.Hourly = sales.ClipBusinessHours(sales.HourlyPattern(p1),
			s.cfg.BusinessHoursStart, s.cfg.BusinessHoursEnd)
		view.Period2.Hourly = sales.ClipBusinessHours(sales.HourlyPattern(p2),
			s.cfg.BusinessHoursStart, s.cfg.BusinessHoursEnd)
	case p1Days <= 14 && p2Days <= 14:
		view.Pattern = PatternDaily
		view.Period1.Daily = sales.DailyBreakdown(p1)
		view.Period2.Daily = sales.DailyBreakdown(p2)
	default:
		view.Pattern = PatternMonthWeek
		view.Period1.MonthWeek = sales.MonthWeekBuckets(p1)
		view.Period2.MonthWeek = sales.MonthWeekBuckets(p2)
	}

	// A single-product comparison additionally reports each period's peak
	// trading hour.
	if filter.Product != "" {
		if hour, ok := sales.PeakHour(sales.HourlyPattern(p1)); ok {
			view.Period1.PeakHour = &hour
		}
		if hour, ok := sales.PeakHour(sales.HourlyPattern(p2)); ok {
			view.Period2.PeakHour = &hour
		}
	}

	return view, nil
}

func (s *Analytics) periodView(rs sales.RecordSet, from, to time.Time) PeriodView {
	return PeriodView{
		From:        from.Format("2006-01-02"),
		To:          to.Format("2006-01-02"),
		SpanDays:    rs.SpanDays(),
		RecordCount: len(rs),
	}
}

// ListProducts loads a range and returns its distinct products, optionally
// narrowed to one category.
func (s *Analytics) ListProducts(ctx context.Context, from, to time.Time, category string) ([]string, error) {
	records, err := s.LoadRange(ctx, from, to, Filter{Category: category})
	if err != nil {
		return nil, err
	}
	return records.Products(), nil
}

// ListCategories loads a range and returns its distinct categories.
func (s *Analytics) ListCategories(ctx context.Context, from, to time.Time) ([]sales.Category, error) {
	records, err := s.LoadRange(ctx, from, to, Filter{})
	if err != nil {
		return nil, err
	}
	return records.Categories(), nil
}

package sales

// AnalysisMode selects which view a loaded range gets: a single day is
// analyzed hourly, up to two weeks day-by-day, anything longer week-by-week.
type AnalysisMode string

const (
	ModeDaily   AnalysisMode = "Daily"
	ModeWeekly  AnalysisMode = "Weekly"
	ModeMonthly AnalysisMode = "Monthly"
)

// ModeForSpan picks the analysis mode for an inclusive day span.
// 1 day → Daily, 2-14 days → Weekly, 15+ → Monthly.
func ModeForSpan(days int) AnalysisMode {
	switch {
	case days <= 1:
		return ModeDaily
	case days <= 14:
		return ModeWeekly
	default:
		return ModeMonthly
	}
}

// Mode picks the analysis mode for a record set from its date span.
func (rs RecordSet) Mode() AnalysisMode {
	return ModeForSpan(rs.SpanDays())
}

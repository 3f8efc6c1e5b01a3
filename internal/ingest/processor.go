package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"bakesales/internal/sales"
)

// Report summarizes one ingestion batch. Warnings carry the per-file parse
// failures that were skipped; they never abort the batch.
type Report struct {
	BatchID     string   `json:"batch_id"`
	SourceCount int      `json:"source_count"`
	ParsedCount int      `json:"parsed_count"`
	RecordCount int      `json:"record_count"`
	Warnings    []string `json:"warnings,omitempty"`
}

// Processor turns batches of retrieved export files into canonical record
// sets. It is safe for concurrent use; each call works on its own state.
type Processor struct {
	logger *slog.Logger
}

// NewProcessor creates a batch processor.
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger.With(slog.String("component", "ingest_processor"))}
}

// Process parses every source, skipping unparseable ones with a warning,
// then builds the combined record set. Returns sales.ErrNoData when no
// source yields usable rows.
func (p *Processor) Process(ctx context.Context, sources []Source) (sales.RecordSet, Report, error) {
	report := Report{
		BatchID:     uuid.NewString(),
		SourceCount: len(sources),
	}
	logger := p.logger.With(slog.String("batch_id", report.BatchID))

	var tables []sales.RawTable
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		table, err := ParseSource(src)
		if err != nil {
			warning := fmt.Sprintf("could not process %s: %v", src.Name, err)
			report.Warnings = append(report.Warnings, warning)
			logger.Warn("skipping unparseable source",
				slog.String("source", src.Name),
				slog.String("error", err.Error()))
			continue
		}
		report.ParsedCount++
		tables = append(tables, table)
	}

	records, err := sales.BuildRecords(tables, logger)
	if err != nil {
		return nil, report, err
	}
	report.RecordCount = len(records)

	logger.Info("batch processed",
		slog.Int("sources", report.SourceCount),
		slog.Int("parsed", report.ParsedCount),
		slog.Int("records", report.RecordCount),
		slog.Int("warnings", len(report.Warnings)))

	return records, report, nil
}

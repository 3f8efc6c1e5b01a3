package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"bakesales/internal/sales"
)

// CSVWriter exports analytics tables as CSV. BOM prepends a UTF-8 byte
// order mark so Excel opens the files cleanly.
type CSVWriter struct {
	BOM bool
}

// NewCSVWriter creates a CSV writer with Excel-friendly defaults.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{BOM: true}
}

// WriteAggregates writes a grouped summary table: key, revenue, quantity
// and average price per group.
func (w *CSVWriter) WriteAggregates(out io.Writer, keyHeader string, aggs []sales.Aggregate) error {
	cw, err := w.begin(out)
	if err != nil {
		return err
	}
	defer cw.Flush()

	if err := cw.Write([]string{keyHeader, "Revenue", "Quantity", "AvgPrice"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, a := range aggs {
		record := []string{
			a.Key,
			a.Revenue.StringFixed(2),
			a.Quantity.String(),
			a.AvgPrice().StringFixed(2),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteComparison writes the period diff table sorted as produced by the
// comparison engine.
func (w *CSVWriter) WriteComparison(out io.Writer, keyHeader, period1Label, period2Label string, rows []sales.DiffRow) error {
	cw, err := w.begin(out)
	if err != nil {
		return err
	}
	defer cw.Flush()

	header := []string{keyHeader, period1Label, period2Label, "Change $", "Change %"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Key,
			row.Period1.StringFixed(2),
			row.Period2.StringFixed(2),
			row.ChangeAbs.StringFixed(2),
			fmt.Sprintf("%+.1f%%", row.ChangePct),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAggregatesFile writes the aggregate table to a file, creating parent
// directories as needed.
func (w *CSVWriter) WriteAggregatesFile(path, keyHeader string, aggs []sales.Aggregate) error {
	file, err := w.createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return w.WriteAggregates(file, keyHeader, aggs)
}

// WriteComparisonFile writes the diff table to a file, creating parent
// directories as needed.
func (w *CSVWriter) WriteComparisonFile(path, keyHeader, period1Label, period2Label string, rows []sales.DiffRow) error {
	file, err := w.createFile(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return w.WriteComparison(file, keyHeader, period1Label, period2Label, rows)
}

func (w *CSVWriter) createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

func (w *CSVWriter) begin(out io.Writer) (*csv.Writer, error) {
	if w.BOM {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return nil, fmt.Errorf("failed to write BOM: %w", err)
		}
	}
	return csv.NewWriter(out), nil
}

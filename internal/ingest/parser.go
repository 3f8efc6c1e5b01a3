package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"bakesales/internal/sales"
)

// Source is one retrieved export file: its name (which may carry the
// YYYYMMDD date) and raw bytes, wherever they came from.
type Source struct {
	Name string
	Data []byte
}

// ParseSource turns a retrieved export file into a raw table. The format is
// chosen by extension: .csv is read as CSV, everything else goes through
// excelize. A file that cannot be parsed returns an error; callers skip it
// and continue with the rest of the batch.
func ParseSource(src Source) (sales.RawTable, error) {
	if strings.EqualFold(filepath.Ext(src.Name), ".csv") {
		return parseCSV(src)
	}
	return parseExcel(src)
}

// ParseFile reads and parses an export file from disk.
func ParseFile(path string) (sales.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sales.RawTable{}, fmt.Errorf("failed to read file: %w", err)
	}
	return ParseSource(Source{Name: filepath.Base(path), Data: data})
}

// parseExcel reads the first sheet of an xlsx/xls export. The first
// non-empty row is the header; everything after it is data.
func parseExcel(src Source) (sales.RawTable, error) {
	f, err := excelize.OpenReader(bytes.NewReader(src.Data))
	if err != nil {
		return sales.RawTable{}, fmt.Errorf("failed to open workbook %s: %w", src.Name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return sales.RawTable{}, fmt.Errorf("workbook %s has no sheets", src.Name)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return sales.RawTable{}, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}

	header, data := splitHeader(rows)
	if header == nil {
		return sales.RawTable{}, fmt.Errorf("workbook %s has no header row", src.Name)
	}

	return sales.RawTable{
		SourceName: src.Name,
		Columns:    header,
		Rows:       data,
	}, nil
}

// parseCSV reads a CSV export, tolerating a UTF-8 BOM and ragged rows.
func parseCSV(src Source) (sales.RawTable, error) {
	data := src.Data
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return sales.RawTable{}, fmt.Errorf("failed to read CSV %s: %w", src.Name, err)
	}

	header, body := splitHeader(rows)
	if header == nil {
		return sales.RawTable{}, fmt.Errorf("CSV %s has no header row", src.Name)
	}

	return sales.RawTable{
		SourceName: src.Name,
		Columns:    header,
		Rows:       body,
	}, nil
}

// splitHeader finds the first non-empty row and returns it with the
// remaining rows.
func splitHeader(rows [][]string) ([]string, [][]string) {
	for i, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return row, rows[i+1:]
			}
		}
	}
	return nil, nil
}

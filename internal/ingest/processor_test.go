package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakesales/internal/sales"
)

func TestProcessorProcess(t *testing.T) {
	sources := []Source{
		xlsxSource(t, "sales_20240601.xlsx", [][]interface{}{
			{"Description", "ExtendedNetAmount", "Quantity", "Hour_ID"},
			{"TMB Sourdough XL", 12.50, 2, 9},
			{"Croissant", 3.00, 1, 10},
		}),
		{Name: "sales_20240602.csv", Data: []byte("Description,ExtendedNetAmount,Quantity,Hour_ID\nBrioche Bun,4.00,2,11\n")},
	}

	p := NewProcessor(nil)
	records, report, err := p.Process(context.Background(), sources)
	require.NoError(t, err)

	assert.NotEmpty(t, report.BatchID)
	assert.Equal(t, 2, report.SourceCount)
	assert.Equal(t, 2, report.ParsedCount)
	assert.Equal(t, 3, report.RecordCount)
	assert.Empty(t, report.Warnings)

	require.Len(t, records, 3)
	assert.Equal(t, sales.CategoryXLLoaves, records[0].Category)
	assert.Equal(t, sales.CategoryBunsAndRolls, records[2].Category)
	require.NotNil(t, records[2].Timestamp)
	assert.Equal(t, "2024-06-02", records[2].Timestamp.Format("2006-01-02"))
}

func TestProcessorSkipsUnparseableSources(t *testing.T) {
	sources := []Source{
		{Name: "broken.xlsx", Data: []byte("garbage")},
		{Name: "sales_20240601.csv", Data: []byte("Description,ExtendedNetAmount,Quantity\nCroissant,3.00,1\n")},
	}

	p := NewProcessor(nil)
	records, report, err := p.Process(context.Background(), sources)
	require.NoError(t, err)

	assert.Equal(t, 1, report.ParsedCount)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "broken.xlsx")
	assert.Len(t, records, 1)
}

func TestProcessorNoData(t *testing.T) {
	p := NewProcessor(nil)

	_, _, err := p.Process(context.Background(), nil)
	assert.ErrorIs(t, err, sales.ErrNoData)

	_, _, err = p.Process(context.Background(), []Source{
		{Name: "broken.xlsx", Data: []byte("garbage")},
	})
	assert.ErrorIs(t, err, sales.ErrNoData)
}

func TestProcessorCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewProcessor(nil)
	_, _, err := p.Process(ctx, []Source{{Name: "x.csv", Data: []byte("Description\n")}})
	assert.ErrorIs(t, err, context.Canceled)
}
